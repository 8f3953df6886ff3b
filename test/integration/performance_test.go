package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/iwvelando/coop-lending/internal/config"
	"github.com/iwvelando/coop-lending/internal/quote"
	"github.com/iwvelando/coop-lending/internal/reprocess"
	"github.com/iwvelando/coop-lending/pkg/ledger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TestMain runs the integration tests.
func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

func newQuoter(t *testing.T) (*quote.Quoter, *config.Configuration) {
	t.Helper()
	conf, err := config.LoadConfiguration(testConfigPath)
	if err != nil {
		t.Fatalf("LoadConfiguration failed: %v", err)
	}
	schemes, err := conf.ToSchemes()
	if err != nil {
		t.Fatalf("ToSchemes failed: %v", err)
	}
	holidays, err := conf.HolidayCalendar()
	if err != nil {
		t.Fatalf("HolidayCalendar failed: %v", err)
	}
	return quote.NewQuoter(zap.NewNop(), schemes, holidays, conf.Branch.Settings()), conf
}

// buildJobs quotes n copies of every configured loan and deducts a growing
// amount from each loan's account so every job has a different balance.
func buildJobs(t *testing.T, quoter *quote.Quoter, conf *config.Configuration, n int) []reprocess.Job {
	t.Helper()
	var jobs []reprocess.Job
	for i := 0; i < n; i++ {
		for _, l := range conf.Loans {
			loan, err := l.ToLoanTransaction()
			if err != nil {
				t.Fatalf("ToLoanTransaction failed: %v", err)
			}
			start, err := l.StartTime(time.Now())
			if err != nil {
				t.Fatalf("StartTime failed: %v", err)
			}
			if _, err := loan.AttachAccounts([]string{fmt.Sprintf("savings-%d", i)}, nil); err != nil {
				t.Fatalf("AttachAccounts failed: %v", err)
			}
			if _, err := quoter.Quote(loan, quote.Input{
				Name:         l.Name,
				MemberTypeID: l.MemberTypeID,
				Rate:         decimal.NewFromFloat(l.InterestRate),
				Charges:      l.Charges,
				Start:        start,
			}); err != nil {
				t.Fatalf("Quote failed: %v", err)
			}
			acct, err := ledger.ApplyAdjustment(loan.Accounts[0], decimal.NewFromInt(int64(5000+i*10)), ledger.Add)
			if err != nil {
				t.Fatalf("ApplyAdjustment failed: %v", err)
			}
			loan.Accounts[0] = acct
			jobs = append(jobs, reprocess.Job{Loan: loan})
		}
	}
	return jobs
}

// TestPerformance reprocesses a batch of loans on the worker pool.
func TestPerformance(t *testing.T) {
	quoter, conf := newQuoter(t)
	jobs := buildJobs(t, quoter, conf, 250)

	start := time.Now()
	results, err := reprocess.New(zap.NewNop(), quoter, reprocess.Options{PoolSize: 8}).
		Run(context.Background(), jobs)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	t.Logf("Reprocessed %d loans in %v", len(results), elapsed)
	if elapsed > 10*time.Second {
		t.Errorf("Reprocessing time %v exceeds 10 second threshold", elapsed)
	}
	if len(results) != len(jobs) {
		t.Fatalf("Expected %d results, got %d", len(jobs), len(results))
	}
	for i, res := range results {
		if res.Err != nil || res.Skipped {
			t.Errorf("Job %d failed: %v (skipped %v)", i, res.Err, res.Skipped)
		}
	}
}

// TestDataConsistency checks that the pool size does not change the
// reprocessed schedules.
func TestDataConsistency(t *testing.T) {
	quoter, conf := newQuoter(t)

	var runs [][]reprocess.Result
	for _, size := range []int{1, 4, 16} {
		jobs := buildJobs(t, quoter, conf, 20)
		results, err := reprocess.New(zap.NewNop(), quoter, reprocess.Options{PoolSize: size}).
			Run(context.Background(), jobs)
		if err != nil {
			t.Fatalf("Run with pool size %d failed: %v", size, err)
		}
		runs = append(runs, results)
	}

	for r := 1; r < len(runs); r++ {
		for i := range runs[0] {
			a, b := runs[0][i].Schedule, runs[r][i].Schedule
			if !a.TotalPrincipal.Equal(b.TotalPrincipal) || !a.TotalInterest.Equal(b.TotalInterest) ||
				!a.NetProceeds.Equal(b.NetProceeds) {
				t.Errorf("Run %d job %d differs: %s/%s/%s vs %s/%s/%s", r, i,
					a.TotalPrincipal, a.TotalInterest, a.NetProceeds,
					b.TotalPrincipal, b.TotalInterest, b.NetProceeds)
			}
		}
	}
}
