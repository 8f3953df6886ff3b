// Package reprocess recomputes loans whose accounts were adjusted.
package reprocess

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/iwvelando/coop-lending/internal/quote"
	"github.com/iwvelando/coop-lending/pkg/constants"
	"github.com/iwvelando/coop-lending/pkg/lifecycle"
	"github.com/iwvelando/coop-lending/pkg/loans"
	"github.com/iwvelando/coop-lending/pkg/models"
	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Policy decides what a run does when a loan fails.
type Policy int

const (
	// CollectAndContinue processes every loan and reports all failures.
	CollectAndContinue Policy = iota
	// StopOnFirst skips the loans not yet started once one fails.
	StopOnFirst
)

// ParsePolicy converts "collect_and_continue" or "stop_on_first" into a
// Policy. An empty name selects CollectAndContinue.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "collect_and_continue":
		return CollectAndContinue, nil
	case "stop_on_first":
		return StopOnFirst, nil
	}
	return CollectAndContinue, fmt.Errorf("unknown reprocess policy %q", name)
}

// Options configures a Reprocessor. A PoolSize that is not positive uses
// constants.DefaultReprocessWorkers.
type Options struct {
	PoolSize int
	Policy   Policy
}

// Job is one loan to recompute. A zero Input is rebuilt from the loan's
// recorded pricing.
type Job struct {
	Loan  *models.LoanTransaction
	Input quote.Input
}

// Result is the outcome of one job. Skipped is set when the job never ran
// because an earlier one failed under StopOnFirst.
type Result struct {
	LoanID   uuid.UUID
	Schedule loans.Schedule
	Err      error
	Skipped  bool
}

// Reprocessor recomputes loans on a worker pool.
type Reprocessor struct {
	logger *zap.Logger
	quoter *quote.Quoter
	opts   Options
}

// New creates a Reprocessor.
func New(logger *zap.Logger, quoter *quote.Quoter, opts Options) *Reprocessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = constants.DefaultReprocessWorkers
	}
	return &Reprocessor{logger: logger, quoter: quoter, opts: opts}
}

// Pending reports whether any account of loan awaits recomputation.
func Pending(loan *models.LoanTransaction) bool {
	for _, a := range loan.Accounts {
		if a.RecomputePending {
			return true
		}
	}
	return false
}

// Balance is the total amount held by the loan's accounts.
func Balance(loan *models.LoanTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, a := range loan.Accounts {
		total = total.Add(a.Amount)
	}
	return total
}

// Run recomputes every job. Each job owns its loan; jobs must not share one.
// Results are returned in job order. The error combines every failure, or
// holds the first one under StopOnFirst.
func (r *Reprocessor) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	pool, err := ants.NewPool(r.opts.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]Result, len(jobs))
	var (
		wg    sync.WaitGroup
		once  sync.Once
		first error
	)
	for i := range jobs {
		i := i
		results[i].LoanID = jobs[i].Loan.ID
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				results[i].Skipped = true
				return
			}
			results[i].Schedule, results[i].Err = r.process(jobs[i])
			if results[i].Err != nil && r.opts.Policy == StopOnFirst {
				once.Do(func() {
					first = results[i].Err
					cancel()
				})
			}
		})
		if submitErr != nil {
			wg.Done()
			results[i].Err = fmt.Errorf("failed to submit loan %s: %w", jobs[i].Loan.ID, submitErr)
		}
	}
	wg.Wait()

	if r.opts.Policy == StopOnFirst && first != nil {
		return results, first
	}
	var errs error
	for _, res := range results {
		errs = multierr.Append(errs, res.Err)
	}
	return results, errs
}

// process recomputes one loan. With LoanAppliedEqualToBalance the principal
// follows the accounts' balance; draft loans record it as their applied
// amount. The loan is left untouched unless the computation succeeds.
func (r *Reprocessor) process(job Job) (loans.Schedule, error) {
	loan := job.Loan
	in := job.Input
	if in.Start.IsZero() {
		if !loan.Pricing.Quoted() {
			return loans.Schedule{}, fmt.Errorf("loan %s has never been quoted", loan.ID)
		}
		in = quote.InputFor(loan)
	}

	syncApplied := false
	if r.quoter.Branch().LoanAppliedEqualToBalance && len(loan.Accounts) > 0 {
		if balance := Balance(loan); balance.IsPositive() {
			in.Principal = balance
			syncApplied = loan.Status() == lifecycle.Draft && !loan.Terms().Applied.Equal(balance)
		}
	}

	q, err := r.quoter.Quote(loan, in)
	if err != nil {
		r.logger.Warn(fmt.Sprintf("failed to reprocess loan %s", loan.ID),
			zap.String("op", "reprocess.process"),
			zap.Error(err),
		)
		return loans.Schedule{}, err
	}
	if syncApplied {
		terms := loan.Terms()
		terms.Applied = in.Principal
		if err := loan.UpdateTerms(terms); err != nil {
			return loans.Schedule{}, err
		}
	}
	for i := range loan.Accounts {
		loan.Accounts[i].RecomputePending = false
	}
	r.logger.Debug(fmt.Sprintf("reprocessed loan %s", loan.ID),
		zap.String("op", "reprocess.process"),
		zap.String("principal", in.Principal.StringFixed(2)),
	)
	return q.Schedule, nil
}
