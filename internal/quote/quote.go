// Package quote resolves the charges of loans against the configured rate
// schemes and computes their amortization schedules.
package quote

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/coop-lending/internal/config"
	"github.com/iwvelando/coop-lending/pkg/charges"
	"github.com/iwvelando/coop-lending/pkg/loanerr"
	"github.com/iwvelando/coop-lending/pkg/loans"
	"github.com/iwvelando/coop-lending/pkg/models"
	"github.com/iwvelando/coop-lending/pkg/payment"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Quote holds the outcome of quoting one loan.
type Quote struct {
	Name        string
	Loan        *models.LoanTransaction
	Resolutions []charges.Resolution
	Schedule    loans.Schedule
}

// Input carries what a loan transaction does not record itself.
type Input struct {
	Name         string
	MemberTypeID string
	// Rate is the interest rate per period, in percent.
	Rate decimal.Decimal
	// Charges names the schemes charged on the loan.
	Charges []string
	Start   time.Time
	// Principal replaces the loan's applied amount when positive.
	Principal decimal.Decimal
}

// Quoter computes quotes against a fixed set of schemes and branch settings.
// It holds no mutable state and may be shared between goroutines.
type Quoter struct {
	logger   *zap.Logger
	engine   *loans.Engine
	schemes  []charges.Scheme
	holidays payment.Calendar
	branch   config.BranchSettings
}

// NewQuoter creates a Quoter.
func NewQuoter(logger *zap.Logger, schemes []charges.Scheme, holidays payment.Calendar, branch config.BranchSettings) *Quoter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Quoter{
		logger:   logger,
		engine:   loans.NewEngine(logger),
		schemes:  schemes,
		holidays: holidays,
		branch:   branch,
	}
}

// Branch returns the branch settings the quoter applies.
func (q *Quoter) Branch() config.BranchSettings {
	return q.branch
}

// Holidays returns the holiday calendar the quoter applies.
func (q *Quoter) Holidays() payment.Calendar {
	return q.holidays
}

// schemesNamed returns the schemes carrying name, in configuration order.
func (q *Quoter) schemesNamed(name string) []charges.Scheme {
	var out []charges.Scheme
	for _, s := range q.schemes {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// ResolveCharge resolves the charge named name: the scheme with that name
// best matching the request.
func (q *Quoter) ResolveCharge(name string, req charges.Request) (charges.Resolution, error) {
	candidates := q.schemesNamed(name)
	if len(candidates) == 0 {
		return charges.Resolution{}, loanerr.New(loanerr.SchemeNotFound, "quote.ResolveCharge", "no scheme named %q", name)
	}
	res, err := charges.Resolve(candidates, req)
	if err != nil {
		return charges.Resolution{}, fmt.Errorf("charge %s: %w", name, err)
	}
	return res, nil
}

// Resolve resolves every named charge for a loan.
func (q *Quoter) Resolve(loan *models.LoanTransaction, memberTypeID string, names []string) ([]charges.Resolution, error) {
	return q.resolve(loan, memberTypeID, names, loan.Terms().Applied)
}

func (q *Quoter) resolve(loan *models.LoanTransaction, memberTypeID string, names []string, principal decimal.Decimal) ([]charges.Resolution, error) {
	terms := loan.Terms()
	resolutions := make([]charges.Resolution, 0, len(names))
	for _, name := range names {
		res, err := q.ResolveCharge(name, charges.Request{
			MemberTypeID: memberTypeID,
			CurrencyID:   loan.CurrencyID,
			Mode:         terms.Mode,
			TermIndex:    terms.Terms,
			Principal:    principal,
		})
		if err != nil {
			return nil, err
		}
		resolutions = append(resolutions, res)
	}
	return resolutions, nil
}

// InputFor rebuilds the quote input of a loan from its recorded pricing.
func InputFor(loan *models.LoanTransaction) Input {
	return Input{
		Name:         loan.ID.String(),
		MemberTypeID: loan.Pricing.MemberTypeID,
		Rate:         loan.Pricing.InterestRate,
		Charges:      append([]string(nil), loan.Pricing.Charges...),
		Start:        loan.Pricing.StartDate,
	}
}

// Quote resolves the charges of loan and computes its schedule. The computed
// charges are applied to the loan's entries and the input is recorded as
// the loan's pricing.
func (q *Quoter) Quote(loan *models.LoanTransaction, in Input) (Quote, error) {
	principal := loan.Terms().Applied
	if in.Principal.IsPositive() {
		principal = in.Principal
	}
	resolutions, err := q.resolve(loan, in.MemberTypeID, in.Charges, principal)
	if err != nil {
		q.logger.Debug(fmt.Sprintf("failed to resolve charges of loan %s", in.Name),
			zap.String("op", "quote.Quote"),
			zap.Error(err),
		)
		return Quote{}, fmt.Errorf("loan %s: %w", in.Name, err)
	}

	req := loan.Request(in.Start)
	req.Principal = principal
	req.Rate = in.Rate
	req.StraightPeriods = q.branch.DiminishingStraightPeriods
	req.TaxInterest = q.branch.TaxInterest
	req.Holidays = q.holidays
	var schemeID *uuid.UUID
	for _, res := range resolutions {
		if schemeID == nil {
			id := res.SchemeID
			schemeID = &id
		}
		if !res.Charged {
			continue
		}
		req.Charges = append(req.Charges, loans.ChargeRate{Name: res.SchemeName, Rate: res.Rate, Amount: res.Amount})
	}

	schedule, err := q.engine.Compute(in.Name, req)
	if err != nil {
		return Quote{}, fmt.Errorf("loan %s: %w", in.Name, err)
	}
	loan.ApplySchedule(schemeID, schedule)
	loan.Pricing = models.Pricing{
		MemberTypeID: in.MemberTypeID,
		InterestRate: in.Rate,
		Charges:      append([]string(nil), in.Charges...),
		StartDate:    in.Start,
	}

	return Quote{
		Name:        in.Name,
		Loan:        loan,
		Resolutions: resolutions,
		Schedule:    schedule,
	}, nil
}

// GetQuotes quotes every loan in the configuration. It stops at the first
// loan that fails.
func GetQuotes(logger *zap.Logger, conf config.Configuration, now time.Time) ([]Quote, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	schemes, err := conf.ToSchemes()
	if err != nil {
		return nil, err
	}
	holidays, err := conf.HolidayCalendar()
	if err != nil {
		return nil, err
	}
	quoter := NewQuoter(logger, schemes, holidays, conf.Branch.Settings())

	var results []Quote
	for _, l := range conf.Loans {
		loan, err := l.ToLoanTransaction()
		if err != nil {
			return results, err
		}
		start, err := l.StartTime(now)
		if err != nil {
			return results, err
		}
		result, err := quoter.Quote(loan, Input{
			Name:         l.Name,
			MemberTypeID: l.MemberTypeID,
			Rate:         decimal.NewFromFloat(l.InterestRate),
			Charges:      l.Charges,
			Start:        start,
		})
		if err != nil {
			return results, err
		}
		logger.Debug(fmt.Sprintf("quoted loan %s", l.Name),
			zap.String("op", "quote.GetQuotes"),
			zap.Int("periods", result.Schedule.Len()),
		)
		results = append(results, result)
	}
	return results, nil
}
