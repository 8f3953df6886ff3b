// Package loans provides the loan computation engine: amortization schedules
// and the aggregate charges of a loan.
package loans

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/coop-lending/pkg/loanerr"
	"github.com/iwvelando/coop-lending/pkg/mathutil"
	"github.com/iwvelando/coop-lending/pkg/payment"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ComputationType selects how interest accrues over the periods.
type ComputationType string

const (
	// Straight charges interest on the full principal every period.
	Straight ComputationType = "straight"
	// Diminishing charges interest on the declining balance.
	Diminishing ComputationType = "diminishing"
	// DiminishingStraight is Straight for a leading number of periods and
	// Diminishing afterwards.
	DiminishingStraight ComputationType = "diminishing_straight"
)

// ParseComputationType converts a name such as "Diminishing Straight" into a
// ComputationType.
func ParseComputationType(s string) (ComputationType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	switch ComputationType(key) {
	case Straight, Diminishing, DiminishingStraight:
		return ComputationType(key), nil
	}
	return "", fmt.Errorf("unknown computation type %q", s)
}

// ChargeRate is a charge deducted from the proceeds: a percentage of the
// principal, or a fixed Amount when Amount is non-zero.
type ChargeRate struct {
	Name   string
	Rate   decimal.Decimal
	Amount decimal.Decimal
}

// Request holds every input of a computation.
type Request struct {
	Principal       decimal.Decimal
	Terms           int
	Mode            payment.Mode
	Params          payment.Params
	ComputationType ComputationType
	// Rate is the interest rate per period, in percent.
	Rate decimal.Decimal
	// StraightPeriods is the number of leading Straight periods of a
	// DiminishingStraight loan. It is a branch setting supplied by the caller.
	StraightPeriods int
	Exclusions      payment.Exclusions
	Holidays        payment.Calendar
	// AddOn computes interest once on the full principal and spreads it
	// evenly over the periods, regardless of ComputationType.
	AddOn     bool
	StartDate time.Time
	Charges   []ChargeRate
	// TaxInterest is the percentage of interest withheld as tax.
	TaxInterest decimal.Decimal
}

// Entry is one period of an amortization schedule.
type Entry struct {
	Period    int
	DueDate   time.Time
	Principal decimal.Decimal
	Interest  decimal.Decimal
	Payment   decimal.Decimal
	Balance   decimal.Decimal
}

// Charge is a computed deduction.
type Charge struct {
	Name   string
	Amount decimal.Decimal
}

// Schedule is the derived result of a computation. It is produced fresh on
// every run and is never stored.
type Schedule struct {
	Entries        []Entry
	TotalPrincipal decimal.Decimal
	TotalInterest  decimal.Decimal
	InterestTax    decimal.Decimal
	Charges        []Charge
	TotalCharges   decimal.Decimal
	NetProceeds    decimal.Decimal
}

// Len is the number of periods.
func (s Schedule) Len() int {
	return len(s.Entries)
}

// FinalBalance is the balance after the last period.
func (s Schedule) FinalBalance() decimal.Decimal {
	if len(s.Entries) == 0 {
		return decimal.Zero
	}
	return s.Entries[len(s.Entries)-1].Balance
}

// CalculateInterestPayment calculates the interest of one period on base at
// rate percent, rounded to currency.
func CalculateInterestPayment(base, rate decimal.Decimal) decimal.Decimal {
	return mathutil.Round(mathutil.ApplyPercentage(base, rate))
}

// CalculateAddOnInterest calculates the up-front interest of an add-on loan:
// rate percent of the full principal for every period.
func CalculateAddOnInterest(principal, rate decimal.Decimal, terms int) decimal.Decimal {
	return mathutil.Round(mathutil.ApplyPercentage(principal, rate).Mul(decimal.NewFromInt(int64(terms))))
}

// Validate checks the request without computing anything.
func (r Request) Validate() error {
	const op = "loans.Validate"
	if r.Terms < 1 {
		return loanerr.New(loanerr.InvalidTerms, op, "terms must be at least 1, got %d", r.Terms)
	}
	if !r.Principal.IsPositive() {
		return loanerr.New(loanerr.InvalidPrincipal, op, "principal must be greater than zero, got %s", r.Principal)
	}
	if !mathutil.ValidPercentage(r.Rate) {
		return loanerr.New(loanerr.InvalidRate, op, "interest rate %s outside [0, 100]", r.Rate)
	}
	if !mathutil.ValidPercentage(r.TaxInterest) {
		return loanerr.New(loanerr.InvalidRate, op, "interest tax %s outside [0, 100]", r.TaxInterest)
	}
	for _, c := range r.Charges {
		if !mathutil.ValidPercentage(c.Rate) {
			return loanerr.New(loanerr.InvalidRate, op, "charge %q rate %s outside [0, 100]", c.Name, c.Rate)
		}
		if c.Amount.IsNegative() {
			return loanerr.New(loanerr.InvalidAmount, op, "charge %q amount %s is negative", c.Name, c.Amount)
		}
	}
	if r.AddOn {
		return nil
	}
	switch r.ComputationType {
	case Straight, Diminishing:
	case DiminishingStraight:
		if r.StraightPeriods < 1 || r.StraightPeriods > r.Terms {
			return loanerr.New(loanerr.InvalidCrossover, op,
				"straight periods must be in 1..%d, got %d", r.Terms, r.StraightPeriods)
		}
	default:
		return loanerr.New(loanerr.MissingModeParameter, op, "unknown computation type %q", r.ComputationType)
	}
	return nil
}

// Compute produces the amortization schedule of a loan. The schedule always
// has exactly Terms entries and its final balance is exactly zero; rounding
// residue is absorbed by the last period's principal.
func Compute(req Request) (Schedule, error) {
	if err := req.Validate(); err != nil {
		return Schedule{}, err
	}
	dates, err := DueDates(req.StartDate, req.Terms, req.Mode, req.Params, req.Exclusions, req.Holidays)
	if err != nil {
		return Schedule{}, err
	}

	principals := mathutil.SplitEven(req.Principal, req.Terms)
	var addOnInterest []decimal.Decimal
	if req.AddOn {
		addOnInterest = mathutil.SplitEven(CalculateAddOnInterest(req.Principal, req.Rate, req.Terms), req.Terms)
	}

	schedule := Schedule{Entries: make([]Entry, req.Terms)}
	balance := req.Principal
	for i := 0; i < req.Terms; i++ {
		var interest decimal.Decimal
		switch {
		case req.AddOn:
			interest = addOnInterest[i]
		case req.ComputationType == Straight,
			req.ComputationType == DiminishingStraight && i < req.StraightPeriods:
			interest = CalculateInterestPayment(req.Principal, req.Rate)
		default:
			interest = CalculateInterestPayment(balance, req.Rate)
		}

		principal := principals[i]
		if i == req.Terms-1 {
			principal = balance
		}
		balance = balance.Sub(principal)

		schedule.Entries[i] = Entry{
			Period:    i + 1,
			DueDate:   dates[i],
			Principal: principal,
			Interest:  interest,
			Payment:   principal.Add(interest),
			Balance:   balance,
		}
		schedule.TotalPrincipal = schedule.TotalPrincipal.Add(principal)
		schedule.TotalInterest = schedule.TotalInterest.Add(interest)
	}

	schedule.InterestTax = mathutil.Round(mathutil.ApplyPercentage(schedule.TotalInterest, req.TaxInterest))
	for _, c := range req.Charges {
		amount := c.Amount
		if amount.IsZero() {
			amount = mathutil.Round(mathutil.ApplyPercentage(req.Principal, c.Rate))
		}
		schedule.Charges = append(schedule.Charges, Charge{Name: c.Name, Amount: amount})
		schedule.TotalCharges = schedule.TotalCharges.Add(amount)
	}
	schedule.NetProceeds = req.Principal.Sub(schedule.TotalCharges)

	return schedule, nil
}

// Engine runs computations and logs them.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a new engine instance.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Compute runs Compute and logs the outcome.
func (e *Engine) Compute(name string, req Request) (Schedule, error) {
	schedule, err := Compute(req)
	if err != nil {
		e.logger.Debug(fmt.Sprintf("computation for loan %s rejected", name),
			zap.String("op", "loans.Engine.Compute"),
			zap.String("kind", string(loanerr.KindOf(err))),
			zap.Error(err),
		)
		return schedule, err
	}
	e.logger.Debug(fmt.Sprintf("computed %d periods for loan %s", schedule.Len(), name),
		zap.String("op", "loans.Engine.Compute"),
		zap.String("mode", string(req.Mode)),
		zap.String("computation", string(req.ComputationType)),
		zap.Bool("add_on", req.AddOn),
		zap.String("total_interest", schedule.TotalInterest.StringFixed(2)),
	)
	return schedule, nil
}
