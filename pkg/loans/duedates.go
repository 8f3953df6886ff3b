package loans

import (
	"sort"
	"time"

	"github.com/iwvelando/coop-lending/pkg/constants"
	"github.com/iwvelando/coop-lending/pkg/datetime"
	"github.com/iwvelando/coop-lending/pkg/loanerr"
	"github.com/iwvelando/coop-lending/pkg/payment"
)

// DueDates generates the due date of every period. Dates are derived from the
// unshifted anchor so exclusion shifts never accumulate; a shifted date that
// would land on or before the previous due date moves past it, which makes
// daily loans skip excluded days instead of doubling up.
func DueDates(start time.Time, terms int, mode payment.Mode, params payment.Params,
	exclusions payment.Exclusions, cal payment.Calendar) ([]time.Time, error) {
	const op = "loans.DueDates"

	if terms < 1 {
		return nil, loanerr.New(loanerr.InvalidTerms, op, "terms must be at least 1, got %d", terms)
	}
	if exclusions.Holiday && cal == nil {
		return nil, loanerr.New(loanerr.MissingModeParameter, op, "holiday exclusion requires a holiday calendar")
	}

	start = datetime.DateOnly(start)
	anchors, err := anchorDates(start, terms, mode, params)
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, len(anchors))
	previous := start
	for i, due := range anchors {
		if !due.After(previous) {
			due = previous.AddDate(0, 0, 1)
		}
		shifted := 0
		for exclusions.Excluded(due, cal) {
			if shifted >= constants.MaxExclusionShift {
				return nil, loanerr.New(loanerr.MissingModeParameter, op,
					"no payable day within %d days of %s", constants.MaxExclusionShift, anchors[i].Format(datetime.DateLayout))
			}
			due = due.AddDate(0, 0, 1)
			shifted++
		}
		dates[i] = due
		previous = due
	}
	return dates, nil
}

func anchorDates(start time.Time, terms int, mode payment.Mode, params payment.Params) ([]time.Time, error) {
	const op = "loans.anchorDates"
	anchors := make([]time.Time, 0, terms)
	day := start.Day()

	switch mode {
	case payment.Daily:
		for i := 1; i <= terms; i++ {
			anchors = append(anchors, start.AddDate(0, 0, i))
		}
	case payment.Day:
		if params.FixedDays < 1 {
			return nil, loanerr.New(loanerr.MissingModeParameter, op, "mode %s requires fixed days", mode)
		}
		for i := 1; i <= terms; i++ {
			anchors = append(anchors, start.AddDate(0, 0, i*params.FixedDays))
		}
	case payment.Weekly:
		if params.Weekday == nil {
			return nil, loanerr.New(loanerr.MissingModeParameter, op, "mode %s requires a weekday", mode)
		}
		first := datetime.NextWeekday(start, *params.Weekday)
		for i := 0; i < terms; i++ {
			anchors = append(anchors, first.AddDate(0, 0, i*constants.DaysPerWeek))
		}
	case payment.SemiMonthly:
		paydays, err := semiMonthlyPaydays(params)
		if err != nil {
			return nil, err
		}
		// Paydays that clamp to the same month end collapse into one due date.
		last := start
		for month := 0; len(anchors) < terms; month++ {
			for _, pd := range paydays {
				due := datetime.AddMonthsClamped(start, month, pd)
				if due.After(last) && len(anchors) < terms {
					anchors = append(anchors, due)
					last = due
				}
			}
		}
	case payment.Monthly:
		for i := 1; i <= terms; i++ {
			if params.ExactDay {
				anchors = append(anchors, datetime.AddMonthsClamped(start, i, day))
			} else {
				anchors = append(anchors, start.AddDate(0, 0, i*constants.FixedMonthDays))
			}
		}
	case payment.Quarterly:
		anchors = monthSteps(start, terms, constants.QuarterMonths)
	case payment.SemiAnnual:
		anchors = monthSteps(start, terms, constants.SemiAnnualMonths)
	case payment.Annually:
		anchors = monthSteps(start, terms, constants.AnnualMonths)
	case payment.Lumpsum:
		if terms != 1 {
			return nil, loanerr.New(loanerr.InvalidTerms, op, "lumpsum loans have exactly one period, got %d", terms)
		}
		if params.LumpsumMonths < 1 {
			return nil, loanerr.New(loanerr.MissingModeParameter, op, "mode %s requires the term length in months", mode)
		}
		anchors = append(anchors, datetime.AddMonthsClamped(start, params.LumpsumMonths, day))
	default:
		return nil, loanerr.New(loanerr.MissingModeParameter, op, "unknown mode of payment %q", mode)
	}
	return anchors, nil
}

func monthSteps(start time.Time, terms, months int) []time.Time {
	anchors := make([]time.Time, 0, terms)
	for i := 1; i <= terms; i++ {
		anchors = append(anchors, datetime.AddMonthsClamped(start, i*months, start.Day()))
	}
	return anchors
}

func semiMonthlyPaydays(params payment.Params) ([]int, error) {
	const op = "loans.semiMonthlyPaydays"
	paydays := []int{params.Paydays[0], params.Paydays[1]}
	for _, pd := range paydays {
		if pd < 1 || pd > 31 {
			return nil, loanerr.New(loanerr.MissingModeParameter, op,
				"semi-monthly loans require two paydays in 1..31, got %d and %d", paydays[0], paydays[1])
		}
	}
	if paydays[0] == paydays[1] {
		return nil, loanerr.New(loanerr.MissingModeParameter, op, "semi-monthly paydays must differ, got %d twice", paydays[0])
	}
	sort.Ints(paydays)
	return paydays, nil
}
