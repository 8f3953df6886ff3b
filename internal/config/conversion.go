package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/coop-lending/pkg/charges"
	"github.com/iwvelando/coop-lending/pkg/datetime"
	"github.com/iwvelando/coop-lending/pkg/loans"
	"github.com/iwvelando/coop-lending/pkg/loantype"
	"github.com/iwvelando/coop-lending/pkg/models"
	"github.com/iwvelando/coop-lending/pkg/payment"
	"github.com/iwvelando/coop-lending/pkg/ratetable"
	"github.com/shopspring/decimal"
)

// parseID parses a configured id, generating one when it is empty.
func parseID(s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(s)
}

// ToScheme converts a configured scheme into a charges.Scheme and validates
// it.
func (s Scheme) ToScheme() (charges.Scheme, error) {
	id, err := parseID(s.ID)
	if err != nil {
		return charges.Scheme{}, fmt.Errorf("scheme %s: invalid id: %w", s.Name, err)
	}
	typ, err := charges.ParseSchemeType(s.Type)
	if err != nil {
		return charges.Scheme{}, fmt.Errorf("scheme %s: %w", s.Name, err)
	}

	header := make([]decimal.Decimal, len(s.Header))
	for i, h := range s.Header {
		header[i] = decimal.NewFromFloat(h)
	}
	h, err := ratetable.HeaderFrom(header)
	if err != nil {
		return charges.Scheme{}, fmt.Errorf("scheme %s: %w", s.Name, err)
	}

	scheme := charges.Scheme{
		ID:           id,
		Name:         s.Name,
		Type:         typ,
		CurrencyID:   s.CurrencyID,
		MemberTypeID: s.MemberTypeID,
		Header:       h,
	}
	if scheme.MemberTypeID == "" {
		scheme.MemberTypeID = charges.AllMemberTypes
	}

	for _, row := range s.ByTerm {
		rowID, err := parseID(row.ID)
		if err != nil {
			return charges.Scheme{}, fmt.Errorf("scheme %s: invalid row id: %w", s.Name, err)
		}
		mode, err := payment.ParseMode(row.Mode)
		if err != nil {
			return charges.Scheme{}, fmt.Errorf("scheme %s: %w", s.Name, err)
		}
		values := make([]*decimal.Decimal, len(row.Rates))
		for i, r := range row.Rates {
			if r != nil {
				d := decimal.NewFromFloat(*r)
				values[i] = &d
			}
		}
		rates, err := ratetable.RatesFrom(len(s.Header), values)
		if err != nil {
			return charges.Scheme{}, fmt.Errorf("scheme %s mode %s: %w", s.Name, mode, err)
		}
		scheme.ByTerm = append(scheme.ByTerm, charges.RateByTerm{ID: rowID, Mode: mode, Rates: rates})
	}

	for _, row := range s.Ranges {
		rowID, err := parseID(row.ID)
		if err != nil {
			return charges.Scheme{}, fmt.Errorf("scheme %s: invalid row id: %w", s.Name, err)
		}
		scheme.Ranges = append(scheme.Ranges, charges.RangeRate{
			ID:            rowID,
			MinimumAmount: decimal.NewFromFloat(row.MinimumAmount),
			Rate:          decimal.NewFromFloat(row.Rate),
			Amount:        decimal.NewFromFloat(row.Amount),
		})
	}

	if err := scheme.Validate(); err != nil {
		return charges.Scheme{}, fmt.Errorf("scheme %s: %w", s.Name, err)
	}
	return scheme, nil
}

// ToSchemes converts every configured scheme.
func (conf *Configuration) ToSchemes() ([]charges.Scheme, error) {
	schemes := make([]charges.Scheme, 0, len(conf.Schemes))
	for _, s := range conf.Schemes {
		scheme, err := s.ToScheme()
		if err != nil {
			return nil, err
		}
		schemes = append(schemes, scheme)
	}
	return schemes, nil
}

// HolidayCalendar parses the configured holidays.
func (conf *Configuration) HolidayCalendar() (payment.HolidaySet, error) {
	dates := make([]time.Time, 0, len(conf.Holidays))
	for _, h := range conf.Holidays {
		d, err := datetime.ParseDate(h)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday %q: %w", h, err)
		}
		dates = append(dates, d)
	}
	return payment.NewHolidaySet(dates...), nil
}

// ModeParams converts the loan's mode sub-parameters.
func (loan Loan) ModeParams() (payment.Params, error) {
	params := payment.Params{
		FixedDays:     loan.FixedDays,
		ExactDay:      loan.ExactDay,
		LumpsumMonths: loan.LumpsumMonths,
	}
	if loan.Weekday != "" {
		wd, err := datetime.ParseWeekday(loan.Weekday)
		if err != nil {
			return params, fmt.Errorf("loan %s: %w", loan.Name, err)
		}
		params.Weekday = payment.WeekdayOf(wd)
	}
	switch len(loan.Paydays) {
	case 0:
	case 2:
		params.Paydays = [2]int{loan.Paydays[0], loan.Paydays[1]}
	default:
		return params, fmt.Errorf("loan %s: expected two paydays, got %d", loan.Name, len(loan.Paydays))
	}
	return params, nil
}

// ToLoanTerms converts the loan into the core fields of a loan transaction.
func (loan Loan) ToLoanTerms() (models.LoanTerms, error) {
	return loan.LoanTerms(decimal.NewFromFloat(loan.Principal))
}

// LoanTerms is ToLoanTerms with the applied amount given exactly; Principal
// is ignored.
func (loan Loan) LoanTerms(applied decimal.Decimal) (models.LoanTerms, error) {
	mode, err := payment.ParseMode(loan.ModeOfPayment)
	if err != nil {
		return models.LoanTerms{}, fmt.Errorf("loan %s: %w", loan.Name, err)
	}
	params, err := loan.ModeParams()
	if err != nil {
		return models.LoanTerms{}, err
	}
	ct := loans.Straight
	if loan.ComputationType != "" {
		if ct, err = loans.ParseComputationType(loan.ComputationType); err != nil {
			return models.LoanTerms{}, fmt.Errorf("loan %s: %w", loan.Name, err)
		}
	}
	place, err := models.ParseCollectorPlace(loan.CollectorPlace)
	if err != nil {
		return models.LoanTerms{}, fmt.Errorf("loan %s: %w", loan.Name, err)
	}
	return models.LoanTerms{
		Applied:    applied,
		Terms:      loan.Terms,
		Mode:       mode,
		ModeParams: params,
		Exclusions: payment.Exclusions{
			Sunday:   loan.ExcludeSunday,
			Saturday: loan.ExcludeSaturday,
			Holiday:  loan.ExcludeHoliday,
		},
		ComputationType: ct,
		IsAddOn:         loan.AddOn,
		IsInvestment:    loan.IsInvestment,
		CollectorPlace:  place,
	}, nil
}

// ToLoanTransaction builds a draft loan transaction from the configured loan.
func (loan Loan) ToLoanTransaction() (*models.LoanTransaction, error) {
	return loan.LoanTransaction(decimal.NewFromFloat(loan.Principal))
}

// LoanTransaction is ToLoanTransaction with the applied amount given exactly.
func (loan Loan) LoanTransaction(applied decimal.Decimal) (*models.LoanTransaction, error) {
	terms, err := loan.LoanTerms(applied)
	if err != nil {
		return nil, err
	}
	lt := loantype.Standard
	if loan.LoanType != "" {
		if lt, err = loantype.Parse(loan.LoanType); err != nil {
			return nil, fmt.Errorf("loan %s: %w", loan.Name, err)
		}
	}
	return models.NewLoanTransaction(loan.MemberProfileID, loan.CurrencyID, terms, lt)
}

// StartTime parses the loan's start date, defaulting to now.
func (loan Loan) StartTime(now time.Time) (time.Time, error) {
	if loan.StartDate == "" {
		return datetime.DateOnly(now), nil
	}
	start, err := datetime.ParseDate(loan.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("loan %s: invalid start date: %w", loan.Name, err)
	}
	return start, nil
}

// Settings converts the branch settings into engine inputs.
func (b Branch) Settings() BranchSettings {
	return BranchSettings{
		LoanAppliedEqualToBalance:  b.LoanAppliedEqualToBalance,
		TaxInterest:                decimal.NewFromFloat(b.TaxInterest),
		DiminishingStraightPeriods: b.DiminishingStraightPeriods,
	}
}

// BranchSettings are the branch settings in engine types.
type BranchSettings struct {
	LoanAppliedEqualToBalance  bool
	TaxInterest                decimal.Decimal
	DiminishingStraightPeriods int
}
