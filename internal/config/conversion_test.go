package config

import (
	"errors"
	"testing"
	"time"

	"github.com/iwvelando/coop-lending/pkg/charges"
	"github.com/iwvelando/coop-lending/pkg/datetime"
	"github.com/iwvelando/coop-lending/pkg/loans"
	"github.com/iwvelando/coop-lending/pkg/loantype"
	"github.com/iwvelando/coop-lending/pkg/models"
	"github.com/iwvelando/coop-lending/pkg/payment"
	"github.com/shopspring/decimal"
)

func float(v float64) *float64 {
	return &v
}

func TestToSchemes(t *testing.T) {
	config, err := LoadConfiguration(testConfigPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	schemes, err := config.ToSchemes()
	if err != nil {
		t.Fatalf("ToSchemes() error = %v", err)
	}
	if len(schemes) != 3 {
		t.Fatalf("ToSchemes() returned %d schemes", len(schemes))
	}
	if schemes[0].ID.String() != "6f1c2a52-2f1e-4c7f-9d0e-3b1a5d8c0a11" {
		t.Errorf("configured id not kept: %s", schemes[0].ID)
	}
	if schemes[1].ID == schemes[2].ID {
		t.Errorf("generated ids collide")
	}

	res, err := charges.Resolve(schemes, charges.Request{
		MemberTypeID: "regular",
		CurrencyID:   "PHP",
		Mode:         payment.Monthly,
		TermIndex:    12,
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.SchemeID != schemes[1].ID || !res.Rate.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("Resolve() = %+v, expected the regular scheme at 1.5%%", res)
	}

	_, err = charges.Resolve(schemes, charges.Request{MemberTypeID: "associate", CurrencyID: "PHP", Mode: payment.Weekly, TermIndex: 4})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
}

func TestToSchemeFailures(t *testing.T) {
	valid := func() Scheme {
		return Scheme{
			Name:       "fee",
			Type:       "by_term",
			CurrencyID: "PHP",
			Header:     []float64{1, 2, 3},
			ByTerm:     []RateByTerm{{Mode: "monthly", Rates: []*float64{float(1), nil, float(2)}}},
		}
	}

	if s, err := valid().ToScheme(); err != nil {
		t.Fatalf("ToScheme() error = %v", err)
	} else if s.MemberTypeID != charges.AllMemberTypes {
		t.Errorf("empty member type = %q, expected %q", s.MemberTypeID, charges.AllMemberTypes)
	}

	tests := []struct {
		name   string
		mutate func(s *Scheme)
	}{
		{"Unknown type", func(s *Scheme) { s.Type = "by_age" }},
		{"Bad id", func(s *Scheme) { s.ID = "not-a-uuid" }},
		{"Rate above 100", func(s *Scheme) { s.ByTerm[0].Rates[0] = float(101) }},
		{"More rates than header", func(s *Scheme) { s.ByTerm[0].Rates = append(s.ByTerm[0].Rates, float(1)) }},
		{"Unknown mode", func(s *Scheme) { s.ByTerm[0].Mode = "hourly" }},
		{"Header too long", func(s *Scheme) { s.Header = make([]float64, 23) }},
		{"Missing currency", func(s *Scheme) { s.CurrencyID = "" }},
		{"Ranges on a by-term scheme", func(s *Scheme) { s.Ranges = []RangeRate{{MinimumAmount: 1}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			if _, err := s.ToScheme(); err == nil {
				t.Errorf("ToScheme() expected error but got none")
			}
		})
	}
}

func TestModeParams(t *testing.T) {
	tests := []struct {
		name      string
		loan      Loan
		check     func(p payment.Params) bool
		wantError bool
	}{
		{"Weekday", Loan{Weekday: "Fri"}, func(p payment.Params) bool { return p.Weekday != nil && *p.Weekday == time.Friday }, false},
		{"Paydays", Loan{Paydays: []int{15, 30}}, func(p payment.Params) bool { return p.Paydays == [2]int{15, 30} }, false},
		{"Fixed days", Loan{FixedDays: 10}, func(p payment.Params) bool { return p.FixedDays == 10 }, false},
		{"Bad weekday", Loan{Weekday: "someday"}, nil, true},
		{"Three paydays", Loan{Paydays: []int{5, 15, 25}}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.loan.ModeParams()
			if tt.wantError {
				if err == nil {
					t.Errorf("ModeParams() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("ModeParams() error = %v", err)
			}
			if !tt.check(p) {
				t.Errorf("ModeParams() = %+v", p)
			}
		})
	}
}

func TestToLoanTransaction(t *testing.T) {
	loan := Loan{
		Name:            "Renewal",
		MemberProfileID: "member-9",
		CurrencyID:      "PHP",
		LoanType:        "renewal without deduction",
		Principal:       25000.5,
		Terms:           6,
		ModeOfPayment:   "semi-monthly",
		Paydays:         []int{15, 30},
		ExcludeSaturday: true,
		ComputationType: "diminishing",
		AddOn:           true,
		IsInvestment:    true,
		CollectorPlace:  "field",
	}

	lt, err := loan.ToLoanTransaction()
	if err != nil {
		t.Fatalf("ToLoanTransaction() error = %v", err)
	}
	terms := lt.Terms()
	if !terms.Applied.Equal(decimal.RequireFromString("25000.5")) || terms.Terms != 6 || terms.Mode != payment.SemiMonthly {
		t.Errorf("terms = %+v", terms)
	}
	if terms.ComputationType != loans.Diminishing || !terms.IsAddOn || !terms.Exclusions.Saturday {
		t.Errorf("terms = %+v", terms)
	}
	if !terms.IsInvestment || terms.CollectorPlace != models.CollectorField {
		t.Errorf("terms = %+v, expected an investment collected in the field", terms)
	}
	if lt.LoanType() != loantype.RenewalWithoutDeduction || lt.MemberProfileID != "member-9" {
		t.Errorf("loan = %s/%s", lt.LoanType(), lt.MemberProfileID)
	}

	defaults, err := Loan{Name: "d", ModeOfPayment: "monthly"}.ToLoanTransaction()
	if err != nil {
		t.Fatalf("ToLoanTransaction() error = %v", err)
	}
	if defaults.Terms().CollectorPlace != models.CollectorOffice {
		t.Errorf("default collector place = %s, expected office", defaults.Terms().CollectorPlace)
	}
	if defaults.LoanType() != loantype.Standard || defaults.Terms().ComputationType != loans.Straight {
		t.Errorf("defaults = %s/%s", defaults.LoanType(), defaults.Terms().ComputationType)
	}

	for _, bad := range []Loan{
		{Name: "mode", ModeOfPayment: "hourly"},
		{Name: "type", ModeOfPayment: "monthly", LoanType: "balloon"},
		{Name: "computation", ModeOfPayment: "monthly", ComputationType: "compound"},
		{Name: "collector", ModeOfPayment: "monthly", CollectorPlace: "branch"},
	} {
		if _, err := bad.ToLoanTransaction(); err == nil {
			t.Errorf("ToLoanTransaction(%s) expected error but got none", bad.Name)
		}
	}
}

func TestStartTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 4, 5, 0, time.UTC)
	got, err := Loan{}.StartTime(now)
	if err != nil || !got.Equal(datetime.MustParseTime(DateLayout, "2025-06-01")) {
		t.Errorf("StartTime() = %v, %v", got, err)
	}
	got, err = Loan{StartDate: "2025-01-15"}.StartTime(now)
	if err != nil || got.Format(DateLayout) != "2025-01-15" {
		t.Errorf("StartTime() = %v, %v", got, err)
	}
	if _, err := (Loan{StartDate: "15/01/2025"}).StartTime(now); err == nil {
		t.Errorf("StartTime() expected error but got none")
	}
}

func TestHolidayCalendar(t *testing.T) {
	conf := Configuration{Holidays: []string{"2025-12-25"}}
	cal, err := conf.HolidayCalendar()
	if err != nil {
		t.Fatalf("HolidayCalendar() error = %v", err)
	}
	if !cal.IsHoliday(datetime.MustParseTime(DateLayout, "2025-12-25")) {
		t.Errorf("2025-12-25 should be a holiday")
	}

	conf.Holidays = append(conf.Holidays, "christmas")
	var parseErr *time.ParseError
	if _, err := conf.HolidayCalendar(); !errors.As(err, &parseErr) {
		t.Errorf("HolidayCalendar() error = %v, expected a parse error", err)
	}
}

func TestBranchSettings(t *testing.T) {
	s := Branch{TaxInterest: 12.5, DiminishingStraightPeriods: 4, LoanAppliedEqualToBalance: true}.Settings()
	if !s.TaxInterest.Equal(decimal.RequireFromString("12.5")) || s.DiminishingStraightPeriods != 4 || !s.LoanAppliedEqualToBalance {
		t.Errorf("Settings() = %+v", s)
	}
}
