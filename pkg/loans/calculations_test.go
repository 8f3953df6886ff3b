package loans

import (
	"errors"
	"testing"

	"github.com/iwvelando/coop-lending/pkg/datetime"
	"github.com/iwvelando/coop-lending/pkg/loanerr"
	"github.com/iwvelando/coop-lending/pkg/mathutil"
	"github.com/iwvelando/coop-lending/pkg/payment"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func baseRequest() Request {
	return Request{
		Principal:       d("100000"),
		Terms:           12,
		Mode:            payment.Monthly,
		Params:          payment.Params{ExactDay: true},
		ComputationType: Straight,
		Rate:            d("2"),
		StartDate:       datetime.MustParseTime(datetime.DateLayout, "2025-01-15"),
	}
}

// Scenario A: 100000 over 12 monthly Straight periods.
func TestComputeStraightMonthly(t *testing.T) {
	schedule, err := Compute(baseRequest())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if schedule.Len() != 12 {
		t.Fatalf("Compute() returned %d periods, expected 12", schedule.Len())
	}
	for _, entry := range schedule.Entries {
		if !entry.Interest.Equal(d("2000")) {
			t.Errorf("period %d interest = %s, expected 2000 (2%% of the full principal)", entry.Period, entry.Interest)
		}
	}
	if !schedule.FinalBalance().IsZero() {
		t.Errorf("final balance = %s, expected exactly 0", schedule.FinalBalance())
	}
	if !schedule.Entries[0].Principal.Equal(d("8333.33")) {
		t.Errorf("first principal = %s, expected 8333.33", schedule.Entries[0].Principal)
	}
	if !schedule.Entries[11].Principal.Equal(d("8333.37")) {
		t.Errorf("last principal = %s, expected 8333.37 (absorbs rounding)", schedule.Entries[11].Principal)
	}
	if !schedule.TotalInterest.Equal(d("24000")) {
		t.Errorf("total interest = %s, expected 24000", schedule.TotalInterest)
	}
	if !schedule.TotalPrincipal.Equal(d("100000")) {
		t.Errorf("total principal = %s, expected 100000", schedule.TotalPrincipal)
	}
	if got := schedule.Entries[0].DueDate.Format(datetime.DateLayout); got != "2025-02-15" {
		t.Errorf("first due date = %s, expected 2025-02-15", got)
	}
}

func TestComputeInterestMethods(t *testing.T) {
	tests := []struct {
		name      string
		req       func(r *Request)
		interests []string
	}{
		{
			name:      "Straight",
			req:       func(r *Request) { r.ComputationType = Straight },
			interests: []string{"100", "100", "100", "100"},
		},
		{
			name:      "Diminishing",
			req:       func(r *Request) { r.ComputationType = Diminishing },
			interests: []string{"100", "75", "50", "25"},
		},
		{
			name: "Diminishing straight with two straight periods",
			req: func(r *Request) {
				r.ComputationType = DiminishingStraight
				r.StraightPeriods = 2
			},
			interests: []string{"100", "100", "50", "25"},
		},
		{
			name: "Diminishing straight fully straight",
			req: func(r *Request) {
				r.ComputationType = DiminishingStraight
				r.StraightPeriods = 4
			},
			interests: []string{"100", "100", "100", "100"},
		},
		{
			name: "Add-on overrides computation type",
			req: func(r *Request) {
				r.ComputationType = Diminishing
				r.AddOn = true
			},
			interests: []string{"100", "100", "100", "100"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := Request{
				Principal: d("1000"),
				Terms:     4,
				Mode:      payment.Monthly,
				Rate:      d("10"),
				StartDate: datetime.MustParseTime(datetime.DateLayout, "2025-01-01"),
			}
			tt.req(&req)

			schedule, err := Compute(req)
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			for i, expected := range tt.interests {
				if !schedule.Entries[i].Interest.Equal(d(expected)) {
					t.Errorf("period %d interest = %s, expected %s", i+1, schedule.Entries[i].Interest, expected)
				}
				if !schedule.Entries[i].Principal.Equal(d("250")) {
					t.Errorf("period %d principal = %s, expected 250", i+1, schedule.Entries[i].Principal)
				}
			}
		})
	}
}

func TestComputeAddOnRounding(t *testing.T) {
	req := Request{
		Principal: d("1000"),
		Terms:     3,
		Mode:      payment.Monthly,
		Rate:      d("1.111"),
		AddOn:     true,
		StartDate: datetime.MustParseTime(datetime.DateLayout, "2025-01-01"),
	}

	schedule, err := Compute(req)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if !schedule.TotalInterest.Equal(d("33.33")) {
		t.Errorf("total add-on interest = %s, expected 33.33", schedule.TotalInterest)
	}
	if !schedule.Entries[2].Principal.Equal(d("333.34")) {
		t.Errorf("last principal = %s, expected 333.34", schedule.Entries[2].Principal)
	}
}

func TestComputeAggregates(t *testing.T) {
	req := baseRequest()
	req.TaxInterest = d("20")
	req.Charges = []ChargeRate{
		{Name: "service fee", Rate: d("1.5")},
		{Name: "notarial", Amount: d("200")},
	}

	schedule, err := Compute(req)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if !schedule.InterestTax.Equal(d("4800")) {
		t.Errorf("interest tax = %s, expected 4800", schedule.InterestTax)
	}
	if len(schedule.Charges) != 2 || !schedule.Charges[0].Amount.Equal(d("1500")) || !schedule.Charges[1].Amount.Equal(d("200")) {
		t.Errorf("charges = %+v, expected service fee 1500 and notarial 200", schedule.Charges)
	}
	if !schedule.TotalCharges.Equal(d("1700")) {
		t.Errorf("total charges = %s, expected 1700", schedule.TotalCharges)
	}
	if !schedule.NetProceeds.Equal(d("98300")) {
		t.Errorf("net proceeds = %s, expected 98300", schedule.NetProceeds)
	}
}

func TestComputeFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Request)
		wantErr error
	}{
		{"Zero terms", func(r *Request) { r.Terms = 0 }, loanerr.ErrInvalidTerms},
		{"Negative terms", func(r *Request) { r.Terms = -3 }, loanerr.ErrInvalidTerms},
		{"Zero principal", func(r *Request) { r.Principal = decimal.Zero }, loanerr.ErrInvalidPrincipal},
		{"Negative principal", func(r *Request) { r.Principal = d("-5") }, loanerr.ErrInvalidPrincipal},
		{"Weekly without weekday", func(r *Request) { r.Mode = payment.Weekly }, loanerr.ErrMissingModeParameter},
		{"Day without fixed days", func(r *Request) { r.Mode = payment.Day }, loanerr.ErrMissingModeParameter},
		{"Semi-monthly without paydays", func(r *Request) { r.Mode = payment.SemiMonthly }, loanerr.ErrMissingModeParameter},
		{"Holiday exclusion without calendar", func(r *Request) { r.Exclusions.Holiday = true }, loanerr.ErrMissingModeParameter},
		{"Unknown mode", func(r *Request) { r.Mode = "hourly" }, loanerr.ErrMissingModeParameter},
		{"Unknown computation type", func(r *Request) { r.ComputationType = "balloon" }, loanerr.ErrMissingModeParameter},
		{"Crossover missing", func(r *Request) { r.ComputationType = DiminishingStraight }, loanerr.ErrInvalidCrossover},
		{"Crossover beyond terms", func(r *Request) {
			r.ComputationType = DiminishingStraight
			r.StraightPeriods = 13
		}, loanerr.ErrInvalidCrossover},
		{"Rate above 100", func(r *Request) { r.Rate = d("101") }, loanerr.ErrInvalidRate},
		{"Negative charge rate", func(r *Request) { r.Charges = []ChargeRate{{Name: "x", Rate: d("-1")}} }, loanerr.ErrInvalidRate},
		{"Negative charge amount", func(r *Request) { r.Charges = []ChargeRate{{Name: "x", Amount: d("-1")}} }, loanerr.ErrInvalidAmount},
		{"Lumpsum with several terms", func(r *Request) {
			r.Mode = payment.Lumpsum
			r.Params.LumpsumMonths = 6
		}, loanerr.ErrInvalidTerms},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(&req)
			schedule, err := Compute(req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Compute() error = %v, expected %v", err, tt.wantErr)
			}
			if schedule.Len() != 0 {
				t.Errorf("Compute() returned %d periods alongside an error", schedule.Len())
			}
		})
	}
}

// Every valid combination yields exactly Terms non-negative periods ending at zero.
func TestComputeScheduleInvariants(t *testing.T) {
	principals := []string{"0.01", "0.15", "1", "999.99", "100000", "1234567.89"}
	types := []ComputationType{Straight, Diminishing, DiminishingStraight}
	modes := []struct {
		mode   payment.Mode
		params payment.Params
	}{
		{payment.Daily, payment.Params{}},
		{payment.Day, payment.Params{FixedDays: 10}},
		{payment.Weekly, payment.Params{Weekday: payment.WeekdayOf(5)}},
		{payment.SemiMonthly, payment.Params{Paydays: [2]int{15, 30}}},
		{payment.Monthly, payment.Params{ExactDay: true}},
		{payment.Monthly, payment.Params{}},
		{payment.Quarterly, payment.Params{}},
		{payment.SemiAnnual, payment.Params{}},
		{payment.Annually, payment.Params{}},
	}
	start := datetime.MustParseTime(datetime.DateLayout, "2025-01-31")

	for _, p := range principals {
		for terms := 1; terms <= 22; terms++ {
			for _, ct := range types {
				for _, m := range modes {
					for _, addOn := range []bool{false, true} {
						req := Request{
							Principal:       d(p),
							Terms:           terms,
							Mode:            m.mode,
							Params:          m.params,
							ComputationType: ct,
							StraightPeriods: (terms + 1) / 2,
							Rate:            d("3.25"),
							AddOn:           addOn,
							Exclusions:      payment.Exclusions{Sunday: true, Saturday: true},
							StartDate:       start,
						}
						schedule, err := Compute(req)
						if err != nil {
							t.Fatalf("Compute(%s, %d, %s, %s, addOn=%v) error = %v", p, terms, m.mode, ct, addOn, err)
						}
						if schedule.Len() != terms {
							t.Fatalf("Compute(%s, %d, %s, %s) returned %d periods", p, terms, m.mode, ct, schedule.Len())
						}
						if !schedule.FinalBalance().IsZero() {
							t.Fatalf("Compute(%s, %d, %s, %s) final balance = %s", p, terms, m.mode, ct, schedule.FinalBalance())
						}
						if !schedule.TotalPrincipal.Equal(d(p)) {
							t.Fatalf("Compute(%s, %d, %s, %s) principal sums to %s", p, terms, m.mode, ct, schedule.TotalPrincipal)
						}
						for _, e := range schedule.Entries {
							if e.Principal.IsNegative() || e.Balance.IsNegative() || e.Interest.IsNegative() {
								t.Fatalf("Compute(%s, %d, %s, %s) period %d principal=%s interest=%s balance=%s",
									p, terms, m.mode, ct, e.Period, e.Principal, e.Interest, e.Balance)
							}
						}
						for i := 1; i < terms; i++ {
							if !schedule.Entries[i].DueDate.After(schedule.Entries[i-1].DueDate) {
								t.Fatalf("Compute(%s, %d, %s) due dates not increasing at period %d", p, terms, m.mode, i+1)
							}
						}
					}
				}
			}
		}
	}
}

func TestComputeSmallPrincipalNeverOverpays(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		last      string
	}{
		{"Fifteen cents", "0.15", "0.15"},
		{"One unit", "1", "0.16"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			req.Principal = d(tt.principal)
			req.Terms = 22
			req.Mode = payment.Daily
			req.Params = payment.Params{}
			req.ComputationType = Diminishing

			schedule, err := Compute(req)
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			for _, e := range schedule.Entries {
				if e.Principal.IsNegative() || e.Balance.IsNegative() || e.Interest.IsNegative() {
					t.Errorf("period %d principal=%s interest=%s balance=%s, expected all non-negative",
						e.Period, e.Principal, e.Interest, e.Balance)
				}
			}
			if got := schedule.Entries[21].Principal; !got.Equal(d(tt.last)) {
				t.Errorf("last principal = %s, expected %s", got, tt.last)
			}
			if !schedule.FinalBalance().IsZero() {
				t.Errorf("final balance = %s, expected 0", schedule.FinalBalance())
			}
		})
	}
}

func TestComputeLumpsum(t *testing.T) {
	req := baseRequest()
	req.Mode = payment.Lumpsum
	req.Terms = 1
	req.Params = payment.Params{LumpsumMonths: 6}

	schedule, err := Compute(req)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if schedule.Len() != 1 || !schedule.Entries[0].Principal.Equal(d("100000")) {
		t.Fatalf("lumpsum schedule = %+v", schedule.Entries)
	}
	if got := schedule.Entries[0].DueDate.Format(datetime.DateLayout); got != "2025-07-15" {
		t.Errorf("lumpsum due date = %s, expected 2025-07-15", got)
	}
}

func TestComputePrincipalSumsExactly(t *testing.T) {
	req := baseRequest()
	req.Principal = d("100")
	req.Terms = 3
	schedule, err := Compute(req)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	total := mathutil.Sum(schedule.Entries[0].Principal, schedule.Entries[1].Principal, schedule.Entries[2].Principal)
	if !total.Equal(d("100")) {
		t.Errorf("principal components sum to %s, expected 100", total)
	}
}

func TestParseComputationType(t *testing.T) {
	tests := []struct {
		input    string
		expected ComputationType
		wantErr  bool
	}{
		{"Straight", Straight, false},
		{"diminishing", Diminishing, false},
		{"Diminishing Straight", DiminishingStraight, false},
		{"diminishing-straight", DiminishingStraight, false},
		{"balloon", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ct, err := ParseComputationType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseComputationType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if ct != tt.expected {
				t.Errorf("ParseComputationType(%q) = %q, expected %q", tt.input, ct, tt.expected)
			}
		})
	}
}

func TestEngineLogsOutcome(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	engine := NewEngine(zap.New(core))

	if _, err := engine.Compute("ok", baseRequest()); err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	bad := baseRequest()
	bad.Terms = 0
	if _, err := engine.Compute("bad", bad); err == nil {
		t.Fatalf("Compute() expected an error")
	}

	entries := logs.FilterField(zap.String("op", "loans.Engine.Compute")).All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if kind := entries[1].ContextMap()["kind"]; kind != string(loanerr.InvalidTerms) {
		t.Errorf("rejection logged kind %v, expected %s", kind, loanerr.InvalidTerms)
	}

	if NewEngine(nil).logger == nil {
		t.Errorf("NewEngine(nil) should fall back to a no-op logger")
	}
}

func BenchmarkComputeMaxTerms(b *testing.B) {
	req := baseRequest()
	req.Terms = 22
	req.ComputationType = Diminishing
	req.Exclusions = payment.Exclusions{Sunday: true, Saturday: true}
	for i := 0; i < b.N; i++ {
		if _, err := Compute(req); err != nil {
			b.Fatal(err)
		}
	}
}
