package loans

import (
	"errors"
	"testing"
	"time"

	"github.com/iwvelando/coop-lending/pkg/datetime"
	"github.com/iwvelando/coop-lending/pkg/loanerr"
	"github.com/iwvelando/coop-lending/pkg/payment"
)

func day(s string) time.Time {
	return datetime.MustParseTime(datetime.DateLayout, s)
}

func TestDueDates(t *testing.T) {
	tests := []struct {
		name       string
		start      string
		terms      int
		mode       payment.Mode
		params     payment.Params
		exclusions payment.Exclusions
		cal        payment.Calendar
		expected   []string
	}{
		{
			name: "Daily", start: "2025-01-01", terms: 3, mode: payment.Daily,
			expected: []string{"2025-01-02", "2025-01-03", "2025-01-04"},
		},
		{
			name: "Fixed day blocks", start: "2025-01-01", terms: 2, mode: payment.Day,
			params:   payment.Params{FixedDays: 10},
			expected: []string{"2025-01-11", "2025-01-21"},
		},
		{
			name: "Weekly anchored to Friday", start: "2025-01-01", terms: 3, mode: payment.Weekly,
			params:   payment.Params{Weekday: payment.WeekdayOf(time.Friday)},
			expected: []string{"2025-01-03", "2025-01-10", "2025-01-17"},
		},
		{
			name: "Semi-monthly clamps to month end", start: "2025-01-20", terms: 4, mode: payment.SemiMonthly,
			params:   payment.Params{Paydays: [2]int{30, 15}},
			expected: []string{"2025-01-30", "2025-02-15", "2025-02-28", "2025-03-15"},
		},
		{
			name: "Semi-monthly paydays clamped together collapse", start: "2025-01-20", terms: 4, mode: payment.SemiMonthly,
			params:   payment.Params{Paydays: [2]int{30, 31}},
			expected: []string{"2025-01-30", "2025-01-31", "2025-02-28", "2025-03-30"},
		},
		{
			name: "Monthly exact day", start: "2025-01-31", terms: 3, mode: payment.Monthly,
			params:   payment.Params{ExactDay: true},
			expected: []string{"2025-02-28", "2025-03-31", "2025-04-30"},
		},
		{
			name: "Monthly fixed thirty days", start: "2025-01-01", terms: 2, mode: payment.Monthly,
			expected: []string{"2025-01-31", "2025-03-02"},
		},
		{
			name: "Quarterly", start: "2025-01-31", terms: 3, mode: payment.Quarterly,
			expected: []string{"2025-04-30", "2025-07-31", "2025-10-31"},
		},
		{
			name: "Semi-annual", start: "2025-03-15", terms: 2, mode: payment.SemiAnnual,
			expected: []string{"2025-09-15", "2026-03-15"},
		},
		{
			name: "Annually", start: "2024-02-29", terms: 2, mode: payment.Annually,
			expected: []string{"2025-02-28", "2026-02-28"},
		},
		{
			name: "Lumpsum", start: "2025-01-15", terms: 1, mode: payment.Lumpsum,
			params:   payment.Params{LumpsumMonths: 6},
			expected: []string{"2025-07-15"},
		},
		{
			name: "Daily skips excluded sundays", start: "2025-03-01", terms: 3, mode: payment.Daily,
			exclusions: payment.Exclusions{Sunday: true},
			expected:   []string{"2025-03-03", "2025-03-04", "2025-03-05"},
		},
		{
			name: "Saturday, sunday and holiday compose", start: "2025-02-01", terms: 2, mode: payment.Monthly,
			params:     payment.Params{ExactDay: true},
			exclusions: payment.Exclusions{Saturday: true, Sunday: true, Holiday: true},
			cal:        payment.NewHolidaySet(day("2025-03-03")),
			expected:   []string{"2025-03-04", "2025-04-01"},
		},
		{
			name: "Shift does not accumulate", start: "2025-01-01", terms: 3, mode: payment.Monthly,
			params:     payment.Params{ExactDay: true},
			exclusions: payment.Exclusions{Saturday: true},
			expected:   []string{"2025-02-02", "2025-03-02", "2025-04-01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dates, err := DueDates(day(tt.start), tt.terms, tt.mode, tt.params, tt.exclusions, tt.cal)
			if err != nil {
				t.Fatalf("DueDates() error = %v", err)
			}
			if len(dates) != len(tt.expected) {
				t.Fatalf("DueDates() returned %d dates, expected %d", len(dates), len(tt.expected))
			}
			for i, expected := range tt.expected {
				if got := dates[i].Format(datetime.DateLayout); got != expected {
					t.Errorf("due date %d = %s, expected %s", i+1, got, expected)
				}
			}
		})
	}
}

func TestDueDatesMissingParameters(t *testing.T) {
	everyDay := payment.CalendarFunc(func(time.Time) bool { return true })

	tests := []struct {
		name       string
		terms      int
		mode       payment.Mode
		params     payment.Params
		exclusions payment.Exclusions
		cal        payment.Calendar
		wantErr    error
	}{
		{"Weekly without weekday", 2, payment.Weekly, payment.Params{}, payment.Exclusions{}, nil, loanerr.ErrMissingModeParameter},
		{"Day without fixed days", 2, payment.Day, payment.Params{}, payment.Exclusions{}, nil, loanerr.ErrMissingModeParameter},
		{"Same paydays", 2, payment.SemiMonthly, payment.Params{Paydays: [2]int{15, 15}}, payment.Exclusions{}, nil, loanerr.ErrMissingModeParameter},
		{"Payday out of range", 2, payment.SemiMonthly, payment.Params{Paydays: [2]int{0, 15}}, payment.Exclusions{}, nil, loanerr.ErrMissingModeParameter},
		{"Lumpsum without months", 1, payment.Lumpsum, payment.Params{}, payment.Exclusions{}, nil, loanerr.ErrMissingModeParameter},
		{"Holiday without calendar", 2, payment.Monthly, payment.Params{}, payment.Exclusions{Holiday: true}, nil, loanerr.ErrMissingModeParameter},
		{"Calendar without payable day", 1, payment.Monthly, payment.Params{}, payment.Exclusions{Holiday: true}, everyDay, loanerr.ErrMissingModeParameter},
		{"Zero terms", 0, payment.Monthly, payment.Params{}, payment.Exclusions{}, nil, loanerr.ErrInvalidTerms},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DueDates(day("2025-01-01"), tt.terms, tt.mode, tt.params, tt.exclusions, tt.cal)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DueDates() error = %v, expected %v", err, tt.wantErr)
			}
		})
	}
}
