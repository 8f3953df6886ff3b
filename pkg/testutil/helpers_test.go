package testutil

import (
	"fmt"
	"testing"

	"github.com/iwvelando/coop-lending/internal/quote"
	"github.com/iwvelando/coop-lending/pkg/loans"
	"github.com/iwvelando/coop-lending/pkg/models"
	"github.com/shopspring/decimal"
)

func quoteWithInterest(name string, interest int64) quote.Quote {
	return quote.Quote{Name: name, Schedule: loans.Schedule{TotalInterest: decimal.NewFromInt(interest)}}
}

func TestFindQuote(t *testing.T) {
	results := []quote.Quote{
		quoteWithInterest("Salary loan", 1000),
		quoteWithInterest("Emergency loan", 2000),
		quoteWithInterest("Salary loan renewal", 3000),
	}

	tests := []struct {
		name             string
		searchName       string
		expectFound      bool
		expectedInterest int64
	}{
		{"Find salary loan", "Salary loan", true, 1000},
		{"Find emergency loan", "Emergency loan", true, 2000},
		{"Find loan with longer name", "Salary loan renewal", true, 3000},
		{"Search for non-existent loan", "Housing loan", false, 0},
		{"Empty search name", "", false, 0},
		{"Case sensitive search", "salary loan", false, 0},
		{"Partial name match", "Salary", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FindQuote(results, tt.searchName)

			if !tt.expectFound {
				if result != nil {
					t.Errorf("FindQuote() expected nil for loan '%s' but got '%s'", tt.searchName, result.Name)
				}
				return
			}
			if result == nil {
				t.Fatalf("FindQuote() expected to find loan '%s' but got nil", tt.searchName)
			}
			if result.Name != tt.searchName {
				t.Errorf("FindQuote() returned loan '%s', expected '%s'", result.Name, tt.searchName)
			}
			if !result.Schedule.TotalInterest.Equal(decimal.NewFromInt(tt.expectedInterest)) {
				t.Errorf("FindQuote() returned interest %s, expected %d", result.Schedule.TotalInterest, tt.expectedInterest)
			}
		})
	}
}

func TestFindQuoteNilResults(t *testing.T) {
	if result := FindQuote(nil, "Any loan"); result != nil {
		t.Errorf("FindQuote() with nil results should return nil, got %v", result)
	}
}

func TestFindQuoteReturnsFirstOfDuplicates(t *testing.T) {
	results := []quote.Quote{
		quoteWithInterest("Duplicate", 1000),
		quoteWithInterest("Duplicate", 2000),
	}

	found := FindQuote(results, "Duplicate")
	if found == nil {
		t.Fatalf("FindQuote() returned nil")
	}
	if &results[0] != found {
		t.Errorf("FindQuote() should return pointer to first matching element")
	}
}

func TestEntryTotal(t *testing.T) {
	var entries []models.Entry
	for i, amount := range []int64{1500, 500} {
		entries = append(entries, models.Entry{Kind: models.EntryCharge, Name: fmt.Sprintf("charge %d", i), Amount: decimal.NewFromInt(amount)})
	}
	entries = append(entries,
		models.Entry{Kind: models.EntryInterestTax, Amount: decimal.NewFromInt(4800)},
		models.Entry{Kind: models.EntryCurrent, Name: "current"},
	)

	tests := []struct {
		kind     models.EntryKind
		expected int64
	}{
		{models.EntryCharge, 2000},
		{models.EntryInterestTax, 4800},
		{models.EntryCurrent, 0},
		{models.EntryAutoDeduction, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := EntryTotal(entries, tt.kind); !got.Equal(decimal.NewFromInt(tt.expected)) {
				t.Errorf("EntryTotal(%s) = %s, expected %d", tt.kind, got, tt.expected)
			}
		})
	}
}
