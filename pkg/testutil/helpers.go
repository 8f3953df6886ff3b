// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/coop-lending/internal/quote"
	"github.com/iwvelando/coop-lending/pkg/models"
	"github.com/shopspring/decimal"
)

// FindQuote finds a quote by loan name in the results slice.
// Returns a pointer to the quote if found, nil otherwise.
func FindQuote(results []quote.Quote, name string) *quote.Quote {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// EntryTotal sums the amounts of the entries of one kind.
func EntryTotal(entries []models.Entry, kind models.EntryKind) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.Kind == kind {
			total = total.Add(e.Amount)
		}
	}
	return total
}
