package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryKind classifies the lines of a loan transaction.
type EntryKind string

const (
	// EntryCharge is a charge computed from the applied scheme.
	EntryCharge EntryKind = "charge"
	// EntryInterestTax is the tax withheld on interest.
	EntryInterestTax EntryKind = "interest_tax"
	// EntryAutoDeduction is carried over from the previous loan.
	EntryAutoDeduction EntryKind = "auto_deduction"
	// EntryCurrent is the "current" balance marker of a renewed loan.
	EntryCurrent EntryKind = "current"
)

// Entry is one computed or carried-over line of a loan transaction.
type Entry struct {
	ID     uuid.UUID       `json:"id"`
	Kind   EntryKind       `json:"kind"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	// LoanID references the previous loan of a current marker.
	LoanID *uuid.UUID `json:"loan_id,omitempty"`
}

// computed reports whether the entry is produced by a computation and is
// therefore replaced when the schedule is applied again.
func (e Entry) computed() bool {
	return e.Kind == EntryCharge || e.Kind == EntryInterestTax
}

func filterEntries(entries []Entry, keep func(Entry) bool) []Entry {
	var out []Entry
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
