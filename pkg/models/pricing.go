package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pricing records what a loan was last quoted with, so its schedule can be
// computed again after its accounts change.
type Pricing struct {
	MemberTypeID string          `json:"member_type_id"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	Charges      []string        `json:"charges,omitempty"`
	StartDate    time.Time       `json:"start_date"`
}

// Quoted reports whether the loan has been quoted at least once.
func (p Pricing) Quoted() bool {
	return !p.StartDate.IsZero()
}
