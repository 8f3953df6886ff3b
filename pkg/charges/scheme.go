// Package charges models charges rate schemes and resolves the rate that
// applies to a loan from them.
package charges

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/iwvelando/coop-lending/pkg/payment"
	"github.com/iwvelando/coop-lending/pkg/ratetable"
	"github.com/shopspring/decimal"
)

// AllMemberTypes is the member type sentinel matching every member type.
const AllMemberTypes = "all"

// SchemeType selects which family of child rows a scheme owns.
type SchemeType string

const (
	ByRange SchemeType = "by_range"
	ByTerm  SchemeType = "by_term"
)

// ParseSchemeType converts a scheme type name into a SchemeType.
func ParseSchemeType(s string) (SchemeType, error) {
	switch SchemeType(s) {
	case ByRange, ByTerm:
		return SchemeType(s), nil
	}
	return "", fmt.Errorf("unknown scheme type %q", s)
}

// RateByTerm is one per-mode row of a by-term scheme.
type RateByTerm struct {
	ID    uuid.UUID
	Mode  payment.Mode
	Rates ratetable.Rates
}

// RangeRate is one minimum-amount row of a by-range scheme. Rate is a
// percentage of the principal; Amount, when non-zero, is a fixed charge used
// instead.
type RangeRate struct {
	ID            uuid.UUID
	MinimumAmount decimal.Decimal
	Rate          decimal.Decimal
	Amount        decimal.Decimal
}

// Scheme is a charges rate scheme scoped to one currency and one member type
// (or AllMemberTypes).
type Scheme struct {
	ID           uuid.UUID
	Name         string
	Type         SchemeType
	CurrencyID   string
	MemberTypeID string
	Header       ratetable.Header
	ByTerm       []RateByTerm
	Ranges       []RangeRate
}

// TermCount is the configured number of term headers.
func (s Scheme) TermCount() int {
	return s.Header.Len()
}

// Validate checks the invariants a scheme must hold before it is used for
// resolution.
func (s Scheme) Validate() error {
	switch s.Type {
	case ByTerm:
		if len(s.Ranges) > 0 {
			return fmt.Errorf("scheme %q: by_term scheme carries %d range rows", s.Name, len(s.Ranges))
		}
		seen := make(map[payment.Mode]bool, len(s.ByTerm))
		for _, row := range s.ByTerm {
			if !row.Mode.Valid() {
				return fmt.Errorf("scheme %q: unknown mode of payment %q", s.Name, row.Mode)
			}
			if seen[row.Mode] {
				return fmt.Errorf("scheme %q: duplicate rate row for mode %s", s.Name, row.Mode)
			}
			seen[row.Mode] = true
			if row.Rates.Len() > s.TermCount() {
				return fmt.Errorf("scheme %q: %s rates configure %d terms, header has %d",
					s.Name, row.Mode, row.Rates.Len(), s.TermCount())
			}
		}
	case ByRange:
		if len(s.ByTerm) > 0 {
			return fmt.Errorf("scheme %q: by_range scheme carries %d term rows", s.Name, len(s.ByTerm))
		}
		for _, row := range s.Ranges {
			if row.MinimumAmount.IsNegative() {
				return fmt.Errorf("scheme %q: negative minimum amount %s", s.Name, row.MinimumAmount)
			}
			if row.Rate.IsNegative() || row.Rate.GreaterThan(decimal.NewFromInt(100)) {
				return fmt.Errorf("scheme %q: range rate %s outside [0, 100]", s.Name, row.Rate)
			}
		}
	default:
		return fmt.Errorf("scheme %q: unknown scheme type %q", s.Name, s.Type)
	}
	if s.CurrencyID == "" {
		return fmt.Errorf("scheme %q: currency is required", s.Name)
	}
	if s.MemberTypeID == "" {
		return fmt.Errorf("scheme %q: member type is required (use %q for every type)", s.Name, AllMemberTypes)
	}
	return nil
}

// RatesFor returns the by-term row for a mode of payment.
func (s Scheme) RatesFor(mode payment.Mode) (RateByTerm, bool) {
	for _, row := range s.ByTerm {
		if row.Mode == mode {
			return row, true
		}
	}
	return RateByTerm{}, false
}

// sortedRanges returns the range rows in ascending threshold order without
// touching the scheme.
func (s Scheme) sortedRanges() []RangeRate {
	rows := make([]RangeRate, len(s.Ranges))
	copy(rows, s.Ranges)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].MinimumAmount.LessThan(rows[j].MinimumAmount)
	})
	return rows
}
