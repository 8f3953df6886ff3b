// Package loantype implements the loan type policy: what a change of loan
// type does to the entries and charges schema already computed for a loan.
package loantype

import (
	"fmt"
	"strings"
)

// Type is one of the five loan types a transaction can carry.
type Type string

const (
	Standard                Type = "standard"
	Restructured            Type = "restructured"
	StandardPrevious        Type = "standard_previous"
	Renewal                 Type = "renewal"
	RenewalWithoutDeduction Type = "renewal_without_deduction"
)

// Types lists every loan type in display order.
var Types = []Type{Standard, Restructured, StandardPrevious, Renewal, RenewalWithoutDeduction}

// Effect describes what switching a loan to a type does.
type Effect struct {
	// ResetEntries discards every computed entry.
	ResetEntries bool
	// ResetSchema unapplies the charges schema so it is resolved again.
	ResetSchema bool
	// RequiresPreviousLoan demands a previous loan reference.
	RequiresPreviousLoan bool
	// IncludesAutoDeductions keeps the automatic deductions carried over
	// from the previous loan.
	IncludesAutoDeductions bool
	// AppendCurrentMarker appends the "current" balance line of the
	// previous loan to the kept entries.
	AppendCurrentMarker bool
}

var effects = map[Type]Effect{
	Standard:                {ResetEntries: true, ResetSchema: true},
	Restructured:            {ResetSchema: true},
	StandardPrevious:        {ResetSchema: true},
	Renewal:                 {RequiresPreviousLoan: true, IncludesAutoDeductions: true, AppendCurrentMarker: true},
	RenewalWithoutDeduction: {RequiresPreviousLoan: true, AppendCurrentMarker: true},
}

// EffectOf returns the effect of changing a loan to type t.
func EffectOf(t Type) (Effect, error) {
	e, ok := effects[t]
	if !ok {
		return Effect{}, fmt.Errorf("unknown loan type %q", t)
	}
	return e, nil
}

// Parse converts a name such as "Renewal Without Deduction" into a Type.
func Parse(s string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	t := Type(key)
	if _, ok := effects[t]; !ok {
		return "", fmt.Errorf("unknown loan type %q", s)
	}
	return t, nil
}

// Valid reports whether t is a known loan type.
func (t Type) Valid() bool {
	_, ok := effects[t]
	return ok
}

// IsRenewal reports whether t renews a previous loan.
func (t Type) IsRenewal() bool {
	return t == Renewal || t == RenewalWithoutDeduction
}
