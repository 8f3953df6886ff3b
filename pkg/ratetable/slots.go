// Package ratetable provides the fixed-size, term-indexed slot tables used by
// charges rate schemes: per-term percentage rates and term headers.
package ratetable

import (
	"fmt"

	"github.com/iwvelando/coop-lending/pkg/constants"
	"github.com/iwvelando/coop-lending/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// MaxTerms is the number of slots a table can hold.
const MaxTerms = constants.MaxTerms

// Slots is a sparse sequence of up to MaxTerms values addressed 1..Len().
// Slots past the configured length are unset and cannot be written.
type Slots[T any] struct {
	n    int
	vals [MaxTerms]T
	set  [MaxTerms]bool
}

// NewSlots returns an empty table with n configured slots.
func NewSlots[T any](n int) (Slots[T], error) {
	if n < 0 || n > MaxTerms {
		return Slots[T]{}, fmt.Errorf("configured term count %d outside 0..%d", n, MaxTerms)
	}
	return Slots[T]{n: n}, nil
}

// Len is the configured term count.
func (s Slots[T]) Len() int {
	return s.n
}

// InRange reports whether i addresses a configured slot.
func (s Slots[T]) InRange(i int) bool {
	return i >= 1 && i <= s.n
}

// Get returns the value at slot i and whether it is set. Out of range slots
// read as unset.
func (s Slots[T]) Get(i int) (T, bool) {
	var zero T
	if !s.InRange(i) || !s.set[i-1] {
		return zero, false
	}
	return s.vals[i-1], true
}

// With returns a copy of s with slot i set to v.
func (s Slots[T]) With(i int, v T) (Slots[T], error) {
	if !s.InRange(i) {
		return s, fmt.Errorf("slot %d outside 1..%d", i, s.n)
	}
	s.vals[i-1] = v
	s.set[i-1] = true
	return s, nil
}

// Without returns a copy of s with slot i unset.
func (s Slots[T]) Without(i int) Slots[T] {
	if s.InRange(i) {
		var zero T
		s.vals[i-1] = zero
		s.set[i-1] = false
	}
	return s
}

// Resize changes the configured length. Shrinking drops the slots beyond the
// new length so they can never resurface.
func (s Slots[T]) Resize(n int) (Slots[T], error) {
	if n < 0 || n > MaxTerms {
		return s, fmt.Errorf("configured term count %d outside 0..%d", n, MaxTerms)
	}
	var zero T
	for i := n; i < MaxTerms; i++ {
		s.vals[i] = zero
		s.set[i] = false
	}
	s.n = n
	return s, nil
}

// Each calls fn for every set slot in ascending order.
func (s Slots[T]) Each(fn func(i int, v T)) {
	for i := 0; i < s.n; i++ {
		if s.set[i] {
			fn(i+1, s.vals[i])
		}
	}
}

// Rates are per-term percentage rates. An unset slot means no charge at that
// term.
type Rates struct {
	Slots[decimal.Decimal]
}

// NewRates returns an empty rate row with n configured terms.
func NewRates(n int) (Rates, error) {
	s, err := NewSlots[decimal.Decimal](n)
	return Rates{s}, err
}

// RatesFrom builds a rate row from a dense list; nil entries stay unset.
func RatesFrom(n int, values []*decimal.Decimal) (Rates, error) {
	r, err := NewRates(n)
	if err != nil {
		return r, err
	}
	if len(values) > n {
		return r, fmt.Errorf("%d rates given for %d configured terms", len(values), n)
	}
	for i, v := range values {
		if v == nil {
			continue
		}
		if r, err = r.Set(i+1, *v); err != nil {
			return r, err
		}
	}
	return r, nil
}

// Set returns a copy with slot i set to the percentage p, which must lie in
// [0, 100].
func (r Rates) Set(i int, p decimal.Decimal) (Rates, error) {
	if !mathutil.ValidPercentage(p) {
		return r, fmt.Errorf("rate %s at term %d outside [0, 100]", p, i)
	}
	s, err := r.Slots.With(i, p)
	if err != nil {
		return r, err
	}
	return Rates{s}, nil
}

// Header holds the per-term header of a scheme: term-boundary markers for
// by-term schemes, numeric header values for by-range schemes.
type Header struct {
	Slots[decimal.Decimal]
}

// NewHeader returns an empty header with n configured terms.
func NewHeader(n int) (Header, error) {
	s, err := NewSlots[decimal.Decimal](n)
	return Header{s}, err
}

// HeaderFrom builds a header with one value per configured term.
func HeaderFrom(values []decimal.Decimal) (Header, error) {
	h, err := NewHeader(len(values))
	if err != nil {
		return h, err
	}
	for i, v := range values {
		s, err := h.Slots.With(i+1, v)
		if err != nil {
			return h, err
		}
		h = Header{s}
	}
	return h, nil
}
