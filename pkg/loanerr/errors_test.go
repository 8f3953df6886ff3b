package loanerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := New(NoOpenBatch, "lifecycle.Release", "no batch for currency %s", "PHP")

	if !errors.Is(err, ErrNoOpenBatch) {
		t.Errorf("errors.Is(%v, ErrNoOpenBatch) = false, expected true", err)
	}
	if errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("errors.Is(%v, ErrCurrencyMismatch) = true, expected false", err)
	}

	wrapped := fmt.Errorf("release loan: %w", err)
	if !errors.Is(wrapped, ErrNoOpenBatch) {
		t.Errorf("wrapped error lost its kind")
	}
	if KindOf(wrapped) != NoOpenBatch {
		t.Errorf("KindOf() = %q, expected %q", KindOf(wrapped), NoOpenBatch)
	}
}

func TestKindOfForeignError(t *testing.T) {
	if kind := KindOf(errors.New("boom")); kind != "" {
		t.Errorf("KindOf() = %q, expected empty kind", kind)
	}
	if kind := KindOf(nil); kind != "" {
		t.Errorf("KindOf(nil) = %q, expected empty kind", kind)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{"Op and message", New(InvalidTerms, "loans.Compute", "terms must be at least 1, got %d", 0), "loans.Compute: invalid_terms: terms must be at least 1, got 0"},
		{"Op only", &Error{Kind: TermOutOfRange, Op: "charges.Resolve"}, "charges.Resolve: term_out_of_range"},
		{"Message only", &Error{Kind: NoRangeMatch, Msg: "below minimum"}, "no_range_match: below minimum"},
		{"Bare sentinel", ErrIllegalTransition, "illegal_transition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected Category
	}{
		{InvalidPrincipal, CategoryValidation},
		{MissingModeParameter, CategoryValidation},
		{SchemeNotFound, CategoryResolution},
		{NoRangeMatch, CategoryResolution},
		{CurrencyMismatch, CategoryState},
		{InsufficientAccountBalance, CategoryState},
		{Kind("made_up"), CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := CategoryOf(tt.kind); got != tt.expected {
				t.Errorf("CategoryOf(%q) = %q, expected %q", tt.kind, got, tt.expected)
			}
		})
	}
}
