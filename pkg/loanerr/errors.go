// Package loanerr defines the value-returned error taxonomy shared by the
// loan engine packages.
package loanerr

import (
	"errors"
	"fmt"
)

// Kind identifies a domain error condition.
type Kind string

// Input validation kinds.
const (
	InvalidTerms         Kind = "invalid_terms"
	InvalidPrincipal     Kind = "invalid_principal"
	MissingModeParameter Kind = "missing_mode_parameter"
	InvalidAmount        Kind = "invalid_amount"
	InvalidCrossover     Kind = "invalid_crossover"
	InvalidRate          Kind = "invalid_rate"
	MissingVoucher       Kind = "missing_voucher"
)

// Resolution kinds.
const (
	SchemeNotFound Kind = "scheme_not_found"
	TermOutOfRange Kind = "term_out_of_range"
	NoRangeMatch   Kind = "no_range_match"
)

// State kinds.
const (
	IllegalTransition          Kind = "illegal_transition"
	NoOpenBatch                Kind = "no_open_batch"
	CurrencyMismatch           Kind = "currency_mismatch"
	InsufficientAccountBalance Kind = "insufficient_account_balance"
	PreviousLoanRequired       Kind = "previous_loan_required"
	FieldReadOnly              Kind = "field_read_only"
)

// Category groups kinds by how a caller is expected to react.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryResolution Category = "resolution"
	CategoryState      Category = "state"
	CategoryUnknown    Category = "unknown"
)

var categories = map[Kind]Category{
	InvalidTerms:               CategoryValidation,
	InvalidPrincipal:           CategoryValidation,
	MissingModeParameter:       CategoryValidation,
	InvalidAmount:              CategoryValidation,
	InvalidCrossover:           CategoryValidation,
	InvalidRate:                CategoryValidation,
	MissingVoucher:             CategoryValidation,
	SchemeNotFound:             CategoryResolution,
	TermOutOfRange:             CategoryResolution,
	NoRangeMatch:               CategoryResolution,
	IllegalTransition:          CategoryState,
	NoOpenBatch:                CategoryState,
	CurrencyMismatch:           CategoryState,
	InsufficientAccountBalance: CategoryState,
	PreviousLoanRequired:       CategoryState,
	FieldReadOnly:              CategoryState,
}

// CategoryOf returns the category a kind belongs to.
func CategoryOf(kind Kind) Category {
	if c, ok := categories[kind]; ok {
		return c
	}
	return CategoryUnknown
}

// Error is a domain error carrying its kind, the operation that raised it and
// a human readable message.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return string(e.Kind)
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNoOpenBatch)
// works regardless of Op and Msg.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an Error of the given kind.
func New(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from err, or "" when err is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidTerms               = &Error{Kind: InvalidTerms}
	ErrInvalidPrincipal           = &Error{Kind: InvalidPrincipal}
	ErrMissingModeParameter       = &Error{Kind: MissingModeParameter}
	ErrInvalidAmount              = &Error{Kind: InvalidAmount}
	ErrInvalidCrossover           = &Error{Kind: InvalidCrossover}
	ErrInvalidRate                = &Error{Kind: InvalidRate}
	ErrMissingVoucher             = &Error{Kind: MissingVoucher}
	ErrSchemeNotFound             = &Error{Kind: SchemeNotFound}
	ErrTermOutOfRange             = &Error{Kind: TermOutOfRange}
	ErrNoRangeMatch               = &Error{Kind: NoRangeMatch}
	ErrIllegalTransition          = &Error{Kind: IllegalTransition}
	ErrNoOpenBatch                = &Error{Kind: NoOpenBatch}
	ErrCurrencyMismatch           = &Error{Kind: CurrencyMismatch}
	ErrInsufficientAccountBalance = &Error{Kind: InsufficientAccountBalance}
	ErrPreviousLoanRequired       = &Error{Kind: PreviousLoanRequired}
	ErrFieldReadOnly              = &Error{Kind: FieldReadOnly}
)
