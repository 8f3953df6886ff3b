// Package ledger applies add and deduct adjustments and payments to loan
// accounts.
package ledger

import (
	"fmt"

	"github.com/iwvelando/coop-lending/pkg/loanerr"
	"github.com/iwvelando/coop-lending/pkg/models"
	"github.com/shopspring/decimal"
)

// AdjustmentType is the direction of an adjustment.
type AdjustmentType string

const (
	Add    AdjustmentType = "add"
	Deduct AdjustmentType = "deduct"
)

// ParseAdjustmentType converts "add" or "deduct" into an AdjustmentType.
func ParseAdjustmentType(s string) (AdjustmentType, error) {
	switch AdjustmentType(s) {
	case Add, Deduct:
		return AdjustmentType(s), nil
	}
	return "", fmt.Errorf("unknown adjustment type %q", s)
}

// ApplyAdjustment returns acct with the adjustment applied. The account
// passed in is never modified. The result always has RecomputePending set:
// the loan transaction owning the account must be computed again.
func ApplyAdjustment(acct models.LoanAccount, amount decimal.Decimal, typ AdjustmentType) (models.LoanAccount, error) {
	const op = "ledger.ApplyAdjustment"
	if !amount.IsPositive() {
		return acct, loanerr.New(loanerr.InvalidAmount, op, "adjustment amount must be greater than zero, got %s", amount)
	}

	next := acct
	switch typ {
	case Add:
		next.Amount = acct.Amount.Add(amount)
		next.TotalAdd = acct.TotalAdd.Add(amount)
		next.TotalAddCount++
	case Deduct:
		if amount.GreaterThan(acct.Amount) {
			return acct, loanerr.New(loanerr.InsufficientAccountBalance, op,
				"cannot deduct %s from account %s holding %s", amount, acct.AccountID, acct.Amount)
		}
		next.Amount = acct.Amount.Sub(amount)
		next.TotalDeduction = acct.TotalDeduction.Add(amount)
		next.TotalDeductionCount++
	default:
		return acct, loanerr.New(loanerr.InvalidAmount, op, "unknown adjustment type %q", typ)
	}
	next.RecomputePending = true
	return next, nil
}

// RecordPayment returns acct with a payment applied against its amount.
func RecordPayment(acct models.LoanAccount, amount decimal.Decimal) (models.LoanAccount, error) {
	const op = "ledger.RecordPayment"
	if !amount.IsPositive() {
		return acct, loanerr.New(loanerr.InvalidAmount, op, "payment amount must be greater than zero, got %s", amount)
	}
	if amount.GreaterThan(acct.Amount) {
		return acct, loanerr.New(loanerr.InsufficientAccountBalance, op,
			"payment %s exceeds the %s outstanding on account %s", amount, acct.Amount, acct.AccountID)
	}
	next := acct
	next.Amount = acct.Amount.Sub(amount)
	next.TotalPayment = acct.TotalPayment.Add(amount)
	next.TotalPaymentCount++
	return next, nil
}
