package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanAccount is the ledger row of one account connected to a loan
// transaction. It is mutated only by the adjustment ledger and by
// reprocessing.
type LoanAccount struct {
	ID                  uuid.UUID       `json:"id"`
	LoanTransactionID   uuid.UUID       `json:"loan_transaction_id"`
	AccountID           string          `json:"account_id"`
	CurrencyID          string          `json:"currency_id"`
	Amount              decimal.Decimal `json:"amount"`
	TotalAdd            decimal.Decimal `json:"total_add"`
	TotalAddCount       int             `json:"total_add_count"`
	TotalDeduction      decimal.Decimal `json:"total_deduction"`
	TotalDeductionCount int             `json:"total_deduction_count"`
	TotalPayment        decimal.Decimal `json:"total_payment"`
	TotalPaymentCount   int             `json:"total_payment_count"`
	// RecomputePending marks that the loan's schedule must be computed again
	// before the account is trusted.
	RecomputePending bool `json:"recompute_pending"`
	Version          int  `json:"version"`
}

// NewLoanAccount connects an account to a loan with zero totals.
func NewLoanAccount(loanID uuid.UUID, accountID, currencyID string) LoanAccount {
	return LoanAccount{
		ID:                uuid.New(),
		LoanTransactionID: loanID,
		AccountID:         accountID,
		CurrencyID:        currencyID,
	}
}

// AttachAccounts builds the loan accounts of a loan. Explicitly picked
// account ids are used when given; otherwise the accounts connected to the
// previous loan are carried over. Accounts already in existing are skipped,
// as are duplicates.
func AttachAccounts(loanID uuid.UUID, currencyID string, picked []string, previous, existing []LoanAccount) []LoanAccount {
	seen := make(map[string]bool, len(existing))
	for _, a := range existing {
		seen[a.AccountID] = true
	}

	type candidate struct{ accountID, currencyID string }
	var candidates []candidate
	if len(picked) > 0 {
		for _, id := range picked {
			candidates = append(candidates, candidate{id, currencyID})
		}
	} else {
		for _, a := range previous {
			cur := a.CurrencyID
			if cur == "" {
				cur = currencyID
			}
			candidates = append(candidates, candidate{a.AccountID, cur})
		}
	}

	var added []LoanAccount
	for _, c := range candidates {
		if c.accountID == "" || seen[c.accountID] {
			continue
		}
		seen[c.accountID] = true
		added = append(added, NewLoanAccount(loanID, c.accountID, c.currencyID))
	}
	return added
}
