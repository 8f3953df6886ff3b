// Package store persists loan transactions, their accounts and the
// adjustments applied to those accounts.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/coop-lending/pkg/ledger"
	"github.com/iwvelando/coop-lending/pkg/models"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a loan or account does not exist.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict is returned when a record was changed by another
	// writer since it was read.
	ErrVersionConflict = errors.New("version conflict")
)

// Adjustment is one applied add or deduct adjustment.
type Adjustment struct {
	ID            uuid.UUID             `json:"id"`
	LoanAccountID uuid.UUID             `json:"loan_account_id"`
	Type          ledger.AdjustmentType `json:"type"`
	Amount        decimal.Decimal       `json:"amount"`
	CreatedAt     time.Time             `json:"created_at"`
}

// Storage defines the persistence operations of the loan engine. Every
// update is guarded by the record's version; a stale version fails with
// ErrVersionConflict and leaves the stored record untouched.
type Storage interface {
	CreateLoan(ctx context.Context, loan *models.LoanTransaction) error
	GetLoan(ctx context.Context, id uuid.UUID) (*models.LoanTransaction, error)
	UpdateLoan(ctx context.Context, loan *models.LoanTransaction) error
	SaveTransition(ctx context.Context, loan *models.LoanTransaction) error
	DeleteLoan(ctx context.Context, id uuid.UUID) error
	ListLoans(ctx context.Context) ([]*models.LoanTransaction, error)
	ListPendingLoans(ctx context.Context) ([]*models.LoanTransaction, error)

	GetAccount(ctx context.Context, id uuid.UUID) (models.LoanAccount, error)
	SaveAccount(ctx context.Context, acct *models.LoanAccount) error
	RecordAdjustment(ctx context.Context, acct *models.LoanAccount, adj Adjustment) error
	AdjustmentsForAccount(ctx context.Context, id uuid.UUID) ([]Adjustment, error)

	Close() error
}
