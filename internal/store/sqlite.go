package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/coop-lending/pkg/ledger"
	"github.com/iwvelando/coop-lending/pkg/lifecycle"
	"github.com/iwvelando/coop-lending/pkg/loantype"
	"github.com/iwvelando/coop-lending/pkg/models"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ Storage = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at dataSourceName and initializes the
// schema. ":memory:" opens a private in-memory database.
func NewSQLiteStore(logger *zap.Logger, dataSourceName string) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, errors.Wrap(err, "could not open database")
	}
	// SQLite allows a single writer; one connection also keeps pragmas and
	// in-memory databases consistent.
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to enable foreign keys")
	}
	if _, err = db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to enable WAL mode")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "could not connect to database")
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "could not initialize schema")
	}
	logger.Info("database connection established",
		zap.String("op", "store.NewSQLiteStore"),
		zap.String("path", dataSourceName),
	)
	return s, nil
}

// initSchema creates the tables if they don't already exist. Decimal fields
// are stored as TEXT so no precision is lost.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS loan_transactions (
		id TEXT PRIMARY KEY,
		member_profile_id TEXT NOT NULL,
		currency_id TEXT NOT NULL,
		loan_type TEXT NOT NULL,
		status TEXT NOT NULL,
		voucher TEXT NOT NULL DEFAULT '',
		printed_at DATETIME,
		approved_at DATETIME,
		released_at DATETIME,
		batch_id TEXT NOT NULL DEFAULT '',
		terms TEXT NOT NULL,
		comaker TEXT NOT NULL,
		entries TEXT NOT NULL,
		signatures TEXT NOT NULL,
		pricing TEXT NOT NULL,
		scheme_id TEXT,
		previous_loan_id TEXT,
		version INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS loan_accounts (
		id TEXT PRIMARY KEY,
		loan_transaction_id TEXT NOT NULL,
		account_id TEXT NOT NULL,
		currency_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		total_add TEXT NOT NULL,
		total_add_count INTEGER NOT NULL,
		total_deduction TEXT NOT NULL,
		total_deduction_count INTEGER NOT NULL,
		total_payment TEXT NOT NULL,
		total_payment_count INTEGER NOT NULL,
		recompute_pending INTEGER NOT NULL DEFAULT 0,
		version INTEGER NOT NULL,
		UNIQUE(loan_transaction_id, account_id),
		FOREIGN KEY(loan_transaction_id) REFERENCES loan_transactions(id) ON DELETE CASCADE
	);
	CREATE TABLE IF NOT EXISTS adjustments (
		id TEXT PRIMARY KEY,
		loan_account_id TEXT NOT NULL,
		type TEXT NOT NULL,
		amount TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY(loan_account_id) REFERENCES loan_accounts(id) ON DELETE CASCADE
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

const loanColumns = `id, member_profile_id, currency_id, loan_type, voucher, printed_at, approved_at, released_at,
	batch_id, terms, comaker, entries, signatures, pricing, scheme_id, previous_loan_id, version`

const accountColumns = `id, loan_transaction_id, account_id, currency_id, amount, total_add, total_add_count,
	total_deduction, total_deduction_count, total_payment, total_payment_count, recompute_pending, version`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func nullableID(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func parseNullID(ns sql.NullString) (*uuid.UUID, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	id, err := uuid.Parse(ns.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// encodedLoan holds the JSON encoded columns of a loan.
type encodedLoan struct {
	terms, comaker, entries, signatures, pricing []byte
}

func encodeLoan(loan *models.LoanTransaction) (encodedLoan, error) {
	var (
		enc encodedLoan
		err error
	)
	if enc.terms, err = json.Marshal(loan.Terms()); err != nil {
		return enc, errors.Wrap(err, "failed to encode terms")
	}
	if enc.comaker, err = models.EncodeComaker(loan.Comaker()); err != nil {
		return enc, errors.Wrap(err, "failed to encode comaker")
	}
	entries := loan.Entries
	if entries == nil {
		entries = []models.Entry{}
	}
	if enc.entries, err = json.Marshal(entries); err != nil {
		return enc, errors.Wrap(err, "failed to encode entries")
	}
	if enc.signatures, err = json.Marshal(loan.Signatures); err != nil {
		return enc, errors.Wrap(err, "failed to encode signatures")
	}
	if enc.pricing, err = json.Marshal(loan.Pricing); err != nil {
		return enc, errors.Wrap(err, "failed to encode pricing")
	}
	return enc, nil
}

func scanLoan(row rowScanner) (*models.LoanTransaction, error) {
	var (
		base                        models.LoanTransaction
		loanType                    string
		rec                         lifecycle.Record
		printed, approved, released sql.NullTime
		terms, comaker, entries     []byte
		signatures, pricing         []byte
		schemeID, previousID        sql.NullString
	)
	err := row.Scan(&base.ID, &base.MemberProfileID, &base.CurrencyID, &loanType, &rec.Voucher,
		&printed, &approved, &released, &rec.BatchID, &terms, &comaker, &entries, &signatures,
		&pricing, &schemeID, &previousID, &base.Version)
	if err != nil {
		return nil, err
	}
	rec.PrintedAt = printed.Time
	rec.ApprovedAt = approved.Time
	rec.ReleasedAt = released.Time

	st := models.LoanState{LoanType: loantype.Type(loanType), Lifecycle: rec}
	if err := json.Unmarshal(terms, &st.Terms); err != nil {
		return nil, errors.Wrapf(err, "loan %s: failed to decode terms", base.ID)
	}
	if st.Comaker, err = models.DecodeComaker(comaker); err != nil {
		return nil, errors.Wrapf(err, "loan %s: failed to decode comaker", base.ID)
	}
	if err := json.Unmarshal(entries, &base.Entries); err != nil {
		return nil, errors.Wrapf(err, "loan %s: failed to decode entries", base.ID)
	}
	if err := json.Unmarshal(signatures, &base.Signatures); err != nil {
		return nil, errors.Wrapf(err, "loan %s: failed to decode signatures", base.ID)
	}
	if err := json.Unmarshal(pricing, &base.Pricing); err != nil {
		return nil, errors.Wrapf(err, "loan %s: failed to decode pricing", base.ID)
	}
	if base.SchemeID, err = parseNullID(schemeID); err != nil {
		return nil, errors.Wrapf(err, "loan %s: invalid scheme id", base.ID)
	}
	if st.PreviousLoanID, err = parseNullID(previousID); err != nil {
		return nil, errors.Wrapf(err, "loan %s: invalid previous loan id", base.ID)
	}
	loan, err := models.RestoreLoanTransaction(base, st)
	if err != nil {
		return nil, errors.Wrapf(err, "loan %s", base.ID)
	}
	return loan, nil
}

func scanAccount(row rowScanner) (models.LoanAccount, error) {
	var a models.LoanAccount
	err := row.Scan(&a.ID, &a.LoanTransactionID, &a.AccountID, &a.CurrencyID, &a.Amount,
		&a.TotalAdd, &a.TotalAddCount, &a.TotalDeduction, &a.TotalDeductionCount,
		&a.TotalPayment, &a.TotalPaymentCount, &a.RecomputePending, &a.Version)
	return a, err
}

// insertAccounts stores the accounts of a loan. Accounts already stored are
// left untouched; they change through SaveAccount and RecordAdjustment.
func insertAccounts(ctx context.Context, tx *sql.Tx, loan *models.LoanTransaction) error {
	for i := range loan.Accounts {
		a := &loan.Accounts[i]
		a.LoanTransactionID = loan.ID
		if a.Version == 0 {
			a.Version = 1
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO loan_accounts (`+accountColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`,
			a.ID.String(), a.LoanTransactionID.String(), a.AccountID, a.CurrencyID, a.Amount,
			a.TotalAdd, a.TotalAddCount, a.TotalDeduction, a.TotalDeductionCount,
			a.TotalPayment, a.TotalPaymentCount, a.RecomputePending, a.Version,
		)
		if err != nil {
			return errors.Wrapf(err, "failed to store account %s", a.AccountID)
		}
	}
	return nil
}

// missingOrConflict tells a missing row from a stale version after an
// update matched nothing.
func missingOrConflict(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}, table string, id uuid.UUID) error {
	var one int
	err := q.QueryRowContext(ctx, fmt.Sprintf("SELECT 1 FROM %s WHERE id = ?", table), id.String()).Scan(&one)
	if err == sql.ErrNoRows {
		return errors.Wrapf(ErrNotFound, "%s %s", table, id)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to look up %s %s", table, id)
	}
	return errors.Wrapf(ErrVersionConflict, "%s %s", table, id)
}

// CreateLoan inserts a new loan with its accounts. The loan's version is set
// to 1.
func (s *SQLiteStore) CreateLoan(ctx context.Context, loan *models.LoanTransaction) error {
	enc, err := encodeLoan(loan)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	lc := loan.Lifecycle()
	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO loan_transactions (`+loanColumns+`, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID.String(), loan.MemberProfileID, loan.CurrencyID, string(loan.LoanType()), lc.Voucher(),
		nullableTime(lc.PrintedAt()), nullableTime(lc.ApprovedAt()), nullableTime(lc.ReleasedAt()), lc.BatchID(),
		enc.terms, enc.comaker, enc.entries, enc.signatures, enc.pricing,
		nullableID(loan.SchemeID), nullableID(loan.PreviousLoanID()), 1,
		lc.Status().String(), now, now,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create loan")
	}
	if err := insertAccounts(ctx, tx, loan); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit loan")
	}
	loan.Version = 1
	s.logger.Debug(fmt.Sprintf("created loan %s", loan.ID),
		zap.String("op", "store.SQLiteStore.CreateLoan"),
		zap.Int("accounts", len(loan.Accounts)),
	)
	return nil
}

// GetLoan retrieves a loan and its accounts by id.
func (s *SQLiteStore) GetLoan(ctx context.Context, id uuid.UUID) (*models.LoanTransaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM loan_transactions WHERE id = ?`, id.String())
	loan, err := scanLoan(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "loan %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get loan")
	}
	if loan.Accounts, err = s.accountsFor(ctx, loan.ID); err != nil {
		return nil, err
	}
	return loan, nil
}

// UpdateLoan stores every field of a loan and any accounts it gained. It
// fails with ErrVersionConflict when the stored version differs from
// loan.Version, and increments loan.Version on success.
func (s *SQLiteStore) UpdateLoan(ctx context.Context, loan *models.LoanTransaction) error {
	enc, err := encodeLoan(loan)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	lc := loan.Lifecycle()
	result, err := tx.ExecContext(ctx,
		`UPDATE loan_transactions SET member_profile_id = ?, currency_id = ?, loan_type = ?, status = ?, voucher = ?,
		printed_at = ?, approved_at = ?, released_at = ?, batch_id = ?, terms = ?, comaker = ?, entries = ?,
		signatures = ?, pricing = ?, scheme_id = ?, previous_loan_id = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		loan.MemberProfileID, loan.CurrencyID, string(loan.LoanType()), lc.Status().String(), lc.Voucher(),
		nullableTime(lc.PrintedAt()), nullableTime(lc.ApprovedAt()), nullableTime(lc.ReleasedAt()), lc.BatchID(),
		enc.terms, enc.comaker, enc.entries, enc.signatures, enc.pricing,
		nullableID(loan.SchemeID), nullableID(loan.PreviousLoanID()), time.Now().UTC(),
		loan.ID.String(), loan.Version,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update loan")
	}
	if err := expectOne(ctx, tx, result, "loan_transactions", loan.ID); err != nil {
		return err
	}
	if err := insertAccounts(ctx, tx, loan); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit loan")
	}
	loan.Version++
	return nil
}

// SaveTransition stores the lifecycle of a loan after a transition. Of two
// writers transitioning the same version, only the first succeeds.
func (s *SQLiteStore) SaveTransition(ctx context.Context, loan *models.LoanTransaction) error {
	lc := loan.Lifecycle()
	result, err := s.db.ExecContext(ctx,
		`UPDATE loan_transactions SET status = ?, voucher = ?, printed_at = ?, approved_at = ?, released_at = ?,
		batch_id = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		lc.Status().String(), lc.Voucher(), nullableTime(lc.PrintedAt()), nullableTime(lc.ApprovedAt()),
		nullableTime(lc.ReleasedAt()), lc.BatchID(), time.Now().UTC(),
		loan.ID.String(), loan.Version,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save transition")
	}
	if err := expectOne(ctx, s.db, result, "loan_transactions", loan.ID); err != nil {
		return err
	}
	loan.Version++
	s.logger.Debug(fmt.Sprintf("loan %s is now %s", loan.ID, lc.Status()),
		zap.String("op", "store.SQLiteStore.SaveTransition"),
		zap.Int("version", loan.Version),
	)
	return nil
}

func expectOne(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}, result sql.Result, table string, id uuid.UUID) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check rows affected")
	}
	if rowsAffected == 0 {
		return missingOrConflict(ctx, q, table, id)
	}
	return nil
}

// DeleteLoan removes a loan, its accounts and their adjustments.
func (s *SQLiteStore) DeleteLoan(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM adjustments WHERE loan_account_id IN (SELECT id FROM loan_accounts WHERE loan_transaction_id = ?)`,
		id.String())
	if err != nil {
		return errors.Wrap(err, "failed to delete adjustments")
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM loan_accounts WHERE loan_transaction_id = ?`, id.String()); err != nil {
		return errors.Wrap(err, "failed to delete accounts")
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM loan_transactions WHERE id = ?`, id.String())
	if err != nil {
		return errors.Wrap(err, "failed to delete loan")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check rows affected")
	}
	if rowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "loan %s", id)
	}
	return tx.Commit()
}

// ListLoans retrieves every loan, oldest first.
func (s *SQLiteStore) ListLoans(ctx context.Context) ([]*models.LoanTransaction, error) {
	return s.queryLoans(ctx, `SELECT `+loanColumns+` FROM loan_transactions ORDER BY created_at, id`)
}

// ListPendingLoans retrieves the loans with at least one account awaiting
// recomputation.
func (s *SQLiteStore) ListPendingLoans(ctx context.Context) ([]*models.LoanTransaction, error) {
	return s.queryLoans(ctx, `SELECT `+loanColumns+` FROM loan_transactions
		WHERE id IN (SELECT loan_transaction_id FROM loan_accounts WHERE recompute_pending = 1)
		ORDER BY created_at, id`)
}

func (s *SQLiteStore) queryLoans(ctx context.Context, query string, args ...interface{}) ([]*models.LoanTransaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query loans")
	}
	var loans []*models.LoanTransaction
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "failed to scan loan row")
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, errors.Wrap(err, "error during rows iteration")
	}
	rows.Close()

	// Accounts are loaded once the loan rows are released; the store holds a
	// single connection.
	for _, loan := range loans {
		if loan.Accounts, err = s.accountsFor(ctx, loan.ID); err != nil {
			return nil, err
		}
	}
	return loans, nil
}

func (s *SQLiteStore) accountsFor(ctx context.Context, loanID uuid.UUID) ([]models.LoanAccount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM loan_accounts WHERE loan_transaction_id = ? ORDER BY rowid`, loanID.String())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get accounts for loan %s", loanID)
	}
	defer rows.Close()

	var accounts []models.LoanAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan account row")
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during rows iteration for loan accounts")
	}
	return accounts, nil
}

// GetAccount retrieves one loan account.
func (s *SQLiteStore) GetAccount(ctx context.Context, id uuid.UUID) (models.LoanAccount, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM loan_accounts WHERE id = ?`, id.String())
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return a, errors.Wrapf(ErrNotFound, "account %s", id)
	}
	if err != nil {
		return a, errors.Wrap(err, "failed to get account")
	}
	return a, nil
}

func updateAccount(ctx context.Context, ex interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}, a *models.LoanAccount) (sql.Result, error) {
	return ex.ExecContext(ctx,
		`UPDATE loan_accounts SET amount = ?, total_add = ?, total_add_count = ?, total_deduction = ?,
		total_deduction_count = ?, total_payment = ?, total_payment_count = ?, recompute_pending = ?,
		version = version + 1
		WHERE id = ? AND version = ?`,
		a.Amount, a.TotalAdd, a.TotalAddCount, a.TotalDeduction, a.TotalDeductionCount,
		a.TotalPayment, a.TotalPaymentCount, a.RecomputePending, a.ID.String(), a.Version,
	)
}

// SaveAccount stores the totals and pending flag of an account, guarded by
// its version.
func (s *SQLiteStore) SaveAccount(ctx context.Context, acct *models.LoanAccount) error {
	result, err := updateAccount(ctx, s.db, acct)
	if err != nil {
		return errors.Wrap(err, "failed to save account")
	}
	if err := expectOne(ctx, s.db, result, "loan_accounts", acct.ID); err != nil {
		return err
	}
	acct.Version++
	return nil
}

// RecordAdjustment stores an adjusted account together with the adjustment
// that produced it.
func (s *SQLiteStore) RecordAdjustment(ctx context.Context, acct *models.LoanAccount, adj Adjustment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	result, err := updateAccount(ctx, tx, acct)
	if err != nil {
		return errors.Wrap(err, "failed to save account")
	}
	if err := expectOne(ctx, tx, result, "loan_accounts", acct.ID); err != nil {
		return err
	}
	if adj.ID == uuid.Nil {
		adj.ID = uuid.New()
	}
	if adj.CreatedAt.IsZero() {
		adj.CreatedAt = time.Now().UTC()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO adjustments (id, loan_account_id, type, amount, created_at) VALUES (?, ?, ?, ?, ?)`,
		adj.ID.String(), acct.ID.String(), string(adj.Type), adj.Amount, adj.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to record adjustment")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit adjustment")
	}
	acct.Version++
	s.logger.Debug(fmt.Sprintf("recorded %s adjustment of %s on account %s", adj.Type, adj.Amount, acct.AccountID),
		zap.String("op", "store.SQLiteStore.RecordAdjustment"),
	)
	return nil
}

// AdjustmentsForAccount retrieves the adjustments of an account, oldest
// first.
func (s *SQLiteStore) AdjustmentsForAccount(ctx context.Context, id uuid.UUID) ([]Adjustment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, loan_account_id, type, amount, created_at FROM adjustments
		WHERE loan_account_id = ? ORDER BY created_at, rowid`, id.String())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get adjustments for account %s", id)
	}
	defer rows.Close()

	var adjustments []Adjustment
	for rows.Next() {
		var (
			adj Adjustment
			typ string
		)
		if err := rows.Scan(&adj.ID, &adj.LoanAccountID, &typ, &adj.Amount, &adj.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan adjustment row")
		}
		adj.Type = ledger.AdjustmentType(typ)
		adjustments = append(adjustments, adj)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during rows iteration for adjustments")
	}
	return adjustments, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
