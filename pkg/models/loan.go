// Package models holds the loan transaction aggregate and the records
// connected to it.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/coop-lending/pkg/lifecycle"
	"github.com/iwvelando/coop-lending/pkg/loanerr"
	"github.com/iwvelando/coop-lending/pkg/loans"
	"github.com/iwvelando/coop-lending/pkg/loantype"
	"github.com/iwvelando/coop-lending/pkg/payment"
	"github.com/shopspring/decimal"
)

// CollectorPlace is where payments of a loan are collected.
type CollectorPlace string

const (
	CollectorOffice CollectorPlace = "office"
	CollectorField  CollectorPlace = "field"
)

// ParseCollectorPlace converts "office" or "field". An empty name selects
// CollectorOffice.
func ParseCollectorPlace(s string) (CollectorPlace, error) {
	switch p := CollectorPlace(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return CollectorOffice, nil
	case CollectorOffice, CollectorField:
		return p, nil
	}
	return "", fmt.Errorf("unknown collector place %q", s)
}

// LoanTerms are the core financial fields of a loan. They can only change
// while the loan is a draft.
type LoanTerms struct {
	Applied         decimal.Decimal       `json:"applied"`
	Terms           int                   `json:"terms"`
	Mode            payment.Mode          `json:"mode_of_payment"`
	ModeParams      payment.Params        `json:"mode_params"`
	Exclusions      payment.Exclusions    `json:"exclusions"`
	ComputationType loans.ComputationType `json:"computation_type"`
	IsAddOn         bool                  `json:"is_add_on"`
	IsInvestment    bool                  `json:"is_investment"`
	CollectorPlace  CollectorPlace        `json:"collector_place"`
}

// Signatures are the administrative sign-offs of a loan. They stay editable
// in every lifecycle state.
type Signatures struct {
	PreparedBy     string `json:"prepared_by,omitempty"`
	CertifiedBy    string `json:"certified_by,omitempty"`
	VerifiedBy     string `json:"verified_by,omitempty"`
	CheckedBy      string `json:"checked_by,omitempty"`
	ApprovedBy     string `json:"approved_by,omitempty"`
	AcknowledgedBy string `json:"acknowledged_by,omitempty"`
	NotedBy        string `json:"noted_by,omitempty"`
	PostedBy       string `json:"posted_by,omitempty"`
	PaidBy         string `json:"paid_by,omitempty"`
}

// LoanTransaction is the central aggregate of the loan engine. The terms,
// loan type, comaker and lifecycle are unexported so they only change through
// the methods below, which enforce the draft-only editing rule.
type LoanTransaction struct {
	ID              uuid.UUID
	MemberProfileID string
	CurrencyID      string
	// SchemeID is the applied charges scheme; nil while unapplied.
	SchemeID   *uuid.UUID
	Entries    []Entry
	Accounts   []LoanAccount
	Signatures Signatures
	Pricing    Pricing
	// Version is the optimistic concurrency counter kept by the store.
	Version int

	terms          LoanTerms
	loanType       loantype.Type
	lifecycle      lifecycle.Lifecycle
	comaker        Comaker
	previousLoanID *uuid.UUID
}

// NewLoanTransaction creates a draft loan.
func NewLoanTransaction(memberProfileID, currencyID string, terms LoanTerms, t loantype.Type) (*LoanTransaction, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown loan type %q", t)
	}
	if terms.CollectorPlace == "" {
		terms.CollectorPlace = CollectorOffice
	}
	return &LoanTransaction{
		ID:              uuid.New(),
		MemberProfileID: memberProfileID,
		CurrencyID:      currencyID,
		terms:           terms,
		loanType:        t,
		comaker:         NoComaker{},
	}, nil
}

// LoanState is the persisted form of the guarded fields.
type LoanState struct {
	Terms          LoanTerms
	LoanType       loantype.Type
	Lifecycle      lifecycle.Record
	Comaker        Comaker
	PreviousLoanID *uuid.UUID
}

// RestoreLoanTransaction rebuilds a loan from storage: the exported fields of
// base plus the guarded state.
func RestoreLoanTransaction(base LoanTransaction, st LoanState) (*LoanTransaction, error) {
	lc, err := lifecycle.Restore(st.Lifecycle)
	if err != nil {
		return nil, err
	}
	if !st.LoanType.Valid() {
		return nil, fmt.Errorf("unknown loan type %q", st.LoanType)
	}
	lt := base
	lt.terms = st.Terms
	lt.loanType = st.LoanType
	lt.lifecycle = lc
	lt.comaker = st.Comaker
	if lt.comaker == nil {
		lt.comaker = NoComaker{}
	}
	lt.previousLoanID = st.PreviousLoanID
	return &lt, nil
}

// State returns the guarded fields for storage.
func (lt *LoanTransaction) State() LoanState {
	return LoanState{
		Terms:          lt.terms,
		LoanType:       lt.loanType,
		Lifecycle:      lt.lifecycle.Snapshot(),
		Comaker:        lt.comaker,
		PreviousLoanID: lt.previousLoanID,
	}
}

func (lt *LoanTransaction) Terms() LoanTerms               { return lt.terms }
func (lt *LoanTransaction) LoanType() loantype.Type        { return lt.loanType }
func (lt *LoanTransaction) Lifecycle() lifecycle.Lifecycle { return lt.lifecycle }
func (lt *LoanTransaction) Status() lifecycle.Status       { return lt.lifecycle.Status() }
func (lt *LoanTransaction) Comaker() Comaker               { return lt.comaker }
func (lt *LoanTransaction) PreviousLoanID() *uuid.UUID     { return lt.previousLoanID }

func (lt *LoanTransaction) checkEditable(op, field string) error {
	if !lt.lifecycle.Editable() {
		return loanerr.New(loanerr.FieldReadOnly, op, "%s is read-only once the loan is %s", field, lt.lifecycle.Status())
	}
	return nil
}

// UpdateTerms replaces the core financial fields of a draft.
func (lt *LoanTransaction) UpdateTerms(terms LoanTerms) error {
	if err := lt.checkEditable("models.UpdateTerms", "terms"); err != nil {
		return err
	}
	if terms.CollectorPlace == "" {
		terms.CollectorPlace = lt.terms.CollectorPlace
	}
	lt.terms = terms
	return nil
}

// SetComaker replaces the comaker of a draft. nil clears it.
func (lt *LoanTransaction) SetComaker(c Comaker) error {
	if err := lt.checkEditable("models.SetComaker", "comaker"); err != nil {
		return err
	}
	if c == nil {
		c = NoComaker{}
	}
	lt.comaker = c
	return nil
}

// ChangeLoanType switches a draft to type t and applies the loan type policy
// to its entries and schema. The principal is never touched. previousLoanID
// may be nil when the loan already references its previous loan. A missing
// previous loan is reported before anything is reset.
func (lt *LoanTransaction) ChangeLoanType(t loantype.Type, previousLoanID *uuid.UUID) error {
	const op = "models.ChangeLoanType"
	if err := lt.checkEditable(op, "loan type"); err != nil {
		return err
	}
	effect, err := loantype.EffectOf(t)
	if err != nil {
		return err
	}
	previous := previousLoanID
	if previous == nil {
		previous = lt.previousLoanID
	}
	if effect.RequiresPreviousLoan && (previous == nil || *previous == uuid.Nil) {
		return loanerr.New(loanerr.PreviousLoanRequired, op, "loan type %s requires a previous loan", t)
	}

	switch {
	case effect.ResetEntries:
		lt.Entries = nil
	case effect.RequiresPreviousLoan && !effect.IncludesAutoDeductions:
		lt.Entries = filterEntries(lt.Entries, func(e Entry) bool { return e.Kind != EntryAutoDeduction })
	}
	if effect.AppendCurrentMarker {
		lt.Entries = filterEntries(lt.Entries, func(e Entry) bool { return e.Kind != EntryCurrent })
		id := *previous
		lt.Entries = append(lt.Entries, Entry{ID: uuid.New(), Kind: EntryCurrent, Name: "current", LoanID: &id})
	}
	if effect.ResetSchema {
		lt.SchemeID = nil
	}
	if previousLoanID != nil {
		lt.previousLoanID = previousLoanID
	}
	lt.loanType = t
	return nil
}

// AttachAccounts connects accounts to a draft; see AttachAccounts.
func (lt *LoanTransaction) AttachAccounts(picked []string, previous []LoanAccount) ([]LoanAccount, error) {
	if err := lt.checkEditable("models.AttachAccounts", "accounts"); err != nil {
		return nil, err
	}
	added := AttachAccounts(lt.ID, lt.CurrencyID, picked, previous, lt.Accounts)
	lt.Accounts = append(lt.Accounts, added...)
	return added, nil
}

// Transition moves the loan through its lifecycle. When in carries no
// account currency, the currency of the first linked account is used, then
// the loan's own.
func (lt *LoanTransaction) Transition(to lifecycle.Status, in lifecycle.Input) error {
	if in.AccountCurrencyID == "" {
		in.AccountCurrencyID = lt.CurrencyID
		if len(lt.Accounts) > 0 && lt.Accounts[0].CurrencyID != "" {
			in.AccountCurrencyID = lt.Accounts[0].CurrencyID
		}
	}
	next, err := lifecycle.Transition(lt.lifecycle, to, in)
	if err != nil {
		return err
	}
	lt.lifecycle = next
	return nil
}

// Request builds the computation request for the loan's terms. Rate,
// charges, holidays and branch settings are left to the caller.
func (lt *LoanTransaction) Request(start time.Time) loans.Request {
	return loans.Request{
		Principal:       lt.terms.Applied,
		Terms:           lt.terms.Terms,
		Mode:            lt.terms.Mode,
		Params:          lt.terms.ModeParams,
		ComputationType: lt.terms.ComputationType,
		Exclusions:      lt.terms.Exclusions,
		AddOn:           lt.terms.IsAddOn,
		StartDate:       start,
	}
}

// ApplySchedule replaces the computed entries with the charges and interest
// tax of schedule and records the scheme they came from. Carried-over entries
// are kept ahead of the computed ones.
func (lt *LoanTransaction) ApplySchedule(schemeID *uuid.UUID, schedule loans.Schedule) {
	entries := filterEntries(lt.Entries, func(e Entry) bool { return !e.computed() })
	for _, c := range schedule.Charges {
		entries = append(entries, Entry{ID: uuid.New(), Kind: EntryCharge, Name: c.Name, Amount: c.Amount})
	}
	if schedule.InterestTax.IsPositive() {
		entries = append(entries, Entry{ID: uuid.New(), Kind: EntryInterestTax, Name: "interest tax", Amount: schedule.InterestTax})
	}
	lt.Entries = entries
	lt.SchemeID = schemeID
}

type loanJSON struct {
	ID              uuid.UUID        `json:"id"`
	MemberProfileID string           `json:"member_profile_id"`
	CurrencyID      string           `json:"currency_id"`
	LoanType        loantype.Type    `json:"loan_type"`
	Status          lifecycle.Status `json:"status"`
	Voucher         string           `json:"voucher,omitempty"`
	PrintedAt       *time.Time       `json:"printed_date,omitempty"`
	ApprovedAt      *time.Time       `json:"approved_date,omitempty"`
	ReleasedAt      *time.Time       `json:"released_date,omitempty"`
	Terms           LoanTerms        `json:"terms"`
	Comaker         json.RawMessage  `json:"comaker"`
	PreviousLoanID  *uuid.UUID       `json:"previous_loan_id,omitempty"`
	SchemeID        *uuid.UUID       `json:"scheme_id,omitempty"`
	Entries         []Entry          `json:"entries"`
	Accounts        []LoanAccount    `json:"accounts"`
	Signatures      Signatures       `json:"signatures"`
	Pricing         Pricing          `json:"pricing"`
	Version         int              `json:"version"`
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// MarshalJSON renders the loan with its derived status.
func (lt *LoanTransaction) MarshalJSON() ([]byte, error) {
	comaker, err := EncodeComaker(lt.comaker)
	if err != nil {
		return nil, err
	}
	return json.Marshal(loanJSON{
		ID:              lt.ID,
		MemberProfileID: lt.MemberProfileID,
		CurrencyID:      lt.CurrencyID,
		LoanType:        lt.loanType,
		Status:          lt.lifecycle.Status(),
		Voucher:         lt.lifecycle.Voucher(),
		PrintedAt:       optionalTime(lt.lifecycle.PrintedAt()),
		ApprovedAt:      optionalTime(lt.lifecycle.ApprovedAt()),
		ReleasedAt:      optionalTime(lt.lifecycle.ReleasedAt()),
		Terms:           lt.terms,
		Comaker:         comaker,
		PreviousLoanID:  lt.previousLoanID,
		SchemeID:        lt.SchemeID,
		Entries:         lt.Entries,
		Accounts:        lt.Accounts,
		Signatures:      lt.Signatures,
		Pricing:         lt.Pricing,
		Version:         lt.Version,
	})
}
