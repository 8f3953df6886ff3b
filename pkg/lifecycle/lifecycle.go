// Package lifecycle implements the loan transaction state machine:
// Draft -> Printed -> Approved -> Released, with undo-print and undo-approve
// as the only backward moves.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/coop-lending/pkg/loanerr"
)

// Status is the lifecycle state of a loan transaction.
type Status int

const (
	Draft Status = iota
	Printed
	Approved
	Released
)

var statusNames = [...]string{"draft", "printed", "approved", "released"}

func (s Status) String() string {
	if s < Draft || s > Released {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// ParseStatus converts a status name into a Status.
func ParseStatus(name string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i, n := range statusNames {
		if n == key {
			return Status(i), nil
		}
	}
	return Draft, fmt.Errorf("unknown lifecycle status %q", name)
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

var transitions = map[Status][]Status{
	Draft:    {Printed},
	Printed:  {Approved, Draft},
	Approved: {Released, Printed},
	Released: {},
}

// Next lists the statuses reachable from s in one transition.
func Next(s Status) []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// Batch is the transaction batch a loan is released into.
type Batch struct {
	ID         string
	CurrencyID string
	Open       bool
}

// Input carries the preconditions of a transition. Only the fields relevant
// to the requested transition are consulted.
type Input struct {
	Voucher           string
	At                time.Time
	Batch             *Batch
	AccountCurrencyID string
}

func (in Input) at() time.Time {
	if in.At.IsZero() {
		return time.Now().UTC()
	}
	return in.At
}

// Lifecycle holds the status of a loan and the timestamps that record how it
// got there. The zero value is a Draft. Fields are only changed by the
// transition functions, each of which returns a new value and leaves the
// receiver untouched.
type Lifecycle struct {
	status     Status
	voucher    string
	printedAt  time.Time
	approvedAt time.Time
	releasedAt time.Time
	batchID    string
}

func (l Lifecycle) Status() Status { return l.status }
func (l Lifecycle) Voucher() string { return l.voucher }
func (l Lifecycle) PrintedAt() time.Time { return l.printedAt }
func (l Lifecycle) ApprovedAt() time.Time { return l.approvedAt }
func (l Lifecycle) ReleasedAt() time.Time { return l.releasedAt }
func (l Lifecycle) BatchID() string { return l.batchID }

// Editable reports whether the core financial fields may still change.
func (l Lifecycle) Editable() bool {
	return l.status == Draft
}

func illegal(op string, from, to Status) error {
	return loanerr.New(loanerr.IllegalTransition, op, "cannot move from %s to %s", from, to)
}

// Print moves a Draft to Printed and assigns the voucher.
func (l Lifecycle) Print(voucher string, at time.Time) (Lifecycle, error) {
	const op = "lifecycle.Print"
	if l.status != Draft {
		return l, illegal(op, l.status, Printed)
	}
	voucher = strings.TrimSpace(voucher)
	if voucher == "" {
		return l, loanerr.New(loanerr.MissingVoucher, op, "printing requires a voucher")
	}
	next := l
	next.status = Printed
	next.voucher = voucher
	next.printedAt = at
	return next, nil
}

// Approve moves a Printed loan to Approved.
func (l Lifecycle) Approve(at time.Time) (Lifecycle, error) {
	if l.status != Printed {
		return l, illegal("lifecycle.Approve", l.status, Approved)
	}
	next := l
	next.status = Approved
	next.approvedAt = at
	return next, nil
}

// UndoApprove moves an Approved loan back to Printed. The print date and
// voucher are kept.
func (l Lifecycle) UndoApprove() (Lifecycle, error) {
	if l.status != Approved {
		return l, illegal("lifecycle.UndoApprove", l.status, Printed)
	}
	next := l
	next.status = Printed
	next.approvedAt = time.Time{}
	return next, nil
}

// UndoPrint moves a Printed loan that was never approved back to Draft.
func (l Lifecycle) UndoPrint() (Lifecycle, error) {
	if l.status != Printed {
		return l, illegal("lifecycle.UndoPrint", l.status, Draft)
	}
	next := l
	next.status = Draft
	next.printedAt = time.Time{}
	next.voucher = ""
	return next, nil
}

// Release moves an Approved loan to Released within an open batch whose
// currency matches the loan account's.
func (l Lifecycle) Release(batch *Batch, accountCurrencyID string, at time.Time) (Lifecycle, error) {
	const op = "lifecycle.Release"
	if l.status != Approved {
		return l, illegal(op, l.status, Released)
	}
	if batch == nil || !batch.Open {
		return l, loanerr.New(loanerr.NoOpenBatch, op, "no open transaction batch")
	}
	if batch.CurrencyID != accountCurrencyID {
		return l, loanerr.New(loanerr.CurrencyMismatch, op,
			"batch %s is in %s, loan account is in %s", batch.ID, batch.CurrencyID, accountCurrencyID)
	}
	next := l
	next.status = Released
	next.releasedAt = at
	next.batchID = batch.ID
	return next, nil
}

// Transition applies the transition from the current status to to. On error
// the returned Lifecycle equals l.
func Transition(l Lifecycle, to Status, in Input) (Lifecycle, error) {
	switch {
	case l.status == Draft && to == Printed:
		return l.Print(in.Voucher, in.at())
	case l.status == Printed && to == Approved:
		return l.Approve(in.at())
	case l.status == Approved && to == Printed:
		return l.UndoApprove()
	case l.status == Printed && to == Draft:
		return l.UndoPrint()
	case l.status == Approved && to == Released:
		return l.Release(in.Batch, in.AccountCurrencyID, in.at())
	}
	return l, illegal("lifecycle.Transition", l.status, to)
}

// Record is the persisted form of a Lifecycle. Unset timestamps are zero.
type Record struct {
	Voucher    string
	PrintedAt  time.Time
	ApprovedAt time.Time
	ReleasedAt time.Time
	BatchID    string
}

// Snapshot returns the persisted form of l.
func (l Lifecycle) Snapshot() Record {
	return Record{
		Voucher:    l.voucher,
		PrintedAt:  l.printedAt,
		ApprovedAt: l.approvedAt,
		ReleasedAt: l.releasedAt,
		BatchID:    l.batchID,
	}
}

// Restore rebuilds a Lifecycle from persisted timestamps, deriving the status
// and rejecting records where released does not imply approved, approved does
// not imply printed, or the timestamps go backwards.
func Restore(r Record) (Lifecycle, error) {
	const op = "lifecycle.Restore"
	printed, approved, released := !r.PrintedAt.IsZero(), !r.ApprovedAt.IsZero(), !r.ReleasedAt.IsZero()

	switch {
	case released && !approved:
		return Lifecycle{}, loanerr.New(loanerr.IllegalTransition, op, "released without approval")
	case approved && !printed:
		return Lifecycle{}, loanerr.New(loanerr.IllegalTransition, op, "approved without printing")
	case printed && strings.TrimSpace(r.Voucher) == "":
		return Lifecycle{}, loanerr.New(loanerr.MissingVoucher, op, "printed without a voucher")
	case approved && r.ApprovedAt.Before(r.PrintedAt):
		return Lifecycle{}, loanerr.New(loanerr.IllegalTransition, op, "approved before printed")
	case released && r.ReleasedAt.Before(r.ApprovedAt):
		return Lifecycle{}, loanerr.New(loanerr.IllegalTransition, op, "released before approved")
	}

	l := Lifecycle{
		voucher:    r.Voucher,
		printedAt:  r.PrintedAt,
		approvedAt: r.ApprovedAt,
		releasedAt: r.ReleasedAt,
		batchID:    r.BatchID,
	}
	switch {
	case released:
		l.status = Released
	case approved:
		l.status = Approved
	case printed:
		l.status = Printed
	}
	return l, nil
}
