/*
Package collection tracks receivables and clawback for booked deals.

PURPOSE:
  Every deal has a 1:1 collection record with a due date. The record is the
  ONE piece of durable mutable state in the compensation engine:

      pending ──▶ collected    (payment confirmed)
      pending ──▶ clawed_back  (deadline passed, recovery triggered)

  Both terminal states are final; no transition leaves them.

OVERDUE IS DERIVED:
  "Overdue" (pending + due date passed) is a read-only status computed at
  read time from the wall clock. The record stays `pending` until an
  explicit action resolves it - there is no background timer flipping
  state.

IDEMPOTENCE:
  Re-triggering a resolved record is a no-op returning the existing
  resolution, not an error. Concurrent trigger calls race through a
  compare-and-set in the store; the loser observes the no-op.

SEE ALSO:
  - machine.go: transition service
  - store.go: persistence contract with CAS resolution
*/
package collection

import (
	"errors"
	"fmt"
	"time"

	"github.com/warp/comp-engine/comp"
)

// =============================================================================
// STATES
// =============================================================================

type State string

const (
	StatePending    State = "pending"
	StateCollected  State = "collected"
	StateClawedBack State = "clawed_back"
)

// Terminal reports whether no transition can leave the state.
func (s State) Terminal() bool {
	return s == StateCollected || s == StateClawedBack
}

// =============================================================================
// COLLECTION RECORD
// =============================================================================

type CollectionID string

// Collection is the receivables record tied 1:1 to a deal.
// Invariants: collected and clawed-back are mutually exclusive;
// ClawbackAmount never exceeds DisbursedAtBooking.
type Collection struct {
	ID         CollectionID
	DealID     comp.DealID
	EmployeeID comp.EmployeeID

	// DealValue is the deal's USD value at booking.
	DealValue comp.Money

	// DisbursedAtBooking is the booking share of the deal value treated as
	// already paid out, the default clawback amount.
	DisbursedAtBooking comp.Money

	DueDate time.Time

	State          State
	CollectionDate *time.Time
	ClawbackAmount comp.Money

	// Audit trail of the terminal transition.
	ResolvedBy string
	ResolvedAt *time.Time

	CreatedAt time.Time
}

// IsOverdue reports the derived overdue status: still pending with the due
// date behind us.
func (c Collection) IsOverdue(asOf time.Time) bool {
	return c.State == StatePending && asOf.After(c.DueDate)
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrAlreadyResolved signals an idempotent no-op: the record reached a
	// terminal state before this call. Callers report "already resolved",
	// not a failure.
	ErrAlreadyResolved = errors.New("collection already resolved")

	// ErrNotOverdue is returned when clawback is triggered before the due
	// date has passed.
	ErrNotOverdue = errors.New("collection is not overdue")

	// ErrNotFound is returned for unknown collection IDs.
	ErrNotFound = errors.New("collection not found")

	// ErrClawbackExceedsDisbursed rejects recovery of more than was paid.
	ErrClawbackExceedsDisbursed = errors.New("clawback amount exceeds disbursed amount")
)

// AlreadyResolvedError carries the existing resolution for the caller.
type AlreadyResolvedError struct {
	ID    CollectionID
	State State
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("collection %s already resolved as %s", e.ID, e.State)
}

func (e *AlreadyResolvedError) Unwrap() error { return ErrAlreadyResolved }
