/*
store.go - Persistence contract for collection records

PURPOSE:
  Defines the interface between the state machine and the database. The
  critical method is Resolve: a compare-and-set that only succeeds while
  the record is still pending. Two concurrent terminal transitions can
  never both win - the store serializes them, either with a mutex
  (store/memory) or a conditional UPDATE (store/sqlite).
*/
package collection

import (
	"context"
	"time"

	"github.com/warp/comp-engine/comp"
)

// Resolution is the terminal outcome applied by a CAS resolve.
type Resolution struct {
	State          State
	CollectionDate *time.Time
	ClawbackAmount comp.Money
	ResolvedBy     string
	ResolvedAt     time.Time
}

// Store persists collection records.
type Store interface {
	// Create inserts a new pending record.
	Create(ctx context.Context, c Collection) error

	// Get returns the record or ErrNotFound.
	Get(ctx context.Context, id CollectionID) (Collection, error)

	// ListByEmployee returns all records for an employee.
	ListByEmployee(ctx context.Context, employeeID comp.EmployeeID) ([]Collection, error)

	// ListPendingDueBefore returns pending records with a due date before
	// the cutoff (the overdue review queue).
	ListPendingDueBefore(ctx context.Context, cutoff time.Time) ([]Collection, error)

	// Resolve applies a terminal resolution if and only if the record is
	// still pending. Returns (false, nil) when the record was already
	// resolved - the caller treats that as the idempotent no-op.
	Resolve(ctx context.Context, id CollectionID, r Resolution) (bool, error)
}
