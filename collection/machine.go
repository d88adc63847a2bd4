/*
machine.go - Collection & clawback transition service

PURPOSE:
  Orchestrates the two terminal transitions:

  MarkCollected:
    pending -> collected. Requires a collection date; clears the derived
    overdue status by construction (a collected record is never overdue).

  TriggerClawback:
    pending -> clawed_back. Requires (a) the record is still pending,
    (b) the due date has passed, and (c) an explicit trigger - never
    automatic. The clawback amount defaults to the booking-pay tranche
    already disbursed (bookingPct x dealValue) unless the plan supplies an
    override, and can never exceed what was disbursed.

CONCURRENCY:
  Both transitions go through Store.Resolve, a compare-and-set on the
  pending state. When two callers race, exactly one resolution wins; the
  loser re-reads the record and returns the existing resolution as an
  idempotent no-op (Outcome.AlreadyResolved).
*/
package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/comp-engine/comp"
)

// =============================================================================
// SERVICE
// =============================================================================

// Service drives collection state transitions.
type Service struct {
	Store Store

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewService(store Store) *Service {
	return &Service{Store: store, Now: time.Now}
}

// Outcome is returned to the caller that issued a transition action.
type Outcome struct {
	Collection Collection

	// AlreadyResolved is true when this call was a no-op because the
	// record had already reached a terminal state.
	AlreadyResolved bool
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// MarkCollected confirms payment for a pending collection.
// Calling it on a resolved record is an idempotent no-op.
func (s *Service) MarkCollected(ctx context.Context, id CollectionID, collectedAt time.Time, actor string) (Outcome, error) {
	record, err := s.Store.Get(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if record.State.Terminal() {
		return Outcome{Collection: record, AlreadyResolved: true}, nil
	}

	now := s.now()
	won, err := s.Store.Resolve(ctx, id, Resolution{
		State:          StateCollected,
		CollectionDate: &collectedAt,
		ClawbackAmount: record.DealValue.Zero(),
		ResolvedBy:     actor,
		ResolvedAt:     now,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to mark collected: %w", err)
	}
	return s.outcomeAfterResolve(ctx, id, won)
}

// TriggerClawback recovers the disbursed booking tranche for an overdue
// pending collection. override, when non-nil, replaces the default amount
// but is still capped by what was disbursed.
func (s *Service) TriggerClawback(ctx context.Context, id CollectionID, override *comp.Money, actor string) (Outcome, error) {
	record, err := s.Store.Get(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if record.State.Terminal() {
		return Outcome{Collection: record, AlreadyResolved: true}, nil
	}

	now := s.now()
	if !record.IsOverdue(now) {
		return Outcome{}, fmt.Errorf("%w: due %s", ErrNotOverdue, record.DueDate.Format("2006-01-02"))
	}

	amount := record.DisbursedAtBooking
	if override != nil {
		if override.GreaterThan(record.DisbursedAtBooking) {
			return Outcome{}, ErrClawbackExceedsDisbursed
		}
		amount = *override
	}

	won, err := s.Store.Resolve(ctx, id, Resolution{
		State:          StateClawedBack,
		ClawbackAmount: amount,
		ResolvedBy:     actor,
		ResolvedAt:     now,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to trigger clawback: %w", err)
	}
	return s.outcomeAfterResolve(ctx, id, won)
}

// outcomeAfterResolve re-reads the record. When the CAS lost, the record
// carries the winner's resolution and the call reports the no-op.
func (s *Service) outcomeAfterResolve(ctx context.Context, id CollectionID, won bool) (Outcome, error) {
	record, err := s.Store.Get(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Collection: record, AlreadyResolved: !won}, nil
}

// =============================================================================
// READS
// =============================================================================

// OutstandingClawback sums clawed-back amounts for an employee. This feeds
// the aggregator's net-paid calculation.
func (s *Service) OutstandingClawback(ctx context.Context, employeeID comp.EmployeeID) (comp.Money, error) {
	records, err := s.Store.ListByEmployee(ctx, employeeID)
	if err != nil {
		return comp.ZeroUSD(), err
	}
	total := comp.ZeroUSD()
	for _, r := range records {
		if r.State == StateClawedBack {
			total = total.Add(r.ClawbackAmount)
		}
	}
	return total, nil
}

// Overdue returns the review queue: pending records past due as of now.
func (s *Service) Overdue(ctx context.Context) ([]Collection, error) {
	return s.Store.ListPendingDueBefore(ctx, s.now())
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
