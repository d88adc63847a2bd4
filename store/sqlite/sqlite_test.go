package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/comp-engine/collection"
	"github.com/warp/comp-engine/comp"
	"github.com/warp/comp-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(n float64) decimal.Decimal { return decimal.NewFromFloat(n) }

var march = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

// =============================================================================
// COLLECTION CAS
// =============================================================================

func TestResolve_ConditionalUpdateWinsOnce(t *testing.T) {
	// GIVEN: A pending collection record
	// WHEN: Two resolutions arrive
	// THEN: The first conditional UPDATE wins; the second affects no rows

	store := newTestStore(t)
	ctx := context.Background()

	record := collection.Collection{
		ID:                 "c1",
		DealID:             "deal-1",
		EmployeeID:         "emp-1",
		DealValue:          comp.USD(500000),
		DisbursedAtBooking: comp.USD(75000),
		DueDate:            march,
		State:              collection.StatePending,
	}
	if err := store.Create(ctx, record); err != nil {
		t.Fatalf("Failed to create collection: %v", err)
	}

	now := march.AddDate(0, 3, 0)
	won, err := store.Resolve(ctx, "c1", collection.Resolution{
		State:          collection.StateClawedBack,
		ClawbackAmount: comp.USD(75000),
		ResolvedBy:     "admin",
		ResolvedAt:     now,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !won {
		t.Fatal("first resolution must win")
	}

	won, err = store.Resolve(ctx, "c1", collection.Resolution{
		State:          collection.StateCollected,
		CollectionDate: &now,
		ClawbackAmount: comp.ZeroUSD(),
		ResolvedBy:     "latecomer",
		ResolvedAt:     now,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if won {
		t.Fatal("second resolution must lose the CAS")
	}

	// The winner's resolution stands.
	got, err := store.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.State != collection.StateClawedBack {
		t.Errorf("expected clawed_back, got %s", got.State)
	}
	if got.ResolvedBy != "admin" {
		t.Errorf("expected winner's audit trail, got %q", got.ResolvedBy)
	}
	if !got.ClawbackAmount.Equal(comp.USD(75000)) {
		t.Errorf("expected 75000 clawback, got %s", got.ClawbackAmount.Value)
	}
}

func TestCollection_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	due := march.AddDate(0, 0, 90)
	record := collection.Collection{
		ID:                 "c1",
		DealID:             "deal-1",
		EmployeeID:         "emp-1",
		DealValue:          comp.USD(500000),
		DisbursedAtBooking: comp.USD(75000),
		DueDate:            due,
		State:              collection.StatePending,
	}
	if err := store.Create(ctx, record); err != nil {
		t.Fatalf("Failed to create collection: %v", err)
	}

	got, err := store.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.DealValue.Equal(comp.USD(500000)) {
		t.Errorf("deal value mangled: %s", got.DealValue.Value)
	}
	if !got.DisbursedAtBooking.Equal(comp.USD(75000)) {
		t.Errorf("disbursed mangled: %s", got.DisbursedAtBooking.Value)
	}
	if !got.DueDate.Equal(due) {
		t.Errorf("due date mangled: %s", got.DueDate)
	}
	if got.CollectionDate != nil || got.ResolvedAt != nil {
		t.Error("unresolved record must have nil resolution fields")
	}

	if _, err := store.Get(ctx, "missing"); err != collection.ErrNotFound {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestListPendingDueBefore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mk := func(id string, due time.Time) collection.Collection {
		return collection.Collection{
			ID: collection.CollectionID(id), DealID: comp.DealID("deal-" + id),
			EmployeeID: "emp-1", DealValue: comp.USD(1000),
			DisbursedAtBooking: comp.USD(100), DueDate: due,
			State: collection.StatePending,
		}
	}
	cutoff := march.AddDate(0, 3, 0)
	if err := store.Create(ctx, mk("late", march)); err != nil {
		t.Fatal(err)
	}
	if err := store.Create(ctx, mk("future", cutoff.AddDate(0, 1, 0))); err != nil {
		t.Fatal(err)
	}

	overdue, err := store.ListPendingDueBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("ListPendingDueBefore failed: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != "late" {
		t.Errorf("expected only the late record, got %d records", len(overdue))
	}

	// A resolved record drops out of the queue.
	now := cutoff
	if _, err := store.Resolve(ctx, "late", collection.Resolution{
		State: collection.StateClawedBack, ClawbackAmount: comp.USD(100),
		ResolvedBy: "admin", ResolvedAt: now,
	}); err != nil {
		t.Fatal(err)
	}
	overdue, err = store.ListPendingDueBefore(ctx, cutoff)
	if err != nil {
		t.Fatal(err)
	}
	if len(overdue) != 0 {
		t.Errorf("resolved record must leave the queue, got %d", len(overdue))
	}
}

// =============================================================================
// DEALS AND FACTS
// =============================================================================

func TestDeal_RoundTripWithParticipants(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	deal := comp.Deal{
		ID:            "deal-1",
		EmployeeID:    "emp-1",
		ValueUSD:      comp.USD(250000),
		LocalValue:    dec(230000),
		LocalCurrency: "EUR",
		BookingMonth:  march,
		IsMultiYear:   true,
		RenewalYears:  3,
		Participants: []comp.Participant{
			{EmployeeID: "emp-1", SplitPct: dec(60)},
			{EmployeeID: "emp-2", SplitPct: dec(40)},
		},
	}
	if err := store.CreateDeal(ctx, deal); err != nil {
		t.Fatalf("CreateDeal failed: %v", err)
	}

	deals, err := store.ListDeals(ctx, "emp-1", march)
	if err != nil {
		t.Fatalf("ListDeals failed: %v", err)
	}
	if len(deals) != 1 {
		t.Fatalf("expected 1 deal, got %d", len(deals))
	}
	got := deals[0]
	if !got.ValueUSD.Equal(deal.ValueUSD) || !got.IsMultiYear || got.RenewalYears != 3 {
		t.Errorf("deal attributes mangled: %+v", got)
	}
	if len(got.Participants) != 2 || !got.Participants[1].SplitPct.Equal(dec(40)) {
		t.Errorf("participants mangled: %+v", got.Participants)
	}

	// Other months stay empty.
	deals, err = store.ListDeals(ctx, "emp-1", march.AddDate(0, 1, 0))
	if err != nil {
		t.Fatal(err)
	}
	if len(deals) != 0 {
		t.Errorf("expected no deals in April, got %d", len(deals))
	}
}

func TestMetricFact_UpsertOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fact := sqlite.MetricFact{
		EmployeeID: "emp-1", MetricID: "arr", Month: march,
		Target: dec(100000), Actual: dec(90000),
	}
	if err := store.UpsertMetricFact(ctx, fact); err != nil {
		t.Fatal(err)
	}
	fact.Actual = dec(120000)
	if err := store.UpsertMetricFact(ctx, fact); err != nil {
		t.Fatal(err)
	}

	facts, err := store.ListMetricFacts(ctx, "emp-1", march)
	if err != nil {
		t.Fatal(err)
	}
	if len(facts) != 1 {
		t.Fatalf("upsert must not duplicate, got %d rows", len(facts))
	}
	if !facts[0].Actual.Equal(dec(120000)) {
		t.Errorf("expected updated actual 120000, got %s", facts[0].Actual)
	}
}

func TestCloseRun_IdempotencyKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fyStart := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	done, err := store.IsYearClosed(ctx, "emp-1", fyStart)
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Fatal("year must start open")
	}

	now := time.Now().UTC()
	run := sqlite.CloseRun{
		EmployeeID:      "emp-1",
		FiscalYearStart: fyStart,
		ReleasedAmount:  dec(2400),
		Status:          "completed",
		CompletedAt:     &now,
	}
	if err := store.SaveCloseRun(ctx, run); err != nil {
		t.Fatal(err)
	}

	done, err = store.IsYearClosed(ctx, "emp-1", fyStart)
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Error("completed run must mark the year closed")
	}

	// A failed run does not close the year.
	otherYear := fyStart.AddDate(1, 0, 0)
	if err := store.SaveCloseRun(ctx, sqlite.CloseRun{
		EmployeeID: "emp-1", FiscalYearStart: otherYear,
		ReleasedAmount: dec(0), Status: "failed", Error: "plan missing",
	}); err != nil {
		t.Fatal(err)
	}
	done, err = store.IsYearClosed(ctx, "emp-1", otherYear)
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("failed run must leave the year open")
	}
}
