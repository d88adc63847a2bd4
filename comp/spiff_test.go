package comp_test

import (
	"testing"

	"github.com/warp/comp-engine/comp"
)

func spiffDeal(id string, value float64) comp.Deal {
	return comp.Deal{ID: comp.DealID(id), EmployeeID: "emp-1", ValueUSD: usd(value)}
}

func TestAggregateSpiff_StrictThreshold(t *testing.T) {
	// GIVEN: A 200,000 threshold and a 1% rate
	// WHEN: Deals at 150k, exactly 200k, and 250k
	// THEN: Only the 250k deal qualifies; a deal AT the threshold does not

	deals := []comp.Deal{
		spiffDeal("small", 150000),
		spiffDeal("exact", 200000),
		spiffDeal("large", 250000),
	}

	result := comp.AggregateSpiff(deals, usd(200000), dec(1))

	if !result.EligibleActuals.Equal(usd(250000)) {
		t.Errorf("expected 250000 eligible, got %s", result.EligibleActuals.Value)
	}
	if !result.TotalBonus.Equal(usd(2500)) {
		t.Errorf("expected 2500 bonus, got %s", result.TotalBonus.Value)
	}

	if len(result.Breakdown) != 3 {
		t.Fatalf("expected breakdown for all 3 deals, got %d", len(result.Breakdown))
	}
	for _, b := range result.Breakdown {
		wantEligible := b.DealID == "large"
		if b.Eligible != wantEligible {
			t.Errorf("deal %s: eligible = %v, want %v", b.DealID, b.Eligible, wantEligible)
		}
	}
}

func TestAggregateSpiff_MultipleQualifyingDeals(t *testing.T) {
	deals := []comp.Deal{
		spiffDeal("a", 300000),
		spiffDeal("b", 210000),
	}
	result := comp.AggregateSpiff(deals, usd(200000), dec(1))

	if !result.EligibleActuals.Equal(usd(510000)) {
		t.Errorf("expected 510000 eligible, got %s", result.EligibleActuals.Value)
	}
	if !result.TotalBonus.Equal(usd(5100)) {
		t.Errorf("expected 5100 bonus, got %s", result.TotalBonus.Value)
	}
}

func TestAggregateSpiff_PaidInFullByDefault(t *testing.T) {
	result := comp.AggregateSpiff([]comp.Deal{spiffDeal("big", 250000)}, usd(200000), dec(1))

	if !result.Paid.Equal(result.TotalBonus) {
		t.Errorf("default disbursement must pay the full bonus, got %s of %s",
			result.Paid.Value, result.TotalBonus.Value)
	}
	if !result.Holdback.IsZero() || !result.YearEndHoldback.IsZero() {
		t.Error("default disbursement must withhold nothing")
	}
}

func TestSpiffResult_ApplySplit(t *testing.T) {
	// GIVEN: A 2,500 bonus on a plan that withholds SPIFF pay
	// WHEN: Applying a 75% booking / 10% year-end split
	// THEN: Tranches reconcile exactly to the bonus

	result := comp.AggregateSpiff([]comp.Deal{spiffDeal("big", 250000)}, usd(200000), dec(1))
	result.ApplySplit(comp.SplitConfig{BookingPct: dec(75), YearEndPct: dec(10)})

	if !result.Paid.Equal(usd(1875)) {
		t.Errorf("expected 1875 paid at booking, got %s", result.Paid.Value)
	}
	if !result.YearEndHoldback.Equal(usd(250)) {
		t.Errorf("expected 250 year-end, got %s", result.YearEndHoldback.Value)
	}
	total := result.Paid.Add(result.Holdback).Add(result.YearEndHoldback)
	if !total.Equal(result.TotalBonus) {
		t.Errorf("tranches sum to %s, want %s", total.Value, result.TotalBonus.Value)
	}
}

func TestAggregateSpiff_NoDeals(t *testing.T) {
	result := comp.AggregateSpiff(nil, usd(200000), dec(1))
	if !result.TotalBonus.IsZero() {
		t.Errorf("no deals must pay zero, got %s", result.TotalBonus.Value)
	}
}
