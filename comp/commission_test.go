package comp_test

import (
	"testing"

	"github.com/warp/comp-engine/comp"
)

func TestCalculateCommission(t *testing.T) {
	// GIVEN: A 500,000 deal at an 8% rate
	// THEN: 40,000 gross commission

	result := comp.CalculateCommission("deal-1", usd(500000), dec(8))
	if !result.GrossPayout.Equal(usd(40000)) {
		t.Errorf("expected 40000 gross, got %s", result.GrossPayout.Value)
	}
}

func TestCalculateCommission_ZeroValueDeal(t *testing.T) {
	result := comp.CalculateCommission("deal-1", comp.ZeroUSD(), dec(8))
	if !result.GrossPayout.IsZero() {
		t.Errorf("zero-value deal must pay zero, got %s", result.GrossPayout.Value)
	}
}

func TestCommissionResult_ApplySplit(t *testing.T) {
	result := comp.CalculateCommission("deal-1", usd(500000), dec(8))
	result.ApplySplit(comp.SplitConfig{BookingPct: dec(75), YearEndPct: dec(10)})

	if !result.Paid.Equal(usd(30000)) {
		t.Errorf("expected 30000 paid at booking, got %s", result.Paid.Value)
	}
	total := result.Paid.Add(result.Holdback).Add(result.YearEndHoldback)
	if !total.Equal(result.GrossPayout) {
		t.Errorf("tranches sum to %s, want %s", total.Value, result.GrossPayout.Value)
	}
}

// =============================================================================
// PARTICIPANT SPLITS
// =============================================================================

func TestParticipantValue_SoleOwner(t *testing.T) {
	deal := comp.Deal{ID: "d", EmployeeID: "emp-1", ValueUSD: usd(100000)}

	if v := deal.ParticipantValue("emp-1"); !v.Equal(usd(100000)) {
		t.Errorf("sole owner gets full value, got %s", v.Value)
	}
	if v := deal.ParticipantValue("emp-2"); !v.IsZero() {
		t.Errorf("non-owner gets zero, got %s", v.Value)
	}
}

func TestParticipantValue_SharedDeal(t *testing.T) {
	// GIVEN: A 100,000 deal split 60/40 between two reps
	deal := comp.Deal{
		ID:         "d",
		EmployeeID: "emp-1",
		ValueUSD:   usd(100000),
		Participants: []comp.Participant{
			{EmployeeID: "emp-1", SplitPct: dec(60)},
			{EmployeeID: "emp-2", SplitPct: dec(40)},
		},
	}

	if v := deal.ParticipantValue("emp-1"); !v.Equal(usd(60000)) {
		t.Errorf("expected 60000, got %s", v.Value)
	}
	if v := deal.ParticipantValue("emp-2"); !v.Equal(usd(40000)) {
		t.Errorf("expected 40000, got %s", v.Value)
	}
	// Not on the deal: zero, never the full value.
	if v := deal.ParticipantValue("emp-3"); !v.IsZero() {
		t.Errorf("expected zero for non-participant, got %s", v.Value)
	}
}

func TestCommissionForParticipant(t *testing.T) {
	deal := comp.Deal{
		ID:         "d",
		EmployeeID: "emp-1",
		ValueUSD:   usd(100000),
		Participants: []comp.Participant{
			{EmployeeID: "emp-1", SplitPct: dec(60)},
			{EmployeeID: "emp-2", SplitPct: dec(40)},
		},
	}
	result := comp.CommissionForParticipant(deal, "emp-2", dec(8))
	if !result.GrossPayout.Equal(usd(3200)) {
		t.Errorf("expected 3200 (40000 x 8%%), got %s", result.GrossPayout.Value)
	}
}
