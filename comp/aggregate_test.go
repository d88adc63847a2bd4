package comp_test

import (
	"testing"

	"github.com/warp/comp-engine/comp"
)

func standardSplit() comp.SplitConfig {
	return comp.SplitConfig{BookingPct: dec(75), YearEndPct: dec(10)}
}

func TestAggregate_ComposesAllSources(t *testing.T) {
	// GIVEN: One metric (24,000), one commission (40,000), NRR (9,000),
	//        SPIFF (2,500), no clawback
	// THEN: Eligible = 75,500; SPIFF lands fully in paid

	metric, err := comp.EvaluateMetric(linearMetric(40, 0, 150), dec(100000), dec(120000), usd(50000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	metric.ApplySplit(standardSplit())

	commission := comp.CalculateCommission("deal-1", usd(500000), dec(8))
	commission.ApplySplit(standardSplit())

	nrr := comp.CalculateNRR(comp.NRRInput{
		EligibleCrEr: usd(180000),
		Target:       usd(200000),
		Pool:         usd(10000),
	})
	nrr.ApplySplit(standardSplit())

	spiff := comp.AggregateSpiff([]comp.Deal{spiffDeal("big", 250000)}, usd(200000), dec(1))

	result := comp.Aggregate("emp-1", comp.MonthPeriod(2025, 3),
		[]comp.MetricResult{metric}, []comp.CommissionResult{commission},
		&nrr, &spiff, comp.ZeroUSD())

	if !result.TotalEligible.Equal(usd(75500)) {
		t.Errorf("expected 75500 eligible, got %s", result.TotalEligible.Value)
	}

	// Split sources pay 75% at booking (18000 + 30000 + 6750); SPIFF pays
	// in full.
	wantPaid := usd(18000 + 30000 + 6750 + 2500)
	if !result.TotalPaid.Equal(wantPaid) {
		t.Errorf("expected %s paid, got %s", wantPaid.Value, result.TotalPaid.Value)
	}

	// SPIFF never contributes to holdback (3600 + 6000 + 1350).
	wantHoldback := usd(3600 + 6000 + 1350)
	if !result.TotalHoldback.Equal(wantHoldback) {
		t.Errorf("expected %s holdback, got %s", wantHoldback.Value, result.TotalHoldback.Value)
	}
}

func TestAggregate_OptionalComponentsAbsent(t *testing.T) {
	// A plan without NRR or SPIFF contributes nothing from those sources and
	// the result stays distinguishable from "configured but zero payout".
	result := comp.Aggregate("emp-1", comp.MonthPeriod(2025, 3), nil, nil, nil, nil, comp.ZeroUSD())

	if result.NRR != nil || result.Spiff != nil {
		t.Error("absent components must stay nil in the result")
	}
	if !result.TotalEligible.IsZero() || !result.TotalPaid.IsZero() {
		t.Error("empty inputs must aggregate to zero")
	}
}

func TestAggregate_ClawbackReducesPaidNotEligible(t *testing.T) {
	// GIVEN: 40,000 commission with 75/10 split and a 5,000 clawback
	// THEN: Eligible unchanged; paid reduced by the clawback

	commission := comp.CalculateCommission("deal-1", usd(500000), dec(8))
	commission.ApplySplit(standardSplit())

	result := comp.Aggregate("emp-1", comp.MonthPeriod(2025, 3),
		nil, []comp.CommissionResult{commission}, nil, nil, usd(5000))

	if !result.TotalEligible.Equal(usd(40000)) {
		t.Errorf("clawback must not touch eligible: expected 40000, got %s",
			result.TotalEligible.Value)
	}
	if !result.TotalPaid.Equal(usd(25000)) {
		t.Errorf("expected 30000 - 5000 = 25000 paid, got %s", result.TotalPaid.Value)
	}
	if !result.ClawbackBalance.Equal(usd(5000)) {
		t.Errorf("expected 5000 balance, got %s", result.ClawbackBalance.Value)
	}
}

func TestMonthPeriod_Contains(t *testing.T) {
	p := comp.MonthPeriod(2025, 3)
	if !p.Contains(p.Start) || !p.Contains(p.End) {
		t.Error("period must contain its own bounds")
	}
	if p.Contains(p.End.AddDate(0, 0, 1)) {
		t.Error("period must not contain the next month")
	}
}
