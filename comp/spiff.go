/*
spiff.go - SPIFF bonus aggregation

PURPOSE:
  A SPIFF is a flat-rate bonus pool paid on deals exceeding a qualifying
  value threshold. The aggregator scans the period's deals, marks each as
  eligible or not (for auditability), sums the qualifying values, and
  applies the flat rate.

ELIGIBILITY IS STRICT:
  dealValue > threshold. A deal valued exactly at the threshold does NOT
  qualify.

DISBURSEMENT POLICY:
  SPIFF bonuses default to full payment at booking - no holdback or
  year-end split. A plan that opts out of full payment calls ApplySplit,
  which withholds tranches exactly like the other payout sources.
*/
package comp

import "github.com/shopspring/decimal"

// =============================================================================
// SPIFF RESULT
// =============================================================================

// SpiffDealEligibility is the per-deal audit record.
type SpiffDealEligibility struct {
	DealID   DealID
	Value    Money
	Eligible bool
}

// SpiffResult aggregates the large-deal bonus for a period.
type SpiffResult struct {
	RatePct   decimal.Decimal
	Threshold Money

	Breakdown       []SpiffDealEligibility
	EligibleActuals Money
	TotalBonus      Money

	Paid            Money
	Holdback        Money
	YearEndHoldback Money
}

// ApplySplit withholds SPIFF pay like the other sources. Aggregation pays
// the full bonus at booking unless this is called.
func (r *SpiffResult) ApplySplit(split SplitConfig) {
	t := split.Split(r.TotalBonus)
	r.Paid = t.PaidAtBooking
	r.Holdback = t.Holdback
	r.YearEndHoldback = t.YearEndHoldback
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// AggregateSpiff computes the SPIFF pool over the period's deals.
func AggregateSpiff(deals []Deal, threshold Money, ratePct decimal.Decimal) SpiffResult {
	result := SpiffResult{
		RatePct:         ratePct,
		Threshold:       threshold,
		EligibleActuals: threshold.Zero(),
	}

	for _, deal := range deals {
		eligible := deal.ValueUSD.GreaterThan(threshold)
		result.Breakdown = append(result.Breakdown, SpiffDealEligibility{
			DealID:   deal.ID,
			Value:    deal.ValueUSD,
			Eligible: eligible,
		})
		if eligible {
			result.EligibleActuals = result.EligibleActuals.Add(deal.ValueUSD)
		}
	}

	result.TotalBonus = PercentOf(result.EligibleActuals, ratePct).RoundCents()
	result.Paid = result.TotalBonus
	result.Holdback = threshold.Zero()
	result.YearEndHoldback = threshold.Zero()
	return result
}
