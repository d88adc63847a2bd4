/*
nrr.go - Net-revenue-retention bonus

PURPOSE:
  Incentive pay tied to change-request/enhancement-request (CR-ER) and
  implementation revenue on existing accounts. Eligibility of individual
  line items is determined upstream (deal linkage flags); this calculator
  aggregates the eligible amounts against an NRR target and prices one
  bonus payout.

CALCULATION:
  totalNRR     = eligibleCrEr + eligibleImplementation
  achievement% = totalNRR / target x 100        (0 when target is 0)
  payout       = pool x achievement% / 100, clamped to the plan ceiling

  The ceiling is plan policy, passed in - never hardcoded. Payout is never
  negative.

The output feeds the split engine like any other payout source.
*/
package comp

import "github.com/shopspring/decimal"

// =============================================================================
// NRR INPUT / RESULT
// =============================================================================

// NRRInput carries the aggregated revenue facts and plan parameters.
type NRRInput struct {
	EligibleCrEr Money
	TotalCrEr    Money

	EligibleImplementation Money
	TotalImplementation    Money

	// Target is the NRR revenue target for the period.
	Target Money

	// Pool is the share of on-target earnings allocable to this bonus
	// (OTE x NRR-OTE percentage, computed by the plan).
	Pool Money

	// Ceiling caps the payout. Nil means uncapped.
	Ceiling *Money
}

// NRRResult is the evaluated bonus.
type NRRResult struct {
	TotalNRR       Money
	AchievementPct decimal.Decimal
	Payout         Money

	EligibleCrEr           Money
	TotalCrEr              Money
	EligibleImplementation Money
	TotalImplementation    Money

	Paid            Money
	Holdback        Money
	YearEndHoldback Money
}

// ApplySplit distributes the payout into tranches.
func (r *NRRResult) ApplySplit(split SplitConfig) {
	t := split.Split(r.Payout)
	r.Paid = t.PaidAtBooking
	r.Holdback = t.Holdback
	r.YearEndHoldback = t.YearEndHoldback
}

// =============================================================================
// CALCULATOR
// =============================================================================

// CalculateNRR aggregates eligible revenue against the target.
func CalculateNRR(in NRRInput) NRRResult {
	result := NRRResult{
		TotalNRR:               in.EligibleCrEr.Add(in.EligibleImplementation),
		EligibleCrEr:           in.EligibleCrEr,
		TotalCrEr:              in.TotalCrEr,
		EligibleImplementation: in.EligibleImplementation,
		TotalImplementation:    in.TotalImplementation,
		Payout:                 in.Pool.Zero(),
	}

	if in.Target.IsZero() {
		return result
	}

	result.AchievementPct = result.TotalNRR.Value.Div(in.Target.Value).Mul(hundred)

	payout := PercentOf(in.Pool, result.AchievementPct).RoundCents()
	if payout.IsNegative() {
		payout = payout.Zero()
	}
	if in.Ceiling != nil && payout.GreaterThan(*in.Ceiling) {
		payout = *in.Ceiling
	}
	result.Payout = payout
	return result
}
