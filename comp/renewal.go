/*
renewal.go - Renewal multiplier resolution for multi-year contracts

PURPOSE:
  Multi-year renewal contracts earn an uplift on their closing ARR, banded
  by renewal-year count. A 3-year renewal might credit 1.15x the deal value
  toward the ARR metric, a 6-year renewal 1.3x.

RESOLUTION:
  The resolver scans tiers in ascending order and returns the multiplier of
  the first tier whose [MinYears, MaxYears] range contains the renewal-year
  count. Single-year (non-multi-year) deals always resolve to 1.0.

FAIL-SAFE:
  If no tier matches, the resolver returns 1.0 - the deal is credited at
  face value rather than failing the whole computation. Gap and overlap
  detection is a configuration-time concern (plan.Validate); the resolver
  itself is read-only and total.

SEE ALSO:
  - plan/validate.go: tier coverage and monotonicity checks
  - metric.go: consumes the adjusted ARR credit as an actual
*/
package comp

import "github.com/shopspring/decimal"

// =============================================================================
// RENEWAL MULTIPLIER TIERS
// =============================================================================

// RenewalTier is one band of the renewal multiplier table.
// MaxYears == 0 means open-ended (covers everything >= MinYears).
type RenewalTier struct {
	MinYears   int
	MaxYears   int
	Multiplier decimal.Decimal
}

// Contains reports whether the tier covers the given renewal-year count.
func (t RenewalTier) Contains(years int) bool {
	if years < t.MinYears {
		return false
	}
	return t.MaxYears == 0 || years <= t.MaxYears
}

// =============================================================================
// RESOLVER
// =============================================================================

var one = decimal.NewFromInt(1)

// ResolveRenewalMultiplier returns the uplift multiplier for a renewal.
// Non-multi-year deals and unmatched year counts resolve to 1.0.
func ResolveRenewalMultiplier(renewalYears int, isMultiYear bool, tiers []RenewalTier) decimal.Decimal {
	if !isMultiYear || renewalYears < 1 {
		return one
	}
	for _, tier := range tiers {
		if tier.Contains(renewalYears) {
			return tier.Multiplier
		}
	}
	return one
}

// AdjustedDealValue applies the renewal multiplier to a deal's value,
// producing the ARR credit for metric actuals.
func AdjustedDealValue(value Money, renewalYears int, isMultiYear bool, tiers []RenewalTier) Money {
	return value.Mul(ResolveRenewalMultiplier(renewalYears, isMultiYear, tiers))
}
