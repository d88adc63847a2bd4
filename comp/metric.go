/*
metric.go - Metric achievement evaluation

PURPOSE:
  Evaluates one compensable KPI for one employee/period: target vs. actual
  becomes an achievement percentage, the metric's logic type turns that into
  a multiplier, and the multiplier prices the metric's share of the bonus
  pool into an eligible payout.

LOGIC TYPES:
  LogicLinear:
    multiplier = achievement% / 100, clamped to [MinPct, MaxPct] / 100.
    120% achievement with max 150% pays 1.20x.

  LogicTiered:
    multiplier = the first tier whose achievement band contains the
    achievement%. Bands must be ordered and non-overlapping (validated at
    configuration time; the evaluator re-checks and surfaces faults).

  LogicGated:
    Below the gate threshold the metric pays ZERO regardless of the tier
    table - a hard gate. At or above the gate, resolution falls through to
    the tier table (or linear clamp when no tiers are configured).

DEGENERATE INPUTS:
  target == 0 yields achievement 0%, multiplier 0, payout 0. This is a
  defined result, not an error - a metric with no target cannot pay.

PAYOUT:
  eligiblePayout = bonusPool x weightage% x multiplier
  The bonus pool is supplied by the enclosing plan.

SEE ALSO:
  - split.go: disbursement timing of the eligible payout
  - plan/validate.go: weightage and tier validation
*/
package comp

import "github.com/shopspring/decimal"

// =============================================================================
// METRIC DEFINITION - One compensable KPI in a plan
// =============================================================================

type LogicType string

const (
	LogicLinear LogicType = "linear"
	LogicTiered LogicType = "tiered"
	LogicGated  LogicType = "gated"
)

// AchievementTier maps an achievement% band to a payout multiplier.
// MaxPct == zero means open-ended.
type AchievementTier struct {
	MinPct     decimal.Decimal
	MaxPct     decimal.Decimal
	Multiplier decimal.Decimal
}

func (t AchievementTier) contains(achievementPct decimal.Decimal) bool {
	if achievementPct.LessThan(t.MinPct) {
		return false
	}
	return t.MaxPct.IsZero() || achievementPct.LessThanOrEqual(t.MaxPct)
}

// MetricDefinition is the plan-side configuration of a KPI.
type MetricDefinition struct {
	ID   MetricID
	Name string

	// Weightage is this metric's share of the plan bonus pool (percent).
	// Weightages across a plan's metrics must sum to 100.
	Weightage decimal.Decimal

	Logic LogicType

	// GateThreshold applies to LogicGated only: achievement below this
	// percentage pays zero.
	GateThreshold decimal.Decimal

	// MinPct/MaxPct clamp the linear multiplier (as percentages).
	MinPct decimal.Decimal
	MaxPct decimal.Decimal

	// Tiers for LogicTiered and LogicGated resolution.
	Tiers []AchievementTier
}

// =============================================================================
// METRIC RESULT - Evaluated metric for one employee/period
// =============================================================================

// MetricResult carries the evaluation outcome plus the disbursement tranches
// filled in by the split engine. Invariant after splitting:
// Paid + Holdback + YearEndHoldback == EligiblePayout exactly.
type MetricResult struct {
	Definition MetricDefinition

	Target         decimal.Decimal
	Actual         decimal.Decimal
	AchievementPct decimal.Decimal
	Multiplier     decimal.Decimal
	EligiblePayout Money

	Paid            Money
	Holdback        Money
	YearEndHoldback Money
}

// ApplySplit distributes the eligible payout into tranches.
func (r *MetricResult) ApplySplit(split SplitConfig) {
	t := split.Split(r.EligiblePayout)
	r.Paid = t.PaidAtBooking
	r.Holdback = t.Holdback
	r.YearEndHoldback = t.YearEndHoldback
}

// =============================================================================
// EVALUATOR
// =============================================================================

// EvaluateMetric computes achievement, multiplier, and eligible payout for
// one metric. bonusPool is the plan-level target bonus pool; the metric's
// weightage carves out its share.
//
// Errors are configuration faults only (empty or overlapping tier tables
// where tiers are required). Degenerate inputs produce zero results.
func EvaluateMetric(def MetricDefinition, target, actual decimal.Decimal, bonusPool Money) (MetricResult, error) {
	result := MetricResult{
		Definition:     def,
		Target:         target,
		Actual:         actual,
		EligiblePayout: bonusPool.Zero(),
	}

	// Zero target: defined as 0% achievement, not a division fault.
	if target.IsZero() {
		return result, nil
	}

	result.AchievementPct = actual.Div(target).Mul(hundred)

	multiplier, err := resolveMultiplier(def, result.AchievementPct)
	if err != nil {
		return MetricResult{}, err
	}
	result.Multiplier = multiplier
	result.EligiblePayout = PercentOf(bonusPool, def.Weightage).Mul(multiplier).RoundCents()
	return result, nil
}

func resolveMultiplier(def MetricDefinition, achievementPct decimal.Decimal) (decimal.Decimal, error) {
	switch def.Logic {
	case LogicGated:
		// Hard gate: below threshold pays zero no matter what the tiers say.
		if achievementPct.LessThan(def.GateThreshold) {
			return decimal.Zero, nil
		}
		if len(def.Tiers) > 0 {
			return tieredMultiplier(def, achievementPct)
		}
		return linearMultiplier(def, achievementPct), nil

	case LogicTiered:
		return tieredMultiplier(def, achievementPct)

	case LogicLinear:
		return linearMultiplier(def, achievementPct), nil

	default:
		return decimal.Zero, &ConfigError{
			Field:  "metrics[" + string(def.ID) + "].logic",
			Reason: "unknown logic type " + string(def.Logic),
		}
	}
}

func linearMultiplier(def MetricDefinition, achievementPct decimal.Decimal) decimal.Decimal {
	pct := achievementPct
	if !def.MinPct.IsZero() && pct.LessThan(def.MinPct) {
		pct = def.MinPct
	}
	if !def.MaxPct.IsZero() && pct.GreaterThan(def.MaxPct) {
		pct = def.MaxPct
	}
	if pct.IsNegative() {
		pct = decimal.Zero
	}
	return Ratio(pct)
}

func tieredMultiplier(def MetricDefinition, achievementPct decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateAchievementTiers(string(def.ID), def.Tiers); err != nil {
		return decimal.Zero, err
	}
	for _, tier := range def.Tiers {
		if tier.contains(achievementPct) {
			return tier.Multiplier, nil
		}
	}
	// Below the lowest band: no payout for this metric.
	return decimal.Zero, nil
}

// ValidateAchievementTiers checks a tier table for the faults that would
// make resolution ambiguous: an empty table or overlapping bands.
func ValidateAchievementTiers(metricID string, tiers []AchievementTier) error {
	if len(tiers) == 0 {
		return &ConfigError{
			Field:  "metrics[" + metricID + "].tiers",
			Reason: "tier table is empty",
		}
	}
	for i := 1; i < len(tiers); i++ {
		prev, cur := tiers[i-1], tiers[i]
		if prev.MaxPct.IsZero() {
			// An open-ended band anywhere but the last position overlaps
			// everything after it.
			return &ConfigError{
				Field:  "metrics[" + metricID + "].tiers",
				Reason: "open-ended band must be last",
			}
		}
		if cur.MinPct.LessThanOrEqual(prev.MaxPct) && cur.MinPct.GreaterThanOrEqual(prev.MinPct) {
			return &ConfigError{
				Field:  "metrics[" + metricID + "].tiers",
				Reason: "bands overlap",
			}
		}
		if cur.MinPct.LessThan(prev.MinPct) {
			return &ConfigError{
				Field:  "metrics[" + metricID + "].tiers",
				Reason: "bands out of order",
			}
		}
	}
	return nil
}
