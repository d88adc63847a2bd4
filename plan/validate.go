/*
validate.go - Configuration-time plan validation

PURPOSE:
  Catches the faults that would make a computation ambiguous or misstate
  pay, before any computation runs:
  - metric weightages that do not sum to 100
  - empty, overlapping, or out-of-order achievement tier tables
  - renewal tiers with gaps, overlaps, or non-monotonic multipliers
  - split percentages that cannot form three non-negative tranches
  - missing required fields (bonus pool, clawback period)

  A plan that fails validation blocks the affected employee's computation;
  the fault is surfaced, never coerced to a default.
*/
package plan

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/comp-engine/comp"
)

var hundred = decimal.NewFromInt(100)

// Validate checks the whole plan. The first fault found is returned;
// callers flag it against the employee rather than omitting them from
// totals.
func (p Plan) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: id", comp.ErrMissingPlanField)
	}
	if p.BonusPool.Value.IsZero() && len(p.Metrics) > 0 {
		return fmt.Errorf("%w: bonus_pool", comp.ErrMissingPlanField)
	}
	if p.ClawbackPeriodDays <= 0 {
		return fmt.Errorf("%w: clawback_period_days", comp.ErrMissingPlanField)
	}

	if err := p.validateWeightages(); err != nil {
		return err
	}
	for _, m := range p.Metrics {
		if err := validateMetric(m); err != nil {
			return err
		}
	}
	if err := ValidateRenewalTiers(p.RenewalTiers); err != nil {
		return err
	}
	return p.Split.Validate()
}

func (p Plan) validateWeightages() error {
	if len(p.Metrics) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, m := range p.Metrics {
		if m.Weightage.IsNegative() {
			return &comp.ConfigError{
				Field:  "metrics[" + string(m.ID) + "].weightage",
				Reason: "weightage is negative",
			}
		}
		sum = sum.Add(m.Weightage)
	}
	if !sum.Equal(hundred) {
		return &comp.ConfigError{
			Field:  "metrics.weightage",
			Reason: fmt.Sprintf("weightages sum to %s, expected 100", sum),
		}
	}
	return nil
}

func validateMetric(m comp.MetricDefinition) error {
	switch m.Logic {
	case comp.LogicLinear:
		if !m.MaxPct.IsZero() && m.MaxPct.LessThan(m.MinPct) {
			return &comp.ConfigError{
				Field:  "metrics[" + string(m.ID) + "]",
				Reason: "max_pct below min_pct",
			}
		}
		return nil
	case comp.LogicTiered:
		return comp.ValidateAchievementTiers(string(m.ID), m.Tiers)
	case comp.LogicGated:
		if m.GateThreshold.IsNegative() {
			return &comp.ConfigError{
				Field:  "metrics[" + string(m.ID) + "].gate_threshold",
				Reason: "gate threshold is negative",
			}
		}
		// Gated metrics may resolve via tiers or linear clamp; tiers, when
		// present, must still be well-formed.
		if len(m.Tiers) > 0 {
			return comp.ValidateAchievementTiers(string(m.ID), m.Tiers)
		}
		return nil
	default:
		return &comp.ConfigError{
			Field:  "metrics[" + string(m.ID) + "].logic",
			Reason: "unknown logic type " + string(m.Logic),
		}
	}
}

// ValidateRenewalTiers checks the renewal multiplier table: tiers must
// cover [1, inf) without gaps or overlaps, end with an open-ended band, and
// the multiplier must be non-decreasing with years.
func ValidateRenewalTiers(tiers []comp.RenewalTier) error {
	if len(tiers) == 0 {
		return nil // no multi-year uplift configured
	}

	if tiers[0].MinYears != 1 {
		return &comp.ConfigError{
			Field:  "renewal_tiers",
			Reason: "first tier must start at 1 year",
		}
	}

	for i, tier := range tiers {
		last := i == len(tiers)-1
		if tier.MaxYears == 0 && !last {
			return &comp.ConfigError{
				Field:  "renewal_tiers",
				Reason: "open-ended tier must be last",
			}
		}
		if tier.MaxYears != 0 && tier.MaxYears < tier.MinYears {
			return &comp.ConfigError{
				Field:  "renewal_tiers",
				Reason: fmt.Sprintf("tier %d: max_years below min_years", i),
			}
		}
		if i > 0 {
			prev := tiers[i-1]
			if tier.MinYears != prev.MaxYears+1 {
				return &comp.ConfigError{
					Field:  "renewal_tiers",
					Reason: fmt.Sprintf("gap or overlap between tiers %d and %d", i-1, i),
				}
			}
			if tier.Multiplier.LessThan(prev.Multiplier) {
				return &comp.ConfigError{
					Field:  "renewal_tiers",
					Reason: "multiplier must be non-decreasing with years",
				}
			}
		}
	}
	return nil
}
