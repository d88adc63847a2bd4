/*
Package plan defines compensation plan configuration.

PURPOSE:
  A Plan is the contract between the organization and an employee about how
  variable compensation is earned: which metrics count and at what weight,
  the commission rate, the NRR and SPIFF bonus parameters, the
  booking/year-end disbursement split, the renewal multiplier table, and
  the collection deadline that arms clawback.

VALIDATION:
  Plans are validated at configuration time (see validate.go). The
  calculation core in comp/ assumes validated input; resolving against a
  malformed plan is a configuration fault surfaced to the caller, never a
  silently coerced default.

SEE ALSO:
  - validate.go: weightage, tier, and split validation
  - factory.go: JSON plan definitions
*/
package plan

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/comp-engine/comp"
)

// =============================================================================
// PLAN - Complete compensation ruleset
// =============================================================================

type Plan struct {
	ID   comp.PlanID
	Name string

	// FiscalYearStartMonth anchors year-end holdback release.
	FiscalYearStartMonth time.Month

	// BonusPool is the target bonus pool the metric weightages carve up.
	BonusPool comp.Money

	Metrics []comp.MetricDefinition

	// CommissionRatePct applies to each deal's participant value.
	CommissionRatePct decimal.Decimal

	// NRR is nil for plans without an NRR component.
	NRR *NRRConfig

	// Spiff is nil for plans without a SPIFF component.
	Spiff *SpiffConfig

	Split comp.SplitConfig

	RenewalTiers []comp.RenewalTier

	// ClawbackPeriodDays is the collection deadline: a deal booked on day D
	// must collect by D + ClawbackPeriodDays before clawback can arm.
	ClawbackPeriodDays int

	Version int
}

// NRRConfig parameterizes the NRR bonus.
type NRRConfig struct {
	Target comp.Money

	// OTE and OTEPct together size the pool: pool = OTE x OTEPct / 100.
	OTE    comp.Money
	OTEPct decimal.Decimal

	// CeilingPct caps the payout at pool x CeilingPct / 100. Zero means
	// uncapped.
	CeilingPct decimal.Decimal
}

// Pool returns the share of on-target earnings allocable to the NRR bonus.
func (c NRRConfig) Pool() comp.Money {
	return comp.PercentOf(c.OTE, c.OTEPct).RoundCents()
}

// Ceiling returns the payout cap, or nil when uncapped.
func (c NRRConfig) Ceiling() *comp.Money {
	if c.CeilingPct.IsZero() {
		return nil
	}
	ceiling := comp.PercentOf(c.Pool(), c.CeilingPct).RoundCents()
	return &ceiling
}

// SpiffConfig parameterizes the large-deal bonus.
type SpiffConfig struct {
	Threshold comp.Money
	RatePct   decimal.Decimal

	// PaidInFull keeps SPIFF outside the booking/holdback split. When
	// false the SPIFF bonus splits into tranches like the other sources.
	PaidInFull bool
}

// CollectionDueDate returns the deadline for a deal booked on the given day.
func (p Plan) CollectionDueDate(bookedAt time.Time) time.Time {
	return bookedAt.AddDate(0, 0, p.ClawbackPeriodDays)
}
