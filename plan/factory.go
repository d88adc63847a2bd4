/*
factory.go - JSON to Go plan conversion

PURPOSE:
  Converts JSON plan definitions into Plan structs. This enables plan
  configuration without code changes - comp admins define plans in JSON,
  the factory builds the typed plan, and Validate gates it before any
  computation uses it.

JSON SCHEMA:
  {
    "id": "ae-standard",
    "name": "Account Executive Standard",
    "fiscal_year_start_month": 4,
    "bonus_pool": 50000,
    "commission_rate_pct": 8,
    "metrics": [
      {
        "id": "arr", "name": "New ARR", "weightage": 40,
        "logic": "linear", "min_pct": 0, "max_pct": 150
      },
      {
        "id": "retention", "name": "Logo Retention", "weightage": 60,
        "logic": "gated", "gate_threshold": 85,
        "tiers": [
          {"min_pct": 85, "max_pct": 100, "multiplier": 1.0},
          {"min_pct": 100, "multiplier": 1.25}
        ]
      }
    ],
    "nrr": {"target": 200000, "ote": 40000, "ote_pct": 25, "ceiling_pct": 150},
    "spiff": {"threshold": 200000, "rate_pct": 1},
    "split": {"booking_pct": 75, "year_end_pct": 10},
    "renewal_tiers": [
      {"min_years": 1, "max_years": 2, "multiplier": 1.0},
      {"min_years": 3, "max_years": 5, "multiplier": 1.15},
      {"min_years": 6, "multiplier": 1.3}
    ],
    "clawback_period_days": 90
  }

SEE ALSO:
  - plan.go: Plan type definition
  - validate.go: the gate every parsed plan passes through
*/
package plan

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/comp-engine/comp"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

type PlanJSON struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"name"`
	FiscalYearStartMonth int           `json:"fiscal_year_start_month,omitempty"` // 1-12, default January
	BonusPool            float64       `json:"bonus_pool"`
	CommissionRatePct    float64       `json:"commission_rate_pct"`
	Metrics              []MetricJSON  `json:"metrics"`
	NRR                  *NRRJSON      `json:"nrr,omitempty"`
	Spiff                *SpiffJSON    `json:"spiff,omitempty"`
	Split                SplitJSON     `json:"split"`
	RenewalTiers         []RenewalJSON `json:"renewal_tiers,omitempty"`
	ClawbackPeriodDays   int           `json:"clawback_period_days"`
}

type MetricJSON struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Weightage     float64    `json:"weightage"`
	Logic         string     `json:"logic"` // linear, tiered, gated
	GateThreshold float64    `json:"gate_threshold,omitempty"`
	MinPct        float64    `json:"min_pct,omitempty"`
	MaxPct        float64    `json:"max_pct,omitempty"`
	Tiers         []TierJSON `json:"tiers,omitempty"`
}

type TierJSON struct {
	MinPct     float64 `json:"min_pct"`
	MaxPct     float64 `json:"max_pct,omitempty"` // 0 = open-ended
	Multiplier float64 `json:"multiplier"`
}

type NRRJSON struct {
	Target     float64 `json:"target"`
	OTE        float64 `json:"ote"`
	OTEPct     float64 `json:"ote_pct"`
	CeilingPct float64 `json:"ceiling_pct,omitempty"` // 0 = uncapped
}

type SpiffJSON struct {
	Threshold float64 `json:"threshold"`
	RatePct   float64 `json:"rate_pct"`
	// SPIFF is paid in full by default; an explicit false opts into the split.
	PaidInFull *bool `json:"paid_in_full,omitempty"`
}

type SplitJSON struct {
	BookingPct float64 `json:"booking_pct"`
	YearEndPct float64 `json:"year_end_pct,omitempty"`
}

type RenewalJSON struct {
	MinYears   int     `json:"min_years"`
	MaxYears   int     `json:"max_years,omitempty"` // 0 = open-ended
	Multiplier float64 `json:"multiplier"`
}

// =============================================================================
// FACTORY
// =============================================================================

// Factory converts JSON plans to validated Plan structs.
type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

// Parse parses and validates a JSON plan definition.
func (f *Factory) Parse(jsonStr string) (*Plan, error) {
	var pj PlanJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("failed to parse plan JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// FromJSON builds a Plan from the parsed schema and validates it.
func (f *Factory) FromJSON(pj PlanJSON) (*Plan, error) {
	p := &Plan{
		ID:                   comp.PlanID(pj.ID),
		Name:                 pj.Name,
		FiscalYearStartMonth: time.January,
		BonusPool:            comp.USD(pj.BonusPool),
		CommissionRatePct:    decimal.NewFromFloat(pj.CommissionRatePct),
		Split: comp.SplitConfig{
			BookingPct: decimal.NewFromFloat(pj.Split.BookingPct),
			YearEndPct: decimal.NewFromFloat(pj.Split.YearEndPct),
		},
		ClawbackPeriodDays: pj.ClawbackPeriodDays,
		Version:            1,
	}
	if pj.FiscalYearStartMonth >= 1 && pj.FiscalYearStartMonth <= 12 {
		p.FiscalYearStartMonth = time.Month(pj.FiscalYearStartMonth)
	}

	for _, mj := range pj.Metrics {
		p.Metrics = append(p.Metrics, metricFromJSON(mj))
	}

	if pj.NRR != nil {
		p.NRR = &NRRConfig{
			Target:     comp.USD(pj.NRR.Target),
			OTE:        comp.USD(pj.NRR.OTE),
			OTEPct:     decimal.NewFromFloat(pj.NRR.OTEPct),
			CeilingPct: decimal.NewFromFloat(pj.NRR.CeilingPct),
		}
	}

	if pj.Spiff != nil {
		paidInFull := true
		if pj.Spiff.PaidInFull != nil {
			paidInFull = *pj.Spiff.PaidInFull
		}
		p.Spiff = &SpiffConfig{
			Threshold:  comp.USD(pj.Spiff.Threshold),
			RatePct:    decimal.NewFromFloat(pj.Spiff.RatePct),
			PaidInFull: paidInFull,
		}
	}

	for _, rj := range pj.RenewalTiers {
		p.RenewalTiers = append(p.RenewalTiers, comp.RenewalTier{
			MinYears:   rj.MinYears,
			MaxYears:   rj.MaxYears,
			Multiplier: decimal.NewFromFloat(rj.Multiplier),
		})
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func metricFromJSON(mj MetricJSON) comp.MetricDefinition {
	def := comp.MetricDefinition{
		ID:            comp.MetricID(mj.ID),
		Name:          mj.Name,
		Weightage:     decimal.NewFromFloat(mj.Weightage),
		Logic:         comp.LogicType(mj.Logic),
		GateThreshold: decimal.NewFromFloat(mj.GateThreshold),
		MinPct:        decimal.NewFromFloat(mj.MinPct),
		MaxPct:        decimal.NewFromFloat(mj.MaxPct),
	}
	for _, tj := range mj.Tiers {
		def.Tiers = append(def.Tiers, comp.AchievementTier{
			MinPct:     decimal.NewFromFloat(tj.MinPct),
			MaxPct:     decimal.NewFromFloat(tj.MaxPct),
			Multiplier: decimal.NewFromFloat(tj.Multiplier),
		})
	}
	return def
}

// ToJSON serializes a Plan back to its JSON schema (for storage).
func ToJSON(p *Plan) (string, error) {
	pj := PlanJSON{
		ID:                   string(p.ID),
		Name:                 p.Name,
		FiscalYearStartMonth: int(p.FiscalYearStartMonth),
		BonusPool:            mustFloat(p.BonusPool.Value),
		CommissionRatePct:    mustFloat(p.CommissionRatePct),
		Split: SplitJSON{
			BookingPct: mustFloat(p.Split.BookingPct),
			YearEndPct: mustFloat(p.Split.YearEndPct),
		},
		ClawbackPeriodDays: p.ClawbackPeriodDays,
	}
	for _, m := range p.Metrics {
		mj := MetricJSON{
			ID:            string(m.ID),
			Name:          m.Name,
			Weightage:     mustFloat(m.Weightage),
			Logic:         string(m.Logic),
			GateThreshold: mustFloat(m.GateThreshold),
			MinPct:        mustFloat(m.MinPct),
			MaxPct:        mustFloat(m.MaxPct),
		}
		for _, t := range m.Tiers {
			mj.Tiers = append(mj.Tiers, TierJSON{
				MinPct:     mustFloat(t.MinPct),
				MaxPct:     mustFloat(t.MaxPct),
				Multiplier: mustFloat(t.Multiplier),
			})
		}
		pj.Metrics = append(pj.Metrics, mj)
	}
	if p.NRR != nil {
		pj.NRR = &NRRJSON{
			Target:     mustFloat(p.NRR.Target.Value),
			OTE:        mustFloat(p.NRR.OTE.Value),
			OTEPct:     mustFloat(p.NRR.OTEPct),
			CeilingPct: mustFloat(p.NRR.CeilingPct),
		}
	}
	if p.Spiff != nil {
		paidInFull := p.Spiff.PaidInFull
		pj.Spiff = &SpiffJSON{
			Threshold:  mustFloat(p.Spiff.Threshold.Value),
			RatePct:    mustFloat(p.Spiff.RatePct),
			PaidInFull: &paidInFull,
		}
	}
	for _, t := range p.RenewalTiers {
		pj.RenewalTiers = append(pj.RenewalTiers, RenewalJSON{
			MinYears:   t.MinYears,
			MaxYears:   t.MaxYears,
			Multiplier: mustFloat(t.Multiplier),
		})
	}

	raw, err := json.Marshal(pj)
	if err != nil {
		return "", fmt.Errorf("failed to encode plan: %w", err)
	}
	return string(raw), nil
}

func mustFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
