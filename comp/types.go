/*
Package comp provides the core variable-compensation calculation engine.

PURPOSE:
  This package contains the pure calculation components that turn raw
  deal/booking/collection facts into an eligible payout: metric achievement
  evaluation, commission arithmetic, NRR bonus, SPIFF bonus, multi-year
  renewal uplifts, and the booking/holdback payout split.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A currency amount backed by decimal.Decimal (never float64)
  - Percent: A percentage value (e.g. 75 means 75%)
  - Employee/Plan/Deal/Metric IDs: Type-safe identifiers
  - Deal: A commercial transaction eligible for commission or ARR credit

DESIGN PRINCIPLES:
  1. Purity: Every calculator is a function of its inputs. No I/O, no
     shared mutable state, safe for concurrent callers.
  2. Precision: decimal.Decimal everywhere money or percentages appear.
  3. Explicit absence: optional results (NRR, SPIFF) are pointers, so a
     plan without that component is distinguishable from a zero payout.
  4. Degenerate inputs are defined, not faults: a zero target yields 0%
     achievement, a zero deal value yields a zero commission.

USAGE:
  pool := comp.USD(50000)
  res, err := comp.EvaluateMetric(def, comp.NewDecimal(100000), comp.NewDecimal(120000), pool)

SEE ALSO:
  - metric.go: Achievement evaluation (linear, tiered, gated)
  - split.go: Booking/holdback/year-end tranche split
  - aggregate.go: Per-employee composition
*/
package comp

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Currency amount with decimal precision
// =============================================================================

type Currency string

const (
	CurrencyUSD Currency = "USD"
)

// Money is an amount in a specific currency. The calculation core operates
// on USD; local-currency deal values are converted first (see fx.go).
type Money struct {
	Value    decimal.Decimal
	Currency Currency
}

func USD(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value), Currency: CurrencyUSD}
}

func USDFromDecimal(d decimal.Decimal) Money {
	return Money{Value: d, Currency: CurrencyUSD}
}

func ZeroUSD() Money { return Money{Value: decimal.Zero, Currency: CurrencyUSD} }

func (m Money) Zero() Money { return Money{Value: decimal.Zero, Currency: m.Currency} }

func (m Money) Add(b Money) Money { return Money{Value: m.Value.Add(b.Value), Currency: m.Currency} }
func (m Money) Sub(b Money) Money { return Money{Value: m.Value.Sub(b.Value), Currency: m.Currency} }
func (m Money) Neg() Money        { return Money{Value: m.Value.Neg(), Currency: m.Currency} }

func (m Money) Mul(s decimal.Decimal) Money {
	return Money{Value: m.Value.Mul(s), Currency: m.Currency}
}

func (m Money) IsZero() bool             { return m.Value.IsZero() }
func (m Money) IsNegative() bool         { return m.Value.IsNegative() }
func (m Money) IsPositive() bool         { return m.Value.IsPositive() }
func (m Money) GreaterThan(b Money) bool { return m.Value.GreaterThan(b.Value) }
func (m Money) LessThan(b Money) bool    { return m.Value.LessThan(b.Value) }
func (m Money) Equal(b Money) bool       { return m.Value.Equal(b.Value) }

// RoundCents rounds to integer cents. Disbursed tranches are always
// cent-precise; reconciliation of rounding residue happens in split.go.
func (m Money) RoundCents() Money {
	return Money{Value: m.Value.Round(2), Currency: m.Currency}
}

func (m Money) Min(b Money) Money {
	if m.LessThan(b) {
		return m
	}
	return b
}

// =============================================================================
// PERCENT - Percentage values (75 means 75%)
// =============================================================================

var hundred = decimal.NewFromInt(100)

// PercentOf returns amount x (pct/100).
func PercentOf(amount Money, pct decimal.Decimal) Money {
	return amount.Mul(pct.Div(hundred))
}

// Ratio converts a percentage to its decimal ratio (75 -> 0.75).
func Ratio(pct decimal.Decimal) decimal.Decimal {
	return pct.Div(hundred)
}

func NewDecimal(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type PlanID string
type DealID string
type MetricID string
