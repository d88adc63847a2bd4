/*
split.go - Payout split and holdback engine

PURPOSE:
  A gross eligible payout is not disbursed all at once. A booking-pay
  percentage is paid when the deal books, a year-end tranche is retained
  until fiscal year close, and the remainder is held back until the
  underlying revenue is collected.

TRANCHES:
  paidAtBooking   = eligible x bookingPct
  yearEndHoldback = eligible x yearEndPct
  holdback        = eligible - paidAtBooking - yearEndHoldback

RECONCILIATION INVARIANT:
  paidAtBooking + holdback + yearEndHoldback == eligible EXACTLY.
  The first two tranches are rounded to integer cents; the holdback is
  computed last by subtraction so it absorbs any rounding residue. A
  dropped half-cent per metric per employee per month adds up.

SEE ALSO:
  - metric.go: MetricResult.ApplySplit
  - collection package: the holdback tranche is what a clawback recovers
*/
package comp

import "github.com/shopspring/decimal"

// =============================================================================
// SPLIT CONFIG
// =============================================================================

// SplitConfig carries the plan's disbursement percentages.
type SplitConfig struct {
	// BookingPct is the share paid when the deal books (e.g. 75).
	BookingPct decimal.Decimal

	// YearEndPct is the share retained until fiscal year-end close.
	YearEndPct decimal.Decimal
}

// Validate rejects percentage pairs that cannot form three non-negative
// tranches.
func (c SplitConfig) Validate() error {
	if c.BookingPct.IsNegative() || c.YearEndPct.IsNegative() {
		return &ConfigError{Field: "split", Reason: "percentages must be non-negative"}
	}
	if c.BookingPct.Add(c.YearEndPct).GreaterThan(hundred) {
		return &ConfigError{Field: "split", Reason: "booking + year-end percentages exceed 100"}
	}
	return nil
}

// =============================================================================
// TRANCHES
// =============================================================================

// Tranches is the three-way disbursement of one eligible payout.
type Tranches struct {
	PaidAtBooking   Money
	Holdback        Money
	YearEndHoldback Money
}

func (t Tranches) Total() Money {
	return t.PaidAtBooking.Add(t.Holdback).Add(t.YearEndHoldback)
}

// Split distributes an eligible payout into cent-precise tranches.
// The holdback tranche is computed last and absorbs rounding residue so the
// three tranches always sum exactly to the input.
func (c SplitConfig) Split(eligible Money) Tranches {
	eligible = eligible.RoundCents()
	paid := PercentOf(eligible, c.BookingPct).RoundCents()
	yearEnd := PercentOf(eligible, c.YearEndPct).RoundCents()
	holdback := eligible.Sub(paid).Sub(yearEnd)
	return Tranches{
		PaidAtBooking:   paid,
		Holdback:        holdback,
		YearEndHoldback: yearEnd,
	}
}
