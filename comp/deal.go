/*
deal.go - Deal and booking facts consumed by the calculators

PURPOSE:
  A Deal is the commercial transaction eligible for commission or ARR
  credit. The calculation core treats deals as read-only facts: they arrive
  already validated from the data store, with local-currency values
  converted to USD (see fx.go).

PARTICIPANT SPLITS:
  A deal may be shared across participants (co-selling, overlay teams).
  Each participant's commissionable value is their split percentage of the
  deal value. Splits are plan data; the core only applies them.
*/
package comp

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DEAL - A commercial transaction
// =============================================================================

type Deal struct {
	ID         DealID
	EmployeeID EmployeeID

	// ValueUSD is the deal's value after currency conversion.
	ValueUSD Money

	// LocalValue and LocalCurrency are preserved for audit; ValueUSD is
	// what the calculators consume.
	LocalValue    decimal.Decimal
	LocalCurrency Currency

	// BookingMonth is immutable once the period locks.
	BookingMonth time.Time

	// Renewal attributes for the multi-year uplift.
	IsMultiYear  bool
	RenewalYears int

	Participants []Participant
}

// Participant is one employee's share of a deal.
type Participant struct {
	EmployeeID EmployeeID
	SplitPct   decimal.Decimal
}

// ParticipantValue returns the commissionable value credited to one
// participant. A deal with no participant record for the employee credits
// zero, never the full value.
func (d Deal) ParticipantValue(employeeID EmployeeID) Money {
	if len(d.Participants) == 0 {
		if d.EmployeeID == employeeID {
			return d.ValueUSD
		}
		return d.ValueUSD.Zero()
	}
	for _, p := range d.Participants {
		if p.EmployeeID == employeeID {
			return PercentOf(d.ValueUSD, p.SplitPct)
		}
	}
	return d.ValueUSD.Zero()
}

// ARRCredit returns the deal's contribution to ARR actuals, with the
// multi-year renewal uplift applied.
func (d Deal) ARRCredit(tiers []RenewalTier) Money {
	return AdjustedDealValue(d.ValueUSD, d.RenewalYears, d.IsMultiYear, tiers)
}
