/*
commission.go - Per-deal rate-based commission

PURPOSE:
  The simplest calculator: grossPayout = dealValue x rate / 100. The gross
  value is handed to the split engine for disbursement timing; this
  calculator is pure arithmetic with no state.

A zero-value deal produces a zero commission - a defined result, not a
fault.
*/
package comp

import "github.com/shopspring/decimal"

// =============================================================================
// COMMISSION RESULT
// =============================================================================

// CommissionResult is the gross commission for one deal plus its tranches.
type CommissionResult struct {
	DealID  DealID
	RatePct decimal.Decimal

	DealValue   Money
	GrossPayout Money

	Paid            Money
	Holdback        Money
	YearEndHoldback Money
}

// ApplySplit distributes the gross payout into tranches.
func (r *CommissionResult) ApplySplit(split SplitConfig) {
	t := split.Split(r.GrossPayout)
	r.Paid = t.PaidAtBooking
	r.Holdback = t.Holdback
	r.YearEndHoldback = t.YearEndHoldback
}

// =============================================================================
// CALCULATOR
// =============================================================================

// CalculateCommission computes the gross commission on a deal value.
func CalculateCommission(dealID DealID, dealValue Money, ratePct decimal.Decimal) CommissionResult {
	return CommissionResult{
		DealID:      dealID,
		RatePct:     ratePct,
		DealValue:   dealValue,
		GrossPayout: PercentOf(dealValue, ratePct).RoundCents(),
	}
}

// CommissionForParticipant computes one participant's commission on a
// shared deal: split first, then rate.
func CommissionForParticipant(deal Deal, employeeID EmployeeID, ratePct decimal.Decimal) CommissionResult {
	return CalculateCommission(deal.ID, deal.ParticipantValue(employeeID), ratePct)
}
