/*
aggregate.go - Per-employee compensation composition

PURPOSE:
  Composes the metric results, commission results, optional NRR result,
  optional SPIFF result, and outstanding clawback balance for one
  employee/period into the read model dashboards consume.

COMPOSITION RULES:
  totalEligible = sum(metric eligible) + sum(commission gross)
                + NRR payout + SPIFF total
  totalPaid     = sum(paid tranches) - outstanding clawback balance

  Clawback reduces NET PAID, never eligible - eligibility was earned when
  the deal booked; the recovery is a disbursement event.

  Purely additive. A plan with no NRR component yields NRR == nil,
  contributing zero. SPIFF defaults to full payment at booking; a plan
  that withholds SPIFF pay splits it into tranches like any other source.

This is a derived read model: recomputed on demand from current facts,
never independently mutated.
*/
package comp

// =============================================================================
// COMPENSATION RESULT - The read model
// =============================================================================

type CompensationResult struct {
	EmployeeID EmployeeID
	Period     Period

	Metrics     []MetricResult
	Commissions []CommissionResult
	NRR         *NRRResult
	Spiff       *SpiffResult

	// ClawbackBalance is the sum of clawed-back amounts not yet recovered.
	ClawbackBalance Money

	TotalEligible        Money
	TotalPaid            Money
	TotalHoldback        Money
	TotalYearEndHoldback Money
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregate composes the per-source results into one CompensationResult.
// All inputs are already evaluated and split; this is addition only.
func Aggregate(
	employeeID EmployeeID,
	period Period,
	metrics []MetricResult,
	commissions []CommissionResult,
	nrr *NRRResult,
	spiff *SpiffResult,
	clawbackBalance Money,
) CompensationResult {
	result := CompensationResult{
		EmployeeID:           employeeID,
		Period:               period,
		Metrics:              metrics,
		Commissions:          commissions,
		NRR:                  nrr,
		Spiff:                spiff,
		ClawbackBalance:      clawbackBalance,
		TotalEligible:        ZeroUSD(),
		TotalPaid:            ZeroUSD(),
		TotalHoldback:        ZeroUSD(),
		TotalYearEndHoldback: ZeroUSD(),
	}

	for _, m := range metrics {
		result.TotalEligible = result.TotalEligible.Add(m.EligiblePayout)
		result.TotalPaid = result.TotalPaid.Add(m.Paid)
		result.TotalHoldback = result.TotalHoldback.Add(m.Holdback)
		result.TotalYearEndHoldback = result.TotalYearEndHoldback.Add(m.YearEndHoldback)
	}

	for _, c := range commissions {
		result.TotalEligible = result.TotalEligible.Add(c.GrossPayout)
		result.TotalPaid = result.TotalPaid.Add(c.Paid)
		result.TotalHoldback = result.TotalHoldback.Add(c.Holdback)
		result.TotalYearEndHoldback = result.TotalYearEndHoldback.Add(c.YearEndHoldback)
	}

	if nrr != nil {
		result.TotalEligible = result.TotalEligible.Add(nrr.Payout)
		result.TotalPaid = result.TotalPaid.Add(nrr.Paid)
		result.TotalHoldback = result.TotalHoldback.Add(nrr.Holdback)
		result.TotalYearEndHoldback = result.TotalYearEndHoldback.Add(nrr.YearEndHoldback)
	}

	if spiff != nil {
		result.TotalEligible = result.TotalEligible.Add(spiff.TotalBonus)
		result.TotalPaid = result.TotalPaid.Add(spiff.Paid)
		result.TotalHoldback = result.TotalHoldback.Add(spiff.Holdback)
		result.TotalYearEndHoldback = result.TotalYearEndHoldback.Add(spiff.YearEndHoldback)
	}

	result.TotalPaid = result.TotalPaid.Sub(clawbackBalance)
	return result
}
