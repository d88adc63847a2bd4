/*
compute.go - Compensation read-model assembly

PURPOSE:
  Loads the facts for one employee/period from the store, runs the pure
  calculators, and composes the CompensationResult dashboards consume.
  This is the only place store records and comp inputs meet; the comp
  package itself never sees the database.

FLOW:
  1. Load employee -> plan (validated; a config fault blocks computation
     and is surfaced, never absorbed into a zero total)
  2. Load the month's deals; apply renewal uplift to ARR actuals
  3. Evaluate each metric from stored targets/actuals, split the payouts
  4. Commission per deal (participant value x rate), split
  5. NRR bonus from stored facts, split
  6. SPIFF pool (paid in full unless the plan withholds it)
  7. Outstanding clawback balance from collection records
  8. Aggregate

The result is derived - recomputed on demand, never stored.
*/
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/comp-engine/collection"
	"github.com/warp/comp-engine/comp"
	"github.com/warp/comp-engine/plan"
	"github.com/warp/comp-engine/store/sqlite"
)

// Computer assembles compensation results from stored facts.
type Computer struct {
	Store       *sqlite.Store
	Collections *collection.Service
	Factory     *plan.Factory
}

func NewComputer(store *sqlite.Store) *Computer {
	return &Computer{
		Store:       store,
		Collections: collection.NewService(store),
		Factory:     plan.NewFactory(),
	}
}

// PlanFor loads and parses the employee's plan. Parsing validates; a
// malformed plan comes back as a configuration fault.
func (c *Computer) PlanFor(ctx context.Context, employeeID comp.EmployeeID) (*plan.Plan, error) {
	emp, err := c.Store.GetEmployee(ctx, string(employeeID))
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, fmt.Errorf("employee %s not found", employeeID)
	}
	record, err := c.Store.GetPlan(ctx, emp.PlanID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: employee %s has no plan", comp.ErrMissingPlanField, employeeID)
	}
	return c.Factory.Parse(record.ConfigJSON)
}

// Compute builds the CompensationResult for one employee and booking month.
func (c *Computer) Compute(ctx context.Context, employeeID comp.EmployeeID, month time.Time) (*comp.CompensationResult, error) {
	p, err := c.PlanFor(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	period := comp.MonthPeriod(month.Year(), month.Month())

	deals, err := c.Store.ListDeals(ctx, employeeID, month)
	if err != nil {
		return nil, err
	}

	metrics, err := c.evaluateMetrics(ctx, employeeID, month, p)
	if err != nil {
		return nil, err
	}

	var commissions []comp.CommissionResult
	for _, deal := range deals {
		commission := comp.CommissionForParticipant(deal, employeeID, p.CommissionRatePct)
		commission.ApplySplit(p.Split)
		commissions = append(commissions, commission)
	}

	nrr, err := c.evaluateNRR(ctx, employeeID, month, p)
	if err != nil {
		return nil, err
	}

	var spiff *comp.SpiffResult
	if p.Spiff != nil {
		result := comp.AggregateSpiff(deals, p.Spiff.Threshold, p.Spiff.RatePct)
		if !p.Spiff.PaidInFull {
			result.ApplySplit(p.Split)
		}
		spiff = &result
	}

	clawback, err := c.Collections.OutstandingClawback(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	result := comp.Aggregate(employeeID, period, metrics, commissions, nrr, spiff, clawback)
	return &result, nil
}

func (c *Computer) evaluateMetrics(ctx context.Context, employeeID comp.EmployeeID, month time.Time, p *plan.Plan) ([]comp.MetricResult, error) {
	facts, err := c.Store.ListMetricFacts(ctx, employeeID, month)
	if err != nil {
		return nil, err
	}
	byMetric := make(map[comp.MetricID]sqlite.MetricFact, len(facts))
	for _, f := range facts {
		byMetric[f.MetricID] = f
	}

	var results []comp.MetricResult
	for _, def := range p.Metrics {
		fact, ok := byMetric[def.ID]
		if !ok {
			// Never configured for this month: absent, not zero achievement.
			continue
		}
		result, err := comp.EvaluateMetric(def, fact.Target, fact.Actual, p.BonusPool)
		if err != nil {
			return nil, err
		}
		result.ApplySplit(p.Split)
		results = append(results, result)
	}
	return results, nil
}

func (c *Computer) evaluateNRR(ctx context.Context, employeeID comp.EmployeeID, month time.Time, p *plan.Plan) (*comp.NRRResult, error) {
	if p.NRR == nil {
		return nil, nil
	}
	fact, err := c.Store.GetNRRFact(ctx, employeeID, month)
	if err != nil {
		return nil, err
	}
	if fact == nil {
		return nil, nil
	}

	result := comp.CalculateNRR(comp.NRRInput{
		EligibleCrEr:           comp.USDFromDecimal(fact.EligibleCrEr),
		TotalCrEr:              comp.USDFromDecimal(fact.TotalCrEr),
		EligibleImplementation: comp.USDFromDecimal(fact.EligibleImplementation),
		TotalImplementation:    comp.USDFromDecimal(fact.TotalImplementation),
		Target:                 p.NRR.Target,
		Pool:                   p.NRR.Pool(),
		Ceiling:                p.NRR.Ceiling(),
	})
	result.ApplySplit(p.Split)
	return &result, nil
}

// BookDeal records a deal and opens its collection record: the booking
// share of the deal value is considered disbursed, and the clawback clock
// starts.
func (c *Computer) BookDeal(ctx context.Context, deal comp.Deal, bookedAt time.Time) (*collection.Collection, error) {
	p, err := c.PlanFor(ctx, deal.EmployeeID)
	if err != nil {
		return nil, err
	}

	if err := c.Store.CreateDeal(ctx, deal); err != nil {
		return nil, err
	}

	// The default clawback recovers the booking share of the deal value,
	// not just the commission tranche.
	disbursed := comp.PercentOf(deal.ValueUSD, p.Split.BookingPct).RoundCents()

	record := collection.Collection{
		DealID:             deal.ID,
		EmployeeID:         deal.EmployeeID,
		DealValue:          deal.ValueUSD,
		DisbursedAtBooking: disbursed,
		DueDate:            p.CollectionDueDate(bookedAt),
		State:              collection.StatePending,
		CreatedAt:          bookedAt,
	}
	if err := c.Store.Create(ctx, record); err != nil {
		return nil, err
	}

	created, err := c.Store.ListByEmployee(ctx, deal.EmployeeID)
	if err != nil {
		return nil, err
	}
	for i := range created {
		if created[i].DealID == deal.ID {
			return &created[i], nil
		}
	}
	return &record, nil
}
