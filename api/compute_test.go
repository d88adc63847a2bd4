package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/comp-engine/comp"
	"github.com/warp/comp-engine/store/sqlite"
)

// =============================================================================
// TEST FIXTURE - one employee on the standard AE plan
// =============================================================================

const testPlanJSON = `{
	"id": "ae-standard",
	"name": "Account Executive Standard",
	"bonus_pool": 50000,
	"commission_rate_pct": 8,
	"metrics": [
		{"id": "arr", "name": "New ARR", "weightage": 40,
		 "logic": "linear", "max_pct": 150},
		{"id": "retention", "name": "Logo Retention", "weightage": 60,
		 "logic": "gated", "gate_threshold": 85,
		 "tiers": [
			{"min_pct": 85, "max_pct": 100, "multiplier": 1.0},
			{"min_pct": 100.01, "multiplier": 1.25}
		 ]}
	],
	"nrr": {"target": 200000, "ote": 40000, "ote_pct": 25},
	"spiff": {"threshold": 200000, "rate_pct": 1},
	"split": {"booking_pct": 75, "year_end_pct": 10},
	"clawback_period_days": 90
}`

var testMonth = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

func newTestComputer(t *testing.T) *Computer {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.SavePlan(ctx, sqlite.PlanRecord{
		ID: "ae-standard", Name: "Account Executive Standard",
		ConfigJSON: testPlanJSON, Version: 1,
	}))
	require.NoError(t, store.CreateEmployee(ctx, sqlite.EmployeeRecord{
		ID: "emp-1", Name: "Dana Reyes", PlanID: "ae-standard",
		HireDate: time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC),
	}))
	return NewComputer(store)
}

// =============================================================================
// END-TO-END COMPUTATION
// =============================================================================

func TestCompute_FullMonth(t *testing.T) {
	// GIVEN: A 500k deal, 120% ARR achievement, gated retention below its
	//        gate, 180k eligible NRR
	// THEN: Eligible = 24,000 metric + 40,000 commission + 9,000 NRR
	//       + 5,000 SPIFF = 78,000

	c := newTestComputer(t)
	ctx := context.Background()

	deal := comp.Deal{
		ID: "deal-1", EmployeeID: "emp-1",
		ValueUSD:   comp.USD(500000),
		LocalValue: comp.NewDecimal(500000), LocalCurrency: comp.CurrencyUSD,
		BookingMonth: testMonth,
	}
	bookedAt := testMonth.AddDate(0, 0, 9)
	record, err := c.BookDeal(ctx, deal, bookedAt)
	require.NoError(t, err)

	// Booking opened the collection record with the booking share of the
	// deal value treated as disbursed.
	assert.True(t, record.DisbursedAtBooking.Equal(comp.USD(375000)),
		"expected 75%% of the 500000 deal value, got %s", record.DisbursedAtBooking.Value)
	assert.True(t, record.DueDate.Equal(bookedAt.AddDate(0, 0, 90)),
		"due date must be booking + 90 days, got %s", record.DueDate)

	require.NoError(t, c.Store.UpsertMetricFact(ctx, sqlite.MetricFact{
		EmployeeID: "emp-1", MetricID: "arr", Month: testMonth,
		Target: comp.NewDecimal(100000), Actual: comp.NewDecimal(120000),
	}))
	require.NoError(t, c.Store.UpsertMetricFact(ctx, sqlite.MetricFact{
		EmployeeID: "emp-1", MetricID: "retention", Month: testMonth,
		Target: comp.NewDecimal(100), Actual: comp.NewDecimal(80),
	}))
	require.NoError(t, c.Store.UpsertNRRFact(ctx, sqlite.NRRFact{
		EmployeeID: "emp-1", Month: testMonth,
		EligibleCrEr: comp.NewDecimal(150000), TotalCrEr: comp.NewDecimal(220000),
		EligibleImplementation: comp.NewDecimal(30000), TotalImplementation: comp.NewDecimal(60000),
	}))

	result, err := c.Compute(ctx, "emp-1", testMonth)
	require.NoError(t, err)

	require.Len(t, result.Metrics, 2)
	assert.True(t, result.TotalEligible.Equal(comp.USD(78000)),
		"expected 78000 eligible, got %s", result.TotalEligible.Value)

	// 75% booking pay on the split sources, SPIFF in full.
	assert.True(t, result.TotalPaid.Equal(comp.USD(59750)),
		"expected 59750 paid, got %s", result.TotalPaid.Value)

	require.NotNil(t, result.NRR)
	assert.True(t, result.NRR.Payout.Equal(comp.USD(9000)))
	require.NotNil(t, result.Spiff)
	assert.True(t, result.Spiff.TotalBonus.Equal(comp.USD(5000)))
}

func TestCompute_MissingFactIsAbsentNotZero(t *testing.T) {
	// A metric with no stored fact for the month is skipped entirely,
	// distinguishable from a configured metric that scored zero.
	c := newTestComputer(t)
	ctx := context.Background()

	require.NoError(t, c.Store.UpsertMetricFact(ctx, sqlite.MetricFact{
		EmployeeID: "emp-1", MetricID: "arr", Month: testMonth,
		Target: comp.NewDecimal(100000), Actual: comp.NewDecimal(120000),
	}))

	result, err := c.Compute(ctx, "emp-1", testMonth)
	require.NoError(t, err)
	require.Len(t, result.Metrics, 1)
	assert.Equal(t, comp.MetricID("arr"), result.Metrics[0].Definition.ID)
	assert.Nil(t, result.NRR, "no NRR fact stored, result must be absent")
}

func TestCompute_ClawbackReducesNetPaid(t *testing.T) {
	// GIVEN: A 100,000 deal on a 75% booking split, uncollected past its
	//        due date
	// THEN: The default clawback is 75,000 (booking share of the deal
	//       value), and it reduces net paid only

	c := newTestComputer(t)
	ctx := context.Background()

	deal := comp.Deal{
		ID: "deal-1", EmployeeID: "emp-1",
		ValueUSD:   comp.USD(100000),
		LocalValue: comp.NewDecimal(100000), LocalCurrency: comp.CurrencyUSD,
		BookingMonth: testMonth,
	}
	bookedAt := testMonth.AddDate(0, 0, 9)
	record, err := c.BookDeal(ctx, deal, bookedAt)
	require.NoError(t, err)

	before, err := c.Compute(ctx, "emp-1", testMonth)
	require.NoError(t, err)

	// Move the clock past the due date and trigger the clawback.
	c.Collections.Now = func() time.Time { return record.DueDate.AddDate(0, 0, 1) }
	outcome, err := c.Collections.TriggerClawback(ctx, record.ID, nil, "comp-admin")
	require.NoError(t, err)
	assert.True(t, outcome.Collection.ClawbackAmount.Equal(comp.USD(75000)),
		"expected default clawback of 75000, got %s", outcome.Collection.ClawbackAmount.Value)

	after, err := c.Compute(ctx, "emp-1", testMonth)
	require.NoError(t, err)

	assert.True(t, after.TotalEligible.Equal(before.TotalEligible),
		"clawback must not change eligible")
	assert.True(t, after.TotalPaid.Equal(before.TotalPaid.Sub(comp.USD(75000))),
		"expected paid reduced by 75000, got %s", after.TotalPaid.Value)
}

func TestCompute_SpiffWithheldWhenNotPaidInFull(t *testing.T) {
	// GIVEN: A plan that opts out of full SPIFF payment and a qualifying
	//        250k deal (20,000 commission, 2,500 SPIFF)
	// THEN: The SPIFF bonus splits into tranches like every other source

	c := newTestComputer(t)
	ctx := context.Background()

	const withheldSpiffPlan = `{
		"id": "ae-withheld-spiff",
		"name": "AE Withheld SPIFF",
		"bonus_pool": 50000,
		"commission_rate_pct": 8,
		"metrics": [
			{"id": "arr", "name": "New ARR", "weightage": 100,
			 "logic": "linear", "max_pct": 150}
		],
		"spiff": {"threshold": 200000, "rate_pct": 1, "paid_in_full": false},
		"split": {"booking_pct": 75, "year_end_pct": 10},
		"clawback_period_days": 90
	}`
	require.NoError(t, c.Store.SavePlan(ctx, sqlite.PlanRecord{
		ID: "ae-withheld-spiff", Name: "AE Withheld SPIFF",
		ConfigJSON: withheldSpiffPlan, Version: 1,
	}))
	require.NoError(t, c.Store.CreateEmployee(ctx, sqlite.EmployeeRecord{
		ID: "emp-2", Name: "Sam Okafor", PlanID: "ae-withheld-spiff",
		HireDate: time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, c.Store.CreateDeal(ctx, comp.Deal{
		ID: "deal-2", EmployeeID: "emp-2",
		ValueUSD:   comp.USD(250000),
		LocalValue: comp.NewDecimal(250000), LocalCurrency: comp.CurrencyUSD,
		BookingMonth: testMonth,
	}))

	result, err := c.Compute(ctx, "emp-2", testMonth)
	require.NoError(t, err)

	require.NotNil(t, result.Spiff)
	assert.True(t, result.Spiff.TotalBonus.Equal(comp.USD(2500)))
	assert.True(t, result.Spiff.Paid.Equal(comp.USD(1875)),
		"expected 75%% booking pay on the SPIFF, got %s", result.Spiff.Paid.Value)

	// Commission pays 15,000 of 20,000; SPIFF pays 1,875 of 2,500.
	assert.True(t, result.TotalPaid.Equal(comp.USD(16875)),
		"expected 16875 paid, got %s", result.TotalPaid.Value)
	assert.True(t, result.TotalHoldback.Equal(comp.USD(3375)),
		"expected 3375 holdback, got %s", result.TotalHoldback.Value)
	assert.True(t, result.TotalYearEndHoldback.Equal(comp.USD(2250)),
		"expected 2250 year-end holdback, got %s", result.TotalYearEndHoldback.Value)
}

func TestCompute_UnknownEmployee(t *testing.T) {
	c := newTestComputer(t)
	_, err := c.Compute(context.Background(), "ghost", testMonth)
	assert.Error(t, err)
}

// =============================================================================
// YEAR-END CLOSE
// =============================================================================

func TestYearEndCloser_RunOnceIsIdempotent(t *testing.T) {
	c := newTestComputer(t)
	ctx := context.Background()

	require.NoError(t, c.Store.UpsertMetricFact(ctx, sqlite.MetricFact{
		EmployeeID: "emp-1", MetricID: "arr", Month: testMonth,
		Target: comp.NewDecimal(100000), Actual: comp.NewDecimal(100000),
	}))

	closer := NewYearEndCloser(c.Store, c)
	asOf := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	closer.Now = func() time.Time { return asOf }

	closed, err := closer.RunOnce(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	runs, err := c.Store.ListCloseRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "completed", runs[0].Status)
	// 10% year-end tranche of the 20,000 metric payout.
	assert.True(t, runs[0].ReleasedAmount.Equal(comp.NewDecimal(2000)),
		"expected 2000 released, got %s", runs[0].ReleasedAmount)

	// A second run closes nothing and adds no rows.
	closed, err = closer.RunOnce(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, 0, closed)

	runs, err = c.Store.ListCloseRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
