/*
scheduler.go - Year-end close scheduler

PURPOSE:
  Releases year-end holdback once a fiscal year completes. Each plan keeps
  a slice of every payout until year end; after the fiscal year closes, the
  accumulated year-end holdback is released in one audited run per
  employee per year.

IDEMPOTENCY:
  Close runs are keyed on (employee, fiscal year start). A completed run
  blocks re-processing; a failed run is retried on the next tick and the
  upsert overwrites the failure record.

SCHEDULING:
  Runs on a ticker (default: daily). The close is also triggerable on
  demand via POST /api/admin/close, which calls the same RunOnce.

SEE ALSO:
  - compute.go: per-month compensation assembly
  - store/sqlite: close_runs table
*/
package api

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/comp-engine/comp"
	"github.com/warp/comp-engine/store/sqlite"
)

// =============================================================================
// YEAR-END CLOSER
// =============================================================================

// YearEndCloser processes fiscal-year-end holdback release.
type YearEndCloser struct {
	Store    *sqlite.Store
	Computer *Computer

	// Interval between automatic runs. Defaults to 24h.
	Interval time.Duration

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewYearEndCloser(store *sqlite.Store, computer *Computer) *YearEndCloser {
	return &YearEndCloser{
		Store:    store,
		Computer: computer,
		Interval: 24 * time.Hour,
		Now:      time.Now,
	}
}

// Start runs the close loop until the context is cancelled.
func (c *YearEndCloser) Start(ctx context.Context) {
	interval := c.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	log.Printf("[Closer] Year-end close scheduler started (interval: %v)", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[Closer] Scheduler stopped")
			return
		case <-ticker.C:
			if closed, err := c.RunOnce(ctx, c.Now().UTC()); err != nil {
				log.Printf("[Closer] Close run failed: %v", err)
			} else if closed > 0 {
				log.Printf("[Closer] Closed %d fiscal year(s)", closed)
			}
		}
	}
}

// RunOnce closes the most recently completed fiscal year for every employee
// whose year has not been closed yet. Returns the number of years closed.
func (c *YearEndCloser) RunOnce(ctx context.Context, asOf time.Time) (int, error) {
	employees, err := c.Store.ListEmployees(ctx)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, e := range employees {
		employeeID := comp.EmployeeID(e.ID)

		p, err := c.Computer.PlanFor(ctx, employeeID)
		if err != nil {
			// No plan or a config fault: nothing to close, nothing to record.
			continue
		}

		// The fiscal year containing asOf is still open; close the one before.
		current := comp.FiscalYearPeriod(asOf, p.FiscalYearStartMonth)
		fyStart := current.Start.AddDate(-1, 0, 0)

		done, err := c.Store.IsYearClosed(ctx, employeeID, fyStart)
		if err != nil {
			return closed, err
		}
		if done {
			continue
		}

		released, err := c.releasedHoldback(ctx, employeeID, fyStart)
		run := sqlite.CloseRun{
			EmployeeID:      employeeID,
			FiscalYearStart: fyStart,
			ReleasedAmount:  released,
			Status:          "completed",
		}
		if err != nil {
			run.Status = "failed"
			run.Error = err.Error()
			run.ReleasedAmount = decimal.Zero
			log.Printf("[Closer] Close failed for %s (FY %s): %v",
				employeeID, fyStart.Format("2006-01-02"), err)
		} else {
			now := c.Now().UTC()
			run.CompletedAt = &now
			closed++
			log.Printf("[Closer] Released %s year-end holdback for %s (FY %s)",
				released.StringFixed(2), employeeID, fyStart.Format("2006-01-02"))
		}
		if err := c.Store.SaveCloseRun(ctx, run); err != nil {
			return closed, err
		}
	}
	return closed, nil
}

// releasedHoldback sums the year-end tranche across all twelve months of
// the fiscal year.
func (c *YearEndCloser) releasedHoldback(ctx context.Context, employeeID comp.EmployeeID, fyStart time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for m := 0; m < 12; m++ {
		month := fyStart.AddDate(0, m, 0)
		result, err := c.Computer.Compute(ctx, employeeID, month)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(result.TotalYearEndHoldback.Value)
	}
	return total, nil
}
