package comp

import "time"

// =============================================================================
// PERIOD - Compensation results are always computed for a period
// =============================================================================

// Period is the time boundary for a compensation computation, usually a
// booking month or a fiscal year.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains returns true if t falls within [Start, End].
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.Format("2006-01-02") + ", " + p.End.Format("2006-01-02") + "]"
}

// MonthPeriod returns the period covering one calendar month.
func MonthPeriod(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, -1)}
}

// FiscalYearPeriod returns the fiscal year starting at startMonth that
// contains the given date.
func FiscalYearPeriod(date time.Time, startMonth time.Month) Period {
	start := time.Date(date.Year(), startMonth, 1, 0, 0, 0, 0, time.UTC)
	if date.Before(start) {
		start = start.AddDate(-1, 0, 0)
	}
	return Period{Start: start, End: start.AddDate(1, 0, -1)}
}

// NextPeriod returns the period of equal length immediately following.
func (p Period) NextPeriod() Period {
	length := p.End.Sub(p.Start)
	start := p.End.AddDate(0, 0, 1)
	return Period{Start: start, End: start.Add(length)}
}
