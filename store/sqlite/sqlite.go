/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Persists the facts the calculation engine consumes (employees, plans,
  deals, metric actuals, NRR facts, exchange rates) and the one durable
  state machine (collection records). The calculators themselves never
  touch the database; they receive loaded facts.

INTERFACES IMPLEMENTED:
  collection.Store: Collection record persistence with CAS resolution

TERMINAL-TRANSITION ENFORCEMENT:
  Resolve uses a conditional UPDATE:

    UPDATE collections SET ... WHERE id = ? AND state = 'pending'

  RowsAffected == 0 means another caller resolved the record first; the
  caller surfaces the idempotent no-op. At most one caller ever writes the
  terminal state of a collection record.

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers don't
  block, a single writer at a time, better crash recovery.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

USAGE:
  store, err := sqlite.New("./data/comp.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - collection/store.go: interface definition
  - store/memory: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/comp-engine/collection"
	"github.com/warp/comp-engine/comp"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		plan_id TEXT,
		hire_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		config_json TEXT NOT NULL,
		version INTEGER DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS deals (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		value_usd TEXT NOT NULL,
		local_value TEXT NOT NULL,
		local_currency TEXT NOT NULL,
		booking_month TEXT NOT NULL,
		is_multi_year INTEGER NOT NULL DEFAULT 0,
		renewal_years INTEGER NOT NULL DEFAULT 0,
		participants_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_deals_employee_month
		ON deals(employee_id, booking_month);

	-- Collection records: the one durable state machine.
	-- state transitions only via the conditional UPDATE in Resolve.
	CREATE TABLE IF NOT EXISTS collections (
		id TEXT PRIMARY KEY,
		deal_id TEXT NOT NULL UNIQUE,
		employee_id TEXT NOT NULL,
		deal_value TEXT NOT NULL,
		disbursed_at_booking TEXT NOT NULL,
		due_date TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'pending',
		collection_date TEXT,
		clawback_amount TEXT NOT NULL DEFAULT '0',
		resolved_by TEXT,
		resolved_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_collections_employee
		ON collections(employee_id);
	CREATE INDEX IF NOT EXISTS idx_collections_state_due
		ON collections(state, due_date);

	CREATE TABLE IF NOT EXISTS metric_facts (
		employee_id TEXT NOT NULL,
		metric_id TEXT NOT NULL,
		month TEXT NOT NULL,
		target TEXT NOT NULL,
		actual TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (employee_id, metric_id, month)
	);

	CREATE TABLE IF NOT EXISTS nrr_facts (
		employee_id TEXT NOT NULL,
		month TEXT NOT NULL,
		eligible_crer TEXT NOT NULL,
		total_crer TEXT NOT NULL,
		eligible_impl TEXT NOT NULL,
		total_impl TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (employee_id, month)
	);

	CREATE TABLE IF NOT EXISTS fx_rates (
		currency TEXT NOT NULL,
		month TEXT NOT NULL,
		rate_usd TEXT NOT NULL,
		PRIMARY KEY (currency, month)
	);

	-- Year-end close runs: audit of year-end holdback release.
	CREATE TABLE IF NOT EXISTS close_runs (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		fiscal_year_start TEXT NOT NULL,
		released_amount TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		completed_at TEXT,
		created_at TEXT NOT NULL,
		UNIQUE(employee_id, fiscal_year_start)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeRecord struct {
	ID       string
	Name     string
	Email    string
	PlanID   string
	HireDate time.Time
}

func (s *Store) CreateEmployee(ctx context.Context, e EmployeeRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO employees (id, name, email, plan_id, hire_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Email, e.PlanID,
		e.HireDate.UTC().Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create employee: %w", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*EmployeeRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, plan_id, hire_date FROM employees WHERE id = ?`, id)
	var e EmployeeRecord
	var hireDate string
	if err := row.Scan(&e.ID, &e.Name, &e.Email, &e.PlanID, &hireDate); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	e.HireDate, _ = time.Parse(time.RFC3339, hireDate)
	return &e, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]EmployeeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, plan_id, hire_date FROM employees ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EmployeeRecord
	for rows.Next() {
		var e EmployeeRecord
		var hireDate string
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.PlanID, &hireDate); err != nil {
			return nil, err
		}
		e.HireDate, _ = time.Parse(time.RFC3339, hireDate)
		result = append(result, e)
	}
	return result, rows.Err()
}

// =============================================================================
// PLANS - Stored as versioned JSON config
// =============================================================================

type PlanRecord struct {
	ID         string
	Name       string
	ConfigJSON string
	Version    int
}

func (s *Store) SavePlan(ctx context.Context, p PlanRecord) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO plans (id, name, config_json, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   config_json = excluded.config_json,
		   version = plans.version + 1,
		   updated_at = excluded.updated_at`,
		p.ID, p.Name, p.ConfigJSON, p.Version, now, now)
	if err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

func (s *Store) GetPlan(ctx context.Context, id string) (*PlanRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, config_json, version FROM plans WHERE id = ?`, id)
	var p PlanRecord
	if err := row.Scan(&p.ID, &p.Name, &p.ConfigJSON, &p.Version); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPlans(ctx context.Context) ([]PlanRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, config_json, version FROM plans ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PlanRecord
	for rows.Next() {
		var p PlanRecord
		if err := rows.Scan(&p.ID, &p.Name, &p.ConfigJSON, &p.Version); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// =============================================================================
// DEALS
// =============================================================================

func (s *Store) CreateDeal(ctx context.Context, d comp.Deal) error {
	participants, err := json.Marshal(d.Participants)
	if err != nil {
		return fmt.Errorf("failed to encode participants: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO deals
		 (id, employee_id, value_usd, local_value, local_currency, booking_month,
		  is_multi_year, renewal_years, participants_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(d.ID), string(d.EmployeeID),
		d.ValueUSD.Value.String(), d.LocalValue.String(), string(d.LocalCurrency),
		d.BookingMonth.UTC().Format("2006-01"),
		boolToInt(d.IsMultiYear), d.RenewalYears,
		string(participants), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}
	return nil
}

func (s *Store) ListDeals(ctx context.Context, employeeID comp.EmployeeID, month time.Time) ([]comp.Deal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_id, value_usd, local_value, local_currency,
		        booking_month, is_multi_year, renewal_years, participants_json
		 FROM deals WHERE employee_id = ? AND booking_month = ?
		 ORDER BY id`,
		string(employeeID), month.UTC().Format("2006-01"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeals(rows)
}

func (s *Store) GetDeal(ctx context.Context, id comp.DealID) (*comp.Deal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_id, value_usd, local_value, local_currency,
		        booking_month, is_multi_year, renewal_years, participants_json
		 FROM deals WHERE id = ?`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	deals, err := scanDeals(rows)
	if err != nil || len(deals) == 0 {
		return nil, err
	}
	return &deals[0], nil
}

func scanDeals(rows *sql.Rows) ([]comp.Deal, error) {
	var result []comp.Deal
	for rows.Next() {
		var (
			d                               comp.Deal
			id, employeeID                  string
			valueUSD, localValue, currency  string
			bookingMonth, participantsJSON  string
			isMultiYear                     int
		)
		if err := rows.Scan(&id, &employeeID, &valueUSD, &localValue, &currency,
			&bookingMonth, &isMultiYear, &d.RenewalYears, &participantsJSON); err != nil {
			return nil, err
		}
		d.ID = comp.DealID(id)
		d.EmployeeID = comp.EmployeeID(employeeID)
		d.ValueUSD = comp.USDFromDecimal(comp.MustParseDecimal(valueUSD))
		d.LocalValue = comp.MustParseDecimal(localValue)
		d.LocalCurrency = comp.Currency(currency)
		d.BookingMonth, _ = time.Parse("2006-01", bookingMonth)
		d.IsMultiYear = isMultiYear == 1
		if participantsJSON != "" {
			if err := json.Unmarshal([]byte(participantsJSON), &d.Participants); err != nil {
				return nil, fmt.Errorf("failed to decode participants: %w", err)
			}
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// =============================================================================
// COLLECTIONS - implements collection.Store
// =============================================================================

var _ collection.Store = (*Store)(nil)

func (s *Store) Create(ctx context.Context, c collection.Collection) error {
	if c.ID == "" {
		c.ID = collection.CollectionID(uuid.NewString())
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collections
		 (id, deal_id, employee_id, deal_value, disbursed_at_booking, due_date,
		  state, clawback_amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, '0', ?)`,
		string(c.ID), string(c.DealID), string(c.EmployeeID),
		c.DealValue.Value.String(), c.DisbursedAtBooking.Value.String(),
		c.DueDate.UTC().Format(time.RFC3339),
		string(collection.StatePending),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id collection.CollectionID) (collection.Collection, error) {
	rows, err := s.db.QueryContext(ctx, selectCollections+` WHERE id = ?`, string(id))
	if err != nil {
		return collection.Collection{}, err
	}
	defer rows.Close()
	records, err := scanCollections(rows)
	if err != nil {
		return collection.Collection{}, err
	}
	if len(records) == 0 {
		return collection.Collection{}, collection.ErrNotFound
	}
	return records[0], nil
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID comp.EmployeeID) ([]collection.Collection, error) {
	rows, err := s.db.QueryContext(ctx,
		selectCollections+` WHERE employee_id = ? ORDER BY due_date`, string(employeeID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCollections(rows)
}

func (s *Store) ListPendingDueBefore(ctx context.Context, cutoff time.Time) ([]collection.Collection, error) {
	rows, err := s.db.QueryContext(ctx,
		selectCollections+` WHERE state = 'pending' AND due_date < ? ORDER BY due_date`,
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCollections(rows)
}

// Resolve applies the terminal transition with a conditional UPDATE.
// RowsAffected == 0 means another caller won the race; the record is left
// untouched and (false, nil) tells the service to report the no-op.
func (s *Store) Resolve(ctx context.Context, id collection.CollectionID, r collection.Resolution) (bool, error) {
	var collectionDate any
	if r.CollectionDate != nil {
		collectionDate = r.CollectionDate.UTC().Format(time.RFC3339)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE collections
		 SET state = ?, collection_date = ?, clawback_amount = ?,
		     resolved_by = ?, resolved_at = ?
		 WHERE id = ? AND state = 'pending'`,
		string(r.State), collectionDate, r.ClawbackAmount.Value.String(),
		r.ResolvedBy, r.ResolvedAt.UTC().Format(time.RFC3339), string(id))
	if err != nil {
		return false, fmt.Errorf("failed to resolve collection: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

const selectCollections = `
	SELECT id, deal_id, employee_id, deal_value, disbursed_at_booking,
	       due_date, state, collection_date, clawback_amount,
	       resolved_by, resolved_at, created_at
	FROM collections`

func scanCollections(rows *sql.Rows) ([]collection.Collection, error) {
	var result []collection.Collection
	for rows.Next() {
		var (
			c                              collection.Collection
			id, dealID, employeeID, state  string
			dealValue, disbursed, clawback string
			dueDate, createdAt             string
			collectionDate, resolvedBy     sql.NullString
			resolvedAt                     sql.NullString
		)
		if err := rows.Scan(&id, &dealID, &employeeID, &dealValue, &disbursed,
			&dueDate, &state, &collectionDate, &clawback,
			&resolvedBy, &resolvedAt, &createdAt); err != nil {
			return nil, err
		}
		c.ID = collection.CollectionID(id)
		c.DealID = comp.DealID(dealID)
		c.EmployeeID = comp.EmployeeID(employeeID)
		c.DealValue = comp.USDFromDecimal(comp.MustParseDecimal(dealValue))
		c.DisbursedAtBooking = comp.USDFromDecimal(comp.MustParseDecimal(disbursed))
		c.DueDate, _ = time.Parse(time.RFC3339, dueDate)
		c.State = collection.State(state)
		c.ClawbackAmount = comp.USDFromDecimal(comp.MustParseDecimal(clawback))
		if collectionDate.Valid {
			t, _ := time.Parse(time.RFC3339, collectionDate.String)
			c.CollectionDate = &t
		}
		if resolvedBy.Valid {
			c.ResolvedBy = resolvedBy.String
		}
		if resolvedAt.Valid {
			t, _ := time.Parse(time.RFC3339, resolvedAt.String)
			c.ResolvedAt = &t
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		result = append(result, c)
	}
	return result, rows.Err()
}

// =============================================================================
// METRIC FACTS - Targets and actuals per employee/metric/month
// =============================================================================

type MetricFact struct {
	EmployeeID comp.EmployeeID
	MetricID   comp.MetricID
	Month      time.Time
	Target     decimal.Decimal
	Actual     decimal.Decimal
}

func (s *Store) UpsertMetricFact(ctx context.Context, f MetricFact) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metric_facts (employee_id, metric_id, month, target, actual, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(employee_id, metric_id, month) DO UPDATE SET
		   target = excluded.target, actual = excluded.actual,
		   updated_at = excluded.updated_at`,
		string(f.EmployeeID), string(f.MetricID), f.Month.UTC().Format("2006-01"),
		f.Target.String(), f.Actual.String(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert metric fact: %w", err)
	}
	return nil
}

func (s *Store) ListMetricFacts(ctx context.Context, employeeID comp.EmployeeID, month time.Time) ([]MetricFact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT employee_id, metric_id, month, target, actual
		 FROM metric_facts WHERE employee_id = ? AND month = ?`,
		string(employeeID), month.UTC().Format("2006-01"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MetricFact
	for rows.Next() {
		var f MetricFact
		var employee, metric, monthStr, target, actual string
		if err := rows.Scan(&employee, &metric, &monthStr, &target, &actual); err != nil {
			return nil, err
		}
		f.EmployeeID = comp.EmployeeID(employee)
		f.MetricID = comp.MetricID(metric)
		f.Month, _ = time.Parse("2006-01", monthStr)
		f.Target = comp.MustParseDecimal(target)
		f.Actual = comp.MustParseDecimal(actual)
		result = append(result, f)
	}
	return result, rows.Err()
}

// =============================================================================
// NRR FACTS
// =============================================================================

type NRRFact struct {
	EmployeeID             comp.EmployeeID
	Month                  time.Time
	EligibleCrEr           decimal.Decimal
	TotalCrEr              decimal.Decimal
	EligibleImplementation decimal.Decimal
	TotalImplementation    decimal.Decimal
}

func (s *Store) UpsertNRRFact(ctx context.Context, f NRRFact) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO nrr_facts
		 (employee_id, month, eligible_crer, total_crer, eligible_impl, total_impl, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(employee_id, month) DO UPDATE SET
		   eligible_crer = excluded.eligible_crer, total_crer = excluded.total_crer,
		   eligible_impl = excluded.eligible_impl, total_impl = excluded.total_impl,
		   updated_at = excluded.updated_at`,
		string(f.EmployeeID), f.Month.UTC().Format("2006-01"),
		f.EligibleCrEr.String(), f.TotalCrEr.String(),
		f.EligibleImplementation.String(), f.TotalImplementation.String(),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert NRR fact: %w", err)
	}
	return nil
}

func (s *Store) GetNRRFact(ctx context.Context, employeeID comp.EmployeeID, month time.Time) (*NRRFact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT employee_id, month, eligible_crer, total_crer, eligible_impl, total_impl
		 FROM nrr_facts WHERE employee_id = ? AND month = ?`,
		string(employeeID), month.UTC().Format("2006-01"))

	var f NRRFact
	var employee, monthStr, eligibleCrEr, totalCrEr, eligibleImpl, totalImpl string
	err := row.Scan(&employee, &monthStr, &eligibleCrEr, &totalCrEr, &eligibleImpl, &totalImpl)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f.EmployeeID = comp.EmployeeID(employee)
	f.Month, _ = time.Parse("2006-01", monthStr)
	f.EligibleCrEr = comp.MustParseDecimal(eligibleCrEr)
	f.TotalCrEr = comp.MustParseDecimal(totalCrEr)
	f.EligibleImplementation = comp.MustParseDecimal(eligibleImpl)
	f.TotalImplementation = comp.MustParseDecimal(totalImpl)
	return &f, nil
}

// =============================================================================
// EXCHANGE RATES
// =============================================================================

func (s *Store) SaveRate(ctx context.Context, r comp.ExchangeRate) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fx_rates (currency, month, rate_usd) VALUES (?, ?, ?)
		 ON CONFLICT(currency, month) DO UPDATE SET rate_usd = excluded.rate_usd`,
		string(r.Currency), r.Month.UTC().Format("2006-01"), r.RateUSD.String())
	if err != nil {
		return fmt.Errorf("failed to save rate: %w", err)
	}
	return nil
}

func (s *Store) ListRates(ctx context.Context) ([]comp.ExchangeRate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT currency, month, rate_usd FROM fx_rates`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []comp.ExchangeRate
	for rows.Next() {
		var r comp.ExchangeRate
		var currency, month, rate string
		if err := rows.Scan(&currency, &month, &rate); err != nil {
			return nil, err
		}
		r.Currency = comp.Currency(currency)
		r.Month, _ = time.Parse("2006-01", month)
		r.RateUSD = comp.MustParseDecimal(rate)
		result = append(result, r)
	}
	return result, rows.Err()
}

// =============================================================================
// YEAR-END CLOSE RUNS
// =============================================================================

type CloseRun struct {
	ID              string
	EmployeeID      comp.EmployeeID
	FiscalYearStart time.Time
	ReleasedAmount  decimal.Decimal
	Status          string // running, completed, failed
	Error           string
	CompletedAt     *time.Time
}

func (s *Store) SaveCloseRun(ctx context.Context, run CloseRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	var completedAt any
	if run.CompletedAt != nil {
		completedAt = run.CompletedAt.UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO close_runs
		 (id, employee_id, fiscal_year_start, released_amount, status, error, completed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(employee_id, fiscal_year_start) DO UPDATE SET
		   released_amount = excluded.released_amount,
		   status = excluded.status, error = excluded.error,
		   completed_at = excluded.completed_at`,
		run.ID, string(run.EmployeeID),
		run.FiscalYearStart.UTC().Format("2006-01-02"),
		run.ReleasedAmount.String(), run.Status, run.Error, completedAt,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save close run: %w", err)
	}
	return nil
}

func (s *Store) IsYearClosed(ctx context.Context, employeeID comp.EmployeeID, fiscalYearStart time.Time) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM close_runs
		 WHERE employee_id = ? AND fiscal_year_start = ? AND status = 'completed'`,
		string(employeeID), fiscalYearStart.UTC().Format("2006-01-02"))
	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) ListCloseRuns(ctx context.Context) ([]CloseRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_id, fiscal_year_start, released_amount, status,
		        COALESCE(error, ''), completed_at
		 FROM close_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CloseRun
	for rows.Next() {
		var run CloseRun
		var employee, fyStart, released string
		var completedAt sql.NullString
		if err := rows.Scan(&run.ID, &employee, &fyStart, &released,
			&run.Status, &run.Error, &completedAt); err != nil {
			return nil, err
		}
		run.EmployeeID = comp.EmployeeID(employee)
		run.FiscalYearStart, _ = time.Parse("2006-01-02", fyStart)
		run.ReleasedAmount = comp.MustParseDecimal(released)
		if completedAt.Valid {
			t, _ := time.Parse(time.RFC3339, completedAt.String)
			run.CompletedAt = &t
		}
		result = append(result, run)
	}
	return result, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
