/*
handlers.go - HTTP API handlers for the compensation engine

PURPOSE:
  Exposes the calculation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                    List all employees
    POST   /api/employees                    Create employee
    GET    /api/employees/{id}               Get employee details
    GET    /api/employees/{id}/compensation  Compensation for a month
    GET    /api/employees/{id}/deals         Deals booked in a month
    GET    /api/employees/{id}/collections   Collection records
    PUT    /api/employees/{id}/metrics       Upsert metric target/actual
    PUT    /api/employees/{id}/nrr           Upsert NRR fact

  Plans:
    GET    /api/plans                        List all plans
    POST   /api/plans                        Create/update plan from JSON
    GET    /api/plans/{id}                   Get plan

  Deals:
    POST   /api/deals                        Book a deal (opens collection)

  Collections:
    GET    /api/collections/overdue          Overdue review queue
    POST   /api/collections/{id}/collect     Mark collected
    POST   /api/collections/{id}/clawback    Trigger clawback

  Rates:
    GET    /api/rates                        List exchange rates
    POST   /api/rates                        Save exchange rate

  Team / Admin:
    GET    /api/team/compensation            Roll-up for all employees
    GET    /api/close-runs                   Year-end close audit
    POST   /api/admin/close                  Trigger year-end close now

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Transition precondition failed (e.g. not yet overdue)
  - 422: Plan configuration fault
  - 500: Internal errors

  Transition calls on already-resolved collections return 200 with
  already_resolved=true, never an error. Retries must be safe.

SEE ALSO:
  - dto.go: Request/response data structures
  - compute.go: Read-model assembly
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/comp-engine/collection"
	"github.com/warp/comp-engine/comp"
	"github.com/warp/comp-engine/plan"
	"github.com/warp/comp-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Computer *Computer
	Closer   *YearEndCloser

	validate *validator.Validate
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	computer := NewComputer(store)
	return &Handler{
		Store:    store,
		Computer: computer,
		Closer:   NewYearEndCloser(store, computer),
		validate: validator.New(),
	}
}

func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return h.validate.Struct(dst)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list employees", err)
		return
	}
	result := []EmployeeDTO{}
	for _, e := range records {
		result = append(result, toEmployeeDTO(e))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee", err)
		return
	}
	hireDate, _ := time.Parse("2006-01-02", req.HireDate)
	record := sqlite.EmployeeRecord{
		ID:       req.ID,
		Name:     req.Name,
		Email:    req.Email,
		PlanID:   req.PlanID,
		HireDate: hireDate,
	}
	if err := h.Store.CreateEmployee(r.Context(), record); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(record))
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load employee", err)
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*record))
}

func toEmployeeDTO(e sqlite.EmployeeRecord) EmployeeDTO {
	return EmployeeDTO{
		ID:       e.ID,
		Name:     e.Name,
		Email:    e.Email,
		PlanID:   e.PlanID,
		HireDate: e.HireDate.Format("2006-01-02"),
	}
}

// =============================================================================
// PLANS
// =============================================================================

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListPlans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list plans", err)
		return
	}
	result := []PlanDTO{}
	for _, p := range records {
		dto, err := toPlanDTO(p)
		if err != nil {
			continue // Skip plans with unreadable config
		}
		result = append(result, dto)
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid plan", err)
		return
	}

	// Parse through the factory first: an invalid plan never reaches storage.
	factory := plan.NewFactory()
	parsed, err := factory.FromJSON(req.Config)
	if err != nil {
		status := http.StatusBadRequest
		if comp.IsConfigFault(err) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, "plan validation failed", err)
		return
	}

	configJSON, err := plan.ToJSON(parsed)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode plan", err)
		return
	}
	record := sqlite.PlanRecord{
		ID:         string(parsed.ID),
		Name:       parsed.Name,
		ConfigJSON: configJSON,
		Version:    1,
	}
	if err := h.Store.SavePlan(r.Context(), record); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save plan", err)
		return
	}
	writeJSON(w, http.StatusCreated, PlanDTO{
		ID:      record.ID,
		Name:    record.Name,
		Config:  req.Config,
		Version: record.Version,
	})
}

func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record, err := h.Store.GetPlan(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load plan", err)
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "plan not found", nil)
		return
	}
	dto, err := toPlanDTO(*record)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to decode plan config", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func toPlanDTO(record sqlite.PlanRecord) (PlanDTO, error) {
	var config plan.PlanJSON
	if err := json.Unmarshal([]byte(record.ConfigJSON), &config); err != nil {
		return PlanDTO{}, err
	}
	return PlanDTO{ID: record.ID, Name: record.Name, Config: config, Version: record.Version}, nil
}

// =============================================================================
// DEALS
// =============================================================================

func (h *Handler) BookDeal(w http.ResponseWriter, r *http.Request) {
	var req CreateDealRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid deal", err)
		return
	}

	bookingMonth, _ := time.Parse("2006-01", req.BookingMonth)
	localValue, err := decimalFromString(req.LocalValue)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid local_value", err)
		return
	}

	rates, err := h.Store.ListRates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load rates", err)
		return
	}
	valueUSD, err := comp.NewRateTable(rates).ToUSD(localValue, comp.Currency(req.Currency), bookingMonth)
	if err != nil {
		writeError(w, http.StatusBadRequest, "currency conversion failed", err)
		return
	}

	deal := comp.Deal{
		ID:            comp.DealID(req.ID),
		EmployeeID:    comp.EmployeeID(req.EmployeeID),
		ValueUSD:      valueUSD,
		LocalValue:    localValue,
		LocalCurrency: comp.Currency(req.Currency),
		BookingMonth:  bookingMonth,
		IsMultiYear:   req.IsMultiYear,
		RenewalYears:  req.RenewalYears,
	}
	if deal.ID == "" {
		deal.ID = comp.DealID(uuid.NewString())
	}
	for _, p := range req.Participants {
		pct, err := decimalFromString(p.SplitPct)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid split_pct", err)
			return
		}
		deal.Participants = append(deal.Participants, comp.Participant{
			EmployeeID: comp.EmployeeID(p.EmployeeID),
			SplitPct:   pct,
		})
	}

	record, err := h.Computer.BookDeal(r.Context(), deal, time.Now().UTC())
	if err != nil {
		status := http.StatusInternalServerError
		if comp.IsConfigFault(err) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, "failed to book deal", err)
		return
	}

	dto := toDealDTO(deal, nil)
	dto.CollectionID = string(record.ID)
	writeJSON(w, http.StatusCreated, dto)
}

func (h *Handler) ListDeals(w http.ResponseWriter, r *http.Request) {
	employeeID := comp.EmployeeID(chi.URLParam(r, "id"))
	month, err := monthParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month", err)
		return
	}
	deals, err := h.Store.ListDeals(r.Context(), employeeID, month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list deals", err)
		return
	}

	var tiers []comp.RenewalTier
	if p, err := h.Computer.PlanFor(r.Context(), employeeID); err != nil {
		log.Printf("[API] Plan lookup failed for %s, deals rendered without renewal uplift: %v", employeeID, err)
	} else {
		tiers = p.RenewalTiers
	}

	result := []DealDTO{}
	for _, d := range deals {
		result = append(result, toDealDTO(d, tiers))
	}
	writeJSON(w, http.StatusOK, result)
}

func toDealDTO(d comp.Deal, tiers []comp.RenewalTier) DealDTO {
	return DealDTO{
		ID:           string(d.ID),
		EmployeeID:   string(d.EmployeeID),
		ValueUSD:     money(d.ValueUSD),
		LocalValue:   d.LocalValue.String(),
		Currency:     string(d.LocalCurrency),
		BookingMonth: d.BookingMonth.Format("2006-01"),
		IsMultiYear:  d.IsMultiYear,
		RenewalYears: d.RenewalYears,
		ARRCredit:    money(d.ARRCredit(tiers)),
	}
}

// =============================================================================
// FACTS
// =============================================================================

func (h *Handler) UpsertMetricFact(w http.ResponseWriter, r *http.Request) {
	employeeID := comp.EmployeeID(chi.URLParam(r, "id"))
	var req MetricFactRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid metric fact", err)
		return
	}
	month, _ := time.Parse("2006-01", req.Month)
	target, err := decimalFromString(req.Target)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target", err)
		return
	}
	actual, err := decimalFromString(req.Actual)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid actual", err)
		return
	}
	fact := sqlite.MetricFact{
		EmployeeID: employeeID,
		MetricID:   comp.MetricID(req.MetricID),
		Month:      month,
		Target:     target,
		Actual:     actual,
	}
	if err := h.Store.UpsertMetricFact(r.Context(), fact); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save metric fact", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (h *Handler) UpsertNRRFact(w http.ResponseWriter, r *http.Request) {
	employeeID := comp.EmployeeID(chi.URLParam(r, "id"))
	var req NRRFactRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid NRR fact", err)
		return
	}
	month, _ := time.Parse("2006-01", req.Month)
	fact := sqlite.NRRFact{EmployeeID: employeeID, Month: month}

	var err error
	if fact.EligibleCrEr, err = decimalFromString(req.EligibleCrEr); err == nil {
		if fact.TotalCrEr, err = decimalFromString(req.TotalCrEr); err == nil {
			if fact.EligibleImplementation, err = decimalFromString(req.EligibleImplementation); err == nil {
				fact.TotalImplementation, err = decimalFromString(req.TotalImplementation)
			}
		}
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid NRR amount", err)
		return
	}

	if err := h.Store.UpsertNRRFact(r.Context(), fact); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save NRR fact", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// =============================================================================
// EXCHANGE RATES
// =============================================================================

func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.Store.ListRates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rates", err)
		return
	}
	result := []RateRequest{}
	for _, rate := range rates {
		result = append(result, RateRequest{
			Currency: string(rate.Currency),
			Month:    rate.Month.Format("2006-01"),
			RateUSD:  rate.RateUSD.String(),
		})
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) SaveRate(w http.ResponseWriter, r *http.Request) {
	var req RateRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid rate", err)
		return
	}
	month, _ := time.Parse("2006-01", req.Month)
	rate, err := decimalFromString(req.RateUSD)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rate_usd", err)
		return
	}
	record := comp.ExchangeRate{
		Currency: comp.Currency(req.Currency),
		Month:    month,
		RateUSD:  rate,
	}
	if err := h.Store.SaveRate(r.Context(), record); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save rate", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// =============================================================================
// COMPENSATION READ MODEL
// =============================================================================

func (h *Handler) GetCompensation(w http.ResponseWriter, r *http.Request) {
	employeeID := comp.EmployeeID(chi.URLParam(r, "id"))
	month, err := monthParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month", err)
		return
	}
	result, err := h.Computer.Compute(r.Context(), employeeID, month)
	if err != nil {
		status := http.StatusInternalServerError
		if comp.IsConfigFault(err) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, "failed to compute compensation", err)
		return
	}
	writeJSON(w, http.StatusOK, toCompensationDTO(result))
}

// GetTeamCompensation rolls up every employee for the month. A config
// fault on one plan flags that row; it never hides the employee.
func (h *Handler) GetTeamCompensation(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month", err)
		return
	}
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list employees", err)
		return
	}

	result := []TeamMemberDTO{}
	for _, e := range employees {
		row := TeamMemberDTO{EmployeeID: e.ID, Name: e.Name}
		computed, err := h.Computer.Compute(r.Context(), comp.EmployeeID(e.ID), month)
		if err != nil {
			row.ConfigFault = err.Error()
		} else {
			row.Result = toCompensationDTO(computed)
		}
		result = append(result, row)
	}
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// COLLECTIONS
// =============================================================================

func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	employeeID := comp.EmployeeID(chi.URLParam(r, "id"))
	records, err := h.Computer.Collections.Store.ListByEmployee(r.Context(), employeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list collections", err)
		return
	}
	now := time.Now().UTC()
	result := []CollectionDTO{}
	for _, c := range records {
		result = append(result, toCollectionDTO(c, c.IsOverdue(now)))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) ListOverdueCollections(w http.ResponseWriter, r *http.Request) {
	records, err := h.Computer.Collections.Overdue(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list overdue collections", err)
		return
	}
	result := []CollectionDTO{}
	for _, c := range records {
		result = append(result, toCollectionDTO(c, true))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) MarkCollected(w http.ResponseWriter, r *http.Request) {
	id := collection.CollectionID(chi.URLParam(r, "id"))
	var req MarkCollectedRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err)
		return
	}
	collectedAt, _ := time.Parse("2006-01-02", req.CollectionDate)

	outcome, err := h.Computer.Collections.MarkCollected(r.Context(), id, collectedAt, req.Actor)
	if err != nil {
		writeTransitionError(w, err)
		return
	}
	writeOutcome(w, outcome)
}

func (h *Handler) TriggerClawback(w http.ResponseWriter, r *http.Request) {
	id := collection.CollectionID(chi.URLParam(r, "id"))
	var req TriggerClawbackRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err)
		return
	}

	var override *comp.Money
	if req.Amount != nil {
		value, err := decimalFromString(*req.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid amount", err)
			return
		}
		m := comp.USDFromDecimal(value)
		override = &m
	}

	outcome, err := h.Computer.Collections.TriggerClawback(r.Context(), id, override, req.Actor)
	if err != nil {
		writeTransitionError(w, err)
		return
	}
	writeOutcome(w, outcome)
}

func writeOutcome(w http.ResponseWriter, outcome collection.Outcome) {
	now := time.Now().UTC()
	writeJSON(w, http.StatusOK, TransitionOutcomeDTO{
		Collection:      toCollectionDTO(outcome.Collection, outcome.Collection.IsOverdue(now)),
		AlreadyResolved: outcome.AlreadyResolved,
	})
}

func writeTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, collection.ErrNotFound):
		writeError(w, http.StatusNotFound, "collection not found", err)
	case errors.Is(err, collection.ErrNotOverdue):
		writeError(w, http.StatusConflict, "collection is not overdue", err)
	case errors.Is(err, collection.ErrClawbackExceedsDisbursed):
		writeError(w, http.StatusBadRequest, "clawback exceeds disbursed amount", err)
	default:
		writeError(w, http.StatusInternalServerError, "transition failed", err)
	}
}

// =============================================================================
// YEAR-END CLOSE
// =============================================================================

func (h *Handler) ListCloseRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListCloseRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list close runs", err)
		return
	}
	result := []CloseRunDTO{}
	for _, run := range runs {
		result = append(result, CloseRunDTO{
			ID:              run.ID,
			EmployeeID:      string(run.EmployeeID),
			FiscalYearStart: run.FiscalYearStart.Format("2006-01-02"),
			ReleasedAmount:  run.ReleasedAmount.StringFixed(2),
			Status:          run.Status,
			Error:           run.Error,
		})
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) TriggerYearEndClose(w http.ResponseWriter, r *http.Request) {
	closed, err := h.Closer.RunOnce(r.Context(), time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "year-end close failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"closed": closed})
}

// =============================================================================
// HELPERS
// =============================================================================

func monthParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01", raw)
}

func decimalFromString(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a decimal number: %q", s)
	}
	return d, nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
