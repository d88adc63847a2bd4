/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external contract. Amounts cross the wire
  as strings to preserve decimal precision.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry go-playground/validator struct tags; handlers run
  the shared validator before touching domain logic.

SEE ALSO:
  - handlers.go: Uses these types
  - plan/factory.go: PlanJSON embedded in plan payloads
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/comp-engine/collection"
	"github.com/warp/comp-engine/comp"
	"github.com/warp/comp-engine/plan"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	PlanID   string `json:"plan_id,omitempty"`
	HireDate string `json:"hire_date"`
}

type CreateEmployeeRequest struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	PlanID   string `json:"plan_id"`
	HireDate string `json:"hire_date" validate:"required,datetime=2006-01-02"`
}

// =============================================================================
// PLANS
// =============================================================================

type PlanDTO struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Config  plan.PlanJSON `json:"config"`
	Version int           `json:"version"`
}

type CreatePlanRequest struct {
	Config plan.PlanJSON `json:"config" validate:"required"`
}

// =============================================================================
// DEALS
// =============================================================================

type CreateDealRequest struct {
	ID           string           `json:"id"`
	EmployeeID   string           `json:"employee_id" validate:"required"`
	LocalValue   string           `json:"local_value" validate:"required"`
	Currency     string           `json:"currency" validate:"required,len=3"`
	BookingMonth string           `json:"booking_month" validate:"required,datetime=2006-01"`
	IsMultiYear  bool             `json:"is_multi_year"`
	RenewalYears int              `json:"renewal_years" validate:"gte=0"`
	Participants []ParticipantDTO `json:"participants,omitempty" validate:"dive"`
}

type ParticipantDTO struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	SplitPct   string `json:"split_pct" validate:"required"`
}

type DealDTO struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	ValueUSD     string `json:"value_usd"`
	LocalValue   string `json:"local_value"`
	Currency     string `json:"currency"`
	BookingMonth string `json:"booking_month"`
	IsMultiYear  bool   `json:"is_multi_year"`
	RenewalYears int    `json:"renewal_years"`
	ARRCredit    string `json:"arr_credit"`
	CollectionID string `json:"collection_id,omitempty"`
}

// =============================================================================
// FACTS
// =============================================================================

type MetricFactRequest struct {
	MetricID string `json:"metric_id" validate:"required"`
	Month    string `json:"month" validate:"required,datetime=2006-01"`
	Target   string `json:"target" validate:"required"`
	Actual   string `json:"actual" validate:"required"`
}

type NRRFactRequest struct {
	Month                  string `json:"month" validate:"required,datetime=2006-01"`
	EligibleCrEr           string `json:"eligible_crer" validate:"required"`
	TotalCrEr              string `json:"total_crer" validate:"required"`
	EligibleImplementation string `json:"eligible_impl" validate:"required"`
	TotalImplementation    string `json:"total_impl" validate:"required"`
}

type RateRequest struct {
	Currency string `json:"currency" validate:"required,len=3"`
	Month    string `json:"month" validate:"required,datetime=2006-01"`
	RateUSD  string `json:"rate_usd" validate:"required"`
}

// =============================================================================
// COLLECTIONS
// =============================================================================

type CollectionDTO struct {
	ID                 string  `json:"id"`
	DealID             string  `json:"deal_id"`
	EmployeeID         string  `json:"employee_id"`
	DealValue          string  `json:"deal_value"`
	DisbursedAtBooking string  `json:"disbursed_at_booking"`
	DueDate            string  `json:"due_date"`
	State              string  `json:"state"`
	Overdue            bool    `json:"overdue"`
	CollectionDate     *string `json:"collection_date,omitempty"`
	ClawbackAmount     string  `json:"clawback_amount"`
	ResolvedBy         string  `json:"resolved_by,omitempty"`
}

type MarkCollectedRequest struct {
	CollectionDate string `json:"collection_date" validate:"required,datetime=2006-01-02"`
	Actor          string `json:"actor" validate:"required"`
}

type TriggerClawbackRequest struct {
	Actor string `json:"actor" validate:"required"`
	// Amount overrides the default booking-tranche recovery. Optional.
	Amount *string `json:"amount,omitempty"`
}

// TransitionOutcomeDTO is returned for collection actions. AlreadyResolved
// marks the idempotent no-op: the record was resolved before this call.
type TransitionOutcomeDTO struct {
	Collection      CollectionDTO `json:"collection"`
	AlreadyResolved bool          `json:"already_resolved"`
}

// =============================================================================
// COMPENSATION READ MODEL
// =============================================================================

type MetricResultDTO struct {
	MetricID        string `json:"metric_id"`
	Name            string `json:"name"`
	Target          string `json:"target"`
	Actual          string `json:"actual"`
	AchievementPct  string `json:"achievement_pct"`
	Multiplier      string `json:"multiplier"`
	EligiblePayout  string `json:"eligible_payout"`
	Paid            string `json:"paid"`
	Holdback        string `json:"holdback"`
	YearEndHoldback string `json:"year_end_holdback"`
}

type CommissionResultDTO struct {
	DealID          string `json:"deal_id"`
	DealValue       string `json:"deal_value"`
	RatePct         string `json:"rate_pct"`
	GrossPayout     string `json:"gross_payout"`
	Paid            string `json:"paid"`
	Holdback        string `json:"holdback"`
	YearEndHoldback string `json:"year_end_holdback"`
}

type NRRResultDTO struct {
	TotalNRR        string `json:"total_nrr"`
	AchievementPct  string `json:"achievement_pct"`
	Payout          string `json:"payout"`
	Paid            string `json:"paid"`
	Holdback        string `json:"holdback"`
	YearEndHoldback string `json:"year_end_holdback"`
}

type SpiffResultDTO struct {
	RatePct         string                `json:"rate_pct"`
	Threshold       string                `json:"threshold"`
	EligibleActuals string                `json:"eligible_actuals"`
	TotalBonus      string                `json:"total_bonus"`
	Paid            string                `json:"paid"`
	Holdback        string                `json:"holdback"`
	YearEndHoldback string                `json:"year_end_holdback"`
	Breakdown       []SpiffEligibilityDTO `json:"breakdown"`
}

type SpiffEligibilityDTO struct {
	DealID   string `json:"deal_id"`
	Value    string `json:"value"`
	Eligible bool   `json:"eligible"`
}

type CompensationDTO struct {
	EmployeeID           string                `json:"employee_id"`
	PeriodStart          string                `json:"period_start"`
	PeriodEnd            string                `json:"period_end"`
	Metrics              []MetricResultDTO     `json:"metrics"`
	Commissions          []CommissionResultDTO `json:"commissions"`
	NRR                  *NRRResultDTO         `json:"nrr,omitempty"`
	Spiff                *SpiffResultDTO       `json:"spiff,omitempty"`
	ClawbackBalance      string                `json:"clawback_balance"`
	TotalEligible        string                `json:"total_eligible"`
	TotalPaid            string                `json:"total_paid"`
	TotalHoldback        string                `json:"total_holdback"`
	TotalYearEndHoldback string                `json:"total_year_end_holdback"`
}

// TeamMemberDTO is one row of the team roll-up. A configuration fault does
// not drop the employee from the view - it is flagged here so totals are
// never silently understated.
type TeamMemberDTO struct {
	EmployeeID  string           `json:"employee_id"`
	Name        string           `json:"name"`
	Result      *CompensationDTO `json:"result,omitempty"`
	ConfigFault string           `json:"config_fault,omitempty"`
}

type CloseRunDTO struct {
	ID              string `json:"id"`
	EmployeeID      string `json:"employee_id"`
	FiscalYearStart string `json:"fiscal_year_start"`
	ReleasedAmount  string `json:"released_amount"`
	Status          string `json:"status"`
	Error           string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func money(m comp.Money) string { return m.Value.StringFixed(2) }

func dec(d decimal.Decimal) string { return d.String() }

func toCollectionDTO(c collection.Collection, overdue bool) CollectionDTO {
	dto := CollectionDTO{
		ID:                 string(c.ID),
		DealID:             string(c.DealID),
		EmployeeID:         string(c.EmployeeID),
		DealValue:          money(c.DealValue),
		DisbursedAtBooking: money(c.DisbursedAtBooking),
		DueDate:            c.DueDate.Format("2006-01-02"),
		State:              string(c.State),
		Overdue:            overdue,
		ClawbackAmount:     money(c.ClawbackAmount),
		ResolvedBy:         c.ResolvedBy,
	}
	if c.CollectionDate != nil {
		s := c.CollectionDate.Format("2006-01-02")
		dto.CollectionDate = &s
	}
	return dto
}

func toCompensationDTO(r *comp.CompensationResult) *CompensationDTO {
	dto := &CompensationDTO{
		EmployeeID:           string(r.EmployeeID),
		PeriodStart:          r.Period.Start.Format("2006-01-02"),
		PeriodEnd:            r.Period.End.Format("2006-01-02"),
		ClawbackBalance:      money(r.ClawbackBalance),
		TotalEligible:        money(r.TotalEligible),
		TotalPaid:            money(r.TotalPaid),
		TotalHoldback:        money(r.TotalHoldback),
		TotalYearEndHoldback: money(r.TotalYearEndHoldback),
		Metrics:              []MetricResultDTO{},
		Commissions:          []CommissionResultDTO{},
	}

	for _, m := range r.Metrics {
		dto.Metrics = append(dto.Metrics, MetricResultDTO{
			MetricID:        string(m.Definition.ID),
			Name:            m.Definition.Name,
			Target:          dec(m.Target),
			Actual:          dec(m.Actual),
			AchievementPct:  dec(m.AchievementPct),
			Multiplier:      dec(m.Multiplier),
			EligiblePayout:  money(m.EligiblePayout),
			Paid:            money(m.Paid),
			Holdback:        money(m.Holdback),
			YearEndHoldback: money(m.YearEndHoldback),
		})
	}

	for _, c := range r.Commissions {
		dto.Commissions = append(dto.Commissions, CommissionResultDTO{
			DealID:          string(c.DealID),
			DealValue:       money(c.DealValue),
			RatePct:         dec(c.RatePct),
			GrossPayout:     money(c.GrossPayout),
			Paid:            money(c.Paid),
			Holdback:        money(c.Holdback),
			YearEndHoldback: money(c.YearEndHoldback),
		})
	}

	if r.NRR != nil {
		dto.NRR = &NRRResultDTO{
			TotalNRR:        money(r.NRR.TotalNRR),
			AchievementPct:  dec(r.NRR.AchievementPct),
			Payout:          money(r.NRR.Payout),
			Paid:            money(r.NRR.Paid),
			Holdback:        money(r.NRR.Holdback),
			YearEndHoldback: money(r.NRR.YearEndHoldback),
		}
	}

	if r.Spiff != nil {
		spiff := &SpiffResultDTO{
			RatePct:         dec(r.Spiff.RatePct),
			Threshold:       money(r.Spiff.Threshold),
			EligibleActuals: money(r.Spiff.EligibleActuals),
			TotalBonus:      money(r.Spiff.TotalBonus),
			Paid:            money(r.Spiff.Paid),
			Holdback:        money(r.Spiff.Holdback),
			YearEndHoldback: money(r.Spiff.YearEndHoldback),
			Breakdown:       []SpiffEligibilityDTO{},
		}
		for _, b := range r.Spiff.Breakdown {
			spiff.Breakdown = append(spiff.Breakdown, SpiffEligibilityDTO{
				DealID:   string(b.DealID),
				Value:    money(b.Value),
				Eligible: b.Eligible,
			})
		}
		dto.Spiff = spiff
	}

	return dto
}
