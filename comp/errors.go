/*
errors.go - Centralized error types for the calculation core

PURPOSE:
  All error types of the comp package in one place. The taxonomy separates
  configuration faults (which must block computation and be surfaced) from
  degenerate inputs (which are defined results, not errors).

ERROR CATEGORIES:
  1. Configuration faults - malformed tier tables, weightages not summing
     to 100, missing plan fields. Never coerced to a default: a silently
     "fixed" plan could misstate pay.
  2. Degenerate inputs - zero target, zero deal value. These are NOT
     errors; the calculators define them as zero results.

USAGE:
  Callers distinguish faults with errors.Is:

    if errors.Is(err, comp.ErrInvalidConfig) {
        // flag the employee's computation, do not omit from totals
    }

SEE ALSO:
  - metric.go: surfaces tier-table faults
  - plan package: configuration-time validation
*/
package comp

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidConfig is the root of all configuration faults. A plan that
	// fails validation blocks the affected employee's computation.
	ErrInvalidConfig = errors.New("invalid plan configuration")

	// ErrMissingPlanField is returned when a required plan field is absent.
	ErrMissingPlanField = errors.New("missing required plan field")

	// ErrCurrencyMismatch is returned when arithmetic would mix currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrRateNotFound is returned when no exchange rate covers a booking month.
	ErrRateNotFound = errors.New("exchange rate not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigError describes why a plan element is malformed.
type ConfigError struct {
	Field  string // e.g. "metrics[arr].tiers", "weightage"
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// IsConfigFault reports whether err is a configuration fault that must be
// visibly flagged rather than absorbed into a zero payout.
func IsConfigFault(err error) bool {
	return errors.Is(err, ErrInvalidConfig) || errors.Is(err, ErrMissingPlanField)
}
