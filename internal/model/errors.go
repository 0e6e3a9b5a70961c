package model

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or out-of-range input. The request is
// rejected before any computation.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// FinancialConfigurationError reports financing terms that cannot produce a schedule.
type FinancialConfigurationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *FinancialConfigurationError) Error() string {
	return fmt.Sprintf("financial configuration: %s: %s", e.Field, e.Reason)
}

// NewFinancialConfigurationError builds a FinancialConfigurationError for field.
func NewFinancialConfigurationError(field, format string, args ...any) *FinancialConfigurationError {
	return &FinancialConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ComplianceError is returned only under the reject compliance policy.
type ComplianceError struct {
	Result ComplianceResult
}

func (e *ComplianceError) Error() string {
	return "compliance: " + e.Result.Message
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsFinancialConfiguration reports whether err carries a FinancialConfigurationError.
func IsFinancialConfiguration(err error) bool {
	var f *FinancialConfigurationError
	return errors.As(err, &f)
}

// Degraded records an external dependency that failed and was replaced by its fallback.
// It is a value carried in reports, never an error returned to callers.
type Degraded struct {
	Service string `json:"service"`
	Reason  string `json:"reason"`
}

// Outcome is the result of an external call: a value that is either real or
// a fallback, with Degraded set in the latter case.
type Outcome[T any] struct {
	Value    T
	Degraded *Degraded
}

// Fallback reports whether the value is a substitute.
func (o Outcome[T]) Fallback() bool { return o.Degraded != nil }
