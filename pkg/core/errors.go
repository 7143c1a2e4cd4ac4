package core

import (
	"fmt"
	"sort"
	"strings"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: entity_not_found, timed_out, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface.
// Details are rendered in key order so failures read the same on every run.
func (e *ExecutionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Details[k])
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an ExecutionError with the same code.
// This lets errors.Is match a detailed copy against the predefined sentinel.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// Detail returns a single detail value, or nil.
func (e *ExecutionError) Detail(key string) interface{} {
	if e.Details == nil {
		return nil
	}
	return e.Details[key]
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Detail keys used across packages.
const (
	DetailQuery        = "query"
	DetailAffordance   = "affordance"
	DetailView         = "view"
	DetailStep         = "step"
	DetailLastObserved = "lastObserved"
	DetailTimeout      = "timeout"
)

// Predefined errors
var (
	// Assertion errors
	ErrEntityNotFound = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "entity_not_found",
		Message:  "entity not found",
	}
	ErrAffordanceNotFound = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "affordance_not_found",
		Message:  "affordance not found",
	}
	ErrConditionNotMet = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "condition_not_met",
		Message:  "condition was not met",
	}

	// Timeout errors
	ErrTimedOut = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "timed_out",
		Message:  "wait condition timed out",
	}

	// Navigation errors
	ErrNavigationFailed = &ExecutionError{
		Category: ErrCategoryNavigation,
		Code:     "navigation_failed",
		Message:  "view transition did not arrive",
	}

	// Connection errors
	ErrDriver = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "driver_error",
		Message:  "browser driver command failed",
	}
	ErrSessionNotStarted = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "session_not_started",
		Message:  "browser session is not started",
	}

	// Config errors
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// TimedOut builds a timeout error for the named step.
func TimedOut(step string, lastObserved interface{}) *ExecutionError {
	return ErrTimedOut.WithDetails(map[string]interface{}{
		DetailStep:         step,
		DetailLastObserved: lastObserved,
	})
}

// EntityNotFound builds a not-found error for the given entity query.
func EntityNotFound(query string) *ExecutionError {
	return ErrEntityNotFound.WithDetails(map[string]interface{}{
		DetailQuery: query,
	})
}

// AffordanceNotFound builds a not-found error for a named affordance.
func AffordanceNotFound(affordance string) *ExecutionError {
	return ErrAffordanceNotFound.WithDetails(map[string]interface{}{
		DetailAffordance: affordance,
	})
}

// NavigationFailed builds a navigation error for the target view.
func NavigationFailed(view ViewName, cause error) *ExecutionError {
	return ErrNavigationFailed.WithDetails(map[string]interface{}{
		DetailView: view.String(),
	}).WithCause(cause)
}

// DriverFailure wraps a raw driver error for the named action.
func DriverFailure(action string, cause error) *ExecutionError {
	return ErrDriver.WithDetails(map[string]interface{}{
		DetailStep: action,
	}).WithCause(cause)
}

// CategoryOf returns the category of err, or ErrCategoryNone when err is not an ExecutionError.
func CategoryOf(err error) ErrorCategory {
	for err != nil {
		if e, ok := err.(*ExecutionError); ok {
			return e.Category
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ErrCategoryNone
		}
		err = u.Unwrap()
	}
	return ErrCategoryNone
}
