package core

// StepStatus represents the execution status of a step
type StepStatus int

const (
	StatusPending StepStatus = iota // Not yet started
	StatusRunning                   // Currently executing
	StatusPassed                    // Completed successfully
	StatusFailed                    // Assertion failed (expected UI state didn't occur)
	StatusErrored                   // Unexpected error (driver, navigation, timeout)
	StatusSkipped                   // Previous step failed
)

// String returns the string representation of StepStatus
func (s StepStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusErrored:
		return "errored"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the status is a final state
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusErrored, StatusSkipped:
		return true
	default:
		return false
	}
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryAssertion                       // Entity or affordance missing, condition false
	ErrCategoryTimeout                         // Bounded wait expired
	ErrCategoryNavigation                      // View transition never arrived
	ErrCategoryConnection                      // Driver/browser connection problems
	ErrCategoryConfig                          // Invalid configuration, missing required field
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryNavigation:
		return "navigation"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}

// StatusFor maps an error to the step status it produces.
// Assertion failures fail the step; everything else errors it.
func StatusFor(err error) StepStatus {
	if err == nil {
		return StatusPassed
	}
	if CategoryOf(err) == ErrCategoryAssertion {
		return StatusFailed
	}
	return StatusErrored
}
