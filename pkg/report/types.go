// Package report provides JSON-based run reporting with live updates.
//
// Layout:
//   - report.json: run index (small, rewritten after every scenario state change)
//   - scenarios/scenario-XXX.json: per-scenario step details
//   - assets/scenario-XXX/: per-scenario screenshots
package report

import (
	"time"

	"github.com/devicelab-dev/keep-runner/pkg/core"
)

// Version is the report schema version.
const Version = "1.0.0"

// Status represents the execution status.
type Status string

// Status values.
const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusErrored Status = "errored"
	StatusSkipped Status = "skipped"
)

// IsTerminal returns true if the status is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusErrored || s == StatusSkipped
}

// StatusOf converts an engine step status.
func StatusOf(s core.StepStatus) Status {
	return Status(s.String())
}

// ============================================================================
// INDEX (report.json)
// ============================================================================

// Index is the main report file.
type Index struct {
	Version     string          `json:"version"`
	RunID       string          `json:"runId"`
	UpdateSeq   uint64          `json:"updateSeq"`
	Status      Status          `json:"status"`
	StartTime   time.Time       `json:"startTime"`
	EndTime     *time.Time      `json:"endTime,omitempty"`
	LastUpdated time.Time       `json:"lastUpdated"`
	Runner      RunnerInfo      `json:"runner"`
	Summary     Summary         `json:"summary"`
	Scenarios   []ScenarioEntry `json:"scenarios"`
}

// RunnerInfo describes what the run was executed against.
type RunnerInfo struct {
	Version string `json:"version"`
	Driver  string `json:"driver"` // rod, webdriver
	Browser string `json:"browser,omitempty"`
	BaseURL string `json:"baseURL"`
}

// Summary contains aggregated counts.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`
	Running int `json:"running"`
	Pending int `json:"pending"`
}

// ScenarioEntry is the index entry for a scenario.
type ScenarioEntry struct {
	Index      int         `json:"index"`
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	SourceFile string      `json:"sourceFile"`
	DataFile   string      `json:"dataFile"`
	AssetsDir  string      `json:"assetsDir"`
	Status     Status      `json:"status"`
	StartTime  *time.Time  `json:"startTime,omitempty"`
	EndTime    *time.Time  `json:"endTime,omitempty"`
	Duration   *int64      `json:"duration,omitempty"` // milliseconds
	Steps      StepSummary `json:"steps"`
	Error      *string     `json:"error,omitempty"`
}

// StepSummary contains step counts for a scenario.
type StepSummary struct {
	Total   int  `json:"total"`
	Passed  int  `json:"passed"`
	Failed  int  `json:"failed"`
	Errored int  `json:"errored"`
	Skipped int  `json:"skipped"`
	Pending int  `json:"pending"`
	Current *int `json:"current,omitempty"` // Currently running step index
}

// ============================================================================
// SCENARIO DETAIL (scenarios/scenario-XXX.json)
// ============================================================================

// ScenarioDetail contains full scenario execution details.
type ScenarioDetail struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	SourceFile string     `json:"sourceFile"`
	Tags       []string   `json:"tags,omitempty"`
	StartTime  time.Time  `json:"startTime"`
	EndTime    *time.Time `json:"endTime,omitempty"`
	Duration   *int64     `json:"duration,omitempty"` // milliseconds
	Steps      []Step     `json:"steps"`
}

// Step represents a single step execution.
type Step struct {
	ID          string     `json:"id"`
	Index       int        `json:"index"`
	Type        string     `json:"type"`
	Label       string     `json:"label,omitempty"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	Duration    *int64     `json:"duration,omitempty"` // milliseconds
	Error       *Error     `json:"error,omitempty"`
	Screenshot  string     `json:"screenshot,omitempty"`
}

// Error contains error details.
type Error struct {
	Category string                 `json:"category"` // assertion, timeout, navigation, connection, config
	Code     string                 `json:"code,omitempty"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`
}
