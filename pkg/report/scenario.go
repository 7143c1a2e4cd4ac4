package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/devicelab-dev/keep-runner/pkg/logger"
)

// ScenarioWriter writes updates for a single scenario.
type ScenarioWriter struct {
	detail    *ScenarioDetail
	path      string
	assetsDir string
	index     *IndexWriter
}

// NewScenarioWriter creates a writer for one scenario detail.
func NewScenarioWriter(detail *ScenarioDetail, outputDir string, index *IndexWriter) *ScenarioWriter {
	assetsDir := filepath.Join(outputDir, "assets", detail.ID)
	if err := ensureDir(assetsDir); err != nil {
		logger.Error("create %s: %v", assetsDir, err)
	}

	return &ScenarioWriter{
		detail:    detail,
		path:      filepath.Join(outputDir, "scenarios", detail.ID+".json"),
		assetsDir: assetsDir,
		index:     index,
	}
}

// Start marks the scenario as started.
func (w *ScenarioWriter) Start() {
	now := time.Now()
	w.detail.StartTime = now

	w.flush()
	w.index.UpdateScenario(w.detail.ID, &ScenarioUpdate{
		Status:    StatusRunning,
		StartTime: &now,
		Steps:     w.stepSummary(),
	})
}

// StepStart marks a step as running.
func (w *ScenarioWriter) StepStart(i int) {
	if i < 0 || i >= len(w.detail.Steps) {
		return
	}
	now := time.Now()
	step := &w.detail.Steps[i]
	step.Status = StatusRunning
	step.StartTime = &now
	w.flush()
}

// StepEnd records a step's outcome.
func (w *ScenarioWriter) StepEnd(i int, status Status, err *Error, screenshot string) {
	if i < 0 || i >= len(w.detail.Steps) {
		return
	}
	now := time.Now()
	step := &w.detail.Steps[i]
	step.Status = status
	step.EndTime = &now
	if step.StartTime != nil {
		d := now.Sub(*step.StartTime).Milliseconds()
		step.Duration = &d
	}
	step.Error = err
	step.Screenshot = screenshot

	w.flush()
	w.index.UpdateScenario(w.detail.ID, &ScenarioUpdate{
		Status: StatusRunning,
		Steps:  w.stepSummary(),
	})
}

// SkipRemaining marks all pending steps from index i on as skipped.
func (w *ScenarioWriter) SkipRemaining(i int) {
	for ; i < len(w.detail.Steps); i++ {
		if w.detail.Steps[i].Status == StatusPending {
			w.detail.Steps[i].Status = StatusSkipped
		}
	}
	w.flush()
}

// End marks the scenario as complete.
func (w *ScenarioWriter) End(status Status, errMsg string) {
	now := time.Now()
	w.detail.EndTime = &now
	update := &ScenarioUpdate{
		Status:  status,
		EndTime: &now,
		Steps:   w.stepSummary(),
	}
	if !w.detail.StartTime.IsZero() {
		d := now.Sub(w.detail.StartTime).Milliseconds()
		w.detail.Duration = &d
		update.Duration = &d
	}

	w.flush()
	if errMsg != "" {
		update.Error = &errMsg
	}
	w.index.UpdateScenario(w.detail.ID, update)
}

// SaveScreenshot saves a PNG and returns its path relative to the report directory.
func (w *ScenarioWriter) SaveScreenshot(i int, name string, data []byte) (string, error) {
	filename := fmt.Sprintf("step-%03d-%s.png", i, name)
	if err := os.WriteFile(filepath.Join(w.assetsDir, filename), data, 0o644); err != nil {
		return "", err
	}
	return filepath.Join("assets", w.detail.ID, filename), nil
}

// Detail returns the scenario detail being written.
func (w *ScenarioWriter) Detail() *ScenarioDetail {
	return w.detail
}

func (w *ScenarioWriter) flush() {
	if err := atomicWriteJSON(w.path, w.detail); err != nil {
		logger.Error("write %s: %v", w.path, err)
	}
}

func (w *ScenarioWriter) stepSummary() StepSummary {
	var s StepSummary
	s.Total = len(w.detail.Steps)

	for i, step := range w.detail.Steps {
		switch step.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusErrored:
			s.Errored++
		case StatusSkipped:
			s.Skipped++
		case StatusRunning:
			idx := i
			s.Current = &idx
		case StatusPending:
			s.Pending++
		}
	}
	return s
}
