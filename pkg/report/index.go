package report

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/devicelab-dev/keep-runner/pkg/logger"
)

// IndexWriter provides serialized updates to report.json.
type IndexWriter struct {
	mu    sync.Mutex
	path  string
	index *Index
}

// ScenarioUpdate contains the fields to update in the index for a scenario.
type ScenarioUpdate struct {
	Status    Status
	StartTime *time.Time
	EndTime   *time.Time
	Duration  *int64
	Steps     StepSummary
	Error     *string
}

// NewIndexWriter creates a new IndexWriter.
func NewIndexWriter(outputDir string, index *Index) *IndexWriter {
	return &IndexWriter{
		path:  filepath.Join(outputDir, "report.json"),
		index: index,
	}
}

// Start marks the run as started.
func (w *IndexWriter) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.index.Status = StatusRunning
	w.index.StartTime = time.Now()
	w.flushLocked()
}

// UpdateScenario applies update to the scenario entry and rewrites the index.
func (w *IndexWriter) UpdateScenario(id string, update *ScenarioUpdate) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.index.Scenarios {
		if w.index.Scenarios[i].ID != id {
			continue
		}
		e := &w.index.Scenarios[i]
		e.Status = update.Status
		if update.StartTime != nil {
			e.StartTime = update.StartTime
		}
		if update.EndTime != nil {
			e.EndTime = update.EndTime
		}
		if update.Duration != nil {
			e.Duration = update.Duration
		}
		e.Steps = update.Steps
		if update.Error != nil {
			e.Error = update.Error
		}
		break
	}
	w.flushLocked()
}

// End marks the run as complete.
func (w *IndexWriter) End() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.index.EndTime = &now
	w.index.Status = w.computeRunStatus()
	w.flushLocked()
}

// GetIndex returns the current index.
func (w *IndexWriter) GetIndex() *Index {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index
}

func (w *IndexWriter) flushLocked() {
	w.index.UpdateSeq++
	w.index.LastUpdated = time.Now()
	w.index.Summary = w.computeSummary()

	if err := atomicWriteJSON(w.path, w.index); err != nil {
		logger.Error("write %s: %v", w.path, err)
	}
}

// computeSummary calculates summary from scenario statuses.
func (w *IndexWriter) computeSummary() Summary {
	var s Summary
	for _, e := range w.index.Scenarios {
		s.Total++
		switch e.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusErrored:
			s.Errored++
		case StatusSkipped:
			s.Skipped++
		case StatusRunning:
			s.Running++
		case StatusPending:
			s.Pending++
		}
	}
	return s
}

// computeRunStatus determines overall run status from scenarios.
// Errored scenarios fail the run.
func (w *IndexWriter) computeRunStatus() Status {
	hasFailure := false
	allComplete := true

	for _, e := range w.index.Scenarios {
		if e.Status == StatusFailed || e.Status == StatusErrored {
			hasFailure = true
		}
		if !e.Status.IsTerminal() {
			allComplete = false
		}
	}

	if !allComplete {
		return StatusRunning
	}
	if hasFailure {
		return StatusFailed
	}
	return StatusPassed
}
