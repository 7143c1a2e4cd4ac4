package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/scenario"
)

func testScenarios(t *testing.T) []*scenario.Scenario {
	t.Helper()
	pin, err := scenario.Parse([]byte("name: Pinning\ntags: [smoke]\n---\n- createNote: A\n- pinNote: A\n"), "pin.yaml")
	if err != nil {
		t.Fatal(err)
	}
	label, err := scenario.Parse([]byte("- addLabel:\n    title: A\n    label: Work\n"), "dir/label.yaml")
	if err != nil {
		t.Fatal(err)
	}
	return []*scenario.Scenario{pin, label}
}

func TestBuildSkeleton(t *testing.T) {
	index, details := BuildSkeleton(testScenarios(t), BuilderConfig{
		RunnerVersion: "dev",
		DriverName:    "rod",
		BaseURL:       "https://keep.google.com/",
	})

	if _, err := uuid.Parse(index.RunID); err != nil {
		t.Errorf("RunID %q is not a uuid: %v", index.RunID, err)
	}
	if index.Status != StatusPending || index.Summary.Pending != 2 {
		t.Errorf("index = %+v", index)
	}
	if index.Runner.Driver != "rod" || index.Runner.BaseURL != "https://keep.google.com/" {
		t.Errorf("runner = %+v", index.Runner)
	}
	if len(index.Scenarios) != 2 || len(details) != 2 {
		t.Fatalf("expected 2 scenarios, got %d/%d", len(index.Scenarios), len(details))
	}

	first := index.Scenarios[0]
	if first.ID != "scenario-000" || first.Name != "Pinning" {
		t.Errorf("first entry = %+v", first)
	}
	if first.DataFile != filepath.Join("scenarios", "scenario-000.json") {
		t.Errorf("dataFile = %s", first.DataFile)
	}
	if first.Steps.Total != 2 || first.Steps.Pending != 2 {
		t.Errorf("steps = %+v", first.Steps)
	}
	if index.Scenarios[1].Name != "label" {
		t.Errorf("expected file name fallback, got %q", index.Scenarios[1].Name)
	}

	step := details[0].Steps[1]
	if step.ID != "step-001" || step.Type != "pinNote" || step.Description != `pinNote: "A"` {
		t.Errorf("step = %+v", step)
	}
	if len(details[0].Tags) != 1 || details[0].Tags[0] != "smoke" {
		t.Errorf("tags = %v", details[0].Tags)
	}
}

func TestRunLifecycle(t *testing.T) {
	dir := t.TempDir()
	index, details := BuildSkeleton(testScenarios(t), BuilderConfig{OutputDir: dir})
	if err := WriteSkeleton(dir, index, details); err != nil {
		t.Fatalf("WriteSkeleton: %v", err)
	}

	iw := NewIndexWriter(dir, index)
	iw.Start()

	sw := NewScenarioWriter(&details[0], dir, iw)
	sw.Start()
	sw.StepStart(0)
	sw.StepEnd(0, StatusPassed, nil, "")
	sw.StepStart(1)
	path, err := sw.SaveScreenshot(1, "failure", []byte{0x89, 'P', 'N', 'G'})
	if err != nil {
		t.Fatalf("SaveScreenshot: %v", err)
	}
	sw.StepEnd(1, StatusFailed, ErrorFrom(core.EntityNotFound(`note "A"`)), path)
	sw.End(StatusFailed, "entity not found")

	skipped := NewScenarioWriter(&details[1], dir, iw)
	skipped.SkipRemaining(0)
	skipped.End(StatusSkipped, "")
	iw.End()

	got, err := ReadIndex(dir)
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if got.Status != StatusFailed {
		t.Errorf("run status = %s, want failed", got.Status)
	}
	if got.Summary.Failed != 1 || got.Summary.Skipped != 1 || got.Summary.Total != 2 {
		t.Errorf("summary = %+v", got.Summary)
	}
	if got.EndTime == nil {
		t.Error("expected end time")
	}
	entry := got.Scenarios[0]
	if entry.Error == nil || *entry.Error != "entity not found" {
		t.Errorf("entry error = %v", entry.Error)
	}
	if entry.Steps.Passed != 1 || entry.Steps.Failed != 1 {
		t.Errorf("step summary = %+v", entry.Steps)
	}

	detail, err := ReadScenario(dir, "scenario-000")
	if err != nil {
		t.Fatalf("ReadScenario: %v", err)
	}
	failed := detail.Steps[1]
	if failed.Error == nil || failed.Error.Category != "assertion" || failed.Error.Code != "entity_not_found" {
		t.Errorf("step error = %+v", failed.Error)
	}
	if failed.Error.Details[core.DetailQuery] != `note "A"` {
		t.Errorf("details = %v", failed.Error.Details)
	}
	if failed.Screenshot == "" || failed.Duration == nil {
		t.Errorf("step = %+v", failed)
	}
	if _, err := os.Stat(filepath.Join(dir, failed.Screenshot)); err != nil {
		t.Errorf("screenshot not written: %v", err)
	}

	second, err := ReadScenario(dir, "scenario-001")
	if err != nil {
		t.Fatal(err)
	}
	if second.Steps[0].Status != StatusSkipped {
		t.Errorf("expected skipped step, got %s", second.Steps[0].Status)
	}
}

func TestComputeRunStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all passed", []Status{StatusPassed, StatusPassed}, StatusPassed},
		{"errored fails run", []Status{StatusPassed, StatusErrored}, StatusFailed},
		{"still running", []Status{StatusPassed, StatusRunning}, StatusRunning},
		{"skipped only", []Status{StatusSkipped}, StatusPassed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := &Index{}
			for _, s := range tt.statuses {
				index.Scenarios = append(index.Scenarios, ScenarioEntry{Status: s})
			}
			w := &IndexWriter{index: index}
			if got := w.computeRunStatus(); got != tt.want {
				t.Errorf("computeRunStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStatusOf(t *testing.T) {
	tests := map[core.StepStatus]Status{
		core.StatusPassed:  StatusPassed,
		core.StatusFailed:  StatusFailed,
		core.StatusErrored: StatusErrored,
		core.StatusSkipped: StatusSkipped,
	}
	for in, want := range tests {
		if got := StatusOf(in); got != want {
			t.Errorf("StatusOf(%v) = %s, want %s", in, got, want)
		}
	}
}

func TestErrorFrom(t *testing.T) {
	if ErrorFrom(nil) != nil {
		t.Error("expected nil for nil error")
	}

	plain := ErrorFrom(os.ErrNotExist)
	if plain.Category != "none" || plain.Code != "" {
		t.Errorf("plain = %+v", plain)
	}

	timeout := ErrorFrom(core.TimedOut("pin note", "unpinned"))
	if timeout.Category != "timeout" || timeout.Details[core.DetailStep] != "pin note" {
		t.Errorf("timeout = %+v", timeout)
	}
}
