package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/keep-runner/pkg/scenario"
)

// BuilderConfig contains configuration for building the report skeleton.
type BuilderConfig struct {
	OutputDir     string
	RunnerVersion string
	DriverName    string
	Browser       string
	BaseURL       string
}

// BuildSkeleton creates the initial report structure from parsed scenarios.
// All scenarios and steps start as pending.
func BuildSkeleton(scenarios []*scenario.Scenario, cfg BuilderConfig) (*Index, []ScenarioDetail) {
	now := time.Now()

	index := &Index{
		Version:     Version,
		RunID:       uuid.NewString(),
		Status:      StatusPending,
		StartTime:   now,
		LastUpdated: now,
		Runner: RunnerInfo{
			Version: cfg.RunnerVersion,
			Driver:  cfg.DriverName,
			Browser: cfg.Browser,
			BaseURL: cfg.BaseURL,
		},
		Summary: Summary{
			Total:   len(scenarios),
			Pending: len(scenarios),
		},
		Scenarios: make([]ScenarioEntry, len(scenarios)),
	}

	details := make([]ScenarioDetail, len(scenarios))
	for i, sc := range scenarios {
		id := fmt.Sprintf("scenario-%03d", i)
		name := scenarioName(sc)
		steps := buildSteps(sc.Steps)

		index.Scenarios[i] = ScenarioEntry{
			Index:      i,
			ID:         id,
			Name:       name,
			SourceFile: sc.SourcePath,
			DataFile:   filepath.Join("scenarios", id+".json"),
			AssetsDir:  filepath.Join("assets", id),
			Status:     StatusPending,
			Steps: StepSummary{
				Total:   len(steps),
				Pending: len(steps),
			},
		}

		details[i] = ScenarioDetail{
			ID:         id,
			Name:       name,
			SourceFile: sc.SourcePath,
			Tags:       sc.Config.Tags,
			Steps:      steps,
		}
	}

	return index, details
}

// scenarioName is the configured name, or the file name without extension.
func scenarioName(sc *scenario.Scenario) string {
	if sc.Config.Name != "" {
		return sc.Config.Name
	}
	base := filepath.Base(sc.SourcePath)
	return base[:len(base)-len(filepath.Ext(base))]
}

func buildSteps(steps []scenario.Step) []Step {
	out := make([]Step, len(steps))
	for i, step := range steps {
		out[i] = Step{
			ID:          fmt.Sprintf("step-%03d", i),
			Index:       i,
			Type:        string(step.Type()),
			Label:       step.Label(),
			Description: step.Describe(),
			Status:      StatusPending,
		}
	}
	return out
}

// WriteSkeleton writes report.json and every scenario detail file.
func WriteSkeleton(outputDir string, index *Index, details []ScenarioDetail) error {
	if err := ensureDir(filepath.Join(outputDir, "scenarios")); err != nil {
		return fmt.Errorf("create scenarios dir: %w", err)
	}

	for _, d := range details {
		if err := atomicWriteJSON(filepath.Join(outputDir, "scenarios", d.ID+".json"), d); err != nil {
			return fmt.Errorf("write scenario %s: %w", d.ID, err)
		}
		if err := ensureDir(filepath.Join(outputDir, "assets", d.ID)); err != nil {
			return fmt.Errorf("create assets dir for %s: %w", d.ID, err)
		}
	}

	if err := atomicWriteJSON(filepath.Join(outputDir, "report.json"), index); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}
