// Package executor runs scenarios against a browser session and writes reports.
package executor

import (
	"context"
	"time"

	"github.com/devicelab-dev/keep-runner/pkg/config"
	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/logger"
	"github.com/devicelab-dev/keep-runner/pkg/report"
	"github.com/devicelab-dev/keep-runner/pkg/scenario"
	"github.com/devicelab-dev/keep-runner/pkg/session"
)

// RunnerConfig configures the scenario runner.
type RunnerConfig struct {
	OutputDir  string              // Report output directory
	StopOnFail bool                // Skip remaining scenarios after the first failure
	Artifacts  core.ArtifactConfig // When to capture screenshots
	Env        map[string]string   // Variables visible to ${...} in every scenario

	// Runner metadata for the report
	RunnerVersion string
	DriverName    string
	Browser       string

	// Live progress callbacks
	OnScenarioStart func(idx, total int, name, file string)
	OnStepComplete  func(depth, idx int, desc string, status core.StepStatus, durationMs int64, err error)
	OnScenarioEnd   func(name string, status core.StepStatus, durationMs int64)
}

// ArtifactsFor maps a config artifacts mode to capture rules.
func ArtifactsFor(mode string) core.ArtifactConfig {
	cfg := core.DefaultArtifactConfig()
	switch mode {
	case config.ArtifactsAlways:
		cfg.CaptureOnSuccess = true
	case config.ArtifactsNever:
		cfg.Screenshot = false
	}
	return cfg
}

// RunResult contains the outcome of a run.
type RunResult struct {
	Status           report.Status
	RunID            string
	TotalScenarios   int
	PassedScenarios  int
	FailedScenarios  int
	ErroredScenarios int
	SkippedScenarios int
	Duration         int64 // Total duration in milliseconds
	ScenarioResults  []ScenarioResult
}

// ScenarioResult contains the outcome of a single scenario.
type ScenarioResult struct {
	ID           string
	Name         string
	Status       report.Status
	Duration     int64
	Error        string
	StepsTotal   int
	StepsPassed  int
	StepsFailed  int
	StepsSkipped int
}

// Runner orchestrates scenario execution on one session.
type Runner struct {
	config RunnerConfig
	sess   *session.Session
}

// New creates a new Runner.
func New(sess *session.Session, cfg RunnerConfig) *Runner {
	return &Runner{config: cfg, sess: sess}
}

// Run executes scenarios in order and writes the report.
func (r *Runner) Run(ctx context.Context, scenarios []*scenario.Scenario) (*RunResult, error) {
	start := time.Now()
	index, details := report.BuildSkeleton(scenarios, report.BuilderConfig{
		OutputDir:     r.config.OutputDir,
		RunnerVersion: r.config.RunnerVersion,
		DriverName:    r.config.DriverName,
		Browser:       r.config.Browser,
		BaseURL:       r.sess.BaseURL,
	})
	if err := report.WriteSkeleton(r.config.OutputDir, index, details); err != nil {
		return nil, err
	}

	indexWriter := report.NewIndexWriter(r.config.OutputDir, index)
	indexWriter.Start()
	logger.Info("run %s: %d scenario(s)", index.RunID, len(scenarios))

	results := make([]ScenarioResult, len(scenarios))
	stop := false
	for i, sc := range scenarios {
		if stop || ctx.Err() != nil {
			reason := "run cancelled"
			if stop {
				reason = "run stopped after failure"
			}
			results[i] = r.skipScenario(&details[i], indexWriter, reason)
			continue
		}

		sr := &ScenarioRunner{
			scenario: sc,
			sess:     r.sess,
			config:   r.config,
			writer:   report.NewScenarioWriter(&details[i], r.config.OutputDir, indexWriter),
			idx:      i,
			total:    len(scenarios),
		}
		results[i] = sr.Run(ctx)

		if r.config.StopOnFail && results[i].Status != report.StatusPassed {
			stop = true
		}
	}

	indexWriter.End()

	result := buildRunResult(results)
	result.RunID = index.RunID
	result.Duration = time.Since(start).Milliseconds()
	return result, nil
}

func (r *Runner) skipScenario(detail *report.ScenarioDetail, indexWriter *report.IndexWriter, reason string) ScenarioResult {
	w := report.NewScenarioWriter(detail, r.config.OutputDir, indexWriter)
	w.SkipRemaining(0)
	w.End(report.StatusSkipped, reason)
	return ScenarioResult{
		ID:           detail.ID,
		Name:         detail.Name,
		Status:       report.StatusSkipped,
		Error:        reason,
		StepsTotal:   len(detail.Steps),
		StepsSkipped: len(detail.Steps),
	}
}

// buildRunResult aggregates scenario results into a run result.
func buildRunResult(results []ScenarioResult) *RunResult {
	result := &RunResult{
		TotalScenarios:  len(results),
		ScenarioResults: results,
	}

	for _, sr := range results {
		switch sr.Status {
		case report.StatusPassed:
			result.PassedScenarios++
		case report.StatusFailed:
			result.FailedScenarios++
		case report.StatusErrored:
			result.ErroredScenarios++
		case report.StatusSkipped:
			result.SkippedScenarios++
		}
	}

	result.Status = report.StatusPassed
	if result.FailedScenarios > 0 || result.ErroredScenarios > 0 {
		result.Status = report.StatusFailed
	}
	return result
}
