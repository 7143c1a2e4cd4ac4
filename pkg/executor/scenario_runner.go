package executor

import (
	"context"
	"errors"
	"time"

	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/jsengine"
	"github.com/devicelab-dev/keep-runner/pkg/logger"
	"github.com/devicelab-dev/keep-runner/pkg/report"
	"github.com/devicelab-dev/keep-runner/pkg/scenario"
	"github.com/devicelab-dev/keep-runner/pkg/sequencer"
	"github.com/devicelab-dev/keep-runner/pkg/session"
)

// maxScenarioDepth bounds runScenario nesting.
const maxScenarioDepth = 10

// screenshotTimeout bounds failure screenshots, which run after the step
// context may already have expired.
const screenshotTimeout = 10 * time.Second

// ScenarioRunner executes a single scenario.
type ScenarioRunner struct {
	scenario *scenario.Scenario
	sess     *session.Session
	config   RunnerConfig
	writer   *report.ScenarioWriter
	idx      int
	total    int

	seq *sequencer.Sequencer
	js  *jsengine.Engine

	// Card count before the most recent create step, for assertNoteSaved.
	countBeforeCreate int
	haveCount         bool
}

// Run executes the scenario and returns its result.
func (sr *ScenarioRunner) Run(ctx context.Context) ScenarioResult {
	sc := sr.scenario
	name := sc.DisplayName()
	start := time.Now()

	if sr.config.OnScenarioStart != nil {
		sr.config.OnScenarioStart(sr.idx, sr.total, name, sc.SourcePath)
	}
	sr.writer.Start()

	if sc.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(sc.Config.Timeout)*time.Millisecond)
		defer cancel()
	}

	sr.seq = sequencer.New(sr.sess)
	sr.js = jsengine.New()
	sr.js.SetVariables(sr.config.Env)
	sr.setEnv(sc.Config.Env)

	status := report.StatusPassed
	var errMsg string

	if err := sr.sess.Open(ctx); err != nil {
		logger.Error("scenario %q: open failed: %v", name, err)
		sr.writer.SkipRemaining(0)
		status = report.StatusErrored
		errMsg = err.Error()
	} else {
		status, errMsg = sr.runSteps(ctx)
	}

	sr.writer.End(status, errMsg)
	duration := time.Since(start).Milliseconds()
	if sr.config.OnScenarioEnd != nil {
		sr.config.OnScenarioEnd(name, coreStatus(status), duration)
	}
	logger.Info("scenario %q %s in %dms", name, status, duration)

	return sr.result(status, errMsg, duration)
}

func (sr *ScenarioRunner) runSteps(ctx context.Context) (report.Status, string) {
	for i, step := range sr.scenario.Steps {
		if err := ctx.Err(); err != nil {
			sr.writer.SkipRemaining(i)
			return report.StatusErrored, core.TimedOut("scenario", err.Error()).Error()
		}

		sr.writer.StepStart(i)
		start := time.Now()
		shot, err := sr.runStep(ctx, i, step, 0, sr.scenario.SourcePath)
		status := core.StatusFor(err)

		if shot == "" && sr.config.Artifacts.ShouldCapture(status) {
			shot = sr.captureScreenshot(i, status.String())
		}

		recorded := status
		if err != nil && step.IsOptional() {
			logger.Warn("optional step %s failed: %v", step.Describe(), err)
			recorded = core.StatusSkipped
		}
		sr.writer.StepEnd(i, report.StatusOf(recorded), report.ErrorFrom(err), shot)
		sr.stepComplete(0, i, step, recorded, time.Since(start).Milliseconds(), err)

		if err != nil && !step.IsOptional() {
			sr.writer.SkipRemaining(i + 1)
			return report.StatusOf(status), err.Error()
		}
	}
	return report.StatusPassed, ""
}

// runStep executes one step under its own deadline. The returned string is
// the report path of a screenshot the step saved, if any.
func (sr *ScenarioRunner) runStep(ctx context.Context, i int, step scenario.Step, depth int, source string) (string, error) {
	if ms := step.Timeout(); ms > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(ms)*time.Millisecond)
		defer cancel()
	}
	logger.Debug("step %d: %s", i, step.Describe())

	switch s := step.(type) {
	case *scenario.TakeScreenshotStep:
		return sr.takeScreenshot(ctx, i, s)
	case *scenario.RunScenarioStep:
		return "", sr.runScenario(ctx, i, s, depth, source)
	default:
		return "", sr.execute(ctx, step)
	}
}

func (sr *ScenarioRunner) takeScreenshot(ctx context.Context, i int, s *scenario.TakeScreenshotStep) (string, error) {
	data, err := sr.sess.Screenshot(ctx)
	if err != nil {
		return "", core.DriverFailure("screenshot", err)
	}
	name := sr.js.ExpandVariables(s.Name)
	if name == "" {
		name = "screenshot"
	}
	path, err := sr.writer.SaveScreenshot(i, name, data)
	if err != nil {
		return "", core.NewExecutionError(core.ErrCategoryConfig, "artifact_write", "could not save screenshot").WithCause(err)
	}
	return path, nil
}

// runScenario runs another scenario's steps inline. Its steps report under
// the parent step; the first non-optional failure fails the parent.
func (sr *ScenarioRunner) runScenario(ctx context.Context, i int, s *scenario.RunScenarioStep, depth int, source string) error {
	if depth+1 > maxScenarioDepth {
		return core.ErrInvalidConfig.WithMessage("runScenario nesting too deep").WithDetails(map[string]interface{}{
			"file":  s.File,
			"depth": depth + 1,
		})
	}

	path := resolvePath(source, sr.js.ExpandVariables(s.File))
	sub, err := scenario.ParseFile(path)
	if err != nil {
		return core.ErrInvalidConfig.WithCause(err)
	}
	sr.setEnv(sub.Config.Env)
	sr.setEnv(s.Env)

	for j, step := range sub.Steps {
		if err := ctx.Err(); err != nil {
			return core.TimedOut(s.Describe(), err.Error())
		}
		start := time.Now()
		_, err := sr.runStep(ctx, i, step, depth+1, sub.SourcePath)
		status := core.StatusFor(err)
		if err != nil && step.IsOptional() {
			status = core.StatusSkipped
		}
		sr.stepComplete(depth+1, j, step, status, time.Since(start).Milliseconds(), err)

		if err != nil && !step.IsOptional() {
			return err
		}
	}
	return nil
}

func (sr *ScenarioRunner) setEnv(env map[string]string) {
	for k, v := range env {
		sr.js.SetVariable(k, sr.js.ExpandVariables(v))
	}
}

func (sr *ScenarioRunner) captureScreenshot(i int, name string) string {
	ctx, cancel := context.WithTimeout(context.Background(), screenshotTimeout)
	defer cancel()

	data, err := sr.sess.Screenshot(ctx)
	if err != nil || len(data) == 0 {
		if err != nil {
			logger.Warn("screenshot for step %d: %v", i, err)
		}
		return ""
	}
	path, err := sr.writer.SaveScreenshot(i, name, data)
	if err != nil {
		logger.Warn("save screenshot for step %d: %v", i, err)
		return ""
	}
	return path
}

func (sr *ScenarioRunner) stepComplete(depth, i int, step scenario.Step, status core.StepStatus, ms int64, err error) {
	if sr.config.OnStepComplete == nil {
		return
	}
	desc := step.Label()
	if desc == "" {
		desc = step.Describe()
	}
	sr.config.OnStepComplete(depth, i, desc, status, ms, err)
}

func (sr *ScenarioRunner) result(status report.Status, errMsg string, duration int64) ScenarioResult {
	detail := sr.writer.Detail()
	res := ScenarioResult{
		ID:         detail.ID,
		Name:       detail.Name,
		Status:     status,
		Duration:   duration,
		Error:      errMsg,
		StepsTotal: len(detail.Steps),
	}
	for _, step := range detail.Steps {
		switch step.Status {
		case report.StatusPassed:
			res.StepsPassed++
		case report.StatusFailed, report.StatusErrored:
			res.StepsFailed++
		case report.StatusSkipped:
			res.StepsSkipped++
		}
	}
	return res
}

func coreStatus(s report.Status) core.StepStatus {
	switch s {
	case report.StatusPassed:
		return core.StatusPassed
	case report.StatusFailed:
		return core.StatusFailed
	case report.StatusErrored:
		return core.StatusErrored
	case report.StatusSkipped:
		return core.StatusSkipped
	case report.StatusRunning:
		return core.StatusRunning
	default:
		return core.StatusPending
	}
}

// isCancel reports whether err came from the step or scenario deadline.
func isCancel(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
