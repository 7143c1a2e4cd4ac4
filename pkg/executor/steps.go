package executor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/locator"
	"github.com/devicelab-dev/keep-runner/pkg/scenario"
	"github.com/devicelab-dev/keep-runner/pkg/wait"
)

// execute dispatches a note or assertion step to the sequencer.
// Raw context errors become timeouts so they classify as errored.
func (sr *ScenarioRunner) execute(ctx context.Context, step scenario.Step) error {
	err := sr.dispatch(ctx, step)
	var execErr *core.ExecutionError
	if err != nil && isCancel(err) && !errors.As(err, &execErr) {
		return core.TimedOut(step.Describe(), err.Error())
	}
	return err
}

func (sr *ScenarioRunner) dispatch(ctx context.Context, step scenario.Step) error {
	x := sr.js.ExpandVariables
	seq := sr.seq

	switch s := step.(type) {
	case *scenario.CreateNoteStep:
		if err := sr.recordCount(ctx); err != nil {
			return err
		}
		return seq.CreateNoteWithBody(ctx, x(s.Title), x(s.Body))

	case *scenario.CreateEmptyNoteStep:
		if err := sr.recordCount(ctx); err != nil {
			return err
		}
		return seq.CreateEmptyNote(ctx)

	case *scenario.ChecklistStep:
		items := expandAll(x, s.Items)
		if s.StepType == scenario.StepAssertChecklist {
			ok, err := seq.IsChecklistPresent(ctx, x(s.Title), items)
			return expect(step, ok, err)
		}
		if err := sr.recordCount(ctx); err != nil {
			return err
		}
		return seq.CreateChecklistNote(ctx, x(s.Title), items)

	case *scenario.DeleteNoteStep:
		return seq.DeleteNote(ctx, x(s.Title), s.Undo)

	case *scenario.LabelStep:
		if s.StepType == scenario.StepAssertLabel {
			ok, err := seq.IsLabelAttached(ctx, x(s.Title), x(s.Name))
			return expect(step, ok, err)
		}
		return seq.AddLabel(ctx, x(s.Title), x(s.Name))

	case *scenario.EditTitleStep:
		return seq.EditTitle(ctx, x(s.From), x(s.To))

	case *scenario.ColorStep:
		if s.StepType == scenario.StepAssertColor {
			ok, err := seq.IsColor(ctx, x(s.Title), x(s.Color))
			return expect(step, ok, err)
		}
		return seq.ChangeColor(ctx, x(s.Title), x(s.Color))

	case *scenario.GoToStep:
		name := x(s.View)
		v, ok := core.ParseView(name)
		if !ok {
			return core.ErrInvalidConfig.WithMessage("unknown view").WithDetails(map[string]interface{}{
				core.DetailView: name,
			})
		}
		return seq.GoTo(ctx, v)

	case *scenario.NoteStep:
		return sr.noteStep(ctx, s, x(s.Title))

	case *scenario.AssertNoteSavedStep:
		if !sr.haveCount {
			return core.ErrInvalidConfig.WithMessage("assertNoteSaved needs a preceding create step")
		}
		saved, err := seq.IsNoteSaved(ctx, sr.countBeforeCreate)
		return expect(step, saved == s.Saved, err)

	case *scenario.AssertCountStep:
		last := -1
		ok, err := wait.Eventually(ctx, sr.sess.Spec("note count", sr.sess.Timeouts.Appear), func(ctx context.Context) (bool, error) {
			n, err := seq.NoteCount(ctx)
			last = n
			return n == s.Equals, err
		})
		if err == nil && !ok {
			return core.ErrConditionNotMet.WithDetails(map[string]interface{}{
				core.DetailStep:         step.Describe(),
				core.DetailLastObserved: last,
			})
		}
		return err

	case *scenario.EvalScriptStep:
		if err := sr.js.RunScript(s.Script); err != nil {
			return core.ErrInvalidConfig.WithMessage("script failed").WithCause(err)
		}
		return nil
	}

	return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unsupported step %s", step.Type()))
}

// noteStep handles the single-title actions and assertions.
func (sr *ScenarioRunner) noteStep(ctx context.Context, s *scenario.NoteStep, title string) error {
	seq := sr.seq
	switch s.StepType {
	case scenario.StepPinNote:
		return seq.PinNote(ctx, title)
	case scenario.StepUnpinNote:
		return seq.UnpinNote(ctx, title)
	case scenario.StepArchiveNote:
		return seq.ArchiveNote(ctx, title)
	case scenario.StepSearchNote:
		return seq.SearchByTitle(ctx, title)
	case scenario.StepAssertPresent:
		ok, err := seq.IsNotePresent(ctx, title)
		return expect(s, ok, err)
	case scenario.StepAssertNotPresent:
		ok, err := seq.IsNotPresent(ctx, title)
		return expect(s, ok, err)
	case scenario.StepAssertPinned:
		ok, err := seq.IsPinned(ctx, title)
		return expect(s, ok, err)
	case scenario.StepAssertNotPinned:
		// IsPinned is false for a missing note, so presence is checked first.
		present, err := seq.IsNotePresent(ctx, title)
		if err != nil {
			return err
		}
		if !present {
			return core.EntityNotFound(locator.NoteCard(title).String())
		}
		pinned, err := seq.IsPinned(ctx, title)
		return expect(s, !pinned, err)
	case scenario.StepAssertArchived:
		ok, err := seq.IsArchived(ctx, title)
		return expect(s, ok, err)
	}
	return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unsupported step %s", s.StepType))
}

func (sr *ScenarioRunner) recordCount(ctx context.Context) error {
	n, err := sr.seq.NoteCount(ctx)
	if err != nil {
		return err
	}
	sr.countBeforeCreate = n
	sr.haveCount = true
	return nil
}

// expect turns a boolean query outcome into a step error.
func expect(step scenario.Step, ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrConditionNotMet.WithDetails(map[string]interface{}{
			core.DetailStep: step.Describe(),
		})
	}
	return nil
}

func expandAll(x func(string) string, values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = x(v)
	}
	return out
}

// resolvePath resolves file relative to the directory of source.
func resolvePath(source, file string) string {
	if filepath.IsAbs(file) || source == "" {
		return file
	}
	return filepath.Join(filepath.Dir(source), file)
}
