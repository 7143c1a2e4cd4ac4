package scenario

import (
	"strconv"
	"strings"
)

// StepType represents the type of step.
type StepType string

// Step type constants.
const (
	// Notes
	StepCreateNote      StepType = "createNote"
	StepCreateEmptyNote StepType = "createEmptyNote"
	StepCreateChecklist StepType = "createChecklist"
	StepDeleteNote      StepType = "deleteNote"
	StepPinNote         StepType = "pinNote"
	StepUnpinNote       StepType = "unpinNote"
	StepArchiveNote     StepType = "archiveNote"
	StepAddLabel        StepType = "addLabel"
	StepEditTitle       StepType = "editTitle"
	StepSearchNote      StepType = "searchNote"
	StepChangeColor     StepType = "changeColor"
	StepGoTo            StepType = "goTo"

	// Assertions
	StepAssertPresent    StepType = "assertPresent"
	StepAssertNotPresent StepType = "assertNotPresent"
	StepAssertPinned     StepType = "assertPinned"
	StepAssertNotPinned  StepType = "assertNotPinned"
	StepAssertArchived   StepType = "assertArchived"
	StepAssertLabel      StepType = "assertLabel"
	StepAssertChecklist  StepType = "assertChecklist"
	StepAssertColor      StepType = "assertColor"
	StepAssertNoteSaved  StepType = "assertNoteSaved"
	StepAssertCount      StepType = "assertCount"

	// Other
	StepEvalScript     StepType = "evalScript"
	StepRunScenario    StepType = "runScenario"
	StepTakeScreenshot StepType = "takeScreenshot"
)

// Step is the interface for all scenario steps.
type Step interface {
	Type() StepType
	IsOptional() bool
	Label() string
	Timeout() int
	Describe() string
}

// BaseStep contains common fields for all steps.
type BaseStep struct {
	StepType  StepType `yaml:"-"`
	Optional  bool     `yaml:"optional"`
	StepLabel string   `yaml:"description"`
	TimeoutMs int      `yaml:"timeout"`
}

// Type returns the step type.
func (b *BaseStep) Type() StepType { return b.StepType }

// IsOptional returns whether the step is optional.
func (b *BaseStep) IsOptional() bool { return b.Optional }

// Label returns the step label.
func (b *BaseStep) Label() string { return b.StepLabel }

// Timeout returns the step deadline in ms, 0 for none.
func (b *BaseStep) Timeout() int { return b.TimeoutMs }

// Describe returns a human-readable description.
func (b *BaseStep) Describe() string { return string(b.StepType) }

// ============================================
// Note Steps
// ============================================

// NoteStep targets one note by title: pinNote, unpinNote, archiveNote,
// searchNote and the single-title assertions.
type NoteStep struct {
	BaseStep `yaml:",inline"`
	Title    string `yaml:"title"`
}

// CreateNoteStep creates a titled note, optionally with body text.
type CreateNoteStep struct {
	BaseStep `yaml:",inline"`
	Title    string `yaml:"title"`
	Body     string `yaml:"body"`
}

// CreateEmptyNoteStep opens and closes the composer without typing.
type CreateEmptyNoteStep struct {
	BaseStep `yaml:",inline"`
}

// ChecklistStep creates, or asserts, a checklist note.
type ChecklistStep struct {
	BaseStep `yaml:",inline"`
	Title    string   `yaml:"title"`
	Items    []string `yaml:"items"`
}

// DeleteNoteStep deletes a note, optionally undoing from the snackbar.
type DeleteNoteStep struct {
	BaseStep `yaml:",inline"`
	Title    string `yaml:"title"`
	Undo     bool   `yaml:"undo"`
}

// LabelStep attaches, or asserts, a label.
type LabelStep struct {
	BaseStep `yaml:",inline"`
	Title    string `yaml:"title"`
	Name     string `yaml:"label"`
}

// EditTitleStep renames a note.
type EditTitleStep struct {
	BaseStep `yaml:",inline"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// ColorStep changes, or asserts, a note's background color.
type ColorStep struct {
	BaseStep `yaml:",inline"`
	Title    string `yaml:"title"`
	Color    string `yaml:"color"`
}

// GoToStep moves to a view (main or archive).
type GoToStep struct {
	BaseStep `yaml:",inline"`
	View     string `yaml:"view"`
}

// ============================================
// Assertion Steps
// ============================================

// AssertNoteSavedStep checks whether the preceding create step added a card.
type AssertNoteSavedStep struct {
	BaseStep `yaml:",inline"`
	Saved    bool `yaml:"saved"`
}

// AssertCountStep checks the number of cards in the current view.
type AssertCountStep struct {
	BaseStep `yaml:",inline"`
	Equals   int `yaml:"equals"`
}

// ============================================
// Other Steps
// ============================================

// EvalScriptStep runs JavaScript; assignments to output are visible to later ${...}.
type EvalScriptStep struct {
	BaseStep `yaml:",inline"`
	Script   string `yaml:"script"`
}

// RunScenarioStep runs another scenario file inline.
type RunScenarioStep struct {
	BaseStep `yaml:",inline"`
	File     string            `yaml:"file"`
	Env      map[string]string `yaml:"env"`
}

// TakeScreenshotStep saves a screenshot under the report's artifacts.
type TakeScreenshotStep struct {
	BaseStep `yaml:",inline"`
	Name     string `yaml:"name"`
}

// ============================================
// Describe() implementations for detailed output
// ============================================

// Describe returns the step type and title.
func (s *NoteStep) Describe() string {
	return string(s.StepType) + ": " + strconv.Quote(s.Title)
}

// Describe returns a human-readable description of the create step.
func (s *CreateNoteStep) Describe() string {
	return "createNote: " + strconv.Quote(s.Title)
}

// Describe returns the step type, title and items.
func (s *ChecklistStep) Describe() string {
	return string(s.StepType) + ": " + strconv.Quote(s.Title) + " [" + strings.Join(s.Items, ", ") + "]"
}

// Describe returns a human-readable description of the delete step.
func (s *DeleteNoteStep) Describe() string {
	if s.Undo {
		return "deleteNote: " + strconv.Quote(s.Title) + " (undo)"
	}
	return "deleteNote: " + strconv.Quote(s.Title)
}

// Describe returns the step type, title and label.
func (s *LabelStep) Describe() string {
	return string(s.StepType) + ": " + strconv.Quote(s.Title) + " label " + strconv.Quote(s.Name)
}

// Describe returns a human-readable description of the rename.
func (s *EditTitleStep) Describe() string {
	return "editTitle: " + strconv.Quote(s.From) + " -> " + strconv.Quote(s.To)
}

// Describe returns the step type, title and color.
func (s *ColorStep) Describe() string {
	return string(s.StepType) + ": " + strconv.Quote(s.Title) + " " + s.Color
}

// Describe returns a human-readable description of the navigation.
func (s *GoToStep) Describe() string {
	return "goTo: " + s.View
}

// Describe returns a human-readable description of the saved check.
func (s *AssertNoteSavedStep) Describe() string {
	return "assertNoteSaved: " + strconv.FormatBool(s.Saved)
}

// Describe returns a human-readable description of the count check.
func (s *AssertCountStep) Describe() string {
	return "assertCount: " + strconv.Itoa(s.Equals)
}

// Describe returns a human-readable description of the sub-scenario.
func (s *RunScenarioStep) Describe() string {
	return "runScenario: " + s.File
}

// Describe returns a human-readable description of the screenshot step.
func (s *TakeScreenshotStep) Describe() string {
	if s.Name != "" {
		return "takeScreenshot: " + s.Name
	}
	return "takeScreenshot"
}
