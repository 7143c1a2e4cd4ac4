package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseError represents a parsing error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ParseFile parses a single scenario file.
func ParseFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided scenario file
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses scenario YAML: an optional config document, then the step list.
func Parse(data []byte, sourcePath string) (*Scenario, error) {
	parts := splitYAMLDocuments(string(data))

	sc := &Scenario{SourcePath: sourcePath}

	if len(parts) == 0 {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    1,
			Message: "empty scenario file",
		}
	}

	if len(parts) == 1 {
		if err := parseSteps(parts[0], sc); err != nil {
			return nil, err
		}
	} else {
		if err := parseConfig(parts[0], sc); err != nil {
			return nil, err
		}
		if err := parseSteps(parts[1], sc); err != nil {
			return nil, err
		}
	}

	return sc, nil
}

// splitYAMLDocuments splits on "---" lines outside block scalars.
func splitYAMLDocuments(content string) []string {
	var parts []string
	var current strings.Builder
	inMultiline := false
	multilineIndent := 0

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if !inMultiline {
			if strings.HasSuffix(trimmed, "|") || strings.HasSuffix(trimmed, ">") ||
				strings.HasSuffix(trimmed, "|-") || strings.HasSuffix(trimmed, ">-") {
				inMultiline = true
				if i+1 < len(lines) {
					next := lines[i+1]
					multilineIndent = len(next) - len(strings.TrimLeft(next, " \t"))
				}
			}
		} else {
			indent := len(line) - len(strings.TrimLeft(line, " \t"))
			if trimmed != "" && indent < multilineIndent {
				inMultiline = false
			}
		}

		if !inMultiline && trimmed == "---" && strings.TrimLeft(line, " \t") == "---" {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		} else {
			current.WriteString(line)
			current.WriteString("\n")
		}
	}

	if current.Len() > 0 {
		if strings.TrimSpace(current.String()) != "" {
			parts = append(parts, current.String())
		}
	}

	return parts
}

func parseConfig(content string, sc *Scenario) error {
	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return &ParseError{
			Path:    sc.SourcePath,
			Message: fmt.Sprintf("invalid config: %v", err),
		}
	}
	sc.Config = config
	return nil
}

func parseSteps(content string, sc *Scenario) error {
	var rawSteps []yaml.Node
	if err := yaml.Unmarshal([]byte(content), &rawSteps); err != nil {
		return &ParseError{
			Path:    sc.SourcePath,
			Message: fmt.Sprintf("invalid steps: %v", err),
		}
	}

	for _, node := range rawSteps {
		step, err := parseStep(&node, sc.SourcePath)
		if err != nil {
			return err
		}
		sc.Steps = append(sc.Steps, step)
	}

	return nil
}

func parseStep(node *yaml.Node, sourcePath string) (Step, error) {
	// Bare command names like "- createEmptyNote"
	if node.Kind == yaml.ScalarNode {
		stepType := node.Value
		if !isStepType(stepType) {
			return nil, &ParseError{
				Path:    sourcePath,
				Line:    node.Line,
				Message: fmt.Sprintf("unknown step type: %s", stepType),
			}
		}
		emptyNode := &yaml.Node{Kind: yaml.MappingNode, Line: node.Line}
		return decodeStep(StepType(stepType), emptyNode, sourcePath)
	}

	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "step must be a mapping or command name",
		}
	}

	stepType, valueNode := extractStepType(node)
	if stepType == "" || valueNode == nil {
		key := ""
		if len(node.Content) > 0 {
			key = node.Content[0].Value
		}
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: fmt.Sprintf("unknown step type: %s", key),
		}
	}

	return decodeStep(StepType(stepType), valueNode, sourcePath)
}

func extractStepType(node *yaml.Node) (string, *yaml.Node) {
	for i := 0; i < len(node.Content)-1; i += 2 {
		key := node.Content[i].Value
		if isStepType(key) {
			return key, node.Content[i+1]
		}
	}
	return "", nil
}

func isStepType(key string) bool {
	switch StepType(key) {
	case StepCreateNote, StepCreateEmptyNote, StepCreateChecklist, StepDeleteNote,
		StepPinNote, StepUnpinNote, StepArchiveNote, StepAddLabel, StepEditTitle,
		StepSearchNote, StepChangeColor, StepGoTo,
		StepAssertPresent, StepAssertNotPresent, StepAssertPinned, StepAssertNotPinned,
		StepAssertArchived, StepAssertLabel, StepAssertChecklist, StepAssertColor,
		StepAssertNoteSaved, StepAssertCount,
		StepEvalScript, StepRunScenario, StepTakeScreenshot:
		return true
	}
	return false
}

// decode fills s from a mapping node, or sets *scalar from a scalar node.
func decode(valueNode *yaml.Node, sourcePath string, s interface{}, scalar *string) error {
	if valueNode.Kind == yaml.ScalarNode && scalar != nil {
		*scalar = valueNode.Value
		return nil
	}
	if err := valueNode.Decode(s); err != nil {
		return wrapParseError(sourcePath, valueNode.Line, err)
	}
	return nil
}

func required(sourcePath string, valueNode *yaml.Node, stepType StepType, fields map[string]string) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.TrimSpace(fields[name]) == "" {
			return &ParseError{
				Path:    sourcePath,
				Line:    valueNode.Line,
				Message: fmt.Sprintf("%s: %s is required", stepType, name),
			}
		}
	}
	return nil
}

func checked(s Step, err error) (Step, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

//nolint:gocyclo
func decodeStep(stepType StepType, valueNode *yaml.Node, sourcePath string) (Step, error) {
	switch stepType {
	case StepCreateNote:
		var s CreateNoteStep
		if err := decode(valueNode, sourcePath, &s, &s.Title); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return checked(&s, required(sourcePath, valueNode, stepType, map[string]string{"title": s.Title}))

	case StepCreateEmptyNote:
		var s CreateEmptyNoteStep
		if err := decode(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepCreateChecklist, StepAssertChecklist:
		var s ChecklistStep
		if err := decode(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		s.StepType = stepType
		if len(s.Items) == 0 {
			return nil, &ParseError{Path: sourcePath, Line: valueNode.Line, Message: fmt.Sprintf("%s: items are required", stepType)}
		}
		return checked(&s, required(sourcePath, valueNode, stepType, map[string]string{"title": s.Title}))

	case StepDeleteNote:
		var s DeleteNoteStep
		if err := decode(valueNode, sourcePath, &s, &s.Title); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return checked(&s, required(sourcePath, valueNode, stepType, map[string]string{"title": s.Title}))

	case StepPinNote, StepUnpinNote, StepArchiveNote, StepSearchNote,
		StepAssertPresent, StepAssertNotPresent, StepAssertPinned, StepAssertNotPinned, StepAssertArchived:
		var s NoteStep
		if err := decode(valueNode, sourcePath, &s, &s.Title); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return checked(&s, required(sourcePath, valueNode, stepType, map[string]string{"title": s.Title}))

	case StepAddLabel, StepAssertLabel:
		var s LabelStep
		if err := decode(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return checked(&s, required(sourcePath, valueNode, stepType, map[string]string{"title": s.Title, "label": s.Name}))

	case StepEditTitle:
		var s EditTitleStep
		if err := decode(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return checked(&s, required(sourcePath, valueNode, stepType, map[string]string{"from": s.From, "to": s.To}))

	case StepChangeColor, StepAssertColor:
		var s ColorStep
		if err := decode(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return checked(&s, required(sourcePath, valueNode, stepType, map[string]string{"title": s.Title, "color": s.Color}))

	case StepGoTo:
		var s GoToStep
		if err := decode(valueNode, sourcePath, &s, &s.View); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return checked(&s, required(sourcePath, valueNode, stepType, map[string]string{"view": s.View}))

	case StepAssertNoteSaved:
		s := AssertNoteSavedStep{Saved: true}
		if valueNode.Kind == yaml.ScalarNode {
			if err := valueNode.Decode(&s.Saved); err != nil {
				return nil, wrapParseError(sourcePath, valueNode.Line, err)
			}
		} else if err := valueNode.Decode(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		s.StepType = stepType
		return &s, nil

	case StepAssertCount:
		var s AssertCountStep
		if valueNode.Kind == yaml.ScalarNode {
			if err := valueNode.Decode(&s.Equals); err != nil {
				return nil, wrapParseError(sourcePath, valueNode.Line, err)
			}
		} else if err := valueNode.Decode(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		s.StepType = stepType
		return &s, nil

	case StepEvalScript:
		var s EvalScriptStep
		if err := decode(valueNode, sourcePath, &s, &s.Script); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return checked(&s, required(sourcePath, valueNode, stepType, map[string]string{"script": s.Script}))

	case StepRunScenario:
		var s RunScenarioStep
		if err := decode(valueNode, sourcePath, &s, &s.File); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return checked(&s, required(sourcePath, valueNode, stepType, map[string]string{"file": s.File}))

	case StepTakeScreenshot:
		var s TakeScreenshotStep
		if err := decode(valueNode, sourcePath, &s, &s.Name); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil
	}

	return nil, &ParseError{
		Path:    sourcePath,
		Line:    valueNode.Line,
		Message: fmt.Sprintf("unknown step type: %s", stepType),
	}
}

func wrapParseError(path string, line int, err error) error {
	return &ParseError{
		Path:    path,
		Line:    line,
		Message: err.Error(),
	}
}

// IsScenarioFile reports whether path has a YAML extension.
func IsScenarioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// ShouldInclude checks if a scenario matches tag filters.
func ShouldInclude(sc *Scenario, includeTags, excludeTags []string) bool {
	if len(includeTags) > 0 {
		hasTag := false
		for _, tag := range sc.Config.Tags {
			for _, include := range includeTags {
				if tag == include {
					hasTag = true
					break
				}
			}
		}
		if !hasTag {
			return false
		}
	}

	for _, tag := range sc.Config.Tags {
		for _, exclude := range excludeTags {
			if tag == exclude {
				return false
			}
		}
	}

	return true
}
