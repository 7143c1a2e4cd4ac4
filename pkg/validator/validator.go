// Package validator validates scenario files before execution.
// It parses all files upfront, resolves runScenario references, and detects errors.
package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/locator"
	"github.com/devicelab-dev/keep-runner/pkg/scenario"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	File    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Result contains the validation result.
type Result struct {
	// TestCases are the top-level scenario files to run, in order.
	// Files only reached through runScenario are validated but not listed.
	TestCases []string
	// Errors contains all validation errors found.
	Errors []error
}

// IsValid returns true if there are no validation errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

// Validator validates scenario files.
type Validator struct {
	includeTags []string
	excludeTags []string
}

// New creates a new Validator.
func New(includeTags, excludeTags []string) *Validator {
	return &Validator{
		includeTags: includeTags,
		excludeTags: excludeTags,
	}
}

// Validate validates files, directories or glob patterns.
// Directories contribute their top-level YAML files; subdirectories are
// reserved for scenarios shared through runScenario.
func (v *Validator) Validate(paths ...string) *Result {
	result := &Result{}
	validated := make(map[string]bool)
	listed := make(map[string]bool)

	for _, path := range paths {
		files, err := v.expand(path)
		if err != nil {
			result.Errors = append(result.Errors, &ValidationError{File: path, Message: err.Error()})
			continue
		}
		for _, file := range files {
			if listed[file] {
				continue
			}
			if v.validateFile(file, result, validated, nil) {
				listed[file] = true
				result.TestCases = append(result.TestCases, file)
			}
		}
	}

	return result
}

func (v *Validator) expand(path string) ([]string, error) {
	matches := []string{path}
	if strings.ContainsAny(path, "*?[") {
		var err error
		if matches, err = filepath.Glob(path); err != nil {
			return nil, fmt.Errorf("bad pattern: %v", err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no scenario files match")
		}
	}

	var files []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("cannot access: %v", err)
		}
		if !info.IsDir() {
			files = append(files, m)
			continue
		}
		dirFiles, err := collectScenarioFiles(m)
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory: %v", err)
		}
		files = append(files, dirFiles...)
	}
	return files, nil
}

// collectScenarioFiles finds the .yaml/.yml files directly inside dir.
func collectScenarioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !scenario.IsScenarioFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// validateFile validates a single file and its runScenario dependencies.
// It reports whether a top-level file passed the tag filters.
func (v *Validator) validateFile(filePath string, result *Result, validated map[string]bool, chain []string) bool {
	// Check for circular dependency
	for _, ancestor := range chain {
		if ancestor == filePath {
			cycle := append(append([]string(nil), chain...), filePath)
			result.Errors = append(result.Errors, &ValidationError{
				File:    filePath,
				Message: fmt.Sprintf("circular dependency detected: %s", strings.Join(cycle, " -> ")),
			})
			return false
		}
	}

	if validated[filePath] {
		return true
	}

	sc, err := scenario.ParseFile(filePath)
	if err != nil {
		result.Errors = append(result.Errors, &ValidationError{
			File:    filePath,
			Message: fmt.Sprintf("parse error: %v", err),
		})
		return false
	}

	// Tag filters apply to top-level files only, not runScenario targets
	if len(chain) == 0 && !scenario.ShouldInclude(sc, v.includeTags, v.excludeTags) {
		return false
	}

	validated[filePath] = true
	checkSteps(sc.Steps, filePath, result)

	newChain := append(append([]string(nil), chain...), filePath)
	parentDir := filepath.Dir(filePath)
	for _, step := range sc.Steps {
		if s, ok := step.(*scenario.RunScenarioStep); ok {
			refPath := resolveFilePath(parentDir, s.File)
			if _, err := os.Stat(refPath); err != nil {
				result.Errors = append(result.Errors, &ValidationError{
					File:    filePath,
					Message: fmt.Sprintf("runScenario %s: %v", s.File, err),
				})
				continue
			}
			v.validateFile(refPath, result, validated, newChain)
		}
	}
	return true
}

// checkSteps rejects values the scenario parser cannot judge: view and color names.
// Values holding ${...} are only known at run time and are skipped.
func checkSteps(steps []scenario.Step, filePath string, result *Result) {
	for _, step := range steps {
		switch s := step.(type) {
		case *scenario.GoToStep:
			if _, ok := core.ParseView(s.View); !ok && !dynamic(s.View) {
				result.Errors = append(result.Errors, &ValidationError{
					File:    filePath,
					Message: fmt.Sprintf("goTo: unknown view %q", s.View),
				})
			}
		case *scenario.ColorStep:
			if !knownColor(s.Color) && !dynamic(s.Color) {
				result.Errors = append(result.Errors, &ValidationError{
					File:    filePath,
					Message: fmt.Sprintf("%s: unknown color %q (want one of %s)", s.Type(), s.Color, strings.Join(locator.Colors, ", ")),
				})
			}
		}
	}
}

func knownColor(name string) bool {
	for _, c := range locator.Colors {
		if c == name {
			return true
		}
	}
	return false
}

func dynamic(s string) bool {
	return strings.Contains(s, "${")
}

// resolveFilePath resolves a file path relative to a base directory.
func resolveFilePath(baseDir, filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	return filepath.Join(baseDir, filePath)
}
