package jsengine

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNew(t *testing.T) {
	engine := New()
	if engine.vm == nil || engine.output == nil {
		t.Fatal("expected runtime and output to be initialized")
	}
}

func TestEval(t *testing.T) {
	engine := New()

	tests := []struct {
		name     string
		script   string
		expected interface{}
	}{
		{"simple number", "1 + 2", int64(3)},
		{"string concat", "'hello' + ' ' + 'world'", "hello world"},
		{"boolean", "true && false", false},
		{"null coalescing", "null ?? 'default'", "default"},
		{"array length", "[1, 2, 3].length", int64(3)},
		{"object property", "({name: 'test'}).name", "test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.Eval(tt.script)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %v (%T), got %v (%T)", tt.expected, tt.expected, result, result)
			}
		})
	}
}

func TestEval_SyntaxError(t *testing.T) {
	_, err := New().Eval("1 +")
	if err == nil || !strings.Contains(err.Error(), "js eval") {
		t.Errorf("expected eval error, got %v", err)
	}
}

func TestSetVariables(t *testing.T) {
	engine := New()
	engine.SetVariables(map[string]string{"LABEL": "Work", "COLOR": "mint"})
	engine.SetVariable("count", 42)

	tests := []struct {
		expr string
		want string
	}{
		{"LABEL", "Work"},
		{"COLOR.toUpperCase()", "MINT"},
		{"count + 1", "43"},
	}
	for _, tt := range tests {
		got, err := engine.EvalString(tt.expr)
		if err != nil {
			t.Fatalf("EvalString(%q): %v", tt.expr, err)
		}
		if got != tt.want {
			t.Errorf("EvalString(%q) = %q, want %q", tt.expr, got, tt.want)
		}
	}
}

func TestEvalString_Undefined(t *testing.T) {
	got, err := New().EvalString("undefined")
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestExpandVariables(t *testing.T) {
	engine := New()
	engine.SetVariable("LABEL", "Work")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no expressions", "Groceries", "Groceries"},
		{"single", "Label ${LABEL}", "Label Work"},
		{"multiple", "${LABEL}-${1+1}", "Work-2"},
		{"nested braces", "${({a: 'x'}).a}", "x"},
		{"unmatched brace", "Note ${LABEL", "Note ${LABEL"},
		{"failed expression kept", "Note ${missing.field}", "Note ${missing.field}"},
		{"expansion not rescanned", "${'$' + '{LABEL}'}", "${LABEL}"},
		{"text after unmatched", "${LABEL} and ${", "Work and ${"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.ExpandVariables(tt.input); got != tt.want {
				t.Errorf("ExpandVariables(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRunScript_Output(t *testing.T) {
	engine := New()
	if err := engine.RunScript(`output.title = "Note " + (40 + 2)`); err != nil {
		t.Fatal(err)
	}

	if got := engine.ExpandVariables("${output.title}"); got != "Note 42" {
		t.Errorf("expanded = %q", got)
	}
	out := engine.GetOutput()
	if out["title"] != "Note 42" {
		t.Errorf("GetOutput() = %v", out)
	}
}

func TestRunScript_Error(t *testing.T) {
	err := New().RunScript("throw new Error('boom')")
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected script error, got %v", err)
	}
}

func TestUUID(t *testing.T) {
	engine := New()
	a, err := engine.EvalString("uuid()")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("uuid() = %q: %v", a, err)
	}
	b, _ := engine.EvalString("uuid()")
	if a == b {
		t.Error("expected distinct ids")
	}
}

func TestConsole(t *testing.T) {
	if err := New().RunScript(`console.log("hello", 1); console.warn("w"); console.error("e")`); err != nil {
		t.Fatal(err)
	}
}

func TestUnique(t *testing.T) {
	engine := New()
	a, err := engine.EvalString("unique('Trip')")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(a, "Trip ") || len(a) != len("Trip ")+8 {
		t.Errorf("unique('Trip') = %q", a)
	}
	if b, _ := engine.EvalString("unique('Trip')"); a == b {
		t.Error("expected distinct titles")
	}
}

func TestClosingBrace(t *testing.T) {
	tests := []struct {
		s    string
		want int
	}{
		{"${a}", 3},
		{"${{a}}", 5},
		{"${a", -1},
	}
	for _, tt := range tests {
		if got := closingBrace(tt.s, 2); got != tt.want {
			t.Errorf("closingBrace(%q) = %d, want %d", tt.s, got, tt.want)
		}
	}
}
