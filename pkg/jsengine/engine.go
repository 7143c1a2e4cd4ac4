// Package jsengine evaluates JavaScript in scenario strings and scripts.
package jsengine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dop251/goja"
	"github.com/google/uuid"

	"github.com/devicelab-dev/keep-runner/pkg/logger"
)

// Engine is one goja runtime, shared by every step of a scenario run.
// Globals set by SetVariable or by scripts stay visible to later steps.
type Engine struct {
	mu     sync.Mutex
	vm     *goja.Runtime
	output *goja.Object
}

// New returns an engine with console, output, uuid() and unique() defined.
func New() *Engine {
	vm := goja.New()
	e := &Engine{vm: vm, output: vm.NewObject()}

	console := vm.NewObject()
	_ = console.Set("log", logTo(logger.Info))
	_ = console.Set("warn", logTo(logger.Warn))
	_ = console.Set("error", logTo(logger.Error))
	_ = vm.Set("console", console)

	// output carries values from evalScript steps to later ${...} expressions
	_ = vm.Set("output", e.output)
	_ = vm.Set("uuid", uuid.NewString)
	_ = vm.Set("unique", func(prefix string) string {
		return prefix + " " + uuid.NewString()[:8]
	})
	return e
}

// logTo sends console.* arguments to the run log instead of stdout.
func logTo(log func(string, ...interface{})) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		args := make([]string, 0, len(call.Arguments))
		for _, a := range call.Arguments {
			args = append(args, a.String())
		}
		log("[js] %s", strings.Join(args, " "))
		return goja.Undefined()
	}
}

// SetVariable defines a global.
func (e *Engine) SetVariable(name string, value interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_ = e.vm.Set(name, value)
}

// SetVariables defines one string global per entry.
func (e *Engine) SetVariables(vars map[string]string) {
	for name, value := range vars {
		e.SetVariable(name, value)
	}
}

// GetOutput snapshots the output object.
func (e *Engine) GetOutput() map[string]interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]interface{}, len(e.output.Keys()))
	for _, key := range e.output.Keys() {
		out[key] = e.output.Get(key).Export()
	}
	return out
}

func (e *Engine) run(src string) (goja.Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vm.RunString(src)
}

// Eval evaluates an expression and exports its value to Go.
func (e *Engine) Eval(expr string) (interface{}, error) {
	v, err := e.run(expr)
	if err != nil {
		return nil, fmt.Errorf("js eval %q: %w", expr, err)
	}
	return v.Export(), nil
}

// EvalString evaluates an expression as text. null and undefined are "".
func (e *Engine) EvalString(expr string) (string, error) {
	v, err := e.Eval(expr)
	if err != nil || v == nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

// RunScript runs a script for its side effects on globals and output.
func (e *Engine) RunScript(script string) error {
	if _, err := e.run(script); err != nil {
		return fmt.Errorf("js script: %w", err)
	}
	return nil
}

// ExpandVariables replaces each ${expr} in text with the value of expr.
// Braces inside expr nest. An unterminated ${ or an expression that fails
// to evaluate is left as written.
func (e *Engine) ExpandVariables(text string) string {
	if !strings.Contains(text, "${") {
		return text
	}

	var b strings.Builder
	rest := text
	for {
		open := strings.Index(rest, "${")
		if open < 0 {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(rest[:open])

		end := closingBrace(rest, open+2)
		if end < 0 {
			b.WriteString(rest[open:])
			return b.String()
		}

		expr := rest[open+2 : end]
		if value, err := e.EvalString(expr); err != nil {
			logger.Warn("leaving ${%s} unexpanded: %v", expr, err)
			b.WriteString(rest[open : end+1])
		} else {
			b.WriteString(value)
		}
		rest = rest[end+1:]
	}
}

// closingBrace returns the index of the } that closes a brace opened just
// before from, or -1.
func closingBrace(s string, from int) int {
	depth := 1
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
