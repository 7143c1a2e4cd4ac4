// Package core provides the execution model types for keep-runner.
package core

import (
	"context"
	"strings"
	"time"

	"github.com/devicelab-dev/keep-runner/pkg/locator"
)

// ElementRef is an opaque handle to one node of the live UI tree.
// Handles are only valid until the next re-render of the subtree that holds them.
type ElementRef interface {
	// ID returns a driver-specific identifier, used in logs and errors.
	ID() string
}

// Driver is the browser automation capability the engine is built on.
// Implementations: W3C WebDriver, go-rod (CDP), and the in-memory fake.
// No method waits implicitly; every wait is expressed by the caller with pkg/wait.
type Driver interface {
	// FindAll returns every element matching q in document order. Zero matches is not an error.
	FindAll(ctx context.Context, q locator.Query) ([]ElementRef, error)

	// FindOne returns the first match of q inside scope (nil scope = whole document).
	FindOne(ctx context.Context, scope ElementRef, q locator.Query) (ElementRef, bool, error)

	// Click clicks an element.
	Click(ctx context.Context, el ElementRef) error

	// Type sends text to an element. Key code points (KeyEnter, KeyEscape) may be embedded.
	Type(ctx context.Context, el ElementRef, text string) error

	// Clear empties an editable element.
	Clear(ctx context.Context, el ElementRef) error

	// Attribute returns an attribute value and whether it is present.
	Attribute(ctx context.Context, el ElementRef, name string) (string, bool, error)

	// Text returns the rendered text of an element and its descendants.
	Text(ctx context.Context, el ElementRef) (string, error)

	// Displayed reports whether an element is visible.
	Displayed(ctx context.Context, el ElementRef) (bool, error)

	// ReadyState returns document.readyState.
	ReadyState(ctx context.Context) (string, error)

	// Navigate loads a URL in the current page.
	Navigate(ctx context.Context, url string) error

	// Screenshot captures the current viewport as PNG.
	Screenshot(ctx context.Context) ([]byte, error)

	// Close ends the browser session.
	Close() error
}

// W3C WebDriver key code points. Drivers translate them for their transport.
const (
	KeyEnter  = "\uE007"
	KeyEscape = "\uE00C"
)

// SplitKeys breaks text into runs of plain text and single key code points.
func SplitKeys(text string) []string {
	var out []string
	var b strings.Builder
	for _, r := range text {
		s := string(r)
		if s == KeyEnter || s == KeyEscape {
			if b.Len() > 0 {
				out = append(out, b.String())
				b.Reset()
			}
			out = append(out, s)
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

// LogEntry represents a single log message captured during execution
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`  // debug, info, warn, error
	Source    string    `json:"source"` // driver, engine
	Message   string    `json:"message"`
}
