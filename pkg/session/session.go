// Package session is the per-test context object: one browser driver, the
// wait bounds, and the view navigator that tracks where the session is.
package session

import (
	"context"
	"time"

	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/logger"
	"github.com/devicelab-dev/keep-runner/pkg/view"
	"github.com/devicelab-dev/keep-runner/pkg/wait"
)

// Session binds a driver to one run of the application.
// Exactly one action sequence uses a session at a time.
type Session struct {
	Driver   core.Driver
	BaseURL  string
	Timeouts core.Timeouts
	Views    *view.Navigator
}

// New creates a session over drv. Zero timeouts take their defaults.
func New(drv core.Driver, baseURL string, timeouts core.Timeouts) *Session {
	timeouts = timeouts.WithDefaults()
	return &Session{
		Driver:   drv,
		BaseURL:  baseURL,
		Timeouts: timeouts,
		Views:    view.New(drv, timeouts),
	}
}

// Open loads BaseURL, waits for the document to finish loading and for the
// main view to render.
func (s *Session) Open(ctx context.Context) error {
	logger.Info("opening %s", s.BaseURL)
	if err := s.Driver.Navigate(ctx, s.BaseURL); err != nil {
		return core.DriverFailure("navigate", err)
	}
	_, err := wait.Until(ctx, s.Spec("page load", s.Timeouts.PageLoad), func(ctx context.Context) (string, bool, error) {
		state, err := s.Driver.ReadyState(ctx)
		return state, state == "complete", err
	})
	if err != nil {
		return err
	}
	return s.Views.Start(ctx)
}

// View returns the current view.
func (s *Session) View() core.ViewName {
	return s.Views.Current()
}

// Spec builds a wait spec polling at the session's interval.
func (s *Session) Spec(step string, timeout time.Duration) wait.Spec {
	return wait.For(step, timeout).Every(s.Timeouts.PollInterval)
}

// Screenshot implements core.ArtifactCollector.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	return s.Driver.Screenshot(ctx)
}

// Close ends the browser session.
func (s *Session) Close() error {
	return s.Driver.Close()
}

var _ core.ArtifactCollector = (*Session)(nil)
