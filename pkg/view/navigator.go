// Package view moves the session between the application's named views.
package view

import (
	"context"
	"fmt"
	"time"

	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/locator"
	"github.com/devicelab-dev/keep-runner/pkg/logger"
	"github.com/devicelab-dev/keep-runner/pkg/wait"
)

// Navigator is the view state machine. It is the only owner of the current
// view: nothing else changes it.
type Navigator struct {
	drv      core.Driver
	timeouts core.Timeouts
	current  core.ViewName
	started  bool
}

// New creates a navigator. The current view is unknown until Start.
func New(drv core.Driver, timeouts core.Timeouts) *Navigator {
	return &Navigator{drv: drv, timeouts: timeouts.WithDefaults()}
}

// Current returns the view the session is in.
func (n *Navigator) Current() core.ViewName {
	return n.current
}

// Start records a freshly loaded page as being in the main view once the
// main view's arrival signal is present.
func (n *Navigator) Start(ctx context.Context) error {
	if err := n.awaitArrival(ctx, core.ViewMain); err != nil {
		return core.NavigationFailed(core.ViewMain, err)
	}
	n.current = core.ViewMain
	n.started = true
	logger.Info("session started in %s view", n.current)
	return nil
}

// GoTo transitions to target. Going to the current view is a no-op.
// A transition whose arrival signal never appears fails with NavigationFailed
// and is not retried. The current view is left unchanged in that case.
func (n *Navigator) GoTo(ctx context.Context, target core.ViewName) error {
	if !n.started {
		return core.ErrSessionNotStarted
	}
	if target == n.current {
		return nil
	}
	affordance, ok := entry(target)
	if !ok {
		return core.NavigationFailed(target, fmt.Errorf("no navigation entry for view %d", target))
	}

	logger.Info("navigating %s -> %s", n.current, target)
	el, err := wait.Visible(ctx, n.drv, nil, affordance, n.spec("sidebar "+target.String(), n.timeouts.Navigation))
	if err != nil {
		return core.NavigationFailed(target, err)
	}
	if err := n.drv.Click(ctx, el); err != nil {
		return core.NavigationFailed(target, core.DriverFailure("click "+affordance.String(), err))
	}
	if err := n.awaitArrival(ctx, target); err != nil {
		logger.Warn("navigation to %s did not arrive: %v", target, err)
		return core.NavigationFailed(target, err)
	}
	n.current = target
	return nil
}

// Arrived reports whether target's arrival signal is showing right now.
func (n *Navigator) Arrived(ctx context.Context, target core.ViewName) (bool, error) {
	switch target {
	case core.ViewMain:
		composer, err := n.drv.FindAll(ctx, locator.NewNoteInput())
		if err != nil || len(composer) == 0 {
			return false, err
		}
		archived, err := anyPresent(ctx, n.drv, locator.ArchiveLandmarks())
		return !archived, err
	case core.ViewArchive:
		return anyPresent(ctx, n.drv, locator.ArchiveLandmarks())
	}
	return false, fmt.Errorf("unknown view %d", target)
}

func (n *Navigator) awaitArrival(ctx context.Context, target core.ViewName) error {
	_, err := wait.Until(ctx, n.spec("arrive "+target.String(), n.timeouts.Navigation),
		func(ctx context.Context) (string, bool, error) {
			ok, err := n.Arrived(ctx, target)
			return "still in " + n.current.String(), ok, err
		})
	return err
}

func (n *Navigator) spec(name string, timeout time.Duration) wait.Spec {
	return wait.For(name, timeout).Every(n.timeouts.PollInterval)
}

func entry(target core.ViewName) (locator.Query, bool) {
	switch target {
	case core.ViewMain:
		return locator.SidebarNotes(), true
	case core.ViewArchive:
		return locator.SidebarArchive(), true
	}
	return locator.Query{}, false
}

func anyPresent(ctx context.Context, drv core.Driver, queries []locator.Query) (bool, error) {
	for _, q := range queries {
		els, err := drv.FindAll(ctx, q)
		if err != nil {
			return false, err
		}
		if len(els) > 0 {
			return true, nil
		}
	}
	return false, nil
}
