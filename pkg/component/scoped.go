// Package component wraps located UI subtrees in typed handles with
// intention-revealing operations.
//
// Operations locate an affordance, act on it, and return. Waiting for the
// effect of an operation is the caller's job. Nothing here retries: a handle
// whose subtree re-rendered must be re-resolved by the caller.
package component

import (
	"context"

	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/locator"
	"github.com/devicelab-dev/keep-runner/pkg/logger"
	"github.com/devicelab-dev/keep-runner/pkg/wait"
)

// Scoped is a driver bound to one subtree. A nil root scopes to the document.
type Scoped struct {
	drv  core.Driver
	root core.ElementRef
	spec wait.Spec
}

// NewScoped binds drv to root. Affordance lookups wait at most timeouts.Affordance.
func NewScoped(drv core.Driver, root core.ElementRef, timeouts core.Timeouts) Scoped {
	timeouts = timeouts.WithDefaults()
	return Scoped{
		drv:  drv,
		root: root,
		spec: wait.For("affordance", timeouts.Affordance).Every(timeouts.PollInterval),
	}
}

// Root returns the owned subtree.
func (s Scoped) Root() core.ElementRef {
	return s.root
}

// Find resolves an affordance inside the subtree. Affordances render
// asynchronously after the action that reveals them, so the lookup is a short
// bounded wait; when it expires the result is AffordanceNotFound.
func (s Scoped) Find(ctx context.Context, q locator.Query) (core.ElementRef, error) {
	return s.find(ctx, s.root, q)
}

// FindGlobal resolves an affordance rendered outside the subtree (menus, popups).
func (s Scoped) FindGlobal(ctx context.Context, q locator.Query) (core.ElementRef, error) {
	return s.find(ctx, nil, q)
}

func (s Scoped) find(ctx context.Context, scope core.ElementRef, q locator.Query) (core.ElementRef, error) {
	spec := s.spec
	spec.Name = q.String()
	el, err := wait.Present(ctx, s.drv, scope, q, spec)
	if err != nil {
		logger.Debug("affordance %s not found: %v", q, err)
		return nil, core.AffordanceNotFound(q.String()).WithCause(err)
	}
	return el, nil
}

// Has reports whether q matches inside the subtree right now.
func (s Scoped) Has(ctx context.Context, q locator.Query) (bool, error) {
	_, ok, err := s.drv.FindOne(ctx, s.root, q)
	if err != nil {
		return false, core.DriverFailure("find "+q.String(), err)
	}
	return ok, nil
}

// Click finds an affordance and clicks it.
func (s Scoped) Click(ctx context.Context, q locator.Query) error {
	el, err := s.Find(ctx, q)
	if err != nil {
		return err
	}
	return s.click(ctx, el, q.String())
}

// ClickGlobal clicks an affordance rendered outside the subtree.
func (s Scoped) ClickGlobal(ctx context.Context, q locator.Query) error {
	el, err := s.FindGlobal(ctx, q)
	if err != nil {
		return err
	}
	return s.click(ctx, el, q.String())
}

func (s Scoped) click(ctx context.Context, el core.ElementRef, name string) error {
	if err := s.drv.Click(ctx, el); err != nil {
		return core.DriverFailure("click "+name, err)
	}
	return nil
}

// TypeInto finds an editable affordance and sends text to it.
func (s Scoped) TypeInto(ctx context.Context, q locator.Query, text string) (core.ElementRef, error) {
	el, err := s.FindGlobal(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := s.drv.Type(ctx, el, text); err != nil {
		return nil, core.DriverFailure("type into "+q.String(), err)
	}
	return el, nil
}
