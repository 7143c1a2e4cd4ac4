// Package reconcile answers questions about a note's state that may need
// looking in more than one view.
package reconcile

import (
	"context"
	"errors"

	"github.com/devicelab-dev/keep-runner/pkg/component"
	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/locator"
	"github.com/devicelab-dev/keep-runner/pkg/logger"
	"github.com/devicelab-dev/keep-runner/pkg/session"
	"github.com/devicelab-dev/keep-runner/pkg/wait"
)

// Reconciler resolves entities against the live UI of one session.
type Reconciler struct {
	sess *session.Session
}

// New creates a reconciler for sess.
func New(sess *session.Session) *Reconciler {
	return &Reconciler{sess: sess}
}

// Locate resolves the first card matching title in the current view,
// waiting up to the locate timeout. Zero matches is EntityNotFound.
func (r *Reconciler) Locate(ctx context.Context, title string) (*component.NoteCard, error) {
	return r.LocateQuery(ctx, locator.NoteCard(title))
}

// LocateQuery is Locate for an arbitrary card query.
func (r *Reconciler) LocateQuery(ctx context.Context, q locator.Query) (*component.NoteCard, error) {
	t := r.sess.Timeouts
	root, err := wait.Present(ctx, r.sess.Driver, nil, q, r.sess.Spec("locate "+q.String(), t.Locate))
	if err != nil {
		logger.Info("%s not found in %s view", q, r.sess.View())
		return nil, core.EntityNotFound(q.String()).WithDetails(map[string]interface{}{
			core.DetailView: r.sess.View().String(),
		}).WithCause(err)
	}
	logger.Debug("%s resolved to %s in %s view", q, root.ID(), r.sess.View())
	return component.NewNoteCard(r.sess.Driver, root, q, r.sess.View(), t), nil
}

// FindAcross looks for q in the current view and, when it is not there,
// in each other view of order in turn. It reports the view q was found in.
//
// The current view is checked once, without waiting. Every other view is
// given a bounded wait of spec. Whatever happens, the session is returned
// to the view it started in before FindAcross returns, even when ctx has
// expired; a failed restore is reported even when the lookup itself succeeded.
func (r *Reconciler) FindAcross(ctx context.Context, q locator.Query, order []core.ViewName, spec wait.Spec) (found core.ViewName, ok bool, err error) {
	origin := r.sess.View()
	els, err := r.sess.Driver.FindAll(ctx, q)
	if err != nil {
		return origin, false, core.DriverFailure("find "+q.String(), err)
	}
	if len(els) > 0 {
		return origin, true, nil
	}

	defer func() {
		if r.sess.View() == origin {
			return
		}
		// The caller's deadline may be what ended the search.
		restoreCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*r.sess.Timeouts.Navigation)
		defer cancel()
		if restoreErr := r.sess.Views.GoTo(restoreCtx, origin); restoreErr != nil {
			logger.Error("failed to return to %s view: %v", origin, restoreErr)
			if err == nil {
				err = restoreErr
			} else {
				err = errors.Join(err, restoreErr)
			}
		}
	}()

	for _, v := range order {
		if v == origin {
			continue
		}
		if err := r.sess.Views.GoTo(ctx, v); err != nil {
			return origin, false, err
		}
		s := spec
		s.Name = q.String() + " in " + v.String()
		present, err := wait.Eventually(ctx, s, func(ctx context.Context) (bool, error) {
			els, err := r.sess.Driver.FindAll(ctx, q)
			return len(els) > 0, err
		})
		if err != nil {
			return origin, false, err
		}
		if present {
			logger.Info("%s found in %s view", q, v)
			return v, true, nil
		}
	}
	logger.Info("%s not found in any view", q)
	return origin, false, nil
}

// IsArchived reports whether the note titled title is in the archive.
// A note visible in the main view is not archived, and answering that costs
// no navigation. Otherwise the archive is searched and the main view restored.
func (r *Reconciler) IsArchived(ctx context.Context, title string) (bool, error) {
	q := locator.NoteCard(title)
	spec := r.sess.Spec("archive check", r.sess.Timeouts.ArchiveCheck)
	v, ok, err := r.FindAcross(ctx, q, core.Views, spec)
	if err != nil {
		return false, err
	}
	return ok && v == core.ViewArchive, nil
}

// IsPresent reports whether a card matching title shows up in the current
// view within the locate timeout.
func (r *Reconciler) IsPresent(ctx context.Context, title string) (bool, error) {
	q := locator.NoteCard(title)
	return wait.Eventually(ctx, r.sess.Spec("present "+q.String(), r.sess.Timeouts.Locate), func(ctx context.Context) (bool, error) {
		els, err := r.sess.Driver.FindAll(ctx, q)
		return len(els) > 0, err
	})
}

// IsAbsent proves absence under a bound: true when no card matching title
// appears during the absence timeout. Keep the bound short; a longer wait
// cannot make the answer more certain.
func (r *Reconciler) IsAbsent(ctx context.Context, title string) (bool, error) {
	q := locator.NoteCard(title)
	return wait.NeverAppears(ctx, r.sess.Driver, q, r.sess.Spec("absent "+q.String(), r.sess.Timeouts.Absence))
}

// IsPinned reports whether the note titled title is pinned. A note that
// cannot be found within the pin-check timeout is reported as not pinned.
func (r *Reconciler) IsPinned(ctx context.Context, title string) (bool, error) {
	q := locator.NoteCard(title)
	root, err := wait.Present(ctx, r.sess.Driver, nil, q, r.sess.Spec("pin check "+q.String(), r.sess.Timeouts.PinCheck))
	if err != nil {
		if ctx.Err() != nil {
			return false, err
		}
		return false, nil
	}
	return component.NewNoteCard(r.sess.Driver, root, q, r.sess.View(), r.sess.Timeouts).PinState(ctx)
}

// Count returns the number of note cards rendered in the current view.
func (r *Reconciler) Count(ctx context.Context) (int, error) {
	els, err := r.sess.Driver.FindAll(ctx, locator.AllNoteCards())
	if err != nil {
		return 0, core.DriverFailure("count notes", err)
	}
	return len(els), nil
}
