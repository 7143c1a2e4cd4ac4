// Package sequencer composes component operations into user-intent flows.
//
// Every flow ends by waiting for its externally observable effect, so a flow
// that returns nil has been seen to take effect in the UI. Unresolved notes
// fail with EntityNotFound; effects that never show fail with TimedOut
// carrying the step name. Nothing is retried.
package sequencer

import (
	"context"

	"github.com/devicelab-dev/keep-runner/pkg/component"
	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/locator"
	"github.com/devicelab-dev/keep-runner/pkg/logger"
	"github.com/devicelab-dev/keep-runner/pkg/reconcile"
	"github.com/devicelab-dev/keep-runner/pkg/session"
	"github.com/devicelab-dev/keep-runner/pkg/wait"
)

// Sequencer runs flows against one session.
type Sequencer struct {
	sess *session.Session
	rec  *reconcile.Reconciler
}

// New creates a sequencer for sess.
func New(sess *session.Session) *Sequencer {
	return &Sequencer{sess: sess, rec: reconcile.New(sess)}
}

// Reconciler returns the reconciler the sequencer resolves notes with.
func (s *Sequencer) Reconciler() *reconcile.Reconciler {
	return s.rec
}

func (s *Sequencer) drv() core.Driver {
	return s.sess.Driver
}

func (s *Sequencer) composer() *component.Composer {
	return component.NewComposer(s.drv(), s.sess.Timeouts)
}

func (s *Sequencer) awaitCard(ctx context.Context, step, title string) error {
	_, err := wait.Visible(ctx, s.drv(), nil, locator.NoteCard(title), s.sess.Spec(step, s.sess.Timeouts.Appear))
	return err
}

// CreateNote creates a note titled title and waits for its card.
func (s *Sequencer) CreateNote(ctx context.Context, title string) error {
	return s.CreateNoteWithBody(ctx, title, "")
}

// CreateNoteWithBody creates a note with a title and body text and waits for
// its card, keyed by title.
func (s *Sequencer) CreateNoteWithBody(ctx context.Context, title, body string) error {
	logger.Info("create note %q", title)
	c := s.composer()
	if err := c.Open(ctx); err != nil {
		return err
	}
	if err := c.SetTitle(ctx, title); err != nil {
		return err
	}
	if body != "" {
		if err := c.SetBody(ctx, body); err != nil {
			return err
		}
	}
	if err := c.Close(ctx); err != nil {
		return err
	}
	return s.awaitCard(ctx, "create note", title)
}

// CreateEmptyNote opens the composer and closes it without content, then
// waits for the composer to collapse.
func (s *Sequencer) CreateEmptyNote(ctx context.Context) error {
	logger.Info("create empty note")
	c := s.composer()
	if err := c.Open(ctx); err != nil {
		return err
	}
	if _, err := c.Find(ctx, locator.ComposerTitle()); err != nil {
		return err
	}
	if err := c.Close(ctx); err != nil {
		return err
	}
	return wait.Gone(ctx, s.drv(), locator.ComposerTitle(), s.sess.Spec("close composer", s.sess.Timeouts.Appear))
}

// CreateChecklistNote creates a checklist note and waits for its card.
func (s *Sequencer) CreateChecklistNote(ctx context.Context, title string, items []string) error {
	logger.Info("create checklist %q with %d items", title, len(items))
	c := s.composer()
	if err := c.Open(ctx); err != nil {
		return err
	}
	if err := c.ListMode(ctx); err != nil {
		return err
	}
	if err := c.SetTitle(ctx, title); err != nil {
		return err
	}
	for _, item := range items {
		if err := c.AddItem(ctx, item); err != nil {
			return err
		}
	}
	if err := c.Close(ctx); err != nil {
		return err
	}
	return s.awaitCard(ctx, "create checklist", title)
}

// DeleteNote deletes the note titled title through its menu. With undo, it
// waits for the undo affordance, clicks it and waits until the note count is
// back to its pre-delete value. Without undo it waits until the count has
// dropped by one.
func (s *Sequencer) DeleteNote(ctx context.Context, title string, undo bool) error {
	logger.Info("delete note %q (undo=%v)", title, undo)
	before, err := s.rec.Count(ctx)
	if err != nil {
		return err
	}
	card, err := s.rec.Locate(ctx, title)
	if err != nil {
		return err
	}
	if err := card.DeleteViaMenu(ctx); err != nil {
		return err
	}

	t := s.sess.Timeouts
	if !undo {
		_, err := wait.Count(ctx, s.drv(), locator.AllNoteCards(), s.sess.Spec("delete note", t.Appear),
			func(n int) bool { return n == before-1 })
		return err
	}

	btn, err := wait.Visible(ctx, s.drv(), nil, locator.UndoButton(), s.sess.Spec("undo affordance", t.Appear))
	if err != nil {
		return err
	}
	if err := s.drv().Click(ctx, btn); err != nil {
		return core.DriverFailure("click undo", err)
	}
	if err := s.awaitCard(ctx, "undo delete", title); err != nil {
		return err
	}
	_, err = wait.Count(ctx, s.drv(), locator.AllNoteCards(), s.sess.Spec("undo delete", t.Appear),
		func(n int) bool { return n == before })
	return err
}

// PinNote pins the note and waits until it reads as pinned.
func (s *Sequencer) PinNote(ctx context.Context, title string) error {
	logger.Info("pin note %q", title)
	card, err := s.rec.Locate(ctx, title)
	if err != nil {
		return err
	}
	if err := card.Pin(ctx); err != nil {
		return err
	}
	return s.awaitPinned(ctx, "pin note", title, true)
}

// UnpinNote unpins the note and waits until it no longer reads as pinned.
func (s *Sequencer) UnpinNote(ctx context.Context, title string) error {
	logger.Info("unpin note %q", title)
	card, err := s.rec.Locate(ctx, title)
	if err != nil {
		return err
	}
	if err := card.Unpin(ctx); err != nil {
		return err
	}
	return s.awaitPinned(ctx, "unpin note", title, false)
}

func (s *Sequencer) awaitPinned(ctx context.Context, step, title string, want bool) error {
	q := locator.NoteCard(title)
	_, err := wait.Until(ctx, s.sess.Spec(step, s.sess.Timeouts.Appear), func(ctx context.Context) (bool, bool, error) {
		root, ok, err := s.drv().FindOne(ctx, nil, q)
		if err != nil || !ok {
			return false, false, err
		}
		pinned, err := component.NewNoteCard(s.drv(), root, q, s.sess.View(), s.sess.Timeouts).PinState(ctx)
		return pinned, pinned == want, err
	})
	return err
}

// ArchiveNote archives the note and waits for it to leave the current view.
func (s *Sequencer) ArchiveNote(ctx context.Context, title string) error {
	logger.Info("archive note %q", title)
	card, err := s.rec.Locate(ctx, title)
	if err != nil {
		return err
	}
	if err := card.Archive(ctx); err != nil {
		return err
	}
	return wait.Gone(ctx, s.drv(), locator.NoteCard(title), s.sess.Spec("archive note", s.sess.Timeouts.Appear))
}

// AddLabel attaches label to the note and waits for the label chip.
func (s *Sequencer) AddLabel(ctx context.Context, title, label string) error {
	logger.Info("add label %q to %q", label, title)
	card, err := s.rec.Locate(ctx, title)
	if err != nil {
		return err
	}
	if err := card.AddLabel(ctx, label); err != nil {
		return err
	}
	_, err = wait.Visible(ctx, s.drv(), nil, locator.LabelChip(label).Inside(locator.NoteCard(title)),
		s.sess.Spec("add label", s.sess.Timeouts.Appear))
	return err
}

// EditTitle renames a note through its editor and waits for the renamed card.
func (s *Sequencer) EditTitle(ctx context.Context, current, title string) error {
	logger.Info("rename note %q to %q", current, title)
	card, err := s.rec.Locate(ctx, current)
	if err != nil {
		return err
	}
	if err := card.Open(ctx); err != nil {
		return err
	}
	editor := component.NewEditor(s.drv(), s.sess.Timeouts)
	if err := editor.ReplaceTitle(ctx, current, title); err != nil {
		return err
	}
	if err := editor.Close(ctx); err != nil {
		return err
	}
	return s.awaitCard(ctx, "edit title", title)
}

// SearchByTitle searches for title and waits for a matching card.
func (s *Sequencer) SearchByTitle(ctx context.Context, title string) error {
	logger.Info("search %q", title)
	global := component.NewScoped(s.drv(), nil, s.sess.Timeouts)
	if err := global.Click(ctx, locator.SearchBox()); err != nil {
		return err
	}
	if _, err := global.TypeInto(ctx, locator.SearchBox(), title+core.KeyEnter); err != nil {
		return err
	}
	_, err := wait.Present(ctx, s.drv(), nil, locator.NoteCard(title), s.sess.Spec("search", s.sess.Timeouts.Appear))
	return err
}

// ChangeColor sets the note's background and waits for the palette to show
// the color as selected. Picking the color the note already has is a no-op
// that still succeeds.
func (s *Sequencer) ChangeColor(ctx context.Context, title, color string) error {
	logger.Info("change color of %q to %s", title, color)
	card, err := s.rec.Locate(ctx, title)
	if err != nil {
		return err
	}
	if err := card.ChangeColor(ctx, color); err != nil {
		return err
	}
	q := locator.NoteCard(title)
	_, err = wait.Until(ctx, s.sess.Spec("change color", s.sess.Timeouts.Appear), func(ctx context.Context) (string, bool, error) {
		root, ok, err := s.drv().FindOne(ctx, nil, q)
		if err != nil || !ok {
			return "", false, err
		}
		selected, err := component.NewNoteCard(s.drv(), root, q, s.sess.View(), s.sess.Timeouts).ColorSelected(ctx, color)
		return locator.ColorLabel(color), selected, err
	})
	return err
}

// GoTo moves the session to view.
func (s *Sequencer) GoTo(ctx context.Context, view core.ViewName) error {
	return s.sess.Views.GoTo(ctx, view)
}
