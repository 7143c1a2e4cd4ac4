package sequencer

import (
	"context"

	"github.com/devicelab-dev/keep-runner/pkg/wait"
)

// NoteCount returns the number of cards in the current view.
func (s *Sequencer) NoteCount(ctx context.Context) (int, error) {
	return s.rec.Count(ctx)
}

// IsNoteSaved reports whether the card count grows past previousCount within
// the absence timeout. false is a bounded negative: no new card showed up.
func (s *Sequencer) IsNoteSaved(ctx context.Context, previousCount int) (bool, error) {
	return wait.Eventually(ctx, s.sess.Spec("note saved", s.sess.Timeouts.Absence), func(ctx context.Context) (bool, error) {
		n, err := s.rec.Count(ctx)
		return n > previousCount, err
	})
}

// IsNotePresent reports whether a card matching title shows in the current view.
func (s *Sequencer) IsNotePresent(ctx context.Context, title string) (bool, error) {
	return s.rec.IsPresent(ctx, title)
}

// IsNotPresent is the bounded absence check for title.
func (s *Sequencer) IsNotPresent(ctx context.Context, title string) (bool, error) {
	return s.rec.IsAbsent(ctx, title)
}

// IsPinned reports whether the note reads as pinned.
func (s *Sequencer) IsPinned(ctx context.Context, title string) (bool, error) {
	return s.rec.IsPinned(ctx, title)
}

// IsArchived reports whether the note is in the archive, leaving the session
// in the view it started in.
func (s *Sequencer) IsArchived(ctx context.Context, title string) (bool, error) {
	return s.rec.IsArchived(ctx, title)
}

// IsLabelAttached reports whether the note shows a chip for label.
func (s *Sequencer) IsLabelAttached(ctx context.Context, title, label string) (bool, error) {
	card, err := s.rec.Locate(ctx, title)
	if err != nil {
		return false, err
	}
	return card.HasLabel(ctx, label)
}

// IsChecklistPresent reports whether the note holds every item. Order is ignored.
func (s *Sequencer) IsChecklistPresent(ctx context.Context, title string, items []string) (bool, error) {
	card, err := s.rec.Locate(ctx, title)
	if err != nil {
		return false, err
	}
	return card.HasChecklistItems(ctx, items)
}

// IsColor reports whether the note's palette shows color as selected.
// It opens the palette to read it unless the palette is already open.
func (s *Sequencer) IsColor(ctx context.Context, title, color string) (bool, error) {
	card, err := s.rec.Locate(ctx, title)
	if err != nil {
		return false, err
	}
	if err := card.OpenPalette(ctx); err != nil {
		return false, err
	}
	return wait.Eventually(ctx, s.sess.Spec("color "+color, s.sess.Timeouts.Affordance), func(ctx context.Context) (bool, error) {
		return card.ColorSelected(ctx, color)
	})
}
