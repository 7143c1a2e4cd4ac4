package component

import (
	"context"

	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/locator"
)

// NoteCard is a handle to one located note card and the view it was found in.
// It is only valid until the list re-renders; re-resolve after any action
// that can remove or rebuild the card.
type NoteCard struct {
	Scoped
	query locator.Query
	view  core.ViewName
}

// NewNoteCard wraps a card root found by query in view.
func NewNoteCard(drv core.Driver, root core.ElementRef, query locator.Query, view core.ViewName, timeouts core.Timeouts) *NoteCard {
	return &NoteCard{
		Scoped: NewScoped(drv, root, timeouts),
		query:  query,
		view:   view,
	}
}

// Query returns the query the card was resolved with.
func (c *NoteCard) Query() locator.Query { return c.query }

// View returns the view the card was found in.
func (c *NoteCard) View() core.ViewName { return c.view }

// Pin clicks the pin affordance.
func (c *NoteCard) Pin(ctx context.Context) error {
	return c.Click(ctx, locator.PinButton())
}

// Unpin clicks the unpin affordance of a pinned card.
func (c *NoteCard) Unpin(ctx context.Context) error {
	return c.Click(ctx, locator.UnpinButton())
}

// Archive clicks the archive affordance.
func (c *NoteCard) Archive(ctx context.Context) error {
	return c.Click(ctx, locator.ArchiveButton())
}

// OpenMenu opens the card's overflow menu.
func (c *NoteCard) OpenMenu(ctx context.Context) error {
	return c.Click(ctx, locator.MoreButton())
}

// DeleteViaMenu opens the overflow menu and picks "Delete note".
func (c *NoteCard) DeleteViaMenu(ctx context.Context) error {
	if err := c.OpenMenu(ctx); err != nil {
		return err
	}
	return c.ClickGlobal(ctx, locator.MenuDelete())
}

// ChangeColor opens the background palette and picks the named color.
// "default" selects the default color; other names are capitalised.
func (c *NoteCard) ChangeColor(ctx context.Context, name string) error {
	if err := c.OpenPalette(ctx); err != nil {
		return err
	}
	return c.Click(ctx, locator.ColorOption(locator.ColorLabel(name)))
}

// OpenPalette shows the background palette. The palette button toggles, so
// it is only clicked while the palette is closed.
func (c *NoteCard) OpenPalette(ctx context.Context) error {
	_, open, err := c.drv.FindOne(ctx, c.root, locator.ColorOption(locator.ColorLabel("default")))
	if err != nil {
		return core.DriverFailure("find palette", err)
	}
	if open {
		return nil
	}
	return c.Click(ctx, locator.BackgroundOptions())
}

// AddLabel opens the label picker from the overflow menu, enters label and
// closes the picker.
func (c *NoteCard) AddLabel(ctx context.Context, label string) error {
	if err := c.OpenMenu(ctx); err != nil {
		return err
	}
	if err := c.ClickGlobal(ctx, locator.MenuAddLabel()); err != nil {
		return err
	}
	input, err := c.FindGlobal(ctx, locator.LabelInput())
	if err != nil {
		return err
	}
	if err := c.drv.Clear(ctx, input); err != nil {
		return core.DriverFailure("clear label input", err)
	}
	if err := c.drv.Type(ctx, input, label+core.KeyEnter); err != nil {
		return core.DriverFailure("type label", err)
	}
	if err := c.drv.Type(ctx, input, core.KeyEscape); err != nil {
		return core.DriverFailure("close label picker", err)
	}
	return nil
}

// Open clicks the card body, which opens the editor dialog.
func (c *NoteCard) Open(ctx context.Context) error {
	return c.click(ctx, c.root, c.query.String())
}

// PinState reads the pressed state of the card's unpin affordance.
// A card with no unpin affordance is not pinned.
func (c *NoteCard) PinState(ctx context.Context) (bool, error) {
	el, ok, err := c.drv.FindOne(ctx, c.root, locator.UnpinButton())
	if err != nil {
		return false, core.DriverFailure("find unpin", err)
	}
	if !ok {
		return false, nil
	}
	pressed, _, err := c.drv.Attribute(ctx, el, "aria-pressed")
	if err != nil {
		return false, core.DriverFailure("read aria-pressed", err)
	}
	return pressed == "true", nil
}

// HasLabel reports whether a displayed label chip reads label.
func (c *NoteCard) HasLabel(ctx context.Context, label string) (bool, error) {
	el, ok, err := c.drv.FindOne(ctx, c.root, locator.LabelChip(label))
	if err != nil {
		return false, core.DriverFailure("find label chip", err)
	}
	if !ok {
		return false, nil
	}
	shown, err := c.drv.Displayed(ctx, el)
	if err != nil {
		return false, core.DriverFailure("label chip displayed", err)
	}
	return shown, nil
}

// HasChecklistItems reports whether every item is present, in any order.
func (c *NoteCard) HasChecklistItems(ctx context.Context, items []string) (bool, error) {
	for _, item := range items {
		ok, err := c.Has(ctx, locator.ChecklistItem(item))
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// ColorSelected reports whether the palette shows the named color as checked.
// The palette must be open.
func (c *NoteCard) ColorSelected(ctx context.Context, name string) (bool, error) {
	el, ok, err := c.drv.FindOne(ctx, c.root, locator.ColorOption(locator.ColorLabel(name)))
	if err != nil {
		return false, core.DriverFailure("find color option", err)
	}
	if !ok {
		return false, nil
	}
	checked, _, err := c.drv.Attribute(ctx, el, "aria-checked")
	if err != nil {
		return false, core.DriverFailure("read aria-checked", err)
	}
	return checked == "true", nil
}
