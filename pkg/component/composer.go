package component

import (
	"context"

	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/locator"
)

// Composer is the "Take a note" area of the main view.
type Composer struct {
	Scoped
}

// NewComposer binds the composer to drv.
func NewComposer(drv core.Driver, timeouts core.Timeouts) *Composer {
	return &Composer{Scoped: NewScoped(drv, nil, timeouts)}
}

// Open expands the composer.
func (c *Composer) Open(ctx context.Context) error {
	return c.Click(ctx, locator.NewNoteInput())
}

// ListMode switches the composer to a checklist.
func (c *Composer) ListMode(ctx context.Context) error {
	return c.Click(ctx, locator.NewListToggle())
}

// SetTitle types into the title field.
func (c *Composer) SetTitle(ctx context.Context, title string) error {
	_, err := c.TypeInto(ctx, locator.ComposerTitle(), title)
	return err
}

// SetBody types into the body field.
func (c *Composer) SetBody(ctx context.Context, body string) error {
	_, err := c.TypeInto(ctx, locator.ComposerBody(), body)
	return err
}

// AddItem types one checklist item and commits it with Enter.
func (c *Composer) AddItem(ctx context.Context, item string) error {
	_, err := c.TypeInto(ctx, locator.ListItemInput(), item+core.KeyEnter)
	return err
}

// Close saves the note by closing the composer.
func (c *Composer) Close(ctx context.Context) error {
	return c.Click(ctx, locator.ComposerClose())
}

// Editor is the dialog a card opens into.
type Editor struct {
	Scoped
}

// NewEditor binds the editor dialog to drv.
func NewEditor(drv core.Driver, timeouts core.Timeouts) *Editor {
	return &Editor{Scoped: NewScoped(drv, nil, timeouts)}
}

// ReplaceTitle clears the title field currently reading current and types title.
func (e *Editor) ReplaceTitle(ctx context.Context, current, title string) error {
	field, err := e.Find(ctx, locator.EditorTitle(current))
	if err != nil {
		return err
	}
	if err := e.drv.Clear(ctx, field); err != nil {
		return core.DriverFailure("clear editor title", err)
	}
	if err := e.drv.Type(ctx, field, title); err != nil {
		return core.DriverFailure("type editor title", err)
	}
	return nil
}

// Close closes the editor, saving its changes.
func (e *Editor) Close(ctx context.Context) error {
	return e.Click(ctx, locator.EditorClose())
}
