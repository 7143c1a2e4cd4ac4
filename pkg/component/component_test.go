package component

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/driver/fake"
	"github.com/devicelab-dev/keep-runner/pkg/locator"
)

var timeouts = core.Timeouts{Affordance: 100 * time.Millisecond, PollInterval: time.Millisecond}

func setup(t *testing.T, cfg fake.Config) *fake.Driver {
	t.Helper()
	d := fake.New(cfg)
	require.NoError(t, d.Navigate(context.Background(), "https://keep.test/"))
	d.Settle()
	return d
}

func card(t *testing.T, d *fake.Driver, title string) *NoteCard {
	t.Helper()
	q := locator.NoteCard(title)
	root, ok, err := d.FindOne(context.Background(), nil, q)
	require.NoError(t, err)
	require.True(t, ok, "card %q not rendered:\n%s", title, d.Dump())
	return NewNoteCard(d, root, q, core.ViewMain, timeouts)
}

func TestNoteCard_PinDoesNotWaitForEffect(t *testing.T) {
	ctx := context.Background()
	d := setup(t, fake.Config{Latency: 3, Notes: []fake.Note{{Title: "A"}}})
	c := card(t, d, "A")

	require.NoError(t, c.Pin(ctx))
	assert.Equal(t, 1, d.Pending(), "the pin lands later; the component returns immediately")

	d.Settle()
	pinned, err := c.PinState(ctx)
	require.NoError(t, err)
	assert.True(t, pinned)

	require.NoError(t, c.Unpin(ctx))
	d.Settle()
	pinned, err = c.PinState(ctx)
	require.NoError(t, err)
	assert.False(t, pinned)
}

func TestNoteCard_AffordanceNotFound(t *testing.T) {
	d := setup(t, fake.Config{Notes: []fake.Note{{Title: "A"}}, HiddenAffordances: []string{"Archive"}})
	c := card(t, d, "A")

	err := c.Archive(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrAffordanceNotFound))

	var execErr *core.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "archive", execErr.Detail(core.DetailAffordance))
	assert.Equal(t, core.StatusFailed, core.StatusFor(err))
}

func TestNoteCard_StaleHandleIsNotRetried(t *testing.T) {
	ctx := context.Background()
	d := setup(t, fake.Config{Notes: []fake.Note{{Title: "A"}}})
	c := card(t, d, "A")

	require.NoError(t, c.DeleteViaMenu(ctx))
	d.Settle()

	err := c.Pin(ctx)
	assert.True(t, errors.Is(err, core.ErrAffordanceNotFound))
	assert.True(t, errors.Is(err, fake.ErrStaleElement))
}

func TestNoteCard_DeleteViaMenu(t *testing.T) {
	ctx := context.Background()
	d := setup(t, fake.Config{Latency: 2, Notes: []fake.Note{{Title: "A"}, {Title: "B"}}})

	require.NoError(t, card(t, d, "A").DeleteViaMenu(ctx))
	d.Settle()
	notes := d.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "B", notes[0].Title)
}

func TestNoteCard_ChangeColor(t *testing.T) {
	ctx := context.Background()
	d := setup(t, fake.Config{Latency: 2, Notes: []fake.Note{{Title: "Color Note"}}})
	c := card(t, d, "Color Note")

	require.NoError(t, c.ChangeColor(ctx, "coral"))
	d.Settle()
	ok, err := c.ColorSelected(ctx, "coral")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.ChangeColor(ctx, "default"))
	d.Settle()
	assert.Equal(t, "Default color", d.Notes()[0].Color)
}

func TestNoteCard_AddLabel(t *testing.T) {
	ctx := context.Background()
	d := setup(t, fake.Config{Latency: 1, Notes: []fake.Note{{Title: "A"}}})
	c := card(t, d, "A")

	require.NoError(t, c.AddLabel(ctx, "Work"))
	d.Settle()
	ok, err := c.HasLabel(ctx, "Work")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.HasLabel(ctx, "Home")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNoteCard_HasChecklistItems(t *testing.T) {
	ctx := context.Background()
	d := setup(t, fake.Config{Notes: []fake.Note{{Title: "List", Items: []string{"Milk", "Eggs", "Bread"}}}})
	c := card(t, d, "List")

	ok, err := c.HasChecklistItems(ctx, []string{"Bread", "Milk"})
	require.NoError(t, err)
	assert.True(t, ok, "order is ignored")

	ok, err = c.HasChecklistItems(ctx, []string{"Milk", "Butter"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestComposer_CreateChecklist(t *testing.T) {
	ctx := context.Background()
	d := setup(t, fake.Config{Latency: 2})
	c := NewComposer(d, timeouts)

	require.NoError(t, c.Open(ctx))
	require.NoError(t, c.ListMode(ctx))
	require.NoError(t, c.SetTitle(ctx, "Groceries"))
	require.NoError(t, c.AddItem(ctx, "Milk"))
	require.NoError(t, c.AddItem(ctx, "Eggs"))
	require.NoError(t, c.Close(ctx))
	d.Settle()

	notes := d.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "Groceries", notes[0].Title)
	assert.Equal(t, []string{"Milk", "Eggs"}, notes[0].Items)
}

func TestEditor_ReplaceTitle(t *testing.T) {
	ctx := context.Background()
	d := setup(t, fake.Config{Latency: 2, Notes: []fake.Note{{Title: "Old"}}})

	require.NoError(t, card(t, d, "Old").Open(ctx))
	e := NewEditor(d, timeouts)
	require.NoError(t, e.ReplaceTitle(ctx, "Old", "New"))
	require.NoError(t, e.Close(ctx))
	d.Settle()

	assert.Equal(t, "New", d.Notes()[0].Title)
}
