// Package fake provides an in-memory notes application that implements
// core.Driver, for testing the engine without a browser.
//
// State changes triggered by clicks and key presses land asynchronously:
// they are applied after Config.Latency further observations (FindAll,
// FindOne, ReadyState), so callers that act before waiting see stale UI,
// the way they would against a real page.
package fake

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/locator"
)

// Errors returned for invalid handle use.
var (
	ErrStaleElement = errors.New("stale element reference")
	ErrClosed       = errors.New("session closed")
)

// Config configures fake driver behavior.
type Config struct {
	// Latency is the number of observations before a UI mutation lands. 0 = synchronous.
	Latency int
	// LoadPolls is the number of observations after Navigate that see a loading page.
	LoadPolls int
	// Notes are present when the page first loads.
	Notes []Note
	// HiddenAffordances are card affordance labels that are never rendered (e.g. "Archive").
	HiddenAffordances []string
	// FrozenViews ignore sidebar clicks that would navigate to them.
	FrozenViews []core.ViewName
}

// Driver is a fake implementation of core.Driver backed by a simulated notes app.
type Driver struct {
	mu     sync.Mutex
	cfg    Config
	app    *app
	doc    *Document
	hidden map[string]bool
	frozen map[core.ViewName]bool
	urls   []string
	closed bool
}

// New creates a new fake driver. The page is blank until Navigate is called.
func New(cfg Config) *Driver {
	d := &Driver{
		cfg:    cfg,
		app:    &app{},
		hidden: map[string]bool{},
		frozen: map[core.ViewName]bool{},
	}
	for _, n := range cfg.Notes {
		d.app.seed(n)
	}
	for _, h := range cfg.HiddenAffordances {
		d.hidden[h] = true
	}
	for _, v := range cfg.FrozenViews {
		d.frozen[v] = true
	}
	d.rerender()
	return d
}

var _ core.Driver = (*Driver)(nil)

type element struct{ key string }

func (e element) ID() string { return e.key }

// later schedules a mutation according to the configured latency.
// Callers hold d.mu.
func (d *Driver) later(fn func()) {
	if d.cfg.Latency <= 0 {
		fn()
		return
	}
	d.app.pending = append(d.app.pending, mutation{left: d.cfg.Latency, apply: fn})
}

func (d *Driver) async(fn func()) func() {
	return func() { d.later(fn) }
}

func (d *Driver) navigate(view core.ViewName) func() {
	return func() {
		d.app.navClicks++
		if d.frozen[view] {
			return
		}
		d.later(func() {
			d.app.view = view
			d.app.closePopups()
			d.app.editorFor = 0
			d.app.snack = nil
		})
	}
}

// observe accounts for one observation of the page. While the page is still
// loading the observation sees the blank document; the returned func renders
// the loaded page once the last loading observation is done.
func (d *Driver) observe() (after func()) {
	if d.app.loadLeft > 0 {
		d.app.loadLeft--
		return func() {
			if d.app.loadLeft == 0 {
				d.rerender()
			}
		}
	}
	d.tick()
	return func() {}
}

// tick advances pending mutations by one observation.
func (d *Driver) tick() {
	if len(d.app.pending) == 0 {
		return
	}
	var rest []mutation
	applied := false
	for _, m := range d.app.pending {
		m.left--
		if m.left <= 0 {
			m.apply()
			applied = true
			continue
		}
		rest = append(rest, m)
	}
	d.app.pending = rest
	if applied {
		d.rerender()
	}
}

func (d *Driver) rerender() {
	d.doc = d.app.render(d)
}

func (d *Driver) resolve(el core.ElementRef) (*Node, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if el == nil {
		return nil, fmt.Errorf("%w: nil element", ErrStaleElement)
	}
	n, ok := d.doc.lookup(el.ID())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStaleElement, el.ID())
	}
	return n, nil
}

// FindAll returns all matches of q.
func (d *Driver) FindAll(ctx context.Context, q locator.Query) ([]core.ElementRef, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	defer d.observe()()
	nodes := d.doc.Eval(q, nil)
	refs := make([]core.ElementRef, len(nodes))
	for i, n := range nodes {
		refs[i] = element{key: n.Key}
	}
	return refs, nil
}

// FindOne returns the first match of q inside scope.
func (d *Driver) FindOne(ctx context.Context, scope core.ElementRef, q locator.Query) (core.ElementRef, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, false, ErrClosed
	}
	defer d.observe()()
	var ctxNode *Node
	if scope != nil {
		n, err := d.resolve(scope)
		if err != nil {
			return nil, false, err
		}
		ctxNode = n
	}
	nodes := d.doc.Eval(q, ctxNode)
	if len(nodes) == 0 {
		return nil, false, nil
	}
	return element{key: nodes[0].Key}, true, nil
}

// Click invokes the click handler of el or its nearest ancestor.
func (d *Driver) Click(ctx context.Context, el core.ElementRef) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.resolve(el)
	if err != nil {
		return err
	}
	if !n.displayed() {
		return fmt.Errorf("element not interactable: %s", n.Key)
	}
	if fn := n.clickTarget(); fn != nil {
		fn()
		d.rerender()
	}
	return nil
}

// Type delivers text to an editable element, splitting out key code points.
func (d *Driver) Type(ctx context.Context, el core.ElementRef, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.resolve(el)
	if err != nil {
		return err
	}
	if n.onInput == nil && n.onKey == nil {
		return fmt.Errorf("element not editable: %s", n.Key)
	}
	for _, tok := range core.SplitKeys(text) {
		switch tok {
		case core.KeyEnter, core.KeyEscape:
			if n.onKey != nil {
				n.onKey(tok)
			}
		default:
			if n.onInput != nil {
				n.onInput(tok)
			}
		}
	}
	d.rerender()
	return nil
}

// Clear empties an editable element.
func (d *Driver) Clear(ctx context.Context, el core.ElementRef) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.resolve(el)
	if err != nil {
		return err
	}
	if n.onClear == nil {
		return fmt.Errorf("element not editable: %s", n.Key)
	}
	n.onClear()
	d.rerender()
	return nil
}

// Attribute returns an attribute value.
func (d *Driver) Attribute(ctx context.Context, el core.ElementRef, name string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.resolve(el)
	if err != nil {
		return "", false, err
	}
	v, ok := n.Attrs[name]
	return v, ok, nil
}

// Text returns the string value of el.
func (d *Driver) Text(ctx context.Context, el core.ElementRef) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.resolve(el)
	if err != nil {
		return "", err
	}
	return stringValue(n), nil
}

// Displayed reports whether el and its ancestors are visible.
func (d *Driver) Displayed(ctx context.Context, el core.ElementRef) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.resolve(el)
	if err != nil {
		return false, err
	}
	return n.displayed(), nil
}

// ReadyState reports "loading" for the first Config.LoadPolls observations after Navigate.
func (d *Driver) ReadyState(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return "", ErrClosed
	}
	if !d.app.loaded {
		return "uninitialized", nil
	}
	loading := d.app.loadLeft > 0
	d.observe()()
	if loading {
		return "loading", nil
	}
	return "complete", nil
}

// Navigate (re)loads the application in the main view.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	d.urls = append(d.urls, url)
	a := d.app
	a.loaded = true
	a.loadLeft = d.cfg.LoadPolls
	a.view = core.ViewMain
	a.composer = nil
	a.closePopups()
	a.editorFor = 0
	a.snack = nil
	a.search, a.typed = "", ""
	a.pending = nil
	d.rerender()
	return nil
}

// Screenshot returns a minimal PNG.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	// 1x1 transparent pixel
	return []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // PNG signature
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52, // IHDR chunk
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
		0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
		0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
		0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
		0x42, 0x60, 0x82,
	}, nil
}

// Close ends the session. Every later call fails with ErrClosed.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Inspection helpers for tests.

// Notes returns a snapshot of all notes that are not deleted.
func (d *Driver) Notes() []Note {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []Note
	for _, n := range d.app.notes {
		if !n.deleted {
			cp := n.Note
			cp.Items = append([]string(nil), n.Items...)
			cp.Labels = append([]string(nil), n.Labels...)
			out = append(out, cp)
		}
	}
	return out
}

// View returns the view the simulated app is rendering.
func (d *Driver) View() core.ViewName {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.app.view
}

// Navigations returns how many sidebar navigation clicks were made.
func (d *Driver) Navigations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.app.navClicks
}

// URLs returns every URL passed to Navigate.
func (d *Driver) URLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}

// Pending returns the number of mutations that have not landed yet.
func (d *Driver) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.app.pending)
}

// Settle finishes loading and applies every pending mutation immediately.
func (d *Driver) Settle() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.app.loadLeft > 0 {
		d.app.loadLeft = 0
		d.rerender()
	}
	for len(d.app.pending) > 0 {
		d.tick()
	}
}

// Dump renders the current document, for test failure messages.
func (d *Driver) Dump() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Dump()
}
