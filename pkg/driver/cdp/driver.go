// Package cdp implements core.Driver on the Chrome DevTools Protocol using go-rod.
package cdp

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/locator"
	"github.com/devicelab-dev/keep-runner/pkg/logger"
)

// Options configures the launched browser.
type Options struct {
	// ControlURL attaches to a running browser instead of launching one.
	ControlURL  string
	Headless    bool
	Binary      string
	UserDataDir string
	Args        []string
}

// Driver drives a single page over CDP.
type Driver struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	mu       sync.Mutex
	elements handles
}

type element string

func (e element) ID() string { return string(e) }

var _ core.Driver = (*Driver)(nil)

// New launches (or attaches to) a browser and opens a blank page.
func New(ctx context.Context, opts Options) (*Driver, error) {
	d := &Driver{}

	controlURL := opts.ControlURL
	if controlURL == "" {
		d.launcher = newLauncher(opts).Context(ctx)
		u, err := d.launcher.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = u
	}

	d.browser = rod.New().ControlURL(controlURL).Context(ctx)
	if err := d.browser.Connect(); err != nil {
		d.cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	// Detach from the launch context so later calls use their own.
	d.browser = d.browser.Context(context.Background())

	page, err := d.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		d.cleanup()
		return nil, fmt.Errorf("open page: %w", err)
	}
	d.page = page
	logger.Info("cdp browser connected at %s", controlURL)
	return d, nil
}

func newLauncher(opts Options) *launcher.Launcher {
	l := launcher.New().Headless(opts.Headless)
	if opts.Binary != "" {
		l = l.Bin(opts.Binary)
	}
	if opts.UserDataDir != "" {
		l = l.UserDataDir(opts.UserDataDir)
	}
	for _, arg := range opts.Args {
		name, value := splitFlag(arg)
		if value == "" {
			l = l.Set(name)
		} else {
			l = l.Set(name, value)
		}
	}
	return l
}

// splitFlag turns "--window-size=1280,800" into ("window-size", "1280,800").
func splitFlag(arg string) (flags.Flag, string) {
	for len(arg) > 0 && arg[0] == '-' {
		arg = arg[1:]
	}
	for i := 0; i < len(arg); i++ {
		if arg[i] == '=' {
			return flags.Flag(arg[:i]), arg[i+1:]
		}
	}
	return flags.Flag(arg), ""
}

func (d *Driver) cleanup() {
	if d.launcher != nil {
		d.launcher.Kill()
		d.launcher.Cleanup()
	}
}

func (d *Driver) remember(ctx context.Context, els rod.Elements) []core.ElementRef {
	refs := make([]core.ElementRef, len(els))
	var stale []*rod.Element
	d.mu.Lock()
	for i, el := range els {
		id, evicted := d.elements.add(el)
		stale = append(stale, evicted...)
		refs[i] = element(id)
	}
	d.mu.Unlock()
	d.release(ctx, stale)
	return refs
}

func (d *Driver) release(ctx context.Context, els []*rod.Element) {
	for _, el := range els {
		err := proto.RuntimeReleaseObject{ObjectID: el.Object.ObjectID}.Call(d.page.Context(ctx))
		if err != nil {
			logger.Debug("release element %s: %v", el.Object.ObjectID, err)
		}
	}
}

func (d *Driver) lookup(ctx context.Context, ref core.ElementRef) (*rod.Element, error) {
	if ref == nil {
		return nil, fmt.Errorf("nil element")
	}
	d.mu.Lock()
	el, ok := d.elements.get(ref.ID())
	d.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown element %s", ref.ID())
	}
	return el.Context(ctx), nil
}

// FindAll returns every match of q in the page.
func (d *Driver) FindAll(ctx context.Context, q locator.Query) ([]core.ElementRef, error) {
	els, err := d.page.Context(ctx).ElementsX(q.XPath())
	if err != nil {
		return nil, err
	}
	return d.remember(ctx, els), nil
}

// FindOne returns the first match of q inside scope.
func (d *Driver) FindOne(ctx context.Context, scope core.ElementRef, q locator.Query) (core.ElementRef, bool, error) {
	var (
		els rod.Elements
		err error
	)
	if scope == nil {
		els, err = d.page.Context(ctx).ElementsX(q.XPath())
	} else {
		var root *rod.Element
		if root, err = d.lookup(ctx, scope); err != nil {
			return nil, false, err
		}
		els, err = root.ElementsX(q.XPath())
	}
	if err != nil {
		return nil, false, err
	}
	if len(els) == 0 {
		return nil, false, nil
	}
	return d.remember(ctx, els[:1])[0], true, nil
}

// Click clicks an element with the left mouse button.
// rod scrolls the element into view and waits until it is interactable, bounded by ctx.
func (d *Driver) Click(ctx context.Context, ref core.ElementRef) error {
	el, err := d.lookup(ctx, ref)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// Type inserts text and presses embedded key code points.
func (d *Driver) Type(ctx context.Context, ref core.ElementRef, text string) error {
	el, err := d.lookup(ctx, ref)
	if err != nil {
		return err
	}
	for _, tok := range core.SplitKeys(text) {
		switch tok {
		case core.KeyEnter:
			err = el.Type(input.Enter)
		case core.KeyEscape:
			err = el.Type(input.Escape)
		default:
			err = el.Input(tok)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Clear selects the element's text and replaces it with nothing.
func (d *Driver) Clear(ctx context.Context, ref core.ElementRef) error {
	el, err := d.lookup(ctx, ref)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input("")
}

// Attribute returns an attribute value and whether it is present.
func (d *Driver) Attribute(ctx context.Context, ref core.ElementRef, name string) (string, bool, error) {
	el, err := d.lookup(ctx, ref)
	if err != nil {
		return "", false, err
	}
	v, err := el.Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

// Text returns the element's rendered text.
func (d *Driver) Text(ctx context.Context, ref core.ElementRef) (string, error) {
	el, err := d.lookup(ctx, ref)
	if err != nil {
		return "", err
	}
	return el.Text()
}

// Displayed reports whether the element is visible.
func (d *Driver) Displayed(ctx context.Context, ref core.ElementRef) (bool, error) {
	el, err := d.lookup(ctx, ref)
	if err != nil {
		return false, err
	}
	return el.Visible()
}

// ReadyState returns document.readyState.
func (d *Driver) ReadyState(ctx context.Context) (string, error) {
	obj, err := d.page.Context(ctx).Eval(`() => document.readyState`)
	if err != nil {
		return "", err
	}
	return obj.Value.Str(), nil
}

// Navigate loads url and drops handles from the previous document.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	d.elements.reset()
	d.mu.Unlock()
	return d.page.Context(ctx).Navigate(url)
}

// Screenshot captures the viewport as PNG.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	return d.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// Close closes the browser and removes a launched browser's profile.
func (d *Driver) Close() error {
	var err error
	if d.browser != nil {
		err = d.browser.Close()
	}
	d.cleanup()
	return err
}
