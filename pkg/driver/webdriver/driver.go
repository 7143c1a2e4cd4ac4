package webdriver

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/locator"
	"github.com/devicelab-dev/keep-runner/pkg/logger"
)

// Options configures the browser session.
type Options struct {
	ServerURL string
	Browser   string // chrome (default) or firefox
	Headless  bool
	Binary    string
	Args      []string
}

// Capabilities builds W3C capabilities for opts.
func (o Options) Capabilities() map[string]interface{} {
	browser := o.Browser
	if browser == "" {
		browser = "chrome"
	}
	args := append([]string(nil), o.Args...)
	if o.Headless {
		if browser == "firefox" {
			args = append(args, "-headless")
		} else {
			args = append(args, "--headless=new")
		}
	}

	caps := map[string]interface{}{
		"browserName":      browser,
		"pageLoadStrategy": "normal",
	}
	browserOpts := map[string]interface{}{}
	if len(args) > 0 {
		browserOpts["args"] = args
	}
	if o.Binary != "" {
		browserOpts["binary"] = o.Binary
	}
	if len(browserOpts) > 0 {
		if browser == "firefox" {
			caps["moz:firefoxOptions"] = browserOpts
		} else {
			caps["goog:chromeOptions"] = browserOpts
		}
	}
	return caps
}

// Driver implements core.Driver over the WebDriver HTTP protocol.
type Driver struct {
	client *Client
}

type element string

func (e element) ID() string { return string(e) }

// New starts a WebDriver session.
func New(ctx context.Context, opts Options) (*Driver, error) {
	client := NewClient(opts.ServerURL)
	if err := client.Connect(ctx, opts.Capabilities()); err != nil {
		return nil, err
	}
	logger.Info("webdriver session %s started on %s", client.SessionID(), opts.ServerURL)
	return &Driver{client: client}, nil
}

// NewWithClient wraps an already connected client.
func NewWithClient(client *Client) *Driver {
	return &Driver{client: client}
}

var _ core.Driver = (*Driver)(nil)

func id(el core.ElementRef) (string, error) {
	if el == nil {
		return "", fmt.Errorf("nil element")
	}
	return el.ID(), nil
}

// FindAll returns all matches of q in the document.
func (d *Driver) FindAll(ctx context.Context, q locator.Query) ([]core.ElementRef, error) {
	ids, err := d.client.FindElements(ctx, "", q.XPath())
	if err != nil {
		return nil, err
	}
	refs := make([]core.ElementRef, len(ids))
	for i, v := range ids {
		refs[i] = element(v)
	}
	return refs, nil
}

// FindOne returns the first match of q inside scope.
func (d *Driver) FindOne(ctx context.Context, scope core.ElementRef, q locator.Query) (core.ElementRef, bool, error) {
	from := ""
	if scope != nil {
		from = scope.ID()
	}
	ids, err := d.client.FindElements(ctx, from, q.XPath())
	if err != nil {
		return nil, false, err
	}
	if len(ids) == 0 {
		return nil, false, nil
	}
	return element(ids[0]), true, nil
}

// Click clicks an element.
func (d *Driver) Click(ctx context.Context, el core.ElementRef) error {
	eid, err := id(el)
	if err != nil {
		return err
	}
	return d.client.ClickElement(ctx, eid)
}

// Type sends text to an element.
func (d *Driver) Type(ctx context.Context, el core.ElementRef, text string) error {
	eid, err := id(el)
	if err != nil {
		return err
	}
	return d.client.SendKeys(ctx, eid, text)
}

// Clear empties an editable element.
func (d *Driver) Clear(ctx context.Context, el core.ElementRef) error {
	eid, err := id(el)
	if err != nil {
		return err
	}
	return d.client.ClearElement(ctx, eid)
}

// Attribute returns an attribute value.
func (d *Driver) Attribute(ctx context.Context, el core.ElementRef, name string) (string, bool, error) {
	eid, err := id(el)
	if err != nil {
		return "", false, err
	}
	return d.client.GetElementAttribute(ctx, eid, name)
}

// Text returns an element's rendered text.
func (d *Driver) Text(ctx context.Context, el core.ElementRef) (string, error) {
	eid, err := id(el)
	if err != nil {
		return "", err
	}
	return d.client.GetElementText(ctx, eid)
}

// Displayed reports whether an element is visible.
func (d *Driver) Displayed(ctx context.Context, el core.ElementRef) (bool, error) {
	eid, err := id(el)
	if err != nil {
		return false, err
	}
	return d.client.IsElementDisplayed(ctx, eid)
}

// ReadyState returns document.readyState.
func (d *Driver) ReadyState(ctx context.Context) (string, error) {
	v, err := d.client.ExecuteScript(ctx, "return document.readyState")
	if err != nil {
		return "", err
	}
	state, _ := v.(string)
	return state, nil
}

// Navigate loads url.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	return d.client.OpenURL(ctx, url)
}

// Screenshot captures the viewport as PNG.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	return d.client.Screenshot(ctx)
}

// Close ends the session.
func (d *Driver) Close() error {
	return d.client.Disconnect(context.Background())
}
