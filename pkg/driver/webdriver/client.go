// Package webdriver implements core.Driver against a W3C WebDriver server
// (chromedriver, geckodriver, Selenium Grid).
package webdriver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// W3C WebDriver element identifier key (standard constant)
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// Error is a W3C WebDriver error response.
type Error struct {
	Code    string // e.g. "no such element", "stale element reference"
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// IsStale reports whether err is a stale element reference error.
func IsStale(err error) bool {
	we, ok := err.(*Error)
	return ok && we.Code == "stale element reference"
}

// Client handles HTTP communication with a WebDriver server.
type Client struct {
	serverURL string
	sessionID string
	client    *http.Client
}

// NewClient creates a new WebDriver client.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		client: &http.Client{
			Timeout: 2 * time.Minute, // session creation launches the browser
		},
	}
}

// Connect creates a new session with the given capabilities.
func (c *Client) Connect(ctx context.Context, capabilities map[string]interface{}) error {
	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": capabilities,
		},
	}

	resp, err := c.post(ctx, "/session", body)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("invalid session response")
	}
	c.sessionID, _ = value["sessionId"].(string)
	if c.sessionID == "" {
		return fmt.Errorf("no session ID in response")
	}

	// Waiting is done by the caller's polls; an implicit wait would stretch every probe.
	return c.SetImplicitWait(ctx, 0)
}

// Disconnect closes the session.
func (c *Client) Disconnect(ctx context.Context) error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.delete(ctx, c.sessionPath())
	c.sessionID = ""
	return err
}

// SessionID returns the current session id, empty when disconnected.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Element Operations

// FindElements finds every element matching an XPath expression.
// A non-empty from scopes the search to that element.
func (c *Client) FindElements(ctx context.Context, from, xpath string) ([]string, error) {
	body := map[string]interface{}{
		"using": "xpath",
		"value": xpath,
	}

	path := c.sessionPath() + "/elements"
	if from != "" {
		path = c.elementPath(from) + "/elements"
	}
	resp, err := c.post(ctx, path, body)
	if err != nil {
		return nil, err
	}

	values, ok := resp["value"].([]interface{})
	if !ok {
		return nil, nil
	}

	var ids []string
	for _, v := range values {
		if elem, ok := v.(map[string]interface{}); ok {
			if id := extractElementID(elem); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// ClickElement clicks an element.
func (c *Client) ClickElement(ctx context.Context, elementID string) error {
	_, err := c.post(ctx, c.elementPath(elementID)+"/click", map[string]interface{}{})
	return err
}

// ClearElement clears an element's text.
func (c *Client) ClearElement(ctx context.Context, elementID string) error {
	_, err := c.post(ctx, c.elementPath(elementID)+"/clear", map[string]interface{}{})
	return err
}

// SendKeys types text into an element. Key code points are passed through.
func (c *Client) SendKeys(ctx context.Context, elementID, text string) error {
	_, err := c.post(ctx, c.elementPath(elementID)+"/value", map[string]interface{}{
		"text": text,
	})
	return err
}

// GetElementText returns an element's rendered text.
func (c *Client) GetElementText(ctx context.Context, elementID string) (string, error) {
	resp, err := c.get(ctx, c.elementPath(elementID)+"/text")
	if err != nil {
		return "", err
	}
	text, _ := resp["value"].(string)
	return text, nil
}

// GetElementAttribute returns an attribute value. A null value means the
// attribute is not present.
func (c *Client) GetElementAttribute(ctx context.Context, elementID, name string) (string, bool, error) {
	resp, err := c.get(ctx, c.elementPath(elementID)+"/attribute/"+name)
	if err != nil {
		return "", false, err
	}
	value, ok := resp["value"].(string)
	return value, ok, nil
}

// IsElementDisplayed checks if element is visible.
func (c *Client) IsElementDisplayed(ctx context.Context, elementID string) (bool, error) {
	resp, err := c.get(ctx, c.elementPath(elementID)+"/displayed")
	if err != nil {
		return false, err
	}
	displayed, _ := resp["value"].(bool)
	return displayed, nil
}

// Document Operations

// ExecuteScript runs a synchronous script and returns its result.
func (c *Client) ExecuteScript(ctx context.Context, script string, args ...interface{}) (interface{}, error) {
	if args == nil {
		args = []interface{}{}
	}
	resp, err := c.post(ctx, c.sessionPath()+"/execute/sync", map[string]interface{}{
		"script": script,
		"args":   args,
	})
	if err != nil {
		return nil, err
	}
	return resp["value"], nil
}

// OpenURL navigates the current window.
func (c *Client) OpenURL(ctx context.Context, url string) error {
	_, err := c.post(ctx, c.sessionPath()+"/url", map[string]interface{}{
		"url": url,
	})
	return err
}

// Screenshot returns a screenshot as PNG bytes.
func (c *Client) Screenshot(ctx context.Context) ([]byte, error) {
	resp, err := c.get(ctx, c.sessionPath()+"/screenshot")
	if err != nil {
		return nil, err
	}
	encoded, ok := resp["value"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid screenshot response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// SetImplicitWait sets the implicit wait timeout.
func (c *Client) SetImplicitWait(ctx context.Context, timeout time.Duration) error {
	_, err := c.post(ctx, c.sessionPath()+"/timeouts", map[string]interface{}{
		"implicit": timeout.Milliseconds(),
	})
	return err
}

// HTTP Helpers

func (c *Client) sessionPath() string {
	return "/session/" + c.sessionID
}

func (c *Client) elementPath(elementID string) string {
	return c.sessionPath() + "/element/" + elementID
}

func (c *Client) get(ctx context.Context, path string) (map[string]interface{}, error) {
	return c.request(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (map[string]interface{}, error) {
	return c.request(ctx, http.MethodPost, path, body)
}

func (c *Client) delete(ctx context.Context, path string) (map[string]interface{}, error) {
	return c.request(ctx, http.MethodDelete, path, nil)
}

func (c *Client) request(ctx context.Context, method, path string, body interface{}) (map[string]interface{}, error) {
	url := c.serverURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response (HTTP %d): %w", resp.StatusCode, err)
	}

	// Check for WebDriver error
	if errValue, ok := result["value"].(map[string]interface{}); ok {
		if errType, ok := errValue["error"].(string); ok {
			msg, _ := errValue["message"].(string)
			return result, &Error{Code: errType, Message: msg}
		}
	}

	return result, nil
}

func extractElementID(value map[string]interface{}) string {
	// W3C format
	if id, ok := value[w3cElementKey].(string); ok {
		return id
	}
	// Legacy format
	if id, ok := value["ELEMENT"].(string); ok {
		return id
	}
	return ""
}
