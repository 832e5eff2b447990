// Package remote provides the HTTP client for the shared clipboard store.
// The store holds a single text value behind GET and POST on /api/clipboard.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thruflo/clipsync/internal/logging"
	"github.com/thruflo/clipsync/internal/syncerr"
)

const (
	// ClipboardPath is the single resource exposed by the store.
	ClipboardPath = "/api/clipboard"

	// InstanceHeader carries the sending instance's ID.
	InstanceHeader = "X-Clipsync-Instance"

	// DefaultTimeout bounds every request.
	DefaultTimeout = 5 * time.Second

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 8 << 20
)

// Payload is the JSON body of both GET responses and POST requests.
type Payload struct {
	Text string `json:"text"`
}

// StatusResponse is the JSON body a store returns from POST.
type StatusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Client talks to a clipboard store and tracks whether it is reachable.
type Client struct {
	// urlMu protects baseURL
	urlMu   sync.RWMutex
	baseURL string

	// connMu protects connected
	connMu    sync.RWMutex
	connected bool

	httpClient *http.Client
	timeout    time.Duration
	instanceID string
	logger     *logging.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client. Its Timeout is left as given.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithInstanceID sets the ID sent in the X-Clipsync-Instance header.
func WithInstanceID(id string) ClientOption {
	return func(c *Client) {
		c.instanceID = id
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *logging.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client for baseURL. An empty baseURL is allowed; every
// operation then fails with a not-configured error until SetBaseURL is called.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: normalizeURL(baseURL),
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	if c.instanceID == "" {
		c.instanceID = uuid.NewString()
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}

	return c
}

func normalizeURL(url string) string {
	return strings.TrimRight(strings.TrimSpace(url), "/")
}

// SetBaseURL replaces the server URL. The connection state is reset because
// it described the previous server.
func (c *Client) SetBaseURL(url string) {
	c.urlMu.Lock()
	c.baseURL = normalizeURL(url)
	c.urlMu.Unlock()
	c.setConnected(false)
}

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() string {
	c.urlMu.RLock()
	defer c.urlMu.RUnlock()
	return c.baseURL
}

// InstanceID returns the ID this client identifies itself with.
func (c *Client) InstanceID() string {
	return c.instanceID
}

// Connected reports the outcome of the most recent probe or request. It is
// true only if the server answered with a 2xx status; a transport failure or
// an error status from Probe, Fetch or Push marks the client disconnected.
func (c *Client) Connected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

func (c *Client) setConnected(connected bool) {
	c.connMu.Lock()
	changed := c.connected != connected
	c.connected = connected
	c.connMu.Unlock()

	if changed {
		c.logger.Info("connection state changed", "server", c.BaseURL(), "connected", connected)
	}
}

// Probe issues a lightweight GET and records whether the server answered
// with a 2xx status.
func (c *Client) Probe(ctx context.Context) (bool, error) {
	const op = "probe"

	base := c.BaseURL()
	if base == "" {
		c.setConnected(false)
		return false, syncerr.NotConfigured(op)
	}

	resp, err := c.do(ctx, http.MethodGet, base, nil)
	if err != nil {
		c.setConnected(false)
		return false, syncerr.New(syncerr.KindTransport, op, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if !isSuccess(resp.StatusCode) {
		c.setConnected(false)
		return false, syncerr.New(syncerr.KindProtocol, op, fmt.Errorf("server returned status %d", resp.StatusCode))
	}

	c.setConnected(true)
	return true, nil
}

// Fetch returns the current remote value.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	const op = "fetch"

	base := c.BaseURL()
	if base == "" {
		return "", syncerr.NotConfigured(op)
	}

	resp, err := c.do(ctx, http.MethodGet, base, nil)
	if err != nil {
		c.setConnected(false)
		return "", syncerr.New(syncerr.KindTransport, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.setConnected(false)
		return "", syncerr.New(syncerr.KindTransport, op, fmt.Errorf("failed to read response: %w", err))
	}
	c.setConnected(isSuccess(resp.StatusCode))

	if !isSuccess(resp.StatusCode) {
		return "", syncerr.New(syncerr.KindProtocol, op, statusError(resp.StatusCode, body))
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", syncerr.New(syncerr.KindProtocol, op, fmt.Errorf("failed to parse response: %w", err))
	}

	c.logger.Debug("fetched remote value", "bytes", len(payload.Text))
	return payload.Text, nil
}

// Push replaces the remote value with text.
func (c *Client) Push(ctx context.Context, text string) error {
	const op = "push"

	base := c.BaseURL()
	if base == "" {
		return syncerr.NotConfigured(op)
	}

	data, err := json.Marshal(Payload{Text: text})
	if err != nil {
		return syncerr.New(syncerr.KindProtocol, op, fmt.Errorf("failed to marshal payload: %w", err))
	}

	resp, err := c.do(ctx, http.MethodPost, base, data)
	if err != nil {
		c.setConnected(false)
		return syncerr.New(syncerr.KindTransport, op, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.setConnected(isSuccess(resp.StatusCode))

	if !isSuccess(resp.StatusCode) {
		return syncerr.New(syncerr.KindProtocol, op, statusError(resp.StatusCode, body))
	}

	c.logger.Debug("pushed local value", "bytes", len(text))
	return nil
}

func (c *Client) do(ctx context.Context, method, base string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+ClipboardPath, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(InstanceHeader, c.instanceID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	return resp, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		return fmt.Errorf("server returned status %d", status)
	}
	return fmt.Errorf("server returned status %d: %s", status, msg)
}
