package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/het-labo/stixn-dewi/internal/contact"
	"github.com/het-labo/stixn-dewi/pkg/logging"
)

// Result is what the proxy returns for a successful upsert.
type Result struct {
	ContactID  string         `json:"id"`
	Properties map[string]any `json:"properties,omitempty"`
}

// UpsertFailed reports a failed upsert. Status is 0 when no response arrived.
type UpsertFailed struct {
	Status int
	Body   []byte
	Err    error
}

func (e *UpsertFailed) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("reconcile: upsert failed: %v", e.Err)
	case e.Err != nil:
		return fmt.Sprintf("reconcile: upsert failed: status %d: %v", e.Status, e.Err)
	default:
		return fmt.Sprintf("reconcile: upsert failed: status %d: %s", e.Status, truncate(e.Body, 300))
	}
}

func (e *UpsertFailed) Unwrap() error {
	return e.Err
}

// Upserter sends one canonical property set to the contact directory.
type Upserter interface {
	Upsert(ctx context.Context, props contact.Properties) (*Result, error)
}

// Client posts upserts to the proxy's contact endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *logging.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the transport.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a client for the proxy rooted at proxyBase; requests go to
// <proxyBase>/contact.
func NewClient(proxyBase string, logger *logging.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		endpoint:   strings.TrimRight(proxyBase, "/") + "/contact",
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upsert posts {properties} to the proxy.
func (c *Client) Upsert(ctx context.Context, props contact.Properties) (*Result, error) {
	body, err := json.Marshal(map[string]any{"properties": props})
	if err != nil {
		return nil, fmt.Errorf("reconcile: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("reconcile: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpsertFailed{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpsertFailed{Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpsertFailed{Status: resp.StatusCode, Body: respBody}
	}

	var res Result
	if err := json.Unmarshal(respBody, &res); err != nil {
		return nil, &UpsertFailed{Status: resp.StatusCode, Body: respBody, Err: err}
	}
	c.logger.Debug("contact upserted via proxy", "contact_id", res.ContactID, "status", resp.StatusCode)
	return &res, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
