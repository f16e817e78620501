// Package hubspot is a small client for the CRM contact endpoints the
// reservation proxy needs: search by email, create and partial update.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/het-labo/stixn-dewi/pkg/logging"
)

const (
	defaultBaseURL = "https://api.hubapi.com"
	defaultTimeout = 15 * time.Second

	contactsPath = "/crm/v3/objects/contacts"
)

// ErrMissingAPIKey is returned when the client has no bearer credential.
var ErrMissingAPIKey = errors.New("hubspot: missing api key")

// Client talks to the CRM's v3 contact API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a CRM client authenticated with apiKey.
func NewClient(apiKey string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchByEmail finds contacts whose email equals email.
func (c *Client) SearchByEmail(ctx context.Context, email string) (*SearchResult, error) {
	body := searchRequest{
		FilterGroups: []filterGroup{{
			Filters: []filter{{PropertyName: "email", Operator: "EQ", Value: email}},
		}},
	}
	resp, err := c.do(ctx, "search", http.MethodPost, contactsPath+"/search", body)
	if err != nil {
		return nil, err
	}
	var out SearchResult
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("hubspot: decode search response: %w", err)
	}
	return &out, nil
}

// Create creates a contact with the given properties.
func (c *Client) Create(ctx context.Context, properties map[string]any) (*Response, error) {
	return c.do(ctx, "create", http.MethodPost, contactsPath, propertiesEnvelope{Properties: properties})
}

// Update patches the given properties onto contact id.
func (c *Client) Update(ctx context.Context, id string, properties map[string]any) (*Response, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("hubspot: update: empty contact id")
	}
	path := contactsPath + "/" + url.PathEscape(id)
	return c.do(ctx, "update", http.MethodPatch, path, propertiesEnvelope{Properties: properties})
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any) (*Response, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("hubspot: marshal %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("hubspot: create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug("hubspot request", "op", op, "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hubspot: %s request: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("hubspot: read %s response: %w", op, err)
	}

	c.logger.Debug("hubspot response", "op", op, "status", resp.StatusCode, "body", string(respBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(op, resp.StatusCode, respBody)
	}
	if !json.Valid(respBody) {
		return nil, &APIError{
			Op:      op,
			Status:  resp.StatusCode,
			Body:    respBody,
			Message: "invalid JSON response",
		}
	}

	return &Response{Status: resp.StatusCode, Body: json.RawMessage(respBody)}, nil
}
