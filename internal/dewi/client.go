// Package dewi reads the activity catalogue of a club on the reservation
// platform.
package dewi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/het-labo/stixn-dewi/pkg/logging"
)

const (
	defaultBaseURL = "https://marvel.demo2.dewi-online.nl/api"
	defaultTimeout = 15 * time.Second

	// DefaultClubID is the club whose catalogue is used when none is configured.
	DefaultClubID = 232
)

// ErrMissingAPIKey is returned when the client has no bearer credential.
var ErrMissingAPIKey = errors.New("dewi: missing api key")

// Activity is one bookable activity of a club.
type Activity struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

// Client is a reservation platform API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a client. An empty baseURL selects the default host.
func NewClient(baseURL, apiKey string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// Activities lists the activities offered by clubID.
func (c *Client) Activities(ctx context.Context, clubID int) ([]Activity, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	url := fmt.Sprintf("%s/clubs/%d/activities", c.baseURL, clubID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dewi: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dewi: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dewi: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return nil, fmt.Errorf("dewi: status %d: %s", resp.StatusCode, msg)
	}

	var activities []Activity
	if err := json.Unmarshal(body, &activities); err != nil {
		return nil, fmt.Errorf("dewi: unmarshal response: %w", err)
	}
	c.logger.Debug("dewi activities loaded", "club_id", clubID, "count", len(activities))
	return activities, nil
}

// ActivityNames returns the trimmed, non-empty names of activities, in order.
func ActivityNames(activities []Activity) []string {
	names := make([]string, 0, len(activities))
	for _, a := range activities {
		if n := strings.TrimSpace(a.Name); n != "" {
			names = append(names, n)
		}
	}
	return names
}
