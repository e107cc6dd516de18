// internal/cards/client.go
package cards

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Fetcher looks a card up by its exact printed name. found is false when the
// service answered but has no such card.
type Fetcher interface {
	FetchCard(ctx context.Context, strictName string) (raw map[string]interface{}, found bool, err error)
}

// Client calls the public Lorcana card API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchCard calls GET {base}/cards/fetch?strict=<name> and returns the first match.
func (c *Client) FetchCard(ctx context.Context, strictName string) (map[string]interface{}, bool, error) {
	u := c.baseURL + "/cards/fetch?" + url.Values{"strict": {strictName}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build card request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("card request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("card api returned %s", resp.Status)
	}

	var cards []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&cards); err != nil {
		return nil, false, fmt.Errorf("decode card response: %w", err)
	}
	if len(cards) == 0 {
		return nil, false, nil
	}
	return cards[0], true, nil
}
