// Package directory fetches the list of rooms known to the chat server.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nfrund/gobychat/internal/domain"
)

// Client wraps the server's GET /rooms endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu   sync.RWMutex
	last []string
}

// NewClient creates a directory client for the server at baseURL
// (e.g. "http://localhost:8080").
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// FetchRooms issues one request for the room list. Any failure wraps
// domain.ErrDirectoryUnavailable and leaves Last untouched.
func (c *Client) FetchRooms(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rooms", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrDirectoryUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDirectoryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: server returned status %d", domain.ErrDirectoryUnavailable, resp.StatusCode)
	}

	var rooms []string
	if err := json.NewDecoder(resp.Body).Decode(&rooms); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrDirectoryUnavailable, err)
	}
	if rooms == nil {
		rooms = []string{}
	}

	c.mu.Lock()
	c.last = rooms
	c.mu.Unlock()

	return append([]string(nil), rooms...), nil
}

// Last returns the result of the most recent successful fetch.
func (c *Client) Last() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.last...)
}
