package gtfsrt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Client fetches GTFS-RT protobuf data over HTTP or from local files.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a client whose requests time out after timeout.
// A zero timeout means no limit beyond the request context.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewClientWith wraps an existing http.Client.
func NewClientWith(hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{httpClient: hc}
}

// Fetch returns the raw protobuf bytes at urlOrPath. Anything that is not an
// http(s) URL is read as a local file. Returns nil if urlOrPath is empty
// (the realtime feed is optional).
func (c *Client) Fetch(ctx context.Context, urlOrPath string) ([]byte, error) {
	if urlOrPath == "" {
		return nil, nil
	}

	if !strings.HasPrefix(urlOrPath, "http://") && !strings.HasPrefix(urlOrPath, "https://") {
		return os.ReadFile(urlOrPath)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlOrPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", urlOrPath, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, urlOrPath)
	}

	return io.ReadAll(resp.Body)
}

// FetchUpdates fetches and decodes a trip updates feed. An empty location
// yields nil Updates and no error.
func (c *Client) FetchUpdates(ctx context.Context, urlOrPath string) (*Updates, error) {
	pb, err := c.Fetch(ctx, urlOrPath)
	if err != nil {
		return nil, fmt.Errorf("trip updates: %w", err)
	}
	if pb == nil {
		return nil, nil
	}
	return Decode(pb)
}
