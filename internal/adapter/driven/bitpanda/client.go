// Package bitpanda implements the BalanceGateway port against the Bitpanda REST API.
package bitpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/pandabot/internal/domain/port/driven"
)

// DefaultBaseURL is the production Bitpanda API root.
const DefaultBaseURL = "https://api.bitpanda.com/v1"

const (
	assetWalletsEndpoint = "/asset-wallets"
	fiatWalletsEndpoint  = "/fiatwallets"

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 4 << 20
)

// Compile-time interface satisfaction check.
var _ driven.BalanceGateway = (*Client)(nil)

// Client implements the driven.BalanceGateway port. It holds no credentials;
// every call takes the user's API key explicitly.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a Client for baseURL whose requests time out after timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTPClient(&http.Client{Timeout: timeout}, baseURL)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// get performs an authenticated GET and decodes a 200 response into v.
// Any other status yields *driven.UpstreamError; the body is not parsed.
func (c *Client) get(ctx context.Context, endpoint, apiKey string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", endpoint, err)
	}
	req.Header.Set("X-Api-Key", apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &driven.UpstreamError{Endpoint: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	slog.Debug("bitpanda api call",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return &driven.UpstreamError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w: %w", endpoint, driven.ErrMalformedResponse, err)
	}
	return nil
}
