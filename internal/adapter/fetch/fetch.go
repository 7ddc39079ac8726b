// Package fetch provides the shared retrying HTTP transport used by every
// upstream source adapter.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// UserAgent identifies hazardwatch to upstream providers.
const UserAgent = "hazardwatch/1.0 (+https://github.com/couchcryptid/hazardwatch)"

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 16 << 20

// NewClient returns a retrying HTTP client that logs through logger. Only
// connection errors and 5xx responses are retried, at most retryMax times.
func NewClient(retryMax int, logger *slog.Logger) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = retryMax
	c.RetryWaitMin = 250 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	c.Logger = logger
	return c
}

// Get issues a GET with the hazardwatch User-Agent and returns the body of a
// 200 response. Any other status is an error carrying a snippet of the body.
func Get(ctx context.Context, client *retryablehttp.Client, url, accept string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("upstream error: status %d: %s", resp.StatusCode, body)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
