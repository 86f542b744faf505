package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PageFetcher returns the HTML of a web page.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

const maxPageBytes = 2 << 20

// HTTPFetcher fetches pages with a plain GET.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
	Timeout   time.Duration
}

// NewHTTPFetcher returns an HTTPFetcher with a default client.
func NewHTTPFetcher(userAgent string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{}, UserAgent: userAgent, Timeout: timeout}
}

// Fetch implements PageFetcher. Bodies beyond 2 MiB are truncated.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("GET %s: HTTP %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", pageURL, err)
	}
	return string(body), nil
}
