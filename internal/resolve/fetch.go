package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var (
	// ErrEmptyBody is returned when a 2xx response carries no bytes.
	ErrEmptyBody = errors.New("empty response body")
	// ErrTooLarge is returned when a response exceeds Options.MaxBytes.
	ErrTooLarge = errors.New("response exceeds size limit")
)

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.Code)
}

// FetchImage GETs rawURL after share-link normalization. The returned Result
// has no Source; callers tag it.
func (r *Resolver) FetchImage(ctx context.Context, rawURL string) (*Result, error) {
	target := NormalizeLogoURL(rawURL)
	data, contentType, err := r.get(ctx, target, r.opts.ImageTimeout)
	if err != nil {
		return nil, err
	}
	return &Result{Data: data, URL: target, ContentType: contentType}, nil
}

// Favicon asks the favicon provider for host's icon. This is the legacy
// hostname-based lookup and is not part of Resolve.
func (r *Resolver) Favicon(ctx context.Context, host string) (*Result, error) {
	if host == "" {
		return nil, errors.New("favicon: empty host")
	}
	size := r.opts.FaviconSize
	if size <= 0 {
		size = 64
	}
	q := url.Values{}
	q.Set("domain", host)
	q.Set("sz", strconv.Itoa(size))
	target := r.opts.FaviconEndpoint + "?" + q.Encode()

	data, contentType, err := r.get(ctx, target, r.opts.FaviconTimeout)
	if err != nil {
		return nil, err
	}
	return &Result{Data: data, Source: SourceFavicon, URL: target, ContentType: contentType}, nil
}

// Probe sends a HEAD request and reports whether it returned 2xx.
func (r *Resolver) Probe(ctx context.Context, target string) bool {
	ctx, cancel := context.WithTimeout(ctx, orDefault(r.opts.ProbeTimeout, 5*time.Second))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", r.opts.UserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (r *Resolver) get(ctx context.Context, target string, timeout time.Duration) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, orDefault(timeout, 15*time.Second))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", r.opts.UserAgent)
	req.Header.Set("Accept", "image/avif,image/webp,image/png,image/svg+xml,image/*;q=0.8,*/*;q=0.5")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &StatusError{URL: target, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.opts.MaxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", target, err)
	}
	if int64(len(body)) > r.opts.MaxBytes {
		return nil, "", fmt.Errorf("GET %s: %w", target, ErrTooLarge)
	}
	if len(body) == 0 {
		return nil, "", fmt.Errorf("GET %s: %w", target, ErrEmptyBody)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
