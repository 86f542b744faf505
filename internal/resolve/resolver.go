// Package resolve decides where an organization's logo image comes from.
//
// The per-row chain is an explicit logo_url, then a synthesized placeholder.
// A failed logo_url never falls through to a favicon. Favicon lookup is a
// separate call used only by the opt-in website scraper.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"ecomap/internal/config"
	"ecomap/internal/logging"
	"ecomap/internal/org"
)

// SourceKind tags where resolved bytes came from.
type SourceKind string

const (
	SourceLogoURL     SourceKind = "from-logo-url"
	SourcePlaceholder SourceKind = "placeholder"
	SourceFavicon     SourceKind = "favicon"
	SourceScraped     SourceKind = "scraped"
)

// ErrSkipped means logo-only mode found nothing usable, so no image was produced.
var ErrSkipped = errors.New("no usable logo in logo-only mode")

// ResolutionError reports that no image was produced for an organization.
type ResolutionError struct {
	Org string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q: %v", e.Org, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Result is a resolved image.
type Result struct {
	Data        []byte
	Source      SourceKind
	URL         string
	ContentType string
}

// Options configures a Resolver.
type Options struct {
	UserAgent        string
	ImageTimeout     time.Duration
	ProbeTimeout     time.Duration
	FaviconTimeout   time.Duration
	FaviconEndpoint  string
	FaviconSize      int
	MaxBytes         int64
	PlaceholderSize  int
	PlaceholderColor string
}

// DefaultOptions mirrors config.DefaultConfig.
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig())
}

// OptionsFromConfig extracts resolver options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		UserAgent:        cfg.Fetch.UserAgent,
		ImageTimeout:     cfg.GetImageTimeout(),
		ProbeTimeout:     cfg.GetProbeTimeout(),
		FaviconTimeout:   cfg.GetFaviconTimeout(),
		FaviconEndpoint:  cfg.Fetch.FaviconEndpoint,
		FaviconSize:      cfg.Fetch.FaviconSize,
		MaxBytes:         cfg.Fetch.MaxImageBytes,
		PlaceholderSize:  cfg.Cache.PlaceholderSize,
		PlaceholderColor: cfg.Cache.PlaceholderColor,
	}
}

// Resolver fetches logo images over HTTP. It is safe for concurrent use.
type Resolver struct {
	opts   Options
	client *http.Client
	logger *zap.Logger

	placeholderOnce sync.Once
	placeholder     []byte
	placeholderErr  error
}

// New returns a Resolver. A nil client gets a default one that follows up to
// 10 redirects; per-request timeouts come from opts.
func New(opts Options, client *http.Client, logger *zap.Logger) *Resolver {
	if client == nil {
		client = &http.Client{}
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 8 << 20
	}
	if opts.PlaceholderSize <= 0 {
		opts.PlaceholderSize = 64
	}
	if opts.PlaceholderColor == "" {
		opts.PlaceholderColor = "#e2e8f0"
	}
	return &Resolver{
		opts:   opts,
		client: client,
		logger: logging.OrNop(logger),
	}
}

// Resolve produces image bytes for o. With logoOnly set it never synthesizes a
// placeholder and returns an error wrapping ErrSkipped instead.
func (r *Resolver) Resolve(ctx context.Context, o org.Organization, logoOnly bool) (*Result, error) {
	if o.HasLogoURL() {
		res, err := r.FetchImage(ctx, o.LogoURL)
		if err == nil {
			res.Source = SourceLogoURL
			return res, nil
		}
		r.logger.Debug("logo_url fetch failed",
			zap.String("org", o.Name),
			zap.String("url", o.LogoURL),
			zap.Error(err))
		if logoOnly {
			return nil, &ResolutionError{Org: o.Name, Err: fmt.Errorf("%w: %v", ErrSkipped, err)}
		}
		return r.Placeholder()
	}

	if logoOnly {
		return nil, &ResolutionError{Org: o.Name, Err: ErrSkipped}
	}
	return r.Placeholder()
}

// Placeholder returns the shared placeholder image. The caller must not
// modify Data.
func (r *Resolver) Placeholder() (*Result, error) {
	r.placeholderOnce.Do(func() {
		r.placeholder, r.placeholderErr = Placeholder(r.opts.PlaceholderSize, r.opts.PlaceholderColor)
	})
	if r.placeholderErr != nil {
		return nil, r.placeholderErr
	}
	return &Result{Data: r.placeholder, Source: SourcePlaceholder, ContentType: "image/png"}, nil
}

// PlaceholderBytes returns the placeholder encoding, or nil if it cannot be built.
func (r *Resolver) PlaceholderBytes() []byte {
	res, err := r.Placeholder()
	if err != nil {
		return nil
	}
	return res.Data
}
