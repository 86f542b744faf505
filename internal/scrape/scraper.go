// Package scrape looks for logos on an organization's own website. It is the
// opt-in resolver behind the scrape command and only runs for rows without a
// logo_url; rows that carry one go through the regular resolver unchanged.
package scrape

import (
	"context"
	"errors"
	"net/url"
	"time"

	"go.uber.org/zap"

	"ecomap/internal/logging"
	"ecomap/internal/logokey"
	"ecomap/internal/org"
	"ecomap/internal/resolve"
)

// CommonPaths are probed with HEAD when the page offers no usable candidate.
var CommonPaths = []string{
	"/logo.png",
	"/logo.svg",
	"/assets/logo.png",
	"/images/logo.png",
	"/img/logo.png",
	"/static/logo.png",
}

// Options configures a Scraper.
type Options struct {
	Delay         time.Duration // between sequential requests for one row
	MaxCandidates int
}

// Scraper resolves rows by scraping their websites.
type Scraper struct {
	resolver *resolve.Resolver
	pages    PageFetcher
	opts     Options
	logger   *zap.Logger
}

// New returns a Scraper that fetches images through resolver and pages through pages.
func New(resolver *resolve.Resolver, pages PageFetcher, opts Options, logger *zap.Logger) *Scraper {
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = 5
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	return &Scraper{resolver: resolver, pages: pages, opts: opts, logger: logging.OrNop(logger)}
}

// Resolve implements the cache writer's resolver contract.
func (s *Scraper) Resolve(ctx context.Context, o org.Organization, logoOnly bool) (*resolve.Result, error) {
	if o.HasLogoURL() || o.Website == "" {
		return s.resolver.Resolve(ctx, o, logoOnly)
	}

	site := siteURL(o.Website)
	if site == nil {
		return s.fallback(o, logoOnly, errNoHost)
	}
	page := site.String()
	p := &pacer{delay: s.opts.Delay}
	log := s.logger.With(zap.String("org", o.Name), zap.String("url", page))

	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	if doc, err := s.pages.Fetch(ctx, page); err != nil {
		log.Debug("page fetch failed", zap.Error(err))
	} else {
		cands := FindCandidates(doc, page)
		if len(cands) > s.opts.MaxCandidates {
			cands = cands[:s.opts.MaxCandidates]
		}
		for _, c := range cands {
			if err := p.wait(ctx); err != nil {
				return nil, err
			}
			res, err := s.resolver.FetchImage(ctx, c)
			if err != nil {
				log.Debug("candidate failed", zap.String("candidate", c), zap.Error(err))
				continue
			}
			res.Source = resolve.SourceScraped
			return res, nil
		}
	}

	origin := site.Scheme + "://" + site.Host
	for _, path := range CommonPaths {
		if err := p.wait(ctx); err != nil {
			return nil, err
		}
		if !s.resolver.Probe(ctx, origin+path) {
			continue
		}
		res, err := s.resolver.FetchImage(ctx, origin+path)
		if err != nil {
			log.Debug("probed path failed", zap.String("candidate", origin+path), zap.Error(err))
			continue
		}
		res.Source = resolve.SourceScraped
		return res, nil
	}

	if host := logokey.ExtractHost(o.Website); host != "" {
		if err := p.wait(ctx); err != nil {
			return nil, err
		}
		res, err := s.resolver.Favicon(ctx, host)
		if err == nil {
			return res, nil
		}
		log.Debug("favicon failed", zap.Error(err))
	}

	return s.fallback(o, logoOnly, nil)
}

var errNoHost = errors.New("website has no usable host")

// siteURL returns the page to scrape for website. A value that is not a
// single absolute URL, such as "acme.com or acme.bd", becomes the https root
// of its first host.
func siteURL(website string) *url.URL {
	if u, err := url.Parse(website); err == nil && u.Host != "" && (u.Scheme == "http" || u.Scheme == "https") {
		return u
	}
	host := logokey.ExtractHost(website)
	if host == "" {
		return nil
	}
	return &url.URL{Scheme: "https", Host: host, Path: "/"}
}

func (s *Scraper) fallback(o org.Organization, logoOnly bool, cause error) (*resolve.Result, error) {
	if cause != nil {
		s.logger.Debug("unusable website", zap.String("org", o.Name), zap.Error(cause))
	}
	if logoOnly {
		return nil, &resolve.ResolutionError{Org: o.Name, Err: resolve.ErrSkipped}
	}
	return s.resolver.Placeholder()
}

// pacer spaces sequential requests. The first wait returns immediately.
type pacer struct {
	delay time.Duration
	used  bool
}

func (p *pacer) wait(ctx context.Context) error {
	if !p.used || p.delay == 0 {
		p.used = true
		return ctx.Err()
	}
	t := time.NewTimer(p.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
