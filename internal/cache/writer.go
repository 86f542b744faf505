package cache

import (
	"bytes"
	"context"
	"errors"
	"os"

	"go.uber.org/zap"

	"ecomap/internal/logging"
	"ecomap/internal/logokey"
	"ecomap/internal/org"
	"ecomap/internal/resolve"
)

// Resolver produces image bytes for an organization. *resolve.Resolver and
// *scrape.Scraper both satisfy it.
type Resolver interface {
	Resolve(ctx context.Context, o org.Organization, logoOnly bool) (*resolve.Result, error)
}

// Status is the result of one write attempt.
type Status string

const (
	StatusSaved   Status = "saved"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Outcome details.
const (
	DetailExists = "exists"
	DetailNoLogo = "no-logo"
)

// Options controls a single write.
type Options struct {
	Force    bool // re-resolve even when a file exists
	LogoOnly bool // never write a placeholder

	// ReplacePlaceholder re-resolves keys whose existing file is byte-identical
	// to the placeholder.
	ReplacePlaceholder bool
}

// Outcome reports what happened to one row.
type Outcome struct {
	Key       string
	Path      string
	Status    Status
	Source    resolve.SourceKind
	Detail    string
	Reencoded bool
}

// Writer resolves rows and stores the result in a Dir.
type Writer struct {
	dir      *Dir
	resolver Resolver
	logger   *zap.Logger

	// Placeholder is compared against existing files when
	// Options.ReplacePlaceholder is set.
	Placeholder []byte
}

// NewWriter returns a Writer.
func NewWriter(dir *Dir, resolver Resolver, logger *zap.Logger) *Writer {
	return &Writer{dir: dir, resolver: resolver, logger: logging.OrNop(logger)}
}

// Dir returns the cache directory the writer stores into.
func (w *Writer) Dir() *Dir { return w.dir }

// WriteIfNeeded ensures o has a cache file. Without Force an existing file is
// left alone and the resolver is never called.
func (w *Writer) WriteIfNeeded(ctx context.Context, o org.Organization, opts Options) Outcome {
	key := logokey.DeriveKey(o)
	out := Outcome{Key: key, Path: w.dir.PathFor(key)}
	log := w.logger.With(zap.String("key", key), zap.String("org", o.Name))

	replacing := false
	if !opts.Force {
		if existing, ok := w.dir.Find(key); ok {
			if !opts.ReplacePlaceholder || !w.isPlaceholder(existing) {
				out.Status = StatusSkipped
				out.Detail = DetailExists
				out.Path = existing
				return out
			}
			replacing = true
		}
	}

	res, err := w.resolver.Resolve(ctx, o, opts.LogoOnly)
	if err != nil {
		if errors.Is(err, resolve.ErrSkipped) {
			out.Status = StatusSkipped
			out.Detail = DetailNoLogo
			return out
		}
		log.Warn("resolve failed", zap.Error(err))
		out.Status = StatusError
		out.Detail = err.Error()
		return out
	}
	out.Source = res.Source

	if replacing && res.Source == resolve.SourcePlaceholder {
		out.Status = StatusSkipped
		out.Detail = DetailExists
		return out
	}

	data, reencoded := Canonicalize(res.Data)
	path, err := w.dir.Write(key, data)
	if err != nil {
		log.Error("write failed", zap.Error(err))
		out.Status = StatusError
		out.Detail = err.Error()
		return out
	}

	out.Path = path
	out.Status = StatusSaved
	out.Reencoded = reencoded
	log.Debug("saved logo",
		zap.String("source", string(res.Source)),
		zap.String("url", res.URL),
		zap.Bool("reencoded", reencoded))
	return out
}

func (w *Writer) isPlaceholder(path string) bool {
	if len(w.Placeholder) == 0 {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return bytes.Equal(data, w.Placeholder)
}
