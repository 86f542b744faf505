package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ecomap/internal/org"
	"ecomap/internal/resolve"
)

// MaxLimit bounds --limit.
const MaxLimit = 5000

// BatchOptions configures Populate.
type BatchOptions struct {
	Options
	Workers int
	Limit   int // 0 means every row
}

// Summary is the JSON report of one batch.
type Summary struct {
	RunID            string `json:"runId"`
	Processed        int64  `json:"processed"`
	Saved            int64  `json:"saved"`
	SavedFromLogoURL int64  `json:"savedFromLogoUrl"`
	SavedFromFavicon int64  `json:"savedFromFavicon"`
	SavedFromScrape  int64  `json:"savedFromScrape"`
	Placeholders     int64  `json:"placeholders"`
	Skipped          int64  `json:"skipped"`
	SkippedExists    int64  `json:"skippedExists"`
	SkippedNoLogo    int64  `json:"skippedNoLogo"`
	Errors           int64  `json:"errors"`
}

type counters struct {
	processed, saved, fromLogoURL, fromFavicon, fromScrape, placeholders atomic.Int64
	skipped, skippedExists, skippedNoLogo, errors                      atomic.Int64
}

func (c *counters) record(out Outcome) {
	c.processed.Add(1)
	switch out.Status {
	case StatusSaved:
		c.saved.Add(1)
		switch out.Source {
		case resolve.SourceLogoURL:
			c.fromLogoURL.Add(1)
		case resolve.SourceFavicon:
			c.fromFavicon.Add(1)
		case resolve.SourceScraped:
			c.fromScrape.Add(1)
		case resolve.SourcePlaceholder:
			c.placeholders.Add(1)
		}
	case StatusSkipped:
		c.skipped.Add(1)
		if out.Detail == DetailNoLogo {
			c.skippedNoLogo.Add(1)
		} else {
			c.skippedExists.Add(1)
		}
	case StatusError:
		c.errors.Add(1)
	}
}

func (c *counters) snapshot(runID string) Summary {
	return Summary{
		RunID:            runID,
		Processed:        c.processed.Load(),
		Saved:            c.saved.Load(),
		SavedFromLogoURL: c.fromLogoURL.Load(),
		SavedFromFavicon: c.fromFavicon.Load(),
		SavedFromScrape:  c.fromScrape.Load(),
		Placeholders:     c.placeholders.Load(),
		Skipped:          c.skipped.Load(),
		SkippedExists:    c.skippedExists.Load(),
		SkippedNoLogo:    c.skippedNoLogo.Load(),
		Errors:           c.errors.Load(),
	}
}

// ClampLimit maps a requested limit onto 1..MaxLimit. Zero and negative
// values mean "no limit" and return 0.
func ClampLimit(n int) int {
	switch {
	case n <= 0:
		return 0
	case n > MaxLimit:
		return MaxLimit
	default:
		return n
	}
}

// Populate writes cache files for rows on a worker pool. Per-row failures are
// counted, never returned; the error is non-nil only when ctx ended the batch.
func Populate(ctx context.Context, w *Writer, rows []org.Organization, opts BatchOptions) (Summary, error) {
	if limit := ClampLimit(opts.Limit); limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	runID := uuid.NewString()
	log := w.logger.With(zap.String("run_id", runID))
	log.Info("cache batch starting",
		zap.Int("rows", len(rows)),
		zap.Int("workers", opts.Workers),
		zap.Bool("force", opts.Force),
		zap.Bool("logo_only", opts.LogoOnly))

	if err := w.dir.Ensure(); err != nil {
		return Summary{RunID: runID}, err
	}

	start := time.Now()
	var c counters
	err := Pool{Workers: opts.Workers}.Run(ctx, rows, func(ctx context.Context, o org.Organization) {
		c.record(w.WriteIfNeeded(ctx, o, opts.Options))
	})

	summary := c.snapshot(runID)
	log.Info("cache batch finished",
		zap.Int64("processed", summary.Processed),
		zap.Int64("saved", summary.Saved),
		zap.Int64("skipped", summary.Skipped),
		zap.Int64("errors", summary.Errors),
		zap.Duration("elapsed", time.Since(start)))
	return summary, err
}
