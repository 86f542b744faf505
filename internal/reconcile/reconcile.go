// Package reconcile makes the logo cache match the sheet: every row gets a
// file, and files no row maps to are archived rather than deleted.
package reconcile

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ecomap/internal/cache"
	"ecomap/internal/logging"
	"ecomap/internal/logokey"
	"ecomap/internal/org"
	"ecomap/internal/resolve"
)

// Summary is the JSON report of one reconciliation.
type Summary struct {
	Rows           int   `json:"rows"`
	Expected       int   `json:"expected"`
	ExistingBefore int   `json:"existingBefore"`
	Created        int64 `json:"created"`
	Placeholders   int64 `json:"placeholders"`
	MovedToArchive int64 `json:"movedToArchive"`
	Errors         int64 `json:"errors"`
	FinalCount     int   `json:"finalCount"`
}

// PlanResult is the difference between the sheet and the directory.
type PlanResult struct {
	Expected map[string]org.Organization // key -> last row with that key
	Missing  []org.Organization          // one row per key without a file
	Orphans  []string                    // file names no row maps to
}

// Plan diffs rows against the listed cache file names. It touches nothing.
func Plan(rows []org.Organization, files []string) PlanResult {
	expected := make(map[string]org.Organization, len(rows))
	order := make([]string, 0, len(rows))
	for _, o := range rows {
		key := logokey.DeriveKey(o)
		if _, ok := expected[key]; !ok {
			order = append(order, key)
		}
		expected[key] = o
	}

	present := make(map[string]bool, len(files))
	var orphans []string
	for _, name := range files {
		key := cache.KeyOf(name)
		present[key] = true
		if _, ok := expected[key]; !ok {
			orphans = append(orphans, name)
		}
	}
	sort.Strings(orphans)

	var missing []org.Organization
	for _, key := range order {
		if !present[key] {
			missing = append(missing, expected[key])
		}
	}
	return PlanResult{Expected: expected, Missing: missing, Orphans: orphans}
}

// Reconciler applies a plan through a cache writer.
type Reconciler struct {
	writer  *cache.Writer
	workers int
	logger  *zap.Logger
}

// New returns a Reconciler. workers <= 0 uses cache.DefaultWorkers.
func New(writer *cache.Writer, workers int, logger *zap.Logger) *Reconciler {
	return &Reconciler{writer: writer, workers: workers, logger: logging.OrNop(logger)}
}

// Reconcile creates files for missing keys and archives orphans. Per-file
// failures are counted; the error is non-nil only for directory-level
// failures or cancellation.
func (r *Reconciler) Reconcile(ctx context.Context, rows []org.Organization) (Summary, error) {
	dir := r.writer.Dir()
	log := r.logger.With(zap.String("run_id", uuid.NewString()))

	if err := dir.Ensure(); err != nil {
		return Summary{}, err
	}
	before, err := dir.List()
	if err != nil {
		return Summary{}, err
	}

	plan := Plan(rows, before)
	summary := Summary{
		Rows:           len(rows),
		Expected:       len(plan.Expected),
		ExistingBefore: len(before),
	}
	log.Info("reconcile starting",
		zap.Int("rows", summary.Rows),
		zap.Int("expected", summary.Expected),
		zap.Int("existing", summary.ExistingBefore),
		zap.Int("missing", len(plan.Missing)),
		zap.Int("orphans", len(plan.Orphans)))

	var created, placeholders, moved, errs atomic.Int64
	poolErr := cache.Pool{Workers: r.workers}.Run(ctx, plan.Missing, func(ctx context.Context, o org.Organization) {
		out := r.writer.WriteIfNeeded(ctx, o, cache.Options{})
		switch {
		case out.Status == cache.StatusSaved && out.Source == resolve.SourcePlaceholder:
			placeholders.Add(1)
		case out.Status == cache.StatusSaved:
			created.Add(1)
		case out.Status == cache.StatusError:
			errs.Add(1)
		}
	})

	// Orphans come from the listing taken before any write, so a file
	// created above can never be archived in the same pass.
	if poolErr == nil {
		for _, name := range plan.Orphans {
			if err := ctx.Err(); err != nil {
				poolErr = err
				break
			}
			dst, err := dir.Archive(name)
			if err != nil {
				log.Warn("archive failed", zap.String("file", name), zap.Error(err))
				errs.Add(1)
				continue
			}
			moved.Add(1)
			log.Debug("archived orphan", zap.String("file", name), zap.String("dest", dst))
		}
	}

	summary.Created = created.Load()
	summary.Placeholders = placeholders.Load()
	summary.MovedToArchive = moved.Load()
	summary.Errors = errs.Load()

	after, err := dir.List()
	if err != nil {
		return summary, err
	}
	summary.FinalCount = len(after)

	log.Info("reconcile finished",
		zap.Int64("created", summary.Created),
		zap.Int64("placeholders", summary.Placeholders),
		zap.Int64("archived", summary.MovedToArchive),
		zap.Int64("errors", summary.Errors),
		zap.Int("final", summary.FinalCount))
	return summary, poolErr
}
