package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"ecomap/internal/cache"
	"ecomap/internal/org"
	"ecomap/internal/resolve"
	"ecomap/internal/sheet"
)

// commandContext is cancelled on SIGINT/SIGTERM and after --timeout.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	return tctx, func() {
		cancel()
		stop()
	}
}

func sheetSource() sheet.Source {
	if cfg.UsesLocalSheet() {
		return &sheet.FileSource{Path: cfg.Sheet.File, SheetName: cfg.Sheet.FileSheet}
	}
	return sheet.NewGoogleSource(cfg.Sheet.ID, cfg.Sheet.APIKey, cfg.Sheet.Range)
}

func loadRows(ctx context.Context) ([]org.Organization, error) {
	if err := cfg.RequireSheet(); err != nil {
		return nil, err
	}
	rows, err := sheet.Load(ctx, sheetSource())
	if err != nil {
		return nil, err
	}
	logger.Info("loaded sheet rows", zap.Int("rows", len(rows)), zap.Bool("local", cfg.UsesLocalSheet()))
	return rows, nil
}

func newResolver() *resolve.Resolver {
	return resolve.New(resolve.OptionsFromConfig(cfg), nil, logger)
}

func newWriter(r cache.Resolver, base *resolve.Resolver) *cache.Writer {
	w := cache.NewWriter(cache.NewDir(cfg.Cache.Dir), r, logger)
	w.Placeholder = base.PlaceholderBytes()
	return w
}

// outputPrefix is the cache directory as written into CSV output_path columns.
func outputPrefix() string {
	return filepath.ToSlash(filepath.Clean(cfg.Cache.Dir))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}
