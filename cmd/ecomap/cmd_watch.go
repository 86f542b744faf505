package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ecomap/internal/reconcile"
	"ecomap/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reconcile whenever the local sheet export changes",
	Long: `Requires --sheet-file (or sheet.file). Reconciles once, then again after
every change to the file, until interrupted. Each run's summary is logged.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	if !cfg.UsesLocalSheet() {
		return errors.New("watch requires --sheet-file")
	}
	ctx, cancel := commandContext()
	defer cancel()

	base := newResolver()
	rec := reconcile.New(newWriter(base, base), cfg.Cache.Workers, logger)

	pass := func(ctx context.Context) {
		rows, err := loadRows(ctx)
		if err != nil {
			logger.Error("load sheet", zap.Error(err))
			return
		}
		summary, err := rec.Reconcile(ctx, rows)
		if err != nil {
			logger.Error("reconcile", zap.Error(err))
		}
		logger.Info("reconciled",
			zap.Int("expected", summary.Expected),
			zap.Int64("created", summary.Created),
			zap.Int64("placeholders", summary.Placeholders),
			zap.Int64("archived", summary.MovedToArchive),
			zap.Int64("errors", summary.Errors),
			zap.Int("final", summary.FinalCount))
	}

	pass(ctx)

	fw, err := watch.New(cfg.Sheet.File, watch.DefaultDebounce, pass, logger)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		fw.Stop()
		return err
	}
	defer fw.Stop()

	<-fw.Done()
	return nil
}
