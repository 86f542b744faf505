package main

import (
	"github.com/spf13/cobra"

	"ecomap/internal/reconcile"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Make the cache match the sheet exactly",
	Long: `Creates a file for every row that lacks one and moves files no row maps
to into _archive/. Nothing is ever deleted. The summary is printed as JSON.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	rows, err := loadRows(ctx)
	if err != nil {
		return err
	}

	base := newResolver()
	summary, err := reconcile.New(newWriter(base, base), cfg.Cache.Workers, logger).Reconcile(ctx, rows)
	if perr := printJSON(cmd.OutOrStdout(), summary); perr != nil {
		return perr
	}
	return err
}
