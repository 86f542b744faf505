package main

import (
	"github.com/spf13/cobra"

	"ecomap/internal/cache"
)

var (
	cacheLimit    int
	cacheForce    bool
	cacheLogoOnly bool
	cacheWorkers  int
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Populate the logo cache from the sheet",
	Long: `Resolves every row without a cache file and writes <slug>-<hash8>.png.

Existing files are skipped unless --force is given. With --logo-only rows
whose logo_url is missing or unusable are reported as skipped instead of
receiving a placeholder. The batch summary is printed as JSON on stdout.`,
	Args: cobra.NoArgs,
	RunE: runCache,
}

func init() {
	cacheCmd.Flags().IntVar(&cacheLimit, "limit", 0, "Process at most N rows (clamped to 1-5000, 0 for all)")
	cacheCmd.Flags().BoolVar(&cacheForce, "force", false, "Re-resolve rows that already have a file")
	cacheCmd.Flags().BoolVar(&cacheLogoOnly, "logo-only", false, "Never write placeholders")
	cacheCmd.Flags().IntVar(&cacheWorkers, "workers", 0, "Concurrent downloads (default cache.workers)")
}

func runCache(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	rows, err := loadRows(ctx)
	if err != nil {
		return err
	}

	base := newResolver()
	summary, err := cache.Populate(ctx, newWriter(base, base), rows, cache.BatchOptions{
		Options: cache.Options{Force: cacheForce, LogoOnly: cacheLogoOnly},
		Workers: workerCount(cacheWorkers),
		Limit:   cacheLimit,
	})
	if perr := printJSON(cmd.OutOrStdout(), summary); perr != nil {
		return perr
	}
	return err
}

func workerCount(flag int) int {
	if flag > 0 {
		return flag
	}
	return cfg.Cache.Workers
}
