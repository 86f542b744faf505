package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ecomap/internal/config"
	"ecomap/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	envFile    string
	logosDir   string
	sheetFile  string
	timeout    time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ecomap",
	Short: "ecomap - logo cache for the ecosystem map",
	Long: `ecomap keeps public/logos in step with the organization sheet.

Every sheet row maps to exactly one cache file named <slug>-<hash8>.png.
Rows with a logo_url get that image; rows without one get a placeholder.
Files no longer backed by a row are moved to _archive/, never deleted.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logosDir != "" {
			loaded.Cache.Dir = logosDir
		}
		if sheetFile != "" {
			loaded.Sheet.File = sheetFile
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = loaded

		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "ecomap.yaml", "Config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env.local", "KEY=VALUE file loaded before the config")
	rootCmd.PersistentFlags().StringVar(&logosDir, "logos-dir", "", "Cache directory (overrides cache.dir)")
	rootCmd.PersistentFlags().StringVar(&sheetFile, "sheet-file", "", "Read rows from a local .csv/.xlsx export instead of the Sheets API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Overall timeout (0 for none)")

	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
