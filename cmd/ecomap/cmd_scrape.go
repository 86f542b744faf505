package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ecomap/internal/cache"
	"ecomap/internal/scrape"
)

var (
	scrapeLimit    int
	scrapeForce    bool
	scrapeLogoOnly bool
	scrapeRender   bool
	scrapeReplace  bool
	scrapeWorkers  int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Look for logos on organization websites",
	Long: `Like cache, but rows without a logo_url are resolved by scraping their
website: logo images on the page, then common paths such as /logo.png, then
the favicon provider. Rows with a logo_url behave exactly as in cache.

--render fetches pages through headless Chrome. --replace-placeholders
re-resolves rows whose current file is the placeholder.`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().IntVar(&scrapeLimit, "limit", 0, "Process at most N rows (clamped to 1-5000, 0 for all)")
	scrapeCmd.Flags().BoolVar(&scrapeForce, "force", false, "Re-resolve rows that already have a file")
	scrapeCmd.Flags().BoolVar(&scrapeLogoOnly, "logo-only", false, "Never write placeholders")
	scrapeCmd.Flags().BoolVar(&scrapeRender, "render", false, "Render pages with headless Chrome (default scrape.render)")
	scrapeCmd.Flags().BoolVar(&scrapeReplace, "replace-placeholders", false, "Re-resolve rows whose file is the placeholder")
	scrapeCmd.Flags().IntVar(&scrapeWorkers, "workers", 0, "Concurrent sites (default cache.workers)")
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	rows, err := loadRows(ctx)
	if err != nil {
		return err
	}

	var pages scrape.PageFetcher = scrape.NewHTTPFetcher(cfg.Fetch.UserAgent, cfg.GetPageTimeout())
	if scrapeRender || cfg.Scrape.Render {
		renderer := scrape.NewRenderer(cfg.Scrape.Browser, cfg.GetNavigationTimeout(), logger)
		defer func() {
			if err := renderer.Close(); err != nil {
				logger.Warn("close browser", zap.Error(err))
			}
		}()
		pages = renderer
	}

	base := newResolver()
	scraper := scrape.New(base, pages, scrape.Options{Delay: cfg.GetScrapeDelay()}, logger)

	summary, err := cache.Populate(ctx, newWriter(scraper, base), rows, cache.BatchOptions{
		Options: cache.Options{
			Force:              scrapeForce,
			LogoOnly:           scrapeLogoOnly,
			ReplacePlaceholder: scrapeReplace,
		},
		Workers: workerCount(scrapeWorkers),
		Limit:   scrapeLimit,
	})
	if perr := printJSON(cmd.OutOrStdout(), summary); perr != nil {
		return perr
	}
	return err
}
