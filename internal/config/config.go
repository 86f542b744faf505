package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingSheetID is returned when no sheet identifier is configured
	// and no local sheet export is set.
	ErrMissingSheetID = errors.New("GOOGLE_SHEET_ID is not set")
	// ErrMissingAPIKey is returned when the Sheets API credential is absent.
	ErrMissingAPIKey = errors.New("GOOGLE_SHEETS_API_KEY is not set")
)

// Config holds all ecomap configuration.
type Config struct {
	// Where organization rows come from
	Sheet SheetConfig `yaml:"sheet"`

	// Local logo cache
	Cache CacheConfig `yaml:"cache"`

	// Outbound image and page fetches
	Fetch FetchConfig `yaml:"fetch"`

	// Website scraping (scrape command only)
	Scrape ScrapeConfig `yaml:"scrape"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// SheetConfig selects the organization table.
type SheetConfig struct {
	ID     string `yaml:"id"`
	APIKey string `yaml:"api_key"`
	Range  string `yaml:"range"`
	// File is a local .csv or .xlsx export; when set the API is not used.
	File      string `yaml:"file"`
	FileSheet string `yaml:"file_sheet"` // xlsx sheet name, first sheet if empty
}

// CacheConfig configures the logo directory and batch runs.
type CacheConfig struct {
	Dir              string `yaml:"dir"`
	Workers          int    `yaml:"workers"`
	PlaceholderSize  int    `yaml:"placeholder_size"`
	PlaceholderColor string `yaml:"placeholder_color"`
}

// FetchConfig configures HTTP behavior for logo resolution.
type FetchConfig struct {
	UserAgent       string `yaml:"user_agent"`
	ImageTimeout    string `yaml:"image_timeout"`
	PageTimeout     string `yaml:"page_timeout"`
	ProbeTimeout    string `yaml:"probe_timeout"`
	FaviconTimeout  string `yaml:"favicon_timeout"`
	FaviconEndpoint string `yaml:"favicon_endpoint"`
	FaviconSize     int    `yaml:"favicon_size"`
	MaxImageBytes   int64  `yaml:"max_image_bytes"`
}

// ScrapeConfig configures the website scraper.
type ScrapeConfig struct {
	Delay   string        `yaml:"delay"` // between requests to the same site
	Render  bool          `yaml:"render"`
	Browser BrowserConfig `yaml:"browser"`
}

// BrowserConfig configures the headless renderer.
type BrowserConfig struct {
	DebuggerURL       string `yaml:"debugger_url"`
	Bin               string `yaml:"bin"`
	Headless          bool   `yaml:"headless"`
	NavigationTimeout string `yaml:"navigation_timeout"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Sheet: SheetConfig{
			Range: "A:Z",
		},

		Cache: CacheConfig{
			Dir:              filepath.Join("public", "logos"),
			Workers:          6,
			PlaceholderSize:  64,
			PlaceholderColor: "#e2e8f0",
		},

		Fetch: FetchConfig{
			UserAgent:       "Mozilla/5.0 (compatible; LogoCache/1.0)",
			ImageTimeout:    "15s",
			PageTimeout:     "10s",
			ProbeTimeout:    "5s",
			FaviconTimeout:  "10s",
			FaviconEndpoint: "https://www.google.com/s2/favicons",
			FaviconSize:     64,
			MaxImageBytes:   8 << 20,
		},

		Scrape: ScrapeConfig{
			Delay: "500ms",
			Browser: BrowserConfig{
				Headless:          true,
				NavigationTimeout: "20s",
			},
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Defaults plus environment when there is no file
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if id := os.Getenv("GOOGLE_SHEET_ID"); id != "" {
		c.Sheet.ID = id
	}
	if key := os.Getenv("GOOGLE_SHEETS_API_KEY"); key != "" {
		c.Sheet.APIKey = key
	}
	if file := os.Getenv("ECOMAP_SHEET_FILE"); file != "" {
		c.Sheet.File = file
	}
	if dir := os.Getenv("ECOMAP_LOGOS_DIR"); dir != "" {
		c.Cache.Dir = dir
	}
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir must not be empty")
	}
	if c.Cache.Workers < 1 || c.Cache.Workers > 64 {
		return fmt.Errorf("cache.workers must be between 1 and 64, got %d", c.Cache.Workers)
	}
	if c.Cache.PlaceholderSize < 1 || c.Cache.PlaceholderSize > 1024 {
		return fmt.Errorf("cache.placeholder_size must be between 1 and 1024, got %d", c.Cache.PlaceholderSize)
	}
	return nil
}

// RequireSheet reports a configuration failure when the sheet cannot be read.
// A local export needs no credentials.
func (c *Config) RequireSheet() error {
	if c.Sheet.File != "" {
		return nil
	}
	if c.Sheet.ID == "" {
		return ErrMissingSheetID
	}
	if c.Sheet.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// UsesLocalSheet reports whether rows come from a local export.
func (c *Config) UsesLocalSheet() bool {
	return c.Sheet.File != ""
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetImageTimeout returns the per-image fetch timeout.
func (c *Config) GetImageTimeout() time.Duration {
	return parseDuration(c.Fetch.ImageTimeout, 15*time.Second)
}

// GetPageTimeout returns the website page fetch timeout.
func (c *Config) GetPageTimeout() time.Duration {
	return parseDuration(c.Fetch.PageTimeout, 10*time.Second)
}

// GetProbeTimeout returns the timeout for HEAD probes of common logo paths.
func (c *Config) GetProbeTimeout() time.Duration {
	return parseDuration(c.Fetch.ProbeTimeout, 5*time.Second)
}

// GetFaviconTimeout returns the favicon provider timeout.
func (c *Config) GetFaviconTimeout() time.Duration {
	return parseDuration(c.Fetch.FaviconTimeout, 10*time.Second)
}

// GetScrapeDelay returns the politeness delay between requests to one site.
func (c *Config) GetScrapeDelay() time.Duration {
	return parseDuration(c.Scrape.Delay, 500*time.Millisecond)
}

// GetNavigationTimeout returns the headless browser navigation timeout.
func (c *Config) GetNavigationTimeout() time.Duration {
	return parseDuration(c.Scrape.Browser.NavigationTimeout, 20*time.Second)
}
