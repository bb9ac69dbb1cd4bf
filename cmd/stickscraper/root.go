package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"stickscraper/pkg/config"
	"stickscraper/pkg/droidz"
	"stickscraper/pkg/logger"
	"stickscraper/pkg/ratelimit"
	"stickscraper/pkg/store"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	dbPath     string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stickscraper",
	Short: "A catalog scraper and archive downloader for droidz.org",
	Long: `Stickscraper harvests the droidz.org stick figure catalog into a local
sqlite database and downloads the animation archives for offline use.

The update command discovers new submissions via the homepage's latest
panel (or a full category traversal with --full) and scrapes the detail
page of every stick it doesn't know yet. The download command then
fetches the archives for selected or all sticks into per-stick
directories, optionally extracting zip archives.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .stickscraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "database", "", "path to the sqlite database")

	// Version template
	rootCmd.SetVersionTemplate(`Stickscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig assembles configuration from flags, environment and files and
// initializes the global logger from it.
func loadConfig(extra map[string]interface{}) (*config.Config, error) {
	flags := make(map[string]interface{})
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if dbPath != "" {
		flags["database"] = dbPath
	}
	for k, v := range extra {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// newPageClient builds a site client rate limited for catalog pages.
func newPageClient(cfg *config.Config) *droidz.Client {
	limiter := ratelimit.NewSlidingWindow(cfg.RateLimit.PageRequests, cfg.RateLimit.PagePeriod)
	return droidz.NewClient(cfg.Site.BaseURL, cfg.Site.UserAgent, cfg.Site.Timeout, limiter, logger.GetLogger())
}

// newArchiveClient builds a site client with the slower archive rate limit.
func newArchiveClient(cfg *config.Config) *droidz.Client {
	limiter := ratelimit.NewSlidingWindow(cfg.RateLimit.ArchiveRequests, cfg.RateLimit.ArchivePeriod)
	return droidz.NewClient(cfg.Site.BaseURL, cfg.Site.UserAgent, cfg.Site.Timeout, limiter, logger.GetLogger())
}

func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return st, nil
}
