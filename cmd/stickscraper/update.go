package main

import (
	"github.com/spf13/cobra"

	"stickscraper/pkg/logger"
	"stickscraper/pkg/scraper"
)

var (
	// Update command flags
	fullUpdate    bool
	updateThreads int
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the local stick catalog",
	Long: `Update the local catalog of sticks from droidz.org.

By default the update is incremental: new ids are picked up from the
homepage's latest panel and only sticks without detail are scraped. If
the whole panel turns out to be new, every category is traversed to
catch submissions the panel could no longer show.

With --full, every category is traversed and every known stick is
re-scraped, stalest first, so an interrupted run resumes sensibly.`,
	Example: `  # Pick up new submissions
  stickscraper update

  # Re-scrape the whole catalog with four fetchers
  stickscraper update --full --threads 4`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdate()
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().BoolVar(&fullUpdate, "full", false, "re-scrape every known stick instead of only new ones")
	updateCmd.Flags().IntVar(&updateThreads, "threads", 0, "number of concurrent detail fetchers")
}

func runUpdate() error {
	extra := make(map[string]interface{})
	if updateThreads > 0 {
		extra["threads"] = updateThreads
	}

	cfg, err := loadConfig(extra)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	log := logger.GetLogger()
	log.WithField("version", version).Info("Stickscraper starting")

	s := scraper.New(newPageClient(cfg), st, cfg.Update, log)

	if fullUpdate {
		err = s.FullUpdate(cfg.Update.Threads)
	} else {
		err = s.IncrementalUpdate(cfg.Update.Threads)
	}
	if err != nil {
		log.WithError(err).Error("Update failed")
		return err
	}

	log.Info("Update completed successfully")
	return nil
}
