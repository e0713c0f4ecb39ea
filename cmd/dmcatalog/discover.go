package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-duelmasters/config"
	"github.com/aluiziolira/go-scrape-duelmasters/scraper"
)

func init() {
	rootCmd.AddCommand(discoverCmd)
}

var discoverCmd = &cobra.Command{
	Use:   "discover <era>",
	Short: "Collects the sets of an era from the wiki and adds them to the set list.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eras, err := config.ReadSetList(cfg.EraListFile)
		if err != nil {
			return err
		}

		s, err := scraper.NewScraper(cfg)
		if err != nil {
			return fmt.Errorf("initialising scraper: %w", err)
		}

		start := time.Now()
		found, err := s.Discover(cmd.Context(), args[0], eras)
		if err != nil {
			return err
		}

		added, err := config.UpdateSetList(cfg.SetListFile, found)
		if err != nil {
			return err
		}

		slog.Info("set list updated",
			slog.String("file", cfg.SetListFile),
			slog.Int("sets", len(found)),
			slog.Int("new", added),
			slog.Duration("elapsed", time.Since(start)),
		)
		return nil
	},
}
