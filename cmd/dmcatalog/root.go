package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-duelmasters/config"
)

var (
	cfg     *config.Config
	envFile string
	flags   = config.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:           "dmcatalog",
	Short:         "dmcatalog builds Duel Masters set catalogs from the wiki and yuyu-tei prices.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var envFiles []string
		if envFile != "" {
			envFiles = append(envFiles, envFile)
		}
		loaded, err := config.Load(envFiles...)
		if err != nil {
			return err
		}
		applyFlags(cmd, loaded)

		logger, level := newLogger(loaded.Verbose)
		slog.SetDefault(logger)
		slog.SetLogLoggerLevel(level.Level())

		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFile, "env-file", "", "Dotenv file to load (default .env)")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose logging")
	pf.StringVar(&flags.WikiBaseURL, "wiki-url", flags.WikiBaseURL, "Wiki root URL")
	pf.StringVar(&flags.MarketSearchURL, "market-url", flags.MarketSearchURL, "Marketplace search URL")
	pf.StringVar(&flags.SetListFile, "set-list", flags.SetListFile, "Set list file (set key to page URL)")
	pf.StringVar(&flags.EraListFile, "era-list", flags.EraListFile, "Era list file (era to page URL)")
	pf.StringVar(&flags.OutputDir, "output-dir", flags.OutputDir, "Directory for per-set output files")
	pf.StringVar(&flags.OutputFormat, "format", flags.OutputFormat, "Output format: csv, json, dual, or xlsx")
	pf.StringVar(&flags.DBPath, "db", flags.DBPath, "Also store catalogs in this SQLite database")
	pf.Float64Var(&flags.Rate, "rate", flags.Rate, "Yen to SGD conversion rate")
	pf.DurationVar(&flags.SetDelay, "set-delay", flags.SetDelay, "Pause between sets")
	pf.Float64Var(&flags.RequestsPerSecond, "rps", flags.RequestsPerSecond, "Requests per second per host (0 disables the ceiling)")
	pf.DurationVar(&flags.RandomDelay, "random-delay", flags.RandomDelay, "Random jitter added before each request")
	pf.DurationVar(&flags.Timeout, "timeout", flags.Timeout, "Request timeout")
	pf.IntVar(&flags.MaxRetries, "max-retries", flags.MaxRetries, "Maximum retry attempts per request")
	pf.DurationVar(&flags.RetryBackoff, "retry-backoff", flags.RetryBackoff, "Initial retry backoff")
	pf.DurationVar(&flags.RetryBackoffMax, "retry-backoff-max", flags.RetryBackoffMax, "Maximum retry backoff")
	pf.BoolVar(&flags.RespectRobotsTxt, "respect-robots", flags.RespectRobotsTxt, "Respect robots.txt directives")
	pf.StringVar(&flags.MetricsAddr, "metrics-addr", flags.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	pf.IntVar(&flags.DetailCacheSize, "detail-cache", flags.DetailCacheSize, "Card detail cache entries (0 disables)")
	pf.StringVar(&flags.OnPriceError, "on-price-error", flags.OnPriceError, "Marketplace failure policy: abort-set or sentinel")
}

// applyFlags copies explicitly set flags over the environment-derived config.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := func(name string) bool {
		return cmd.Flags().Changed(name)
	}

	if changed("verbose") {
		cfg.Verbose = flags.Verbose
	}
	if changed("wiki-url") {
		cfg.WikiBaseURL = flags.WikiBaseURL
	}
	if changed("market-url") {
		cfg.MarketSearchURL = flags.MarketSearchURL
	}
	if changed("set-list") {
		cfg.SetListFile = flags.SetListFile
	}
	if changed("era-list") {
		cfg.EraListFile = flags.EraListFile
	}
	if changed("output-dir") {
		cfg.OutputDir = flags.OutputDir
	}
	if changed("format") {
		cfg.OutputFormat = strings.ToLower(flags.OutputFormat)
	}
	if changed("db") {
		cfg.DBPath = flags.DBPath
	}
	if changed("rate") {
		cfg.Rate = flags.Rate
	}
	if changed("set-delay") {
		cfg.SetDelay = flags.SetDelay
	}
	if changed("rps") {
		cfg.RequestsPerSecond = flags.RequestsPerSecond
	}
	if changed("random-delay") {
		cfg.RandomDelay = flags.RandomDelay
	}
	if changed("timeout") {
		cfg.Timeout = flags.Timeout
	}
	if changed("max-retries") {
		cfg.MaxRetries = flags.MaxRetries
	}
	if changed("retry-backoff") {
		cfg.RetryBackoff = flags.RetryBackoff
	}
	if changed("retry-backoff-max") {
		cfg.RetryBackoffMax = flags.RetryBackoffMax
	}
	if changed("respect-robots") {
		cfg.RespectRobotsTxt = flags.RespectRobotsTxt
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = flags.MetricsAddr
	}
	if changed("detail-cache") {
		cfg.DetailCacheSize = flags.DetailCacheSize
	}
	if changed("on-price-error") {
		cfg.OnPriceError = flags.OnPriceError
	}
}
