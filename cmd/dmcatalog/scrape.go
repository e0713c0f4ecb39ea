package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-duelmasters/config"
	"github.com/aluiziolira/go-scrape-duelmasters/models"
	"github.com/aluiziolira/go-scrape-duelmasters/pipeline"
	"github.com/aluiziolira/go-scrape-duelmasters/scraper"
	"github.com/aluiziolira/go-scrape-duelmasters/store"
)

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [set-prefix]",
	Short: "Scrapes every set whose key starts with the prefix, or all sets.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}
		return runScrape(cmd.Context(), prefix)
	},
}

func runScrape(ctx context.Context, prefix string) error {
	sets, err := config.ReadSetList(cfg.SetListFile)
	if err != nil {
		return err
	}
	selected := sets.Match(prefix)
	if len(selected) == 0 {
		return fmt.Errorf("no set key starts with %q", strings.ToUpper(prefix))
	}

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		return fmt.Errorf("initialising scraper: %w", err)
	}

	open, err := pipeline.NewSetWriterFactory(cfg.OutputFormat, cfg.OutputDir)
	if err != nil {
		return err
	}

	var db *store.Store
	if cfg.DBPath != "" {
		db, err = store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				slog.Error("close store", slog.Any("error", err))
			}
		}()
		open = withStore(open, db, s.RunID())
	}

	metricsServer := startMetricsServer(cfg.MetricsAddr, s.Metrics)

	slog.Info("starting scrape",
		slog.String("run_id", s.RunID()),
		slog.Int("sets", len(selected)),
		slog.String("format", cfg.OutputFormat),
		slog.String("output_dir", cfg.OutputDir),
	)

	result, runErr := s.Run(ctx, selected, open)
	if ctx.Err() != nil {
		slog.Warn("scrape interrupted, remaining sets skipped")
	}

	if db != nil {
		if err := db.RecordRun(result); err != nil {
			slog.Error("record run", slog.Any("error", err))
		}
	}
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result)

	if runErr != nil {
		return fmt.Errorf("scrape interrupted: %w", runErr)
	}
	if failed := result.FailedSets(); len(failed) > 0 {
		return fmt.Errorf("%d set(s) failed: %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}

// withStore mirrors every set written through open into the catalog store.
func withStore(open pipeline.WriterFactory, db *store.Store, runID string) pipeline.WriterFactory {
	return func(key string) (pipeline.OutputWriter, error) {
		files, err := open(key)
		if err != nil {
			return nil, err
		}
		return pipeline.NewMultiWriter(files, db.SetWriter(runID, key)), nil
	}
}

func startMetricsServer(addr string, metrics *scraper.Metrics) *http.Server {
	if addr == "" || metrics == nil {
		return nil
	}
	server := &http.Server{
		Addr:    addr,
		Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))
	return server
}

func printSummary(result *models.RunResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Run " + result.RunID)
	t.AppendHeader(table.Row{"Set", "Status", "Records", "Elapsed", "Error"})

	for _, set := range result.Sets {
		status := "ok"
		errText := ""
		switch {
		case set.Err != nil:
			status = "failed"
			errText = set.Err.Error()
		case len(set.Records) == 0:
			status = "empty"
		}
		t.AppendRow(table.Row{set.Key, status, len(set.Records), set.Duration().Round(time.Millisecond), errText})
	}

	t.AppendFooter(table.Row{"Total", "", result.TotalCount, result.EndTime.Sub(result.StartTime).Round(time.Millisecond), ""})
	t.SetStyle(table.StyleRounded)
	t.Render()

	fmt.Printf("Requests: %d  Retries: %d  Request errors: %d\n", result.RequestCount, result.RetryCount, result.ErrorCount)
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("Error types: %v\n", result.ErrorsByType)
	}
}
