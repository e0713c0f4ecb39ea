package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-scrape-duelmasters/config"
	"github.com/aluiziolira/go-scrape-duelmasters/extract"
	"github.com/aluiziolira/go-scrape-duelmasters/models"
	"github.com/aluiziolira/go-scrape-duelmasters/parser"
	"github.com/aluiziolira/go-scrape-duelmasters/pipeline"
)

// Scraper assembles set catalogs from the wiki and the marketplace.
type Scraper struct {
	cfg     *config.Config
	fetcher Fetcher
	details *lru.Cache[string, models.DetailInfo]
	runID   string
	Metrics *Metrics
}

// Option customises a Scraper.
type Option func(*options)

type options struct {
	fetcher   Fetcher
	transport http.RoundTripper
	metrics   *Metrics
	runID     string
}

// WithFetcher replaces the default colly fetcher.
func WithFetcher(f Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithTransport installs rt on the default colly fetcher.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithMetrics shares a metrics registry with the caller.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(o *options) { o.runID = id }
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config, opts ...Option) (*Scraper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = NewMetrics()
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}

	fetcher := o.fetcher
	if fetcher == nil {
		cf, err := NewCollyFetcher(cfg, o.metrics)
		if err != nil {
			return nil, err
		}
		if o.transport != nil {
			cf.WithTransport(o.transport)
		}
		fetcher = cf
	}

	s := &Scraper{
		cfg:     cfg,
		fetcher: fetcher,
		runID:   o.runID,
		Metrics: o.metrics,
	}
	if cfg.DetailCacheSize > 0 {
		cache, err := lru.New[string, models.DetailInfo](cfg.DetailCacheSize)
		if err != nil {
			return nil, fmt.Errorf("create detail cache: %w", err)
		}
		s.details = cache
	}
	return s, nil
}

// RunID identifies this scraper's run in logs and in the catalog store.
func (s *Scraper) RunID() string {
	return s.runID
}

// Run scrapes sets in order and writes each non-empty one through its own
// output. A failed set is recorded and the run moves on; only cancellation
// stops it early.
func (s *Scraper) Run(ctx context.Context, sets []config.SetEntry, open pipeline.WriterFactory) (*models.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	result := &models.RunResult{
		RunID:     s.runID,
		StartTime: time.Now(),
	}
	defer func() {
		result.EndTime = time.Now()
		s.collectStats(result)
	}()

	for i, entry := range sets {
		if i > 0 {
			if err := sleepCtx(ctx, s.cfg.SetDelay); err != nil {
				return result, err
			}
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		slog.Info("scraping set",
			slog.String("run_id", s.runID),
			slog.String("set", entry.Key),
			slog.String("url", entry.URL),
		)
		set := s.ScrapeSet(ctx, entry)
		result.Sets = append(result.Sets, set)

		if set.Err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			s.Metrics.IncSet("failed")
			slog.Error("set failed",
				slog.String("set", entry.Key),
				slog.Any("error", set.Err),
			)
			continue
		}
		if len(set.Records) == 0 {
			s.Metrics.IncSet("empty")
			slog.Info("no items found in the contents section", slog.String("set", entry.Key))
			continue
		}

		written, err := writeSet(entry.Key, set.Records, open)
		result.TotalCount += written
		if err != nil {
			set.Err = err
			s.Metrics.IncSet("failed")
			slog.Error("writing set failed",
				slog.String("set", entry.Key),
				slog.Any("error", err),
			)
			continue
		}

		s.Metrics.IncSet("ok")
		slog.Info("set saved",
			slog.String("set", entry.Key),
			slog.Int("records", written),
			slog.Duration("elapsed", set.Duration()),
		)
	}
	return result, nil
}

// ScrapeSet fetches one set page and assembles its records in document order.
// When the set cannot be completed, Err is set and Records is nil.
func (s *Scraper) ScrapeSet(ctx context.Context, entry config.SetEntry) *models.SetResult {
	result := &models.SetResult{
		Key:       entry.Key,
		URL:       entry.URL,
		StartTime: time.Now(),
	}
	records, err := s.scrapeSet(ctx, entry)
	result.EndTime = time.Now()
	if err != nil {
		result.Err = err
		return result
	}
	result.Records = records
	s.Metrics.IncCards(len(records))
	return result
}

func (s *Scraper) scrapeSet(ctx context.Context, entry config.SetEntry) ([]*models.CardRecord, error) {
	page, err := s.fetcher.Fetch(ctx, entry.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch set page: %w", err)
	}
	if page.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch set page: %w", &StatusError{URL: entry.URL, StatusCode: page.StatusCode})
	}
	doc, err := page.Document()
	if err != nil {
		return nil, err
	}
	stubs, err := extract.Listing(doc, page.URL, s.cfg.Selectors)
	if err != nil {
		return nil, err
	}

	var records []*models.CardRecord
	for _, stub := range stubs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		detail := s.FetchDetail(ctx, stub.ReferenceLink)
		categories := parser.PropagateTreasure(parser.SplitCategory(stub.Category))

		for _, v := range parser.PairVariants(categories, parser.SplitRarity(stub.RawRarity)) {
			id := parser.NormalizeCardID(v.RawID)
			price := s.ResolvePrice(ctx, detail.JapaneseName, id)
			if price.Status == models.PriceFetchError {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				if s.cfg.OnPriceError != config.PriceErrorSentinel {
					return nil, fmt.Errorf("price lookup for %q (%s): %w", stub.EnglishName, id, price.Err)
				}
				slog.Warn("price lookup failed, recording sentinel",
					slog.String("card", stub.EnglishName),
					slog.String("id", id),
					slog.Any("error", price.Err),
				)
			}

			yen := price.YenOrMissing()
			records = append(records, &models.CardRecord{
				No:           len(records) + 1,
				Rarity:       v.Category,
				ID:           id,
				JapaneseName: detail.JapaneseName,
				EnglishName:  stub.EnglishName,
				Civilization: detail.Civilization,
				Set:          entry.Key,
				Reference:    stub.ReferenceLink,
				PriceYen:     yen,
				PriceSGD:     parser.ConvertPrice(yen, s.cfg.Rate),
			})
		}
	}
	return records, nil
}

func writeSet(key string, records []*models.CardRecord, open pipeline.WriterFactory) (int, error) {
	writer, err := open(key)
	if err != nil {
		return 0, fmt.Errorf("open output for %s: %w", key, err)
	}

	p := pipeline.NewPipeline(writer)
	p.Start(1)

	var errs []error
	if err := p.Process(records); err != nil {
		errs = append(errs, err)
	}
	if err := p.Close(); err != nil {
		errs = append(errs, err)
	}
	if dropped, _ := p.GetMetrics()["validation_errors"].(map[string]int); len(dropped) > 0 {
		slog.Warn("records dropped before writing",
			slog.String("set", key),
			slog.Any("reasons", dropped),
		)
	}
	if err := writer.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("validate output: %w", err))
	}
	if err := writer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close output: %w", err))
	}
	return p.Processed(), errors.Join(errs...)
}

func (s *Scraper) collectStats(result *models.RunResult) {
	stats, ok := s.fetcher.(interface{ Stats() FetchStats })
	if !ok {
		return
	}
	fs := stats.Stats()
	result.RequestCount = fs.Requests
	result.RetryCount = fs.Retries
	result.ErrorCount = fs.Errors
	result.ErrorsByType = fs.ErrorsByType
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
