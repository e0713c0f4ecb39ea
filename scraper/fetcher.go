package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-scrape-duelmasters/config"
)

const pageContextKey = "page"

// Page is a fetched response body.
type Page struct {
	URL        *url.URL
	StatusCode int
	Body       []byte
}

// Document parses the body as HTML.
func (p *Page) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", p.URL, err)
	}
	return doc, nil
}

// Fetcher retrieves one page. Non-200 responses are returned as pages, not
// errors; only transport failures produce an error.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// FetchStats summarises a fetcher's traffic.
type FetchStats struct {
	Requests     int
	Retries      int
	Errors       int
	ErrorsByType map[string]int
}

// CollyFetcher issues synchronous GET requests through a colly collector,
// gated by a per-host rate limiter and retried with capped backoff.
type CollyFetcher struct {
	collector *colly.Collector
	limiter   *hostLimiter
	retry     *retryManager
	metrics   *Metrics
	sites     map[string]string

	requestCount int64
	errorCount   int64

	mu           sync.Mutex
	errorsByType map[string]int
}

// NewCollyFetcher builds a fetcher restricted to the configured wiki and
// marketplace hosts.
func NewCollyFetcher(cfg *config.Config, metrics *Metrics) (*CollyFetcher, error) {
	hosts, err := cfg.AllowedHosts()
	if err != nil {
		return nil, err
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(hosts...),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		RandomDelay: cfg.RandomDelay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	f := &CollyFetcher{
		collector:    collector,
		limiter:      newHostLimiter(cfg.RequestsPerSecond),
		retry:        newRetryManager(cfg, metrics),
		metrics:      metrics,
		sites:        siteLabels(cfg),
		errorsByType: make(map[string]int),
	}
	f.configureHandlers()
	return f, nil
}

// WithTransport swaps the HTTP transport, e.g. for an httpmock transport.
func (f *CollyFetcher) WithTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}

func (f *CollyFetcher) configureHandlers() {
	f.collector.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
		slog.Debug("fetch", slog.String("url", r.URL.String()))
	})

	f.collector.OnResponse(func(r *colly.Response) {
		if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
			f.metrics.ObserveDuration(time.Since(start))
		}
		if r.StatusCode != http.StatusOK {
			slog.Warn("non-200 response",
				slog.Int("status", r.StatusCode),
				slog.String("url", r.Request.URL.String()),
			)
		}
		r.Ctx.Put(pageContextKey, &Page{
			URL:        r.Request.URL,
			StatusCode: r.StatusCode,
			Body:       r.Body,
		})
	})
}

// Fetch retrieves rawURL, retrying timeouts, connection failures, 429 and 5xx.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	for attempt := 0; ; attempt++ {
		page, err := f.fetchOnce(ctx, rawURL)
		status := 0
		if page != nil {
			status = page.StatusCode
		}

		classified := classifyError(err, rawURL, status)
		if classified == nil {
			return page, nil
		}
		f.recordError(rawURL, classified)

		if !retryable(classified) || !f.retry.Allow(attempt) {
			if err != nil {
				return nil, classified
			}
			return page, nil
		}
		if werr := f.retry.Wait(ctx, attempt+1); werr != nil {
			return nil, werr
		}
		slog.Debug("retrying request", slog.String("url", rawURL), slog.Int("attempt", attempt+1))
	}
}

func (f *CollyFetcher) fetchOnce(ctx context.Context, rawURL string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if err := f.limiter.Wait(ctx, u.Hostname()); err != nil {
		return nil, err
	}

	atomic.AddInt64(&f.requestCount, 1)
	f.metrics.IncRequest(f.site(u.Hostname()))

	cctx := colly.NewContext()
	if err := f.collector.Request(http.MethodGet, rawURL, nil, cctx, nil); err != nil {
		return nil, err
	}
	page, ok := cctx.GetAny(pageContextKey).(*Page)
	if !ok {
		return nil, fmt.Errorf("no response captured for %s", rawURL)
	}
	return page, nil
}

func (f *CollyFetcher) recordError(rawURL string, err error) {
	atomic.AddInt64(&f.errorCount, 1)
	category := errorTypeLabel(err)

	f.mu.Lock()
	f.errorsByType[category]++
	f.mu.Unlock()

	f.metrics.IncError(category)
	slog.Error("request error",
		slog.String("url", rawURL),
		slog.String("category", category),
		slog.Any("error", err),
	)
}

func (f *CollyFetcher) site(host string) string {
	if label, ok := f.sites[host]; ok {
		return label
	}
	return "other"
}

// Stats returns a snapshot of request, retry and error counters.
func (f *CollyFetcher) Stats() FetchStats {
	f.mu.Lock()
	byType := make(map[string]int, len(f.errorsByType))
	for k, v := range f.errorsByType {
		byType[k] = v
	}
	f.mu.Unlock()

	return FetchStats{
		Requests:     int(atomic.LoadInt64(&f.requestCount)),
		Retries:      f.retry.TotalRetries(),
		Errors:       int(atomic.LoadInt64(&f.errorCount)),
		ErrorsByType: byType,
	}
}

func siteLabels(cfg *config.Config) map[string]string {
	labels := make(map[string]string, 2)
	if u, err := url.Parse(cfg.MarketSearchURL); err == nil {
		labels[u.Hostname()] = "market"
	}
	if u, err := url.Parse(cfg.WikiBaseURL); err == nil {
		labels[u.Hostname()] = "wiki"
	}
	return labels
}
