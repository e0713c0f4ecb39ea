package config

import (
	"fmt"
	"net/url"
	"time"
)

// Behaviours when a marketplace lookup fails outright.
const (
	// PriceErrorAbortSet stops the current set and reports it as failed.
	PriceErrorAbortSet = "abort-set"
	// PriceErrorSentinel records the missing-price sentinel and keeps going.
	PriceErrorSentinel = "sentinel"
)

// Selectors isolates every markup contract with the wiki and the marketplace.
type Selectors struct {
	SectionHeading string
	ContentsMarker string
	ProductsMarker string
	SetListMarker  string
	DetailTable    string
	MarketResults  string
	MarketListing  string
	MarketIDLabel  string
	MarketPrice    string
}

// DefaultSelectors matches the live wiki and marketplace pages.
func DefaultSelectors() Selectors {
	return Selectors{
		SectionHeading: "h2",
		ContentsMarker: "Contents",
		ProductsMarker: "Products",
		SetListMarker:  "List of Sets",
		DetailTable:    "table.wikitable",
		MarketResults:  "div#card-list3",
		MarketListing:  "div.col-md",
		MarketIDLabel:  "span.d-block.border.border-dark.p-1.w-100.text-center.my-2",
		MarketPrice:    "strong.d-block.text-end",
	}
}

// Config holds scraper configuration.
type Config struct {
	WikiBaseURL       string
	MarketSearchURL   string
	SetListFile       string
	EraListFile       string
	OutputDir         string
	OutputFormat      string // csv, json, dual, or xlsx
	DBPath            string
	Rate              float64
	SetDelay          time.Duration
	RequestsPerSecond float64
	RandomDelay       time.Duration
	Timeout           time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration
	RetryBackoffMax   time.Duration
	UserAgent         string
	Verbose           bool
	RespectRobotsTxt  bool
	MetricsAddr       string
	DetailCacheSize   int
	OnPriceError      string
	Selectors         Selectors
}

// DefaultConfig returns polite defaults for the live sites.
func DefaultConfig() *Config {
	return &Config{
		WikiBaseURL:       "https://duelmasters.fandom.com",
		MarketSearchURL:   "https://yuyu-tei.jp/sell/dm/s/search",
		SetListFile:       "set_lists.json",
		EraListFile:       "set_eras.json",
		OutputDir:         "generated_csv",
		OutputFormat:      "csv",
		DBPath:            "",
		Rate:              0.0087,
		SetDelay:          5 * time.Second,
		RequestsPerSecond: 2,
		RandomDelay:       0,
		Timeout:           30 * time.Second,
		MaxRetries:        2,
		RetryBackoff:      500 * time.Millisecond,
		RetryBackoffMax:   5 * time.Second,
		UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Verbose:           false,
		RespectRobotsTxt:  false,
		MetricsAddr:       "",
		DetailCacheSize:   512,
		OnPriceError:      PriceErrorAbortSet,
		Selectors:         DefaultSelectors(),
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if _, err := parseHostURL("wiki base URL", c.WikiBaseURL); err != nil {
		return err
	}
	if _, err := parseHostURL("market search URL", c.MarketSearchURL); err != nil {
		return err
	}
	if c.SetListFile == "" {
		return fmt.Errorf("set list file cannot be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir cannot be empty")
	}
	switch c.OutputFormat {
	case "csv", "json", "dual", "xlsx":
	default:
		return fmt.Errorf("output format must be csv, json, dual, or xlsx")
	}
	if c.Rate <= 0 {
		return fmt.Errorf("rate must be positive")
	}
	if c.SetDelay < 0 {
		return fmt.Errorf("set delay cannot be negative")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative")
	}
	if c.RandomDelay < 0 {
		return fmt.Errorf("random delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.DetailCacheSize < 0 {
		return fmt.Errorf("detail cache size cannot be negative")
	}
	if c.OnPriceError != PriceErrorAbortSet && c.OnPriceError != PriceErrorSentinel {
		return fmt.Errorf("on price error must be %s or %s", PriceErrorAbortSet, PriceErrorSentinel)
	}
	if err := c.Selectors.validate(); err != nil {
		return err
	}

	return nil
}

// AllowedHosts lists the hosts the scraper may contact.
func (c *Config) AllowedHosts() ([]string, error) {
	wiki, err := parseHostURL("wiki base URL", c.WikiBaseURL)
	if err != nil {
		return nil, err
	}
	market, err := parseHostURL("market search URL", c.MarketSearchURL)
	if err != nil {
		return nil, err
	}
	if wiki.Hostname() == market.Hostname() {
		return []string{wiki.Hostname()}, nil
	}
	return []string{wiki.Hostname(), market.Hostname()}, nil
}

func parseHostURL(name, raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("%s cannot be empty", name)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("%s must include a host", name)
	}
	return parsed, nil
}

func (s Selectors) validate() error {
	fields := map[string]string{
		"section heading": s.SectionHeading,
		"contents marker": s.ContentsMarker,
		"detail table":    s.DetailTable,
		"market results":  s.MarketResults,
		"market listing":  s.MarketListing,
		"market id label": s.MarketIDLabel,
		"market price":    s.MarketPrice,
	}
	for name, value := range fields {
		if value == "" {
			return fmt.Errorf("selector %s cannot be empty", name)
		}
	}
	return nil
}
