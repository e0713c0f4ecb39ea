package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aluiziolira/go-scrape-duelmasters/extract"
	"github.com/aluiziolira/go-scrape-duelmasters/models"
	"github.com/aluiziolira/go-scrape-duelmasters/parser"
)

// ResolvePrice searches the marketplace for a card and returns the highest
// price among listings carrying exactly cardID.
func (s *Scraper) ResolvePrice(ctx context.Context, japaneseName, cardID string) models.PriceResult {
	result := s.resolvePrice(ctx, japaneseName, cardID)
	s.Metrics.IncPriceLookup(result.Status.String())

	if result.Status == models.PriceNotFound {
		slog.Debug("no marketplace listing matched",
			slog.String("id", cardID),
			slog.String("nearest_id", result.NearestID),
		)
	}
	return result
}

func (s *Scraper) resolvePrice(ctx context.Context, japaneseName, cardID string) models.PriceResult {
	searchURL, err := SearchURL(s.cfg.MarketSearchURL, parser.ExtractSearchKey(japaneseName), cardID)
	if err != nil {
		return models.FetchFailed(err)
	}

	page, err := s.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		return models.FetchFailed(err)
	}
	if page.StatusCode != http.StatusOK {
		return models.FetchFailed(&StatusError{URL: searchURL, StatusCode: page.StatusCode})
	}

	doc, err := page.Document()
	if err != nil {
		return models.FetchFailed(err)
	}
	return extract.ResolvePrice(doc, s.cfg.Selectors, cardID)
}

// SearchURL builds the marketplace query for "<key> <cardID>" with spaces
// encoded as %20.
func SearchURL(base, key, cardID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse market search url: %w", err)
	}
	q := u.Query()
	q.Set("search_word", key+" "+cardID)
	u.RawQuery = strings.ReplaceAll(q.Encode(), "+", "%20")
	return u.String(), nil
}
