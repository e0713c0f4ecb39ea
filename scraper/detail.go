package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aluiziolira/go-scrape-duelmasters/extract"
	"github.com/aluiziolira/go-scrape-duelmasters/models"
)

// FetchDetail looks up a card's civilization and Japanese name on its wiki
// page. It never fails: problems are reported through the sentinel values.
func (s *Scraper) FetchDetail(ctx context.Context, link string) models.DetailInfo {
	if link == "" || link == models.NoReference {
		slog.Warn("card has no reference link")
		return models.ErrorDetail()
	}

	if s.details != nil {
		if info, ok := s.details.Get(link); ok {
			s.Metrics.IncDetailCacheHit()
			return info
		}
	}

	page, err := s.fetcher.Fetch(ctx, link)
	if err != nil {
		slog.Error("fetch card detail", slog.String("url", link), slog.Any("error", err))
		return models.ErrorDetail()
	}
	if page.StatusCode != http.StatusOK {
		return models.UnavailableDetail()
	}

	doc, err := page.Document()
	if err != nil {
		slog.Error("parse card detail", slog.String("url", link), slog.Any("error", err))
		return models.ErrorDetail()
	}
	info, err := extract.Detail(doc, s.cfg.Selectors)
	if err != nil {
		if errors.Is(err, extract.ErrCivilizationMissing) {
			slog.Warn("card detail has no civilization row", slog.String("url", link))
		} else {
			slog.Error("extract card detail", slog.String("url", link), slog.Any("error", err))
		}
		return models.ErrorDetail()
	}

	if s.details != nil {
		s.details.Add(link, info)
	}
	return info
}
