package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aluiziolira/go-scrape-duelmasters/config"
	"github.com/aluiziolira/go-scrape-duelmasters/extract"
)

// ErrUnknownEra is returned when the era list has no entry for the requested era.
var ErrUnknownEra = errors.New("unknown era")

// Discover walks an era page's product index and collects every set linked
// from the products' "List of Sets" sections, keyed by the first word of the
// link text. Product pages that fail or lack the section are skipped.
func (s *Scraper) Discover(ctx context.Context, era string, eras config.SetList) (config.SetList, error) {
	eraURL, ok := eras.Lookup(era)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEra, era)
	}

	products, err := s.sectionLinks(ctx, eraURL, s.cfg.Selectors.ProductsMarker)
	if err != nil {
		return nil, fmt.Errorf("era %s: %w", era, err)
	}

	found := make(config.SetList)
	for _, product := range products {
		if extract.SkipProductLink(product.Href) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		productURL := s.wikiLink(product.Href)
		sets, err := s.sectionLinks(ctx, productURL, s.cfg.Selectors.SetListMarker)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			slog.Warn("skipping product page",
				slog.String("url", productURL),
				slog.Any("error", err),
			)
			continue
		}

		added := 0
		for _, set := range sets {
			key := extract.SetKey(set.Text)
			if key == "" {
				continue
			}
			found[key] = s.wikiLink(set.Href)
			added++
		}
		slog.Info("collected sets from product page",
			slog.String("url", productURL),
			slog.Int("sets", added),
		)
	}
	return found, nil
}

func (s *Scraper) sectionLinks(ctx context.Context, pageURL, marker string) ([]extract.Link, error) {
	page, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if page.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: pageURL, StatusCode: page.StatusCode}
	}
	doc, err := page.Document()
	if err != nil {
		return nil, err
	}
	return extract.SectionLinks(doc, s.cfg.Selectors.SectionHeading, marker)
}

// wikiLink resolves wiki-relative hrefs against the wiki root.
func (s *Scraper) wikiLink(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return strings.TrimSuffix(s.cfg.WikiBaseURL, "/") + href
}
