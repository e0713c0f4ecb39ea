package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"

	"github.com/aluiziolira/go-scrape-duelmasters/config"
	"github.com/aluiziolira/go-scrape-duelmasters/models"
	"github.com/aluiziolira/go-scrape-duelmasters/parser"
)

const marketIDSeparator = "｜"

var marketIDReplacer = strings.NewReplacer(
	"ｂ", "b",
	"Ultra ", "超",
)

// MarketListing is one product block on a marketplace results page.
type MarketListing struct {
	IDs       []string
	PriceText string
	Price     int
	PriceOK   bool
}

// HasID reports whether id is one of the listing's equivalent IDs.
func (l MarketListing) HasID(id string) bool {
	for _, candidate := range l.IDs {
		if candidate == id {
			return true
		}
	}
	return false
}

// MarketListings reads every labelled listing from a results page.
func MarketListings(doc *goquery.Document, sel config.Selectors) []MarketListing {
	var listings []MarketListing
	doc.Find(sel.MarketResults).Find(sel.MarketListing).Each(func(_ int, block *goquery.Selection) {
		label := block.Find(sel.MarketIDLabel).First()
		if label.Length() == 0 {
			return
		}

		listing := MarketListing{IDs: MarketIDs(StrippedText(label))}
		if strong := block.Find(sel.MarketPrice).First(); strong.Length() > 0 {
			listing.PriceText = StrippedText(strong)
			if yen, err := parser.ParsePrice(listing.PriceText); err == nil {
				listing.Price = yen
				listing.PriceOK = true
			}
		}
		listings = append(listings, listing)
	})
	return listings
}

// MarketIDs splits a listing label into its equivalent card IDs and rewrites
// marketplace spellings to wiki spellings.
func MarketIDs(label string) []string {
	parts := strings.Split(label, marketIDSeparator)
	for i, p := range parts {
		parts[i] = marketIDReplacer.Replace(p)
	}
	return parts
}

// MaxPrice returns the highest parsable price among listings carrying cardID.
func MaxPrice(listings []MarketListing, cardID string) (int, bool) {
	best, ok := models.PriceMissing, false
	for _, l := range listings {
		if !l.PriceOK || !l.HasID(cardID) {
			continue
		}
		if !ok || l.Price > best {
			best, ok = l.Price, true
		}
	}
	return best, ok
}

// NearestID returns the listing ID most similar to cardID, or "" when the
// page had no listings.
func NearestID(listings []MarketListing, cardID string) string {
	nearest, score := "", -1.0
	for _, l := range listings {
		for _, id := range l.IDs {
			if s := matchr.JaroWinkler(cardID, id, false); s > score {
				nearest, score = id, s
			}
		}
	}
	return nearest
}

// ResolvePrice matches cardID against a results page.
func ResolvePrice(doc *goquery.Document, sel config.Selectors, cardID string) models.PriceResult {
	listings := MarketListings(doc, sel)
	if yen, ok := MaxPrice(listings, cardID); ok {
		return models.Found(yen)
	}
	return models.NotFound(NearestID(listings, cardID))
}
