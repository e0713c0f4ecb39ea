package extract

import (
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-duelmasters/config"
	"github.com/aluiziolira/go-scrape-duelmasters/models"
)

// DefaultCategory applies to list items that precede any category paragraph.
const DefaultCategory = "Over Rare"

// ErrContentsNotFound is returned when a set page has no contents heading.
var ErrContentsNotFound = errors.New("contents section not found")

// Listing reads the contents section of a set page. It returns one stub per
// line-break separated part of every list item, in document order.
func Listing(doc *goquery.Document, pageURL *url.URL, sel config.Selectors) ([]models.ListingStub, error) {
	heading := headingWithMarker(doc, sel.SectionHeading, sel.ContentsMarker, true)
	if heading == nil {
		return nil, ErrContentsNotFound
	}

	var stubs []models.ListingStub
	category := DefaultCategory
	for node := heading.Next(); node.Length() > 0 && !node.Is(sel.SectionHeading); node = node.Next() {
		stubs, category = foldSection(stubs, category, node, pageURL)
	}
	return stubs, nil
}

// foldSection consumes one sibling of the contents heading. Paragraphs set the
// category for what follows; lists emit stubs under the current category.
func foldSection(stubs []models.ListingStub, category string, node *goquery.Selection, pageURL *url.URL) ([]models.ListingStub, string) {
	switch goquery.NodeName(node) {
	case "p":
		return stubs, StrippedText(node)
	case "ul":
		node.Find("li").Each(func(_ int, li *goquery.Selection) {
			inner, err := li.Html()
			if err != nil {
				return
			}
			for _, part := range strings.Split(inner, "<br/>") {
				stubs = append(stubs, parseListingPart(part, category, pageURL))
			}
		})
	}
	return stubs, category
}

func parseListingPart(part, category string, pageURL *url.URL) models.ListingStub {
	stub := models.ListingStub{
		EnglishName:   models.NoLinkText,
		ReferenceLink: models.NoReference,
		Category:      category,
	}

	frag, err := goquery.NewDocumentFromReader(strings.NewReader(part))
	if err != nil {
		stub.RawRarity = strings.TrimSpace(part)
		return stub
	}

	if a := frag.Find("a").First(); a.Length() > 0 {
		stub.EnglishName = StrippedText(a)
		if href, ok := a.Attr("href"); ok {
			stub.ReferenceLink = resolveLink(pageURL, href)
		}
		a.Remove()
	}
	stub.RawRarity = StrippedText(frag.Selection)
	return stub
}

func resolveLink(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
