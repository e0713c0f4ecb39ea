// Package extract turns wiki and marketplace pages into catalog values. It
// only reads goquery documents; fetching lives in the scraper package.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// StrippedText concatenates every trimmed, non-empty text node under s in
// document order, with no separator.
func StrippedText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		writeStripped(&b, n)
	}
	return b.String()
}

func writeStripped(b *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		b.WriteString(strings.TrimSpace(n.Data))
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeStripped(b, c)
	}
}

// headingWithMarker returns the first heading whose span text contains
// marker. With firstSpanOnly only the heading's first span is checked.
func headingWithMarker(doc *goquery.Document, heading, marker string, firstSpanOnly bool) *goquery.Selection {
	var found *goquery.Selection
	doc.Find(heading).EachWithBreak(func(_ int, h *goquery.Selection) bool {
		spans := h.Find("span")
		if firstSpanOnly {
			spans = spans.First()
		}
		spans.EachWithBreak(func(_ int, span *goquery.Selection) bool {
			if strings.Contains(StrippedText(span), marker) {
				found = h
			}
			return found == nil
		})
		return found == nil
	})
	return found
}
