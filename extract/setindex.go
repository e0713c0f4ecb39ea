package extract

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrSectionNotFound is returned when no heading carries the requested marker.
var ErrSectionNotFound = errors.New("section not found")

// Link is an anchor collected from an index section.
type Link struct {
	Text string
	Href string
}

// SectionLinks collects the first linked anchor of every list item in the
// lists that follow the heading marked with marker, up to the next heading.
// Duplicate hrefs are dropped.
func SectionLinks(doc *goquery.Document, heading, marker string) ([]Link, error) {
	start := headingWithMarker(doc, heading, marker, false)
	if start == nil {
		return nil, ErrSectionNotFound
	}

	var links []Link
	seen := make(map[string]bool)
	for _, ul := range listsAfter(start.Nodes[0], heading) {
		goquery.NewDocumentFromNode(ul).Find("li").Each(func(_ int, li *goquery.Selection) {
			a := li.Find("a[href]").First()
			if a.Length() == 0 {
				return
			}
			href, _ := a.Attr("href")
			if seen[href] {
				return
			}
			seen[href] = true
			links = append(links, Link{Text: StrippedText(a), Href: href})
		})
	}
	return links, nil
}

// listsAfter walks the document forward from start in document order and
// returns every ul element met before the next heading element.
func listsAfter(start *html.Node, heading string) []*html.Node {
	var lists []*html.Node
	for n := nextInDocument(start); n != nil; n = nextInDocument(n) {
		if n.Type != html.ElementNode {
			continue
		}
		if n.Data == heading {
			break
		}
		if n.Data == "ul" {
			lists = append(lists, n)
		}
	}
	return lists
}

func nextInDocument(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

// SetKey derives a set list key from an index link text, e.g.
// "DM22-RP1 Legend of the Super Gods" becomes "DM22-RP1".
func SetKey(text string) string {
	key, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	return key
}

// SkipProductLink reports links the product index renders as sentence
// fragments rather than product pages.
func SkipProductLink(href string) bool {
	return strings.HasSuffix(href, ".")
}
