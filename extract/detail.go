package extract

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/aluiziolira/go-scrape-duelmasters/config"
	"github.com/aluiziolira/go-scrape-duelmasters/models"
	"github.com/aluiziolira/go-scrape-duelmasters/parser"
)

// ErrCivilizationMissing is returned when a card table has no civilization row.
var ErrCivilizationMissing = errors.New("card table has no civilization row")

const civilizationLabel = "Civilization"

// Detail reads civilization and Japanese name from the first card table of a
// card page. A page without a card table yields the not-found sentinels.
func Detail(doc *goquery.Document, sel config.Selectors) (models.DetailInfo, error) {
	table := doc.Find(sel.DetailTable).First()
	if table.Length() == 0 {
		return models.NotFoundDetail(), nil
	}

	japaneseName := ""
	if small := table.Find("tr").First().Find("small").First(); small.Length() > 0 {
		japaneseName = RubyBaseText(small)
	}

	civilization, found := "", false
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		if strings.Contains(StrippedText(cells.Eq(0)), civilizationLabel) {
			civilization = StrippedText(cells.Eq(1))
			found = true
		}
	})
	if !found {
		return models.DetailInfo{}, ErrCivilizationMissing
	}

	info := models.DetailInfo{
		Civilization: parser.NormalizeCivilization(civilization),
		JapaneseName: japaneseName,
	}
	if info.Civilization == "" {
		info.Civilization = models.CivilizationNotFound
	}
	if info.JapaneseName == "" {
		info.JapaneseName = models.JapaneseNameNotFound
	}
	return info, nil
}

// RubyBaseText rebuilds annotated Japanese text from s's direct children:
// text nodes are kept, ruby elements contribute only their rb base text.
func RubyBaseText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				b.WriteString(strings.TrimSpace(c.Data))
			case c.Type == html.ElementNode && c.Data == "ruby":
				goquery.NewDocumentFromNode(c).Find("rb").Each(func(_ int, rb *goquery.Selection) {
					b.WriteString(StrippedText(rb))
				})
			}
		}
	}
	return strings.TrimSpace(b.String())
}
