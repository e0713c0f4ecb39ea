package extract

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"

	"github.com/aluiziolira/go-scrape-duelmasters/config"
	"github.com/aluiziolira/go-scrape-duelmasters/models"
)

func mustDoc(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

const setPage = `<html><body><div class="mw-parser-output">
<h2><span class="mw-headline">Details</span></h2>
<p>Released in 2022.</p>
<h2><span class="mw-headline" id="Contents">Contents</span></h2>
<ul><li><a href="/wiki/Bolshack_Dragon">Bolshack Dragon</a> OR1/OR3</li></ul>
<p>Rare / <b>Very Rare Treasure</b></p>
<ul>
<li><a href="/wiki/Alpha">Alpha</a> 1,2<br/><a href="/wiki/Beta">Beta</a> 3</li>
<li>Mystery card S1</li>
</ul>
<h2><span class="mw-headline">Trivia</span></h2>
<ul><li><a href="/wiki/Ignored">Ignored</a> 9</li></ul>
</div></body></html>`

func TestListing(t *testing.T) {
	pageURL, _ := url.Parse("https://duelmasters.fandom.com/wiki/DM22-RP1")
	stubs, err := Listing(mustDoc(t, setPage), pageURL, config.DefaultSelectors())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []models.ListingStub{
		{EnglishName: "Bolshack Dragon", ReferenceLink: "https://duelmasters.fandom.com/wiki/Bolshack_Dragon", RawRarity: "OR1/OR3", Category: "Over Rare"},
		{EnglishName: "Alpha", ReferenceLink: "https://duelmasters.fandom.com/wiki/Alpha", RawRarity: "1,2", Category: "Rare /Very Rare Treasure"},
		{EnglishName: "Beta", ReferenceLink: "https://duelmasters.fandom.com/wiki/Beta", RawRarity: "3", Category: "Rare /Very Rare Treasure"},
		{EnglishName: models.NoLinkText, ReferenceLink: models.NoReference, RawRarity: "Mystery card S1", Category: "Rare /Very Rare Treasure"},
	}
	if diff := cmp.Diff(want, stubs); diff != "" {
		t.Fatalf("stubs mismatch (-want +got):\n%s", diff)
	}
}

func TestListingContentsNotFound(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no heading", body: `<h2><span>Trivia</span></h2><ul><li>x</li></ul>`},
		{name: "marker outside first span", body: `<h2><span>Edit</span><span>Contents</span></h2><ul><li>x</li></ul>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Listing(mustDoc(t, tt.body), nil, config.DefaultSelectors())
			if !errors.Is(err, ErrContentsNotFound) {
				t.Fatalf("expected ErrContentsNotFound, got %v", err)
			}
		})
	}
}

func TestListingEmptyContents(t *testing.T) {
	body := `<h2><span>Contents</span></h2><p>Super Rare</p><h2><span>Gallery</span></h2>`
	stubs, err := Listing(mustDoc(t, body), nil, config.DefaultSelectors())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stubs) != 0 {
		t.Fatalf("expected no stubs, got %v", stubs)
	}
}

const cardPage = `<html><body>
<table class="wikitable">
<tr><th colspan="2">Bolshack Dragon<br/><small><ruby><rb>超</rb><rt>ちょう</rt></ruby>竜 <ruby><rb>ボルシャック</rb><rp>(</rp><rt>x</rt><rp>)</rp></ruby>・ドラゴン</small></th></tr>
<tr><td>Civilization</td><td>Water</td></tr>
<tr><td>Card Type</td><td>Creature</td></tr>
<tr><td> Civilization </td><td> Fire </td></tr>
</table>
<table class="wikitable"><tr><td>Civilization</td><td>Nature</td></tr></table>
</body></html>`

func TestDetail(t *testing.T) {
	info, err := Detail(mustDoc(t, cardPage), config.DefaultSelectors())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := models.DetailInfo{Civilization: "Fire", JapaneseName: "超竜ボルシャック・ドラゴン"}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Fatalf("detail mismatch (-want +got):\n%s", diff)
	}
}

func TestDetailSentinels(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    models.DetailInfo
		wantErr error
	}{
		{
			name: "no card table",
			body: `<table class="infobox"><tr><td>Civilization</td><td>Fire</td></tr></table>`,
			want: models.NotFoundDetail(),
		},
		{
			name:    "table without civilization row",
			body:    `<table class="wikitable"><tr><th><small>火</small></th></tr><tr><td>Race</td><td>Dragon</td></tr></table>`,
			wantErr: ErrCivilizationMissing,
		},
		{
			name: "colorless civilization without japanese name",
			body: `<table class="wikitable"><tr><th>Zero</th></tr><tr><td>Civilization</td><td>Zero (Colorless)</td></tr></table>`,
			want: models.DetailInfo{Civilization: "Colourless", JapaneseName: models.JapaneseNameNotFound},
		},
		{
			name: "empty civilization cell",
			body: `<table class="wikitable"><tr><th><small>火</small></th></tr><tr><td>Civilization</td><td></td></tr></table>`,
			want: models.DetailInfo{Civilization: models.CivilizationNotFound, JapaneseName: "火"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Detail(mustDoc(t, tt.body), config.DefaultSelectors())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, info); diff != "" {
				t.Fatalf("detail mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func marketPage(listings ...string) string {
	return `<html><body><div id="card-list3">` + strings.Join(listings, "") + `</div></body></html>`
}

func marketListing(label, price string) string {
	return `<div class="col-md"><span class="d-block border border-dark p-1 w-100 text-center my-2">` + label +
		`</span><strong class="d-block text-end">` + price + `</strong></div>`
}

func TestResolvePrice(t *testing.T) {
	sel := config.DefaultSelectors()
	doc := mustDoc(t, marketPage(
		marketListing("5B/22", "1,200 円"),
		marketListing("5B/23", "900円"),
	))

	got := ResolvePrice(doc, sel, "5B/22")
	if got.Status != models.PriceFound || got.Yen != 1200 {
		t.Fatalf("expected found 1200, got %+v", got)
	}

	got = ResolvePrice(doc, sel, "5B/24")
	if got.Status != models.PriceNotFound || got.YenOrMissing() != models.PriceMissing {
		t.Fatalf("expected not found, got %+v", got)
	}
}

func TestMaxPrice(t *testing.T) {
	doc := mustDoc(t, marketPage(
		marketListing("超1/超2｜Ultra 1/Ultra 2", "800円"),
		`<div class="col-md"><span class="d-block border border-dark p-1 w-100 text-center my-2">Ultra 1/Ultra 2</span><strong class="d-block text-end text-danger">1,500円</strong></div>`,
		marketListing("超1/超2", "売切れ"),
		marketListing("超1/超3", "9,999円"),
		`<div class="col-md"><strong class="d-block text-end">20,000円</strong></div>`,
	))
	listings := MarketListings(doc, config.DefaultSelectors())
	if len(listings) != 4 {
		t.Fatalf("expected 4 labelled listings, got %d", len(listings))
	}

	yen, ok := MaxPrice(listings, "超1/超2")
	if !ok || yen != 1500 {
		t.Fatalf("expected 1500, got %d (ok=%v)", yen, ok)
	}

	if yen, ok := MaxPrice(listings, "超9"); ok || yen != models.PriceMissing {
		t.Fatalf("expected missing price, got %d (ok=%v)", yen, ok)
	}
}

func TestMarketIDs(t *testing.T) {
	got := MarketIDs("Ultra 1/Ultra 2｜5ｂ/22")
	if diff := cmp.Diff([]string{"超1/超2", "5b/22"}, got); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestNearestID(t *testing.T) {
	listings := []MarketListing{
		{IDs: []string{"5B/22"}},
		{IDs: []string{"S5/S11", "S5/S12"}},
	}
	if got := NearestID(listings, "S5/S10"); got != "S5/S11" {
		t.Fatalf("expected S5/S11, got %q", got)
	}
	if got := NearestID(nil, "S5/S10"); got != "" {
		t.Fatalf("expected empty nearest id, got %q", got)
	}
}

const eraPage = `<html><body>
<h2><span class="mw-headline">Overview</span></h2>
<ul><li><a href="/wiki/Too_Early">Too early</a></li></ul>
<h2><span class="mw-editsection">edit</span><span class="mw-headline">Products</span></h2>
<div><ul>
<li><a href="/wiki/Expansion_Sets">Expansion Sets</a></li>
<li>See <a href="/wiki/Decks.">decks.</a></li>
<li>Plain text</li>
</ul></div>
<ul><li><a href="/wiki/Expansion_Sets">Duplicate</a><ul><li><a href="/wiki/Promos">Promos</a></li></ul></li></ul>
<h2><span class="mw-headline">Gallery</span></h2>
<ul><li><a href="/wiki/Gallery">Gallery</a></li></ul>
</body></html>`

func TestSectionLinks(t *testing.T) {
	links, err := SectionLinks(mustDoc(t, eraPage), "h2", "Products")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Link{
		{Text: "Expansion Sets", Href: "/wiki/Expansion_Sets"},
		{Text: "decks.", Href: "/wiki/Decks."},
		{Text: "Promos", Href: "/wiki/Promos"},
	}
	if diff := cmp.Diff(want, links); diff != "" {
		t.Fatalf("links mismatch (-want +got):\n%s", diff)
	}

	if _, err := SectionLinks(mustDoc(t, eraPage), "h2", "List of Sets"); !errors.Is(err, ErrSectionNotFound) {
		t.Fatalf("expected ErrSectionNotFound, got %v", err)
	}
}

func TestSetKeyAndSkip(t *testing.T) {
	if got := SetKey(" DM22-RP1 Legend of the Super Gods"); got != "DM22-RP1" {
		t.Fatalf("SetKey = %q", got)
	}
	if got := SetKey("DMEX-01"); got != "DMEX-01" {
		t.Fatalf("SetKey = %q", got)
	}
	if !SkipProductLink("/wiki/Decks.") || SkipProductLink("/wiki/Decks") {
		t.Fatalf("SkipProductLink misclassified links")
	}
}

func TestStrippedText(t *testing.T) {
	doc := mustDoc(t, `<p>  Rare <b> / </b>
	Very Rare  </p>`)
	if got := StrippedText(doc.Find("p")); got != "Rare/Very Rare" {
		t.Fatalf("StrippedText = %q", got)
	}
}
