// Package models defines data structures for the catalog scraper.
package models

import "time"

// Sentinels written in place of values a lookup could not produce.
const (
	CivilizationNotFound = "Civilization Not Found"
	JapaneseNameNotFound = "Japanese Name Not Found"
	DetailError          = "Error"
	DetailUnavailable    = "Failed to retrieve"

	NoLinkText  = "No link text"
	NoReference = "No reference"

	// PriceMissing is recorded as the Yen price when no marketplace listing matched.
	PriceMissing = -1
)

// ListingStub is one card variant line read from a set page, before any
// detail or price lookup.
type ListingStub struct {
	EnglishName   string
	ReferenceLink string
	RawRarity     string
	Category      string
}

// CardRecord represents one catalog row.
type CardRecord struct {
	No           int     `csv:"No" json:"no"`
	Rarity       string  `csv:"Rarity" json:"rarity"`
	ID           string  `csv:"Id" json:"id"`
	JapaneseName string  `csv:"Japanese Name" json:"japanese_name"`
	EnglishName  string  `csv:"English Name" json:"english_name"`
	Civilization string  `csv:"Civilization" json:"civilization"`
	Set          string  `csv:"Set" json:"set"`
	Reference    string  `csv:"Reference" json:"reference"`
	PriceYen     int     `csv:"Price (Yen)" json:"price_yen"`
	PriceSGD     float64 `csv:"Price (SGD)" json:"price_sgd"`
	Qty          int     `csv:"Qty" json:"qty"`
}

// Columns returns the header shared by every tabular output.
func Columns() []string {
	return []string{"No", "Rarity", "Id", "Japanese Name", "English Name", "Civilization", "Set", "Reference", "Price (Yen)", "Price (SGD)", "Qty"}
}

// DetailInfo is what a card's wiki page contributes to its record.
type DetailInfo struct {
	Civilization string
	JapaneseName string
}

// NotFoundDetail is returned when the card page has no data table.
func NotFoundDetail() DetailInfo {
	return DetailInfo{Civilization: CivilizationNotFound, JapaneseName: JapaneseNameNotFound}
}

// UnavailableDetail is returned when the card page answered with a non-200 status.
func UnavailableDetail() DetailInfo {
	return DetailInfo{Civilization: DetailUnavailable, JapaneseName: DetailUnavailable}
}

// ErrorDetail is returned when the card page could not be fetched or parsed.
func ErrorDetail() DetailInfo {
	return DetailInfo{Civilization: DetailError, JapaneseName: DetailError}
}

// PriceStatus tells which variant a PriceResult holds.
type PriceStatus int

const (
	PriceFound PriceStatus = iota
	PriceNotFound
	PriceFetchError
)

func (s PriceStatus) String() string {
	switch s {
	case PriceFound:
		return "found"
	case PriceNotFound:
		return "not_found"
	case PriceFetchError:
		return "fetch_error"
	default:
		return "unknown"
	}
}

// PriceResult is the outcome of a marketplace lookup.
type PriceResult struct {
	Status PriceStatus
	Yen    int
	// NearestID is the closest listing ID seen when nothing matched exactly.
	NearestID string
	Err       error
}

// Found builds a successful lookup.
func Found(yen int) PriceResult {
	return PriceResult{Status: PriceFound, Yen: yen}
}

// NotFound builds a lookup that reached the marketplace but matched no listing.
func NotFound(nearestID string) PriceResult {
	return PriceResult{Status: PriceNotFound, Yen: PriceMissing, NearestID: nearestID}
}

// FetchFailed builds a lookup that never got a usable results page.
func FetchFailed(err error) PriceResult {
	return PriceResult{Status: PriceFetchError, Yen: PriceMissing, Err: err}
}

// YenOrMissing returns the price, or PriceMissing for anything but PriceFound.
func (r PriceResult) YenOrMissing() int {
	if r.Status != PriceFound {
		return PriceMissing
	}
	return r.Yen
}

// SetResult holds the outcome of scraping one set page.
type SetResult struct {
	Key       string
	URL       string
	Records   []*CardRecord
	StartTime time.Time
	EndTime   time.Time
	Err       error
}

// Duration reports how long the set took.
func (r *SetResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// RunResult holds the overall result of a scraping run.
type RunResult struct {
	RunID        string
	Sets         []*SetResult
	StartTime    time.Time
	EndTime      time.Time
	TotalCount   int
	ErrorCount   int
	ErrorsByType map[string]int
	RetryCount   int
	RequestCount int
}

// FailedSets lists the keys of sets that did not complete.
func (r *RunResult) FailedSets() []string {
	var keys []string
	for _, set := range r.Sets {
		if set.Err != nil {
			keys = append(keys, set.Key)
		}
	}
	return keys
}
