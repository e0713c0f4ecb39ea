package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-duelmasters/models"
)

// ValidateRecord ensures the scraper captured the required fields.
func ValidateRecord(r *models.CardRecord) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}
	if r.No <= 0 {
		return fmt.Errorf("record missing sequence number for %s", r.EnglishName)
	}
	if strings.TrimSpace(r.Set) == "" {
		return fmt.Errorf("record missing set for %s", r.EnglishName)
	}
	if strings.TrimSpace(r.EnglishName) == "" {
		return fmt.Errorf("record %d missing english name", r.No)
	}
	if r.PriceYen < models.PriceMissing {
		return fmt.Errorf("record %d has invalid price %d", r.No, r.PriceYen)
	}
	return nil
}

// NormalizePrice removes thousands separators, the Yen suffix and surrounding whitespace.
func NormalizePrice(price string) string {
	price = strings.TrimSpace(price)
	price = strings.ReplaceAll(price, ",", "")
	price = strings.ReplaceAll(price, "円", "")
	return strings.TrimSpace(price)
}

// ParsePrice converts marketplace price text such as "1,200円" to Yen.
func ParsePrice(price string) (int, error) {
	yen, err := strconv.Atoi(NormalizePrice(price))
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", price, err)
	}
	return yen, nil
}

// ConvertPrice converts Yen at rate, rounded to cents. Negative sentinels pass through.
func ConvertPrice(yen int, rate float64) float64 {
	if yen < 0 {
		return float64(yen)
	}
	return math.Round(float64(yen)*rate*100) / 100
}

// NormalizeCivilization folds both spellings of colourless to one value.
func NormalizeCivilization(civ string) string {
	lower := strings.ToLower(civ)
	if strings.Contains(lower, "colorless") || strings.Contains(lower, "colourless") {
		return "Colourless"
	}
	return civ
}
