package parser

import "strings"

const treasureSuffix = " Treasure"

// Variant pairs one category with one raw rarity token.
type Variant struct {
	Category string
	RawID    string
}

// SplitCategory splits a category label such as "Rare / Very Rare Treasure".
func SplitCategory(label string) []string {
	return splitTrimmed(label, "/")
}

// SplitRarity splits the comma separated rarity field of a listing line.
func SplitRarity(field string) []string {
	return splitTrimmed(field, ",")
}

func splitTrimmed(s, sep string) []string {
	parts := strings.Split(s, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// PropagateTreasure applies a Treasure qualifier carried by any category to
// all of them. The input slice is not modified.
func PropagateTreasure(categories []string) []string {
	out := make([]string, len(categories))
	copy(out, categories)

	treasure := false
	for _, c := range out {
		if strings.Contains(c, treasureSuffix) {
			treasure = true
			break
		}
	}
	if !treasure {
		return out
	}
	for i, c := range out {
		if !strings.Contains(c, treasureSuffix) {
			out[i] = c + treasureSuffix
		}
	}
	return out
}

// PairVariants aligns categories and rarities cyclically: the result has
// max(len) entries and the shorter list wraps around.
func PairVariants(categories, rarities []string) []Variant {
	if len(categories) == 0 || len(rarities) == 0 {
		return nil
	}
	n := max(len(categories), len(rarities))
	out := make([]Variant, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Variant{
			Category: categories[i%len(categories)],
			RawID:    rarities[i%len(rarities)],
		})
	}
	return out
}
