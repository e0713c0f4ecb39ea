package parser

import "strings"

var cardIDReplacer = strings.NewReplacer(
	"☆", "",
	"㊙", "(秘)",
)

// NormalizeCardID rewrites a rarity/ID token from a set page into the form
// the marketplace prints on its listings.
func NormalizeCardID(raw string) string {
	id := cardIDReplacer.Replace(raw)
	id = strings.ReplaceAll(id, "0R", "OR")
	id = stripVariationSelectors(id)
	if strings.HasPrefix(id, "超G") {
		id = pairSecondChou(id)
	}
	return id
}

func stripVariationSelectors(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 0xFE00 && r <= 0xFE0F {
			return -1
		}
		return r
	}, s)
}

// pairSecondChou makes sure the first 超 after the leading 超G is followed by G.
func pairSecondChou(id string) string {
	runes := []rune(id)
	var b strings.Builder
	b.Grow(len(id) + 1)
	b.WriteString(string(runes[:2]))

	paired := false
	for i := 2; i < len(runes); i++ {
		b.WriteRune(runes[i])
		if paired || runes[i] != '超' {
			continue
		}
		paired = true
		if i+1 >= len(runes) || runes[i+1] != 'G' {
			b.WriteRune('G')
		}
	}
	return b.String()
}
