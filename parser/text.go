// Package parser holds the pure text rules used to turn scraped card markup
// into catalog values: script detection, search key shortening, card ID
// canonicalisation, and category/rarity expansion.
package parser

import (
	"log/slog"
	"unicode"
)

// IsJapaneseChar reports whether r is Hiragana, Katakana, a Katakana phonetic
// extension, or a CJK unified ideograph.
func IsJapaneseChar(r rune) bool {
	return (r >= 0x3040 && r <= 0x309F) ||
		(r >= 0x30A0 && r <= 0x30FF) ||
		(r >= 0x31F0 && r <= 0x31FF) ||
		(r >= 0x4E00 && r <= 0x9FFF)
}

// ExtractSearchKey shortens a card name to a fragment the marketplace search
// is likely to index. The first two consecutive Japanese characters win, then
// the first three consecutive letters. Anything else falls back to text.
func ExtractSearchKey(text string) string {
	runes := []rune(text)
	if len(runes) < 3 {
		slog.Debug("search key fallback", slog.String("text", text), slog.String("reason", "too short"))
		return text
	}

	for i := 0; i+1 < len(runes); i++ {
		if IsJapaneseChar(runes[i]) && IsJapaneseChar(runes[i+1]) {
			return string(runes[i : i+2])
		}
	}

	for i := 0; i+2 < len(runes); i++ {
		if unicode.IsLetter(runes[i]) && unicode.IsLetter(runes[i+1]) && unicode.IsLetter(runes[i+2]) {
			return string(runes[i : i+3])
		}
	}

	slog.Debug("search key fallback", slog.String("text", text), slog.String("reason", "no usable fragment"))
	return text
}
