package parser

import (
	"testing"

	"github.com/aluiziolira/go-scrape-duelmasters/models"
	"github.com/google/go-cmp/cmp"
)

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *models.CardRecord
		wantErr bool
	}{
		{
			name: "valid record",
			record: &models.CardRecord{
				No:          1,
				Rarity:      "Over Rare",
				ID:          "OR1/OR3",
				EnglishName: "Bolshack Dragon",
				Set:         "DM22-RP1",
				PriceYen:    1200,
			},
			wantErr: false,
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: true,
		},
		{
			name: "missing sequence number",
			record: &models.CardRecord{
				EnglishName: "Bolshack Dragon",
				Set:         "DM22-RP1",
			},
			wantErr: true,
		},
		{
			name: "missing set",
			record: &models.CardRecord{
				No:          1,
				EnglishName: "Bolshack Dragon",
			},
			wantErr: true,
		},
		{
			name: "missing english name",
			record: &models.CardRecord{
				No:  1,
				Set: "DM22-RP1",
			},
			wantErr: true,
		},
		{
			name: "missing price sentinel is valid",
			record: &models.CardRecord{
				No:          2,
				EnglishName: "No link text",
				Set:         "DM22-RP1",
				PriceYen:    models.PriceMissing,
			},
			wantErr: false,
		},
		{
			name: "price below sentinel",
			record: &models.CardRecord{
				No:          2,
				EnglishName: "Bolshack Dragon",
				Set:         "DM22-RP1",
				PriceYen:    -5,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecord(tt.record)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRecord() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "thousands separator", input: "1,200円", want: 1200},
		{name: "plain", input: "900円", want: 900},
		{name: "whitespace", input: "  12,000 円 ", want: 12000},
		{name: "sold out text", input: "売切れ", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePrice(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParsePrice(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestConvertPrice(t *testing.T) {
	tests := []struct {
		name string
		yen  int
		rate float64
		want float64
	}{
		{name: "rounded to cents", yen: 1200, rate: 0.0087, want: 10.44},
		{name: "zero", yen: 0, rate: 0.0087, want: 0},
		{name: "large price", yen: 35000, rate: 0.0087, want: 304.5},
		{name: "sentinel passes through", yen: models.PriceMissing, rate: 0.0087, want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConvertPrice(tt.yen, tt.rate); got != tt.want {
				t.Errorf("ConvertPrice(%d, %v) = %v, want %v", tt.yen, tt.rate, got, tt.want)
			}
		})
	}
}

func TestNormalizeCivilization(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "Fire", expected: "Fire"},
		{input: "Colorless", expected: "Colourless"},
		{input: "colourless", expected: "Colourless"},
		{input: "Zero (Colorless)", expected: "Colourless"},
		{input: "Water / Darkness", expected: "Water / Darkness"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeCivilization(tt.input); got != tt.expected {
				t.Errorf("NormalizeCivilization(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsJapaneseChar(t *testing.T) {
	for _, r := range []rune{0x3041, 0x30A1, 0x31F0, 0x4E00, 'あ', 'ア', '超'} {
		if !IsJapaneseChar(r) {
			t.Errorf("IsJapaneseChar(%U) = false, want true", r)
		}
	}
	for _, r := range []rune{'A', '0', ' ', 'α', '☆', 0x2FFF, 0xA000} {
		if IsJapaneseChar(r) {
			t.Errorf("IsJapaneseChar(%U) = true, want false", r)
		}
	}
}

func TestExtractSearchKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "too short", input: "ab", expected: "ab"},
		{name: "short japanese", input: "火竜", expected: "火竜"},
		{name: "latin run", input: "der`ZenMondo", expected: "der"},
		{name: "japanese beats latin", input: "αβ日本γ", expected: "日本"},
		{name: "first japanese pair", input: "ボルシャック・ドラゴン", expected: "ボル"},
		{name: "space breaks pair", input: "超 竜バジュラ", expected: "竜バ"},
		{name: "middle dot is katakana", input: "超・竜バジュラ", expected: "超・"},
		{name: "digits break letters", input: "a1b2c3", expected: "a1b2c3"},
		{name: "underscore breaks letters", input: "ab_cd_ef", expected: "ab_cd_ef"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractSearchKey(tt.input); got != tt.expected {
				t.Errorf("ExtractSearchKey(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeCardID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain id", input: "5B/22", expected: "5B/22"},
		{name: "star and zero", input: "☆3R0R", expected: "3ROR"},
		{name: "secret marker", input: "㊙1/㊙5", expected: "(秘)1/(秘)5"},
		{name: "variation selector", input: "S1\uFE0F/S10", expected: "S1/S10"},
		{name: "chou g without second chou", input: "超Gあ", expected: "超Gあ"},
		{name: "chou g already paired", input: "超G1/超G3", expected: "超G1/超G3"},
		{name: "chou g pairs bare chou", input: "超Gあ超ば", expected: "超Gあ超Gば"},
		{name: "chou g trailing chou", input: "超G1/超", expected: "超G1/超G"},
		{name: "only first bare chou", input: "超G1/超2/超3", expected: "超G1/超G2/超3"},
		{name: "chou without g prefix untouched", input: "超1/超3", expected: "超1/超3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCardID(tt.input); got != tt.expected {
				t.Errorf("NormalizeCardID(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPropagateTreasure(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "one treasure qualifies all",
			input:    []string{"Rare Treasure", "Uncommon"},
			expected: []string{"Rare Treasure", "Uncommon Treasure"},
		},
		{
			name:     "no treasure",
			input:    []string{"Rare", "Very Rare"},
			expected: []string{"Rare", "Very Rare"},
		},
		{
			name:     "bare word is not a qualifier",
			input:    []string{"Treasure", "Rare"},
			expected: []string{"Treasure", "Rare"},
		},
		{
			name:     "all already treasure",
			input:    []string{"Rare Treasure", "Very Rare Treasure"},
			expected: []string{"Rare Treasure", "Very Rare Treasure"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := append([]string(nil), tt.input...)
			got := PropagateTreasure(input)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("PropagateTreasure mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.input, input); diff != "" {
				t.Errorf("PropagateTreasure modified its input (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitCategoryAndRarity(t *testing.T) {
	if diff := cmp.Diff([]string{"Rare", "Very Rare Treasure"}, SplitCategory("Rare / Very Rare Treasure")); diff != "" {
		t.Errorf("SplitCategory mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"1", "2"}, SplitRarity(" 1, 2 ")); diff != "" {
		t.Errorf("SplitRarity mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{""}, SplitRarity("")); diff != "" {
		t.Errorf("SplitRarity on empty mismatch (-want +got):\n%s", diff)
	}
}

func TestPairVariants(t *testing.T) {
	tests := []struct {
		name       string
		categories []string
		rarities   []string
		expected   []Variant
	}{
		{
			name:       "rarities longer",
			categories: []string{"A", "B"},
			rarities:   []string{"1", "2", "3"},
			expected:   []Variant{{"A", "1"}, {"B", "2"}, {"A", "3"}},
		},
		{
			name:       "categories longer",
			categories: []string{"A", "B", "C"},
			rarities:   []string{"1"},
			expected:   []Variant{{"A", "1"}, {"B", "1"}, {"C", "1"}},
		},
		{
			name:       "equal lengths",
			categories: []string{"A", "B"},
			rarities:   []string{"1", "2"},
			expected:   []Variant{{"A", "1"}, {"B", "2"}},
		},
		{
			name:       "empty side",
			categories: nil,
			rarities:   []string{"1"},
			expected:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.expected, PairVariants(tt.categories, tt.rarities)); diff != "" {
				t.Errorf("PairVariants mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
