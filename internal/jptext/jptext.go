// Package jptext canonicalizes Japanese mountain names for fuzzy matching.
// Province-level data sources mix kanji, katakana readings and hiragana
// readings inconsistently; without normalization, recall is near zero for
// anything but exact matches.
package jptext

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// KataToHira converts katakana in U+30A1..U+30F6 to hiragana by shifting
// each code point down by 0x60. Other runes pass through unchanged.
func KataToHira(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 0x30A1 && r <= 0x30F6 {
			return r - 0x60
		}
		return r
	}, s)
}

// HiraToKata is the inverse of KataToHira for hiragana in U+3041..U+3096.
func HiraToKata(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 0x3041 && r <= 0x3096 {
			return r + 0x60
		}
		return r
	}, s)
}

// Normalize produces the canonical comparison form: NFKC, whitespace
// (including full-width space) collapsed to single ASCII spaces and trimmed,
// punctuation and symbol runes stripped, ASCII lowercased. Pure and
// idempotent.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// dropped
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Variants returns the script-equivalent renderings of a normalized string:
// the input, the input with whitespace removed, and the kana-converted forms
// of both. Empty strings are excluded.
func Variants(normed string) []string {
	seen := make(map[string]struct{}, 6)
	var out []string
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	nospace := strings.ReplaceAll(normed, " ", "")
	add(normed)
	add(nospace)
	add(KataToHira(normed))
	add(HiraToKata(normed))
	add(KataToHira(nospace))
	add(HiraToKata(nospace))
	return out
}

// AnyVariantMatch reports whether any query variant is a substring of any
// candidate variant or vice versa. Deliberately permissive: short queries can
// match broadly, which mirrors how the search behaves for partial names.
func AnyVariantMatch(queryVariants, candidateVariants []string) bool {
	for _, qv := range queryVariants {
		for _, cv := range candidateVariants {
			if strings.Contains(cv, qv) || strings.Contains(qv, cv) {
				return true
			}
		}
	}
	return false
}

func isHiragana(r rune) bool { return r >= 0x3041 && r <= 0x3096 }
func isKatakana(r rune) bool { return r >= 0x30A1 && r <= 0x30F6 }

// isNameRune reports runes that always belong to the name part: kanji, the
// iteration mark 々 and the small ke ヶ used in names like 八ヶ岳.
func isNameRune(r rune) bool {
	return unicode.Is(unicode.Han, r) || r == '々' || r == 'ヶ'
}

// SplitNameReading splits a combined string where a kanji or mixed name is
// immediately followed by its kana reading, a pattern common in scraped map
// data ("八ヶ岳やつがたけ" -> "八ヶ岳", "やつがたけ"). A leading kana run with
// no preceding kanji stays part of the name, so natively-katakana names
// survive intact. The reading is empty when the input has no trailing kana
// run.
func SplitNameReading(raw string) (name, reading string) {
	trimmed := strings.TrimSpace(raw)
	runes := []rune(trimmed)

	seenKanji := false
	split := -1
	for i, r := range runes {
		switch {
		case isNameRune(r):
			seenKanji = true
			split = -1
		case isHiragana(r) || isKatakana(r):
			if seenKanji && split < 0 {
				split = i
			}
		default:
			// ASCII, digits, middle dots etc. bind to the name.
			split = -1
		}
	}

	if split < 0 {
		return trimmed, ""
	}
	name = strings.TrimSpace(string(runes[:split]))
	reading = strings.TrimSpace(dedupeReading(string(runes[split:])))
	return name, reading
}

// dedupeReading collapses readings that carry both a katakana and a hiragana
// spelling of the same sounds (e.g. "ヤツガタケやつがたけ"): when the two
// runs are phonetically equivalent, only the katakana run is kept.
func dedupeReading(reading string) string {
	var kata, hira strings.Builder
	for _, r := range reading {
		switch {
		case isKatakana(r):
			kata.WriteRune(r)
		case isHiragana(r):
			hira.WriteRune(r)
		}
	}
	k, h := kata.String(), hira.String()
	if k == "" || h == "" {
		return reading
	}
	kh := KataToHira(k)
	if kh == h || strings.Contains(kh, h) || strings.Contains(h, kh) {
		return k
	}
	return reading
}
