package jptext

import (
	"testing"
)

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"富士山",
		"  ヤマ　ノボリ  ",
		"Mt. Fuji (3776m)",
		"八ヶ岳・南峰",
		"ＡＢＣ　ｄｅｆ",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"富士山", "富士山"},
		{"  富士 　山  ", "富士 山"},
		{"Mt.Fuji!", "mtfuji"},
		{"ＦＵＪＩ", "fuji"},
		{"八ヶ岳（南峰）", "八ヶ岳南峰"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKanaRoundTrip(t *testing.T) {
	s := "フジサン"
	if got := KataToHira(HiraToKata(KataToHira(s))); got != KataToHira(s) {
		t.Errorf("round trip mismatch: %q != %q", got, KataToHira(s))
	}
	if got := KataToHira("フジサン"); got != "ふじさん" {
		t.Errorf("KataToHira = %q, want ふじさん", got)
	}
	if got := HiraToKata("ふじさん"); got != "フジサン" {
		t.Errorf("HiraToKata = %q, want フジサン", got)
	}
}

func TestVariants(t *testing.T) {
	vs := Variants("富士山")
	if len(vs) == 0 || vs[0] != "富士山" {
		t.Fatalf("Variants(富士山) = %v, want first element 富士山", vs)
	}
	// No whitespace present: no-space form equals the input, no duplicates.
	for i, a := range vs {
		for j, b := range vs {
			if i != j && a == b {
				t.Errorf("duplicate variant %q", a)
			}
		}
	}

	vs = Variants("ふじ さん")
	want := map[string]bool{"ふじ さん": true, "ふじさん": true, "フジ サン": true, "フジサン": true}
	for w := range want {
		found := false
		for _, v := range vs {
			if v == w {
				found = true
			}
		}
		if !found {
			t.Errorf("Variants(ふじ さん) missing %q, got %v", w, vs)
		}
	}
}

func TestAnyVariantMatch(t *testing.T) {
	q := Variants(Normalize("富士"))
	cand := Variants(Normalize("富士山"))
	if !AnyVariantMatch(q, cand) {
		t.Error("expected 富士 to match 富士山")
	}

	// Kana-script mismatch still matches via converted variants.
	q = Variants(Normalize("ふじ"))
	cand = Variants(Normalize("フジサン"))
	if !AnyVariantMatch(q, cand) {
		t.Error("expected ふじ to match フジサン")
	}

	q = Variants(Normalize("浅間"))
	cand = Variants(Normalize("フジサン"))
	if AnyVariantMatch(q, cand) {
		t.Error("unexpected match between 浅間 and フジサン")
	}
}

func TestSplitNameReading(t *testing.T) {
	tests := []struct {
		in, name, reading string
	}{
		{"八ヶ岳やつがたけ", "八ヶ岳", "やつがたけ"},
		{"富士山", "富士山", ""},
		{"富士山ふじさん", "富士山", "ふじさん"},
		{"富士山フジサン", "富士山", "フジサン"},
		// Natively katakana name with no kanji keeps the kana as name.
		{"トムラウシ", "トムラウシ", ""},
		// Katakana and hiragana spellings of the same reading collapse to katakana.
		{"槍ヶ岳ヤリガタケやりがたけ", "槍ヶ岳", "ヤリガタケ"},
	}
	for _, tt := range tests {
		name, reading := SplitNameReading(tt.in)
		if name != tt.name || reading != tt.reading {
			t.Errorf("SplitNameReading(%q) = (%q, %q), want (%q, %q)",
				tt.in, name, reading, tt.name, tt.reading)
		}
	}
}
