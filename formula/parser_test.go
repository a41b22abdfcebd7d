package formula

import (
	"reflect"
	"testing"
)

func TestParseBasicToken(t *testing.T) {
	tokens := Parse("{brand}")
	want := []Token{{Start: 0, End: 7, Property: "brand", Suffix: SuffixNone}}

	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("Parse(%q) = %+v, want %+v", "{brand}", tokens, want)
	}
}

func TestParseSuffixedTokens(t *testing.T) {
	testCases := []struct {
		name    string
		formula string
		suffix  Suffix
	}{
		{"Code suffix", "{brand.code}", SuffixCode},
		{"English label suffix", "{brand.label_en}", SuffixLabelEN},
		{"Arabic label suffix", "{brand.label_ar}", SuffixLabelAR},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tokens := Parse(tc.formula)
			if len(tokens) != 1 {
				t.Fatalf("Parse(%q) returned %d tokens, want 1", tc.formula, len(tokens))
			}
			if tokens[0].Property != "brand" {
				t.Errorf("Property = %q, want %q", tokens[0].Property, "brand")
			}
			if tokens[0].Suffix != tc.suffix {
				t.Errorf("Suffix = %q, want %q", tokens[0].Suffix, tc.suffix)
			}
			if tokens[0].Start != 0 || tokens[0].End != len(tc.formula) {
				t.Errorf("span = [%d,%d), want [0,%d)", tokens[0].Start, tokens[0].End, len(tc.formula))
			}
		})
	}
}

func TestParseMultipleTokensInOrder(t *testing.T) {
	tokens := Parse("{brand.code}-{wattage}-{color.code}")

	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(tokens))
	}

	wantProps := []string{"brand", "wattage", "color"}
	for i, tok := range tokens {
		if tok.Property != wantProps[i] {
			t.Errorf("token %d: Property = %q, want %q", i, tok.Property, wantProps[i])
		}
		if i > 0 && tok.Start < tokens[i-1].End {
			t.Errorf("token %d overlaps previous token", i)
		}
	}
}

func TestParseMalformedIsLiteral(t *testing.T) {
	testCases := []struct {
		name    string
		formula string
		want    int // number of tokens
	}{
		{"Unclosed brace", "{brand", 0},
		{"Stray close brace", "brand}", 0},
		{"Empty braces", "{}", 0},
		{"Name with space", "{brand name}", 0},
		{"Unknown suffix", "{brand.label_fr}", 0},
		{"Trailing dot", "{brand.}", 0},
		{"Nested open recovers", "{a{b}", 1},
		{"Plain text", "no tokens here", 0},
		{"Empty formula", "", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tokens := Parse(tc.formula)
			if len(tokens) != tc.want {
				t.Errorf("Parse(%q) returned %d tokens, want %d: %+v", tc.formula, len(tokens), tc.want, tokens)
			}
		})
	}
}

func TestParseRecoversAfterMalformedBrace(t *testing.T) {
	// The '{' that never forms a token must not swallow the valid token
	// that follows it.
	tokens := Parse("{ not a token {wattage}")

	if len(tokens) != 1 {
		t.Fatalf("expected 1 token, got %d", len(tokens))
	}
	if tokens[0].Property != "wattage" {
		t.Errorf("Property = %q, want %q", tokens[0].Property, "wattage")
	}
}

func TestParseIsRestartable(t *testing.T) {
	formula := "{brand.code}-{wattage}"

	first := Parse(formula)
	second := Parse(formula)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated Parse calls disagree: %+v vs %+v", first, second)
	}
}
