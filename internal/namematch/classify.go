package namematch

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// Classification describes how the two names of a pair relate to each other.
type Classification struct {
	// Swapped is set when both names hold the same tokens in a different order.
	Swapped bool `json:"swapped"`
	// Mixed is set when one name is pure Latin and the other contains a
	// configured non-Latin script.
	Mixed bool `json:"mixed"`
}

// Kind returns "swapped", "mixed" or "plain". Swapped takes precedence.
func (c Classification) Kind() string {
	switch {
	case c.Swapped:
		return "swapped"
	case c.Mixed:
		return "mixed"
	default:
		return "plain"
	}
}

// Classify runs swap and mixed-script detection on a pair of raw names.
func (e *Engine) Classify(a, b string) Classification {
	return Classification{
		Swapped: e.IsSwapped(a, b),
		Mixed:   e.IsMixedScript(a, b),
	}
}

// IsSwapped reports whether a and b contain the same lowercase whitespace
// tokens in a different order. Tokens with non-Latin letters are compared by
// their romanized form when a romanizer is configured. When both names are a
// single fused token in a syllabic script the syllables are the tokens, so
// "김현종" and "현종김" are swapped.
func (e *Engine) IsSwapped(a, b string) bool {
	tokensA := e.swapTokens(a)
	tokensB := e.swapTokens(b)

	if len(tokensA) == 1 && len(tokensB) == 1 {
		if sa, ok := e.syllables(tokensA[0]); ok {
			if sb, ok := e.syllables(tokensB[0]); ok {
				tokensA, tokensB = sa, sb
			}
		}
	}

	if len(tokensA) != len(tokensB) || len(tokensA) == 0 {
		return false
	}

	tokensA = e.romanizeTokens(tokensA)
	tokensB = e.romanizeTokens(tokensB)

	originalA := strings.Join(tokensA, "")
	originalB := strings.Join(tokensB, "")

	sortedA := slices.Clone(tokensA)
	sortedB := slices.Clone(tokensB)
	slices.Sort(sortedA)
	slices.Sort(sortedB)

	return strings.Join(sortedA, "") == strings.Join(sortedB, "") && originalA != originalB
}

// IsMixedScript reports whether exactly one of a and b is pure Latin while the
// other contains a configured non-Latin script.
func (e *Engine) IsMixedScript(a, b string) bool {
	latinA, latinB := IsPureLatin(a), IsPureLatin(b)
	if latinA == latinB {
		return false
	}
	if latinA {
		return e.containsConfiguredScript(b)
	}
	return e.containsConfiguredScript(a)
}

func (e *Engine) swapTokens(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// syllables splits token into code points when every rune belongs to a
// syllabic configured script.
func (e *Engine) syllables(token string) ([]string, bool) {
	if utf8.RuneCountInString(token) < 2 {
		return nil, false
	}
	out := make([]string, 0, utf8.RuneCountInString(token))
	for _, r := range token {
		s, ok := e.scriptOf(r)
		if !ok || !s.Syllabic {
			return nil, false
		}
		out = append(out, string(r))
	}
	return out, true
}

func (e *Engine) romanizeTokens(tokens []string) []string {
	if e.romanizer == nil {
		return tokens
	}
	out := make([]string, len(tokens))
	for i, t := range tokens {
		if HasNonLatinLetters(t) {
			t = strings.ToLower(strings.Join(strings.Fields(e.romanizer.Romanize(t)), ""))
		}
		out[i] = t
	}
	return out
}

// CompletelyDifferent reports whether a and b share almost nothing: the
// Jaro-Winkler similarity of their normalized forms and of their romanized
// forms are both below 0.3. It is informational and does not change the score.
func (e *Engine) CompletelyDifferent(a, b string) bool {
	base := JaroWinkler(e.Normalize(a).Compact(), e.Normalize(b).Compact())
	romanized := JaroWinkler(e.comparable(a), e.comparable(b))
	return base < completelyDifferentThreshold && romanized < completelyDifferentThreshold
}

const completelyDifferentThreshold = 0.3
