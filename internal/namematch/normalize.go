package namematch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizedName is a lowercase name restricted to the engine's alphabet with
// whitespace collapsed to single spaces. The zero value is the empty name.
type NormalizedName struct {
	text string
}

// String returns the normalized text with single spaces between words.
func (n NormalizedName) String() string {
	return n.text
}

// Compact returns the normalized text with all spaces removed. The metric
// calculator works on this form.
func (n NormalizedName) Compact() string {
	return strings.ReplaceAll(n.text, " ", "")
}

// IsEmpty reports whether normalization left nothing to compare.
func (n NormalizedName) IsEmpty() bool {
	return n.text == ""
}

// Words returns the whitespace-delimited words of the normalized name.
func (n NormalizedName) Words() []string {
	return strings.Fields(n.text)
}

// letters with no canonical decomposition that still have an obvious base.
var strokeReplacer = strings.NewReplacer(
	"đ", "d", "Đ", "D",
	"ø", "o", "Ø", "O",
	"ł", "l", "Ł", "L",
	"ß", "ss",
)

// foldDiacritics strips combining marks from Latin text ("Trần" -> "Tran").
// Hangul syllables decompose to conjoining jamo under NFD and are recomposed
// by the trailing NFC step, so they pass through unchanged.
func foldDiacritics(text string) string {
	text = strokeReplacer.Replace(text)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return folded
}

// Normalize lowercases text, drops every rune outside the configured alphabet
// and collapses whitespace. Empty or blank input yields the empty name.
func (e *Engine) Normalize(text string) NormalizedName {
	text = strings.TrimSpace(text)
	if text == "" {
		return NormalizedName{}
	}

	if e.cfg.FoldDiacritics {
		text = foldDiacritics(text)
	}
	text = strings.ToLower(text)

	var sb strings.Builder
	sb.Grow(len(text))
	prevSpace := false

	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', e.inAlphabet(r):
			sb.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteRune(' ')
				prevSpace = true
			}
		}
	}

	return NormalizedName{text: strings.TrimRight(sb.String(), " ")}
}

// inAlphabet reports whether r belongs to one of the configured scripts.
func (e *Engine) inAlphabet(r rune) bool {
	for _, s := range e.cfg.Scripts {
		if s.Contains(r) {
			return true
		}
	}
	return false
}

// scriptOf returns the configured script r belongs to.
func (e *Engine) scriptOf(r rune) (Script, bool) {
	for _, s := range e.cfg.Scripts {
		if s.Contains(r) {
			return s, true
		}
	}
	return Script{}, false
}

// containsConfiguredScript reports whether text has at least one rune of a
// configured non-Latin script.
func (e *Engine) containsConfiguredScript(text string) bool {
	for _, r := range text {
		if e.inAlphabet(r) {
			return true
		}
	}
	return false
}
