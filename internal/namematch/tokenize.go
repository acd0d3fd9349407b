package namematch

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// camelSplitMinLength is the rune length a single fused token must exceed
// before camel-case expansion is attempted.
const camelSplitMinLength = 3

// Tokenize splits a raw name into words. Whitespace is the default separator.
// When the name is a single token longer than three runes it is re-split on
// uppercase boundaries, so "KimHyunJong" yields ["Kim", "Hyun", "Jong"].
// Tokens containing non-Latin letters, or written in a single case, are
// returned unchanged.
func Tokenize(text string) []string {
	parts := strings.Fields(text)
	if len(parts) != 1 {
		return parts
	}

	token := parts[0]
	if utf8.RuneCountInString(token) <= camelSplitMinLength {
		return parts
	}
	if HasNonLatinLetters(token) || !isMixedCase(token) {
		return parts
	}
	return splitCamelCase(token)
}

// splitCamelCase starts a new word at every uppercase letter.
func splitCamelCase(token string) []string {
	var words []string
	var current strings.Builder

	for _, r := range token {
		if unicode.IsUpper(r) && current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}
	return words
}

// isMixedCase reports whether token has both upper and lowercase letters.
func isMixedCase(token string) bool {
	var upper, lower bool
	for _, r := range token {
		if unicode.IsUpper(r) {
			upper = true
		} else if unicode.IsLower(r) {
			lower = true
		}
		if upper && lower {
			return true
		}
	}
	return false
}
