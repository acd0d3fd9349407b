// Package translit renders names written in non-Latin scripts with Latin
// letters so they can be compared against romanized spellings.
package translit

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

const (
	hangulBase  = 0xAC00
	hangulLast  = 0xD7A3
	medialCount = 21
	finalCount  = 28
)

// Revised Romanization of Korean, indexed by jamo position.
var (
	initials = [...]string{
		"g", "kk", "n", "d", "tt", "r", "m", "b", "pp", "s",
		"ss", "", "j", "jj", "ch", "k", "t", "p", "h",
	}
	medials = [...]string{
		"a", "ae", "ya", "yae", "eo", "e", "yeo", "ye", "o", "wa",
		"wae", "oe", "yo", "u", "wo", "we", "wi", "yu", "eu", "ui", "i",
	}
	finals = [...]string{
		"", "k", "k", "k", "n", "n", "n", "t", "l", "k",
		"m", "l", "l", "l", "p", "l", "m", "p", "p", "t",
		"t", "ng", "t", "t", "k", "t", "p", "t",
	}
)

// Romanizer converts Hangul syllables with the Revised Romanization of Korean
// and every other non-ASCII rune with the unidecode transliteration tables.
// The zero value is ready to use and safe for concurrent use.
type Romanizer struct{}

// New returns a Romanizer.
func New() *Romanizer {
	return &Romanizer{}
}

// Romanize returns text in Latin letters with whitespace collapsed.
func (r *Romanizer) Romanize(text string) string {
	var sb strings.Builder
	sb.Grow(len(text) * 2)

	var pending strings.Builder
	flush := func() {
		if pending.Len() == 0 {
			return
		}
		sb.WriteString(unidecode.Unidecode(pending.String()))
		pending.Reset()
	}

	for _, ch := range text {
		if isHangulSyllable(ch) {
			flush()
			sb.WriteString(romanizeSyllable(ch))
			continue
		}
		pending.WriteRune(ch)
	}
	flush()

	return strings.Join(strings.Fields(sb.String()), " ")
}

// isHangulSyllable reports whether ch is a precomposed Hangul syllable.
func isHangulSyllable(ch rune) bool {
	return ch >= hangulBase && ch <= hangulLast
}

func romanizeSyllable(ch rune) string {
	idx := int(ch - hangulBase)
	initial := idx / (medialCount * finalCount)
	medial := (idx % (medialCount * finalCount)) / finalCount
	final := idx % finalCount
	return initials[initial] + medials[medial] + finals[final]
}
