package namematch

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/adrg/strutil"
	"github.com/agnivade/levenshtein"
	"github.com/antzucaro/matchr"
)

// bigramSize is the n-gram length used by BigramSimilarity.
const bigramSize = 2

// MetricSet holds the four similarity signals for a pair of strings. Every
// value lies in [0, 1].
type MetricSet struct {
	Phonetic    float64 `json:"phonetic"`
	JaroWinkler float64 `json:"jaro_winkler"`
	Levenshtein float64 `json:"levenshtein"`
	Bigram      float64 `json:"bigram"`
}

// Values returns the metrics in combiner order: phonetic, Jaro-Winkler,
// Levenshtein, bigram.
func (m MetricSet) Values() [4]float64 {
	return [4]float64{m.Phonetic, m.JaroWinkler, m.Levenshtein, m.Bigram}
}

// IsZero reports whether all four signals are zero.
func (m MetricSet) IsZero() bool {
	return m.Phonetic == 0 && m.JaroWinkler == 0 && m.Levenshtein == 0 && m.Bigram == 0
}

func (m MetricSet) clamped() MetricSet {
	return MetricSet{
		Phonetic:    clamp01(m.Phonetic),
		JaroWinkler: clamp01(m.JaroWinkler),
		Levenshtein: clamp01(m.Levenshtein),
		Bigram:      clamp01(m.Bigram),
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ComputeMetrics scores two already comparable strings. Either side being
// empty yields the zero MetricSet.
func ComputeMetrics(a, b string) MetricSet {
	if a == "" || b == "" {
		return MetricSet{}
	}
	// Fixed argument order keeps the floating point results bit-identical
	// for (a, b) and (b, a).
	if b < a {
		a, b = b, a
	}
	return MetricSet{
		Phonetic:    PhoneticSimilarity(a, b),
		JaroWinkler: JaroWinkler(a, b),
		Levenshtein: LevenshteinSimilarity(a, b),
		Bigram:      BigramSimilarity(a, b),
	}.clamped()
}

// JaroWinkler returns the Jaro-Winkler similarity of a and b, 0 when either is
// empty.
func JaroWinkler(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return matchr.JaroWinkler(a, b, false)
}

// PhoneticSimilarity compares the Double Metaphone codes of a and b. The
// Jaro-Winkler similarity of the primary codes and of the secondary codes are
// averaged; a missing secondary code falls back to the primary one. Only the
// ASCII letters of each string are encoded.
func PhoneticSimilarity(a, b string) float64 {
	primaryA, secondaryA := metaphoneCodes(a)
	primaryB, secondaryB := metaphoneCodes(b)
	if primaryA == "" || primaryB == "" {
		return 0
	}
	return (JaroWinkler(primaryA, primaryB) + JaroWinkler(secondaryA, secondaryB)) / 2
}

func metaphoneCodes(s string) (string, string) {
	latin := latinLetters(s)
	if latin == "" {
		return "", ""
	}
	primary, secondary := matchr.DoubleMetaphone(latin)
	if secondary == "" {
		secondary = primary
	}
	return primary, secondary
}

func latinLetters(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if isASCIILetter(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// LevenshteinSimilarity returns 1 - distance/maxLen measured in runes. Two
// empty strings score 0.
func LevenshteinSimilarity(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 0
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
}

// BigramSimilarity returns the Jaccard index of the sets of two-rune
// substrings of a and b. When either string is shorter than two runes the
// result is 1 if the strings are identical and 0 otherwise. Empty input has
// no signal and scores 0.
func BigramSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if utf8.RuneCountInString(a) < bigramSize || utf8.RuneCountInString(b) < bigramSize {
		if a == b {
			return 1
		}
		return 0
	}

	gramsA, _ := strutil.NgramMap(a, bigramSize)
	gramsB, _ := strutil.NgramMap(b, bigramSize)

	intersection := 0
	for gram := range gramsA {
		if _, ok := gramsB[gram]; ok {
			intersection++
		}
	}
	union := len(gramsA) + len(gramsB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Metrics normalizes a and b, romanizes them when a romanizer is configured
// and they contain non-Latin letters, and scores their compact forms.
func (e *Engine) Metrics(a, b string) MetricSet {
	return ComputeMetrics(e.comparable(a), e.comparable(b))
}

// comparable returns the space-free string the metric calculator sees.
func (e *Engine) comparable(text string) string {
	if e.romanizer != nil && HasNonLatinLetters(text) {
		text = e.romanizer.Romanize(text)
	}
	return e.Normalize(text).Compact()
}
