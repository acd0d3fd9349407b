// Package langdetect identifies the language of a name before translation.
package langdetect

import (
	"context"
	"strings"
	"unicode"

	"github.com/helixir/name-similarity-service/internal/namematch"
)

// Fallback is the language reported when detection gives no answer.
const Fallback = "en"

// Detector identifies the language of a text. Detect never fails: any
// problem yields Fallback.
type Detector interface {
	Detect(ctx context.Context, text string) string
	Name() string
}

// vietnameseMarks are letters that only occur in Vietnamese among the
// languages this service meets.
const vietnameseMarks = "ăắằẳẵặâấầẩẫậđêềếểễệôốồổỗộơớờởỡợưứừửữựạảẹẻẽịỉọỏụủỳỵỷỹĩũ"

// Heuristic detects the language from the script of the text.
type Heuristic struct{}

// NewHeuristic creates a Heuristic detector.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Name returns "heuristic".
func (Heuristic) Name() string {
	return ProviderHeuristic
}

// Detect returns a BCP-47 code for the dominant script. Kana wins over Han
// so that Japanese names written with kanji and kana resolve to ja.
func (Heuristic) Detect(_ context.Context, text string) string {
	var hangul, kana, han, cyrillic, thai bool
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Hangul, r):
			hangul = true
		case unicode.In(r, unicode.Hiragana, unicode.Katakana):
			kana = true
		case unicode.Is(unicode.Han, r):
			han = true
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic = true
		case unicode.Is(unicode.Thai, r):
			thai = true
		}
	}

	switch {
	case hangul:
		return "ko"
	case kana:
		return "ja"
	case han:
		return "zh-CN"
	case cyrillic:
		return "ru"
	case thai:
		return "th"
	case strings.ContainsAny(strings.ToLower(text), vietnameseMarks):
		return "vi"
	default:
		return Fallback
	}
}

// isLatin reports whether text needs no remote detection.
func isLatin(text string) bool {
	return namematch.IsPureLatin(text)
}
