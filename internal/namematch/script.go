package namematch

import (
	"fmt"
	"strings"
	"unicode"
)

// Script describes a non-Latin writing system the engine may keep in its
// normalized alphabet and use for mixed-script classification.
type Script struct {
	// Name is the configuration key of the script (e.g. "hangul").
	Name string

	// Table holds the code points that belong to the script.
	Table *unicode.RangeTable

	// Syllabic marks scripts where one code point is one syllable. A single
	// fused token in a syllabic script is split per code point for swap
	// detection.
	Syllabic bool
}

// Contains reports whether r belongs to the script.
func (s Script) Contains(r rune) bool {
	return s.Table != nil && unicode.Is(s.Table, r)
}

var hangulSyllables = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0xAC00, Hi: 0xD7A3, Stride: 1},
	},
}

var cjkUnified = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x4E00, Hi: 0x9FFF, Stride: 1},
	},
}

var kana = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x3040, Hi: 0x30FF, Stride: 1},
	},
}

// Built-in scripts.
var (
	Hangul   = Script{Name: "hangul", Table: hangulSyllables, Syllabic: true}
	Han      = Script{Name: "han", Table: cjkUnified, Syllabic: true}
	Kana     = Script{Name: "kana", Table: kana}
	Cyrillic = Script{Name: "cyrillic", Table: unicode.Cyrillic}
	Thai     = Script{Name: "thai", Table: unicode.Thai}
)

var builtinScripts = map[string]Script{
	Hangul.Name:   Hangul,
	Han.Name:      Han,
	Kana.Name:     Kana,
	Cyrillic.Name: Cyrillic,
	Thai.Name:     Thai,
}

// ScriptByName returns the built-in script registered under name.
func ScriptByName(name string) (Script, bool) {
	s, ok := builtinScripts[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// ParseScripts resolves a list of script names, rejecting unknown names.
func ParseScripts(names []string) ([]Script, error) {
	scripts := make([]Script, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		s, ok := ScriptByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown script %q", name)
		}
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		scripts = append(scripts, s)
	}
	return scripts, nil
}

// isASCIILetter reports whether r is in [A-Za-z].
func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// IsPureLatin reports whether text consists only of ASCII letters,
// whitespace and periods. Empty text is not pure Latin.
func IsPureLatin(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if !isASCIILetter(r) && !unicode.IsSpace(r) && r != '.' {
			return false
		}
	}
	return true
}

// HasNonLatinLetters reports whether text contains a letter outside the
// Latin script.
func HasNonLatinLetters(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}
