package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// Mode controls whether and how inputs are translated before scoring.
type Mode string

const (
	// ModeAlwaysTranslate detects and translates both inputs with the primary
	// translator.
	ModeAlwaysTranslate Mode = "always_translate"

	// ModePreferFreeTranslate detects and translates both inputs with the
	// free translator.
	ModePreferFreeTranslate Mode = "prefer_free_translate"

	// ModeTranslateIfNeeded translates with the primary translator only when
	// at least one input needs translation (see NeedsTranslation).
	ModeTranslateIfNeeded Mode = "translate_if_needed"

	// ModeNoTranslate passes inputs straight to the engine.
	ModeNoTranslate Mode = "no_translate"
)

// DefaultMode is used when a request does not specify a mode.
const DefaultMode = ModeTranslateIfNeeded

var modeAliases = map[string]Mode{
	string(ModeAlwaysTranslate):     ModeAlwaysTranslate,
	string(ModePreferFreeTranslate): ModePreferFreeTranslate,
	string(ModeTranslateIfNeeded):   ModeTranslateIfNeeded,
	string(ModeNoTranslate):         ModeNoTranslate,
	"on":                            ModeAlwaysTranslate,
	"off":                           ModePreferFreeTranslate,
	"optional":                      ModeTranslateIfNeeded,
	"none":                          ModeNoTranslate,
}

// ParseMode parses a mode name or one of the legacy aliases "on", "off",
// "optional" and "none". An empty string yields DefaultMode. Unknown values
// are rejected with ErrInvalidMode.
func ParseMode(s string) (Mode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return DefaultMode, nil
	}
	if m, ok := modeAliases[key]; ok {
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// IsValid returns true if the mode is one of the defined values.
func (m Mode) IsValid() bool {
	switch m {
	case ModeAlwaysTranslate, ModePreferFreeTranslate, ModeTranslateIfNeeded, ModeNoTranslate:
		return true
	default:
		return false
	}
}

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// UnmarshalText parses the mode with ParseMode.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// NeedsTranslation reports whether text has no whitespace, no ASCII letter
// and no digit, i.e. it is a single run of native script that cannot be
// compared without translation.
func NeedsTranslation(text string) bool {
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			return false
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			return false
		case r >= '0' && r <= '9':
			return false
		}
	}
	return true
}
