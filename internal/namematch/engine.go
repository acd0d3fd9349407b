package namematch

import (
	"fmt"
	"strings"
)

// DefaultSentinelScore is returned for inputs that are equal ignoring case.
const DefaultSentinelScore = 92.30

// Romanizer renders text containing non-Latin script in Latin letters.
type Romanizer interface {
	Romanize(text string) string
}

// Config holds engine settings.
type Config struct {
	// Scripts are the non-Latin scripts kept by the normalizer and used for
	// mixed-script classification.
	Scripts []Script
	// FoldDiacritics strips combining marks from Latin letters before
	// normalization.
	FoldDiacritics bool
	// SentinelScore is returned when both inputs are equal ignoring case.
	SentinelScore float64
}

// DefaultConfig returns the reference configuration: Latin plus Hangul.
func DefaultConfig() Config {
	return Config{
		Scripts:        []Script{Hangul},
		FoldDiacritics: true,
		SentinelScore:  DefaultSentinelScore,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SentinelScore < 0 || c.SentinelScore > 100 {
		return fmt.Errorf("sentinel score must be between 0 and 100, got %v", c.SentinelScore)
	}
	for _, s := range c.Scripts {
		if s.Table == nil {
			return fmt.Errorf("script %q has no code point table", s.Name)
		}
	}
	return nil
}

// Option configures an Engine.
type Option func(*Engine)

// WithRomanizer makes the engine compare tokens with non-Latin letters by
// their romanized form.
func WithRomanizer(r Romanizer) Option {
	return func(e *Engine) {
		e.romanizer = r
	}
}

// Engine scores name pairs. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	cfg       Config
	romanizer Romanizer
}

// New creates an Engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Fallback reasons reported by Compare.
const (
	FallbackNone     = ""
	FallbackNoSignal = "no_signal"
	FallbackPanic    = "panic"
)

// Comparison is the outcome of comparing two names.
type Comparison struct {
	Score          Score          `json:"score"`
	Metrics        MetricSet      `json:"metrics"`
	Classification Classification `json:"classification"`
	Breakdown      Breakdown      `json:"breakdown"`
	// Sentinel is set when the inputs matched ignoring case and the pipeline
	// was skipped.
	Sentinel bool `json:"sentinel"`
	// Fallback names the reason the basic similarity was used, if any.
	Fallback string `json:"fallback,omitempty"`
}

// Compare scores a pair of names. Inputs equal ignoring case short-circuit
// to the sentinel score; everything else goes through Evaluate.
func (e *Engine) Compare(a, b string) Comparison {
	if IsExactMatch(a, b) {
		return e.Sentinel()
	}
	return e.Evaluate(a, b)
}

// Sentinel returns the comparison reported for case-insensitively equal
// inputs.
func (e *Engine) Sentinel() Comparison {
	return Comparison{Score: Score(e.cfg.SentinelScore), Sentinel: true}
}

// Evaluate runs the full pipeline without the sentinel check. Callers that
// compare derived text (translations) use it so that equal translations score
// on their metrics. It never fails: a pair whose aggregated metrics are all
// zero, or any panic raised while scoring, degrades to the basic
// Jaro-Winkler similarity of the normalized inputs.
func (e *Engine) Evaluate(a, b string) (result Comparison) {
	defer func() {
		if r := recover(); r != nil {
			result = Comparison{
				Score:    e.BasicSimilarity(a, b),
				Fallback: FallbackPanic,
			}
		}
	}()

	c := e.Classify(a, b)
	ms := e.aggregate(a, b, c)
	if ms.IsZero() {
		return Comparison{
			Score:          e.BasicSimilarity(a, b),
			Metrics:        ms,
			Classification: c,
			Fallback:       FallbackNoSignal,
		}
	}

	score, breakdown := combine(ms, c)
	return Comparison{
		Score:          score,
		Metrics:        ms,
		Classification: c,
		Breakdown:      breakdown,
	}
}

// BasicSimilarity is the Jaro-Winkler similarity of the normalized inputs
// scaled to 0-100.
func (e *Engine) BasicSimilarity(a, b string) Score {
	na, nb := e.Normalize(a).Compact(), e.Normalize(b).Compact()
	if nb < na {
		na, nb = nb, na
	}
	return newScore(JaroWinkler(na, nb))
}

// IsExactMatch reports whether a and b are non-blank and equal ignoring case.
func IsExactMatch(a, b string) bool {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return false
	}
	return strings.ToLower(a) == strings.ToLower(b)
}
