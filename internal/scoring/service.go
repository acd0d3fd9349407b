// Package scoring orchestrates a name comparison: mode handling, language
// detection, translation, the namematch engine, metrics, logging and event
// publication.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/helixir/name-similarity-service/internal/domain"
	"github.com/helixir/name-similarity-service/internal/events"
	"github.com/helixir/name-similarity-service/internal/langdetect"
	"github.com/helixir/name-similarity-service/internal/namematch"
	"github.com/helixir/name-similarity-service/internal/observability"
	"github.com/helixir/name-similarity-service/internal/translate"
)

// FallbackEmptyTranslation is reported when a translator returned no text and
// the raw inputs were scored with the basic similarity.
const FallbackEmptyTranslation = "empty_translation"

// Config holds service settings.
type Config struct {
	// DefaultMode is used when a request carries no mode.
	DefaultMode domain.Mode
	// DetectTimeout bounds one language detection call.
	DetectTimeout time.Duration
	// TranslateTimeout bounds one translation call.
	TranslateTimeout time.Duration
	// PublishTimeout bounds publication of the result event.
	PublishTimeout time.Duration
}

// DefaultConfig returns the default service settings.
func DefaultConfig() Config {
	return Config{
		DefaultMode:      domain.DefaultMode,
		DetectTimeout:    2 * time.Second,
		TranslateTimeout: 5 * time.Second,
		PublishTimeout:   5 * time.Second,
	}
}

// Deps are the collaborators of a Service. Only Engine is required; nil
// collaborators default to the heuristic detector, identity translators and a
// publisher that discards events.
type Deps struct {
	Engine    *namematch.Engine
	Detector  langdetect.Detector
	Primary   translate.Translator
	Free      translate.Translator
	Publisher events.Publisher
	Metrics   *observability.Metrics
}

// Service scores name pairs. It is safe for concurrent use.
type Service struct {
	cfg       Config
	engine    *namematch.Engine
	detector  langdetect.Detector
	primary   translate.Translator
	free      translate.Translator
	publisher events.Publisher
	metrics   *observability.Metrics
}

// NewService creates a Service.
func NewService(cfg Config, deps Deps) (*Service, error) {
	if deps.Engine == nil {
		return nil, errors.New("scoring: engine is required")
	}
	defaults := DefaultConfig()
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = defaults.DefaultMode
	}
	if !cfg.DefaultMode.IsValid() {
		return nil, fmt.Errorf("scoring: %w: %q", domain.ErrInvalidMode, cfg.DefaultMode)
	}
	if cfg.DetectTimeout <= 0 {
		cfg.DetectTimeout = defaults.DetectTimeout
	}
	if cfg.TranslateTimeout <= 0 {
		cfg.TranslateTimeout = defaults.TranslateTimeout
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaults.PublishTimeout
	}

	s := &Service{
		cfg:       cfg,
		engine:    deps.Engine,
		detector:  deps.Detector,
		primary:   deps.Primary,
		free:      deps.Free,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
	}
	if s.detector == nil {
		s.detector = langdetect.NewHeuristic()
	}
	if s.primary == nil {
		s.primary = translate.NewNoop()
	}
	if s.free == nil {
		s.free = translate.NewNoop()
	}
	if s.publisher == nil {
		s.publisher = events.NewNoopPublisher()
	}
	return s, nil
}

// Request is one comparison request.
type Request struct {
	// RequestID identifies the comparison; generated when empty.
	RequestID string
	Text1     string
	Text2     string
	// Mode is a mode name or legacy alias; empty means the configured default.
	Mode string
	// CorrelationID is propagated to logs and events (optional).
	CorrelationID string
}

// Pair holds one value per input.
type Pair struct {
	Text1 string `json:"text1"`
	Text2 string `json:"text2"`
}

// Result is the outcome of Score.
type Result struct {
	namematch.Comparison

	RequestID string
	Mode      domain.Mode
	// Compared are the texts handed to the engine after translation.
	Compared Pair
	// Languages are the detected source languages; empty when no detection ran.
	Languages Pair
	// Translator is the provider used, empty when the mode translated nothing.
	Translator string
	Duration   time.Duration
}

// Score compares req.Text1 and req.Text2. The only errors returned are for
// an unrecognized mode; collaborator failures degrade to comparing the
// original text.
func (s *Service) Score(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	mode := s.cfg.DefaultMode
	if strings.TrimSpace(req.Mode) != "" {
		parsed, err := domain.ParseMode(req.Mode)
		if err != nil {
			if s.metrics != nil {
				s.metrics.RecordComparisonFailed("invalid", time.Since(start).Seconds())
			}
			return Result{}, err
		}
		mode = parsed
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	logger := observability.WithComparisonContext(*zerolog.Ctx(ctx), requestID, mode.String())
	ctx = logger.WithContext(ctx)

	result := Result{
		RequestID: requestID,
		Mode:      mode,
		Compared:  Pair{Text1: req.Text1, Text2: req.Text2},
	}

	if namematch.IsExactMatch(req.Text1, req.Text2) {
		result.Comparison = s.engine.Sentinel()
	} else {
		s.compare(ctx, mode, req, &result)
	}

	result.Duration = time.Since(start)
	s.record(result)
	s.log(logger, req, result)
	s.publish(ctx, req, result)

	return result, nil
}

// HandleRequest scores a request read from the event stream. It satisfies
// events.Handler.
func (s *Service) HandleRequest(ctx context.Context, req domain.ScoreRequest) error {
	_, err := s.Score(ctx, Request{
		RequestID:     req.RequestID,
		Text1:         req.Text1,
		Text2:         req.Text2,
		Mode:          req.Mode,
		CorrelationID: req.CorrelationID,
	})
	return err
}

func (s *Service) compare(ctx context.Context, mode domain.Mode, req Request, result *Result) {
	tr := s.translatorFor(mode, req.Text1, req.Text2)
	if tr == nil {
		result.Comparison = s.engine.Evaluate(req.Text1, req.Text2)
		return
	}
	result.Translator = tr.Name()

	var p1, p2 prepared
	var g errgroup.Group
	g.Go(func() error {
		p1 = s.prepare(ctx, tr, req.Text1)
		return nil
	})
	g.Go(func() error {
		p2 = s.prepare(ctx, tr, req.Text2)
		return nil
	})
	_ = g.Wait()

	result.Languages = Pair{Text1: p1.lang, Text2: p2.lang}
	result.Compared = Pair{Text1: p1.text, Text2: p2.text}

	if p1.empty || p2.empty {
		result.Compared = Pair{Text1: req.Text1, Text2: req.Text2}
		result.Comparison = namematch.Comparison{
			Score:          s.engine.BasicSimilarity(req.Text1, req.Text2),
			Classification: s.engine.Classify(req.Text1, req.Text2),
			Fallback:       FallbackEmptyTranslation,
		}
		return
	}

	result.Comparison = s.engine.Evaluate(p1.text, p2.text)
}

// translatorFor selects the translator for mode, or nil when nothing is
// translated.
func (s *Service) translatorFor(mode domain.Mode, text1, text2 string) translate.Translator {
	switch mode {
	case domain.ModeAlwaysTranslate:
		return s.primary
	case domain.ModePreferFreeTranslate:
		return s.free
	case domain.ModeTranslateIfNeeded:
		if domain.NeedsTranslation(text1) || domain.NeedsTranslation(text2) {
			return s.primary
		}
	}
	return nil
}

func (s *Service) record(r Result) {
	if s.metrics == nil {
		return
	}
	outcome := observability.OutcomeScored
	switch {
	case r.Sentinel:
		outcome = observability.OutcomeSentinel
	case r.Fallback != "":
		outcome = observability.OutcomeFallback
		s.metrics.RecordFallback(r.Fallback)
	}
	s.metrics.RecordComparison(r.Mode.String(), outcome, r.Classification.Kind(),
		float64(r.Score), r.Breakdown.Discarded, r.Duration.Seconds())
}

func (s *Service) log(logger zerolog.Logger, req Request, r Result) {
	logger.Info().
		Str("text1_sha256", domain.Digest(req.Text1)).
		Str("text2_sha256", domain.Digest(req.Text2)).
		Float64("phonetic", r.Metrics.Phonetic).
		Float64("jaro_winkler", r.Metrics.JaroWinkler).
		Float64("levenshtein", r.Metrics.Levenshtein).
		Float64("bigram", r.Metrics.Bigram).
		Str("kind", r.Classification.Kind()).
		Int("discarded", r.Breakdown.Discarded).
		Bool("sentinel", r.Sentinel).
		Str("fallback", r.Fallback).
		Str("translator", r.Translator).
		Stringer("score", r.Score).
		Dur("duration", r.Duration).
		Msg("comparison scored")
}

// publish emits the result event. Failures are logged and never fail the
// comparison.
func (s *Service) publish(ctx context.Context, req Request, r Result) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PublishTimeout)
	defer cancel()

	err := s.publisher.Publish(ctx, events.EmitParams{
		RequestID: r.RequestID,
		EventType: domain.EventTypeScoreComputed,
		Payload: domain.ScoreComputedPayload{
			RequestID:     r.RequestID,
			Mode:          r.Mode,
			Score:         r.Score.String(),
			Swapped:       r.Classification.Swapped,
			Mixed:         r.Classification.Mixed,
			Sentinel:      r.Sentinel,
			Fallback:      r.Fallback,
			Translator:    r.Translator,
			Text1Digest:   domain.Digest(req.Text1),
			Text2Digest:   domain.Digest(req.Text2),
			Duration:      r.Duration,
			CorrelationID: req.CorrelationID,
		},
		CorrelationID: req.CorrelationID,
		Origin:        observability.SourceFromContext(ctx),
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to publish comparison event")
	}
}
