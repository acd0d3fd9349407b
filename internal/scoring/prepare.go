package scoring

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/name-similarity-service/internal/domain"
	"github.com/helixir/name-similarity-service/internal/langdetect"
	"github.com/helixir/name-similarity-service/internal/namematch"
	"github.com/helixir/name-similarity-service/internal/observability"
	"github.com/helixir/name-similarity-service/internal/translate"
)

// prepared is one input after the comparable step.
type prepared struct {
	text string
	lang string
	// empty is set when the translator answered with no text.
	empty bool
}

// prepare detects the language of text and translates it with tr. Plain
// Latin text and English text are returned unchanged; any translation
// failure substitutes the original text.
func (s *Service) prepare(ctx context.Context, tr translate.Translator, text string) prepared {
	if namematch.IsPureLatin(text) {
		return prepared{text: text, lang: langdetect.Fallback}
	}

	lang := s.detect(ctx, text)
	if strings.EqualFold(lang, translate.TargetLanguage) {
		return prepared{text: text, lang: lang}
	}

	out, err := s.translate(ctx, tr, text, lang)
	if err != nil {
		return prepared{text: text, lang: lang, empty: errors.Is(err, domain.ErrEmptyTranslation)}
	}
	return prepared{text: out, lang: lang}
}

func (s *Service) detect(ctx context.Context, text string) string {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.DetectTimeout)
	defer cancel()

	start := time.Now()
	lang := s.detector.Detect(ctx, text)
	if s.metrics != nil {
		s.metrics.RecordCollaboratorRequest(observability.CollaboratorDetect, s.detector.Name(), time.Since(start).Seconds())
	}
	return lang
}

func (s *Service) translate(ctx context.Context, tr translate.Translator, text, lang string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.TranslateTimeout)
	defer cancel()

	start := time.Now()
	out, err := tr.Translate(ctx, text, lang)
	if s.metrics != nil {
		s.metrics.RecordCollaboratorRequest(observability.CollaboratorTranslate, tr.Name(), time.Since(start).Seconds())
	}
	if err == nil && strings.TrimSpace(out) == "" {
		err = domain.NewCollaboratorError(observability.CollaboratorTranslate, tr.Name(), domain.ErrEmptyTranslation)
	}
	if err != nil {
		kind := errorType(err)
		if s.metrics != nil {
			s.metrics.RecordCollaboratorFailure(observability.CollaboratorTranslate, tr.Name(), kind)
		}
		log := observability.WithCollaboratorContext(*zerolog.Ctx(ctx), observability.CollaboratorTranslate, tr.Name())
		log.Warn().Err(err).
			Str("error_type", kind).
			Str("source_lang", lang).
			Msg("translation failed, comparing original text")
		return "", err
	}
	return out, nil
}

// errorType classifies a collaborator error for metrics labels.
func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, domain.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, domain.ErrEmptyTranslation):
		return "empty"
	}

	var apiErr *translate.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 0:
			return "network"
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return "rate_limited"
		case apiErr.StatusCode >= 500:
			return "server"
		default:
			return "client"
		}
	}
	return "other"
}
