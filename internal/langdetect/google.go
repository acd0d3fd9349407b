package langdetect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/name-similarity-service/internal/httpclient"
	"github.com/helixir/name-similarity-service/internal/resilience"
)

// Provider names.
const (
	ProviderHeuristic = "heuristic"
	ProviderGoogle    = "google"
)

const defaultGoogleBaseURL = "https://translation.googleapis.com"

// GoogleConfig holds the parameters needed to create a Google detector.
type GoogleConfig struct {
	// APIKey is the Cloud Translation API key.
	APIKey string
	// BaseURL is the API base URL (empty means default).
	BaseURL string
}

type detectRequest struct {
	Q []string `json:"q"`
}

type detectResponse struct {
	Data struct {
		Detections [][]struct {
			Language   string  `json:"language"`
			Confidence float64 `json:"confidence"`
		} `json:"detections"`
	} `json:"data"`
}

// Google detects languages with the Cloud Translation v2 detect endpoint.
type Google struct {
	client  *httpclient.Client
	breaker *resilience.Breaker
	apiKey  string
	baseURL string
}

// NewGoogle creates a Google detector. breaker may be nil.
func NewGoogle(cfg GoogleConfig, client *httpclient.Client, breaker *resilience.Breaker) *Google {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGoogleBaseURL
	}
	return &Google{
		client:  client,
		breaker: breaker,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name returns "google".
func (g *Google) Name() string {
	return ProviderGoogle
}

// Detect returns the detected language. Plain Latin text is reported as en
// without a remote call; failures are logged and reported as Fallback.
func (g *Google) Detect(ctx context.Context, text string) string {
	if isLatin(text) {
		return Fallback
	}

	var lang string
	call := func(ctx context.Context) error {
		var err error
		lang, err = g.detect(ctx, text)
		return err
	}

	var err error
	if g.breaker != nil {
		err = g.breaker.Execute(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil || lang == "" || lang == "und" {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("provider", ProviderGoogle).
			Msg("language detection failed, using fallback")
		return Fallback
	}
	return lang
}

func (g *Google) detect(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(detectRequest{Q: []string{text}})
	if err != nil {
		return "", fmt.Errorf("google detect: failed to marshal request: %w", err)
	}

	endpoint := g.baseURL + "/language/translate/v2/detect?key=" + url.QueryEscape(g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("google detect: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("google detect: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("google detect: failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google detect: unexpected status %d", resp.StatusCode)
	}

	var out detectResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("google detect: failed to unmarshal response: %w", err)
	}

	best, bestConfidence := "", -1.0
	for _, group := range out.Data.Detections {
		for _, d := range group {
			if d.Confidence > bestConfidence {
				best, bestConfidence = d.Language, d.Confidence
			}
		}
	}
	return best, nil
}

// New creates the named detector. Unknown names fall back to the heuristic.
func New(provider string, cfg GoogleConfig, client *httpclient.Client, breaker *resilience.Breaker) Detector {
	if provider == ProviderGoogle {
		return NewGoogle(cfg, client, breaker)
	}
	return NewHeuristic()
}
