// Package translate provides machine translation of names into English.
//
// Every provider implements Translator. Providers return the input unchanged
// when the source language is English or the text is already plain Latin,
// unescape HTML entities in the provider output, and report an empty result
// as domain.ErrEmptyTranslation.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/helixir/name-similarity-service/internal/domain"
	"github.com/helixir/name-similarity-service/internal/httpclient"
	"github.com/helixir/name-similarity-service/internal/namematch"
)

// TargetLanguage is the language every provider translates into.
const TargetLanguage = "en"

// maxResponseBytes bounds provider response bodies.
const maxResponseBytes = 1 << 20

// Translator translates text into English.
type Translator interface {
	// Translate returns text translated from sourceLang into English.
	// sourceLang may be empty, in which case the provider auto-detects.
	Translate(ctx context.Context, text, sourceLang string) (string, error)

	// Name returns the provider name.
	Name() string
}

// skip reports whether text can be compared as-is without translation.
func skip(text, sourceLang string) bool {
	return strings.EqualFold(sourceLang, TargetLanguage) || namematch.IsPureLatin(text)
}

// finalize cleans provider output.
func finalize(provider, out string) (string, error) {
	out = strings.TrimSpace(html.UnescapeString(out))
	if out == "" {
		return "", domain.NewCollaboratorError("translate", provider, domain.ErrEmptyTranslation)
	}
	return out, nil
}

// errorParser converts a non-2xx response body into an *APIError.
type errorParser func(statusCode int, body []byte) *APIError

// doJSON sends req, reads the bounded body and decodes a 200 response into
// out. Transport failures become network *APIErrors.
func doJSON(client *httpclient.Client, provider string, req *http.Request, parse errorParser, out interface{}) error {
	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", provider, ctxErr)
		}
		return networkError(provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return networkError(provider, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return parse(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: failed to unmarshal response: %w", provider, err)
	}
	return nil
}

func newJSONRequest(ctx context.Context, provider, endpoint string, payload interface{}) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal request: %w", provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Noop returns its input unchanged.
type Noop struct{}

// NewNoop creates a Noop translator.
func NewNoop() *Noop {
	return &Noop{}
}

// Translate returns text unchanged.
func (Noop) Translate(_ context.Context, text, _ string) (string, error) {
	return text, nil
}

// Name returns "noop".
func (Noop) Name() string {
	return ProviderNoop
}
