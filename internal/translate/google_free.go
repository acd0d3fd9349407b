package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/helixir/name-similarity-service/internal/httpclient"
)

const defaultGoogleFreeBaseURL = "https://translate.googleapis.com"

// maxErrorMessageBytes caps the raw body kept in an APIError.
const maxErrorMessageBytes = 200

// GoogleFreeConfig holds the parameters needed to create the keyless Google
// provider.
type GoogleFreeConfig struct {
	// BaseURL is the endpoint base URL (empty means default).
	BaseURL string
}

// GoogleFreeProvider implements Translator using the keyless
// translate_a/single endpoint (client=gtx). The endpoint is unofficial and
// heavily rate limited; it backs the prefer_free_translate mode.
type GoogleFreeProvider struct {
	client  *httpclient.Client
	baseURL string
}

// NewGoogleFreeProvider creates a keyless Google provider.
func NewGoogleFreeProvider(cfg GoogleFreeConfig, client *httpclient.Client) *GoogleFreeProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGoogleFreeBaseURL
	}
	return &GoogleFreeProvider{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name returns "google_free".
func (p *GoogleFreeProvider) Name() string {
	return ProviderGoogleFree
}

// Translate translates text into English.
func (p *GoogleFreeProvider) Translate(ctx context.Context, text, sourceLang string) (string, error) {
	if skip(text, sourceLang) {
		return text, nil
	}

	sl := sourceLang
	if sl == "" {
		sl = "auto"
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", sl)
	params.Set("tl", TargetLanguage)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/translate_a/single?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("google_free: failed to create request: %w", err)
	}

	// The response is a positional array:
	// [[["<translated>","<original>",...],...],null,"<detected lang>",...]
	var resp []json.RawMessage
	if err := doJSON(p.client, ProviderGoogleFree, req, parseGoogleFreeAPIError, &resp); err != nil {
		return "", err
	}

	out, err := joinSentences(resp)
	if err != nil {
		return "", err
	}
	return finalize(ProviderGoogleFree, out)
}

func joinSentences(resp []json.RawMessage) (string, error) {
	if len(resp) == 0 {
		return "", fmt.Errorf("google_free: empty response")
	}

	var sentences [][]interface{}
	if err := json.Unmarshal(resp[0], &sentences); err != nil {
		return "", fmt.Errorf("google_free: unexpected response shape: %w", err)
	}

	var sb strings.Builder
	for _, s := range sentences {
		if len(s) == 0 {
			continue
		}
		if part, ok := s[0].(string); ok {
			sb.WriteString(part)
		}
	}
	return sb.String(), nil
}

func parseGoogleFreeAPIError(statusCode int, body []byte) *APIError {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorMessageBytes {
		cut := maxErrorMessageBytes
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return &APIError{
		Provider:   ProviderGoogleFree,
		StatusCode: statusCode,
		Message:    msg,
	}
}
