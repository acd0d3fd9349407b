package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/helixir/name-similarity-service/internal/httpclient"
)

const defaultGoogleBaseURL = "https://translation.googleapis.com"

// GoogleConfig holds the parameters needed to create a Google provider.
type GoogleConfig struct {
	// APIKey is the Cloud Translation API key.
	APIKey string
	// BaseURL is the API base URL (empty means default).
	BaseURL string
}

type googleTranslateRequest struct {
	Q      []string `json:"q"`
	Source string   `json:"source,omitempty"`
	Target string   `json:"target"`
	Format string   `json:"format"`
}

type googleTranslateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage"`
		} `json:"translations"`
	} `json:"data"`
}

type googleErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GoogleProvider implements Translator using the Cloud Translation v2 REST API.
type GoogleProvider struct {
	client  *httpclient.Client
	apiKey  string
	baseURL string
}

// NewGoogleProvider creates a Cloud Translation provider.
func NewGoogleProvider(cfg GoogleConfig, client *httpclient.Client) *GoogleProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGoogleBaseURL
	}
	return &GoogleProvider{
		client:  client,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name returns "google".
func (p *GoogleProvider) Name() string {
	return ProviderGoogle
}

// Translate translates text into English.
func (p *GoogleProvider) Translate(ctx context.Context, text, sourceLang string) (string, error) {
	if skip(text, sourceLang) {
		return text, nil
	}

	endpoint := p.baseURL + "/language/translate/v2?key=" + url.QueryEscape(p.apiKey)
	req, err := newJSONRequest(ctx, ProviderGoogle, endpoint, googleTranslateRequest{
		Q:      []string{text},
		Source: sourceLang,
		Target: TargetLanguage,
		Format: "text",
	})
	if err != nil {
		return "", err
	}

	var resp googleTranslateResponse
	if err := doJSON(p.client, ProviderGoogle, req, parseGoogleAPIError, &resp); err != nil {
		return "", err
	}

	if len(resp.Data.Translations) == 0 {
		return "", fmt.Errorf("google: empty translations in response")
	}
	return finalize(ProviderGoogle, resp.Data.Translations[0].TranslatedText)
}

func parseGoogleAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		Provider:   ProviderGoogle,
		StatusCode: statusCode,
		Message:    string(body),
	}

	var errResp googleErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
		apiErr.Type = errResp.Error.Status
	}

	return apiErr
}
