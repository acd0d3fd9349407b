package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/helixir/name-similarity-service/internal/httpclient"
)

const (
	// anthropicAPIVersion is the Anthropic API version header value.
	anthropicAPIVersion = "2023-06-01"

	defaultAnthropicBaseURL   = "https://api.anthropic.com"
	defaultAnthropicModel     = "claude-3-5-haiku-latest"
	defaultAnthropicMaxTokens = 128
)

// messagesRequest is the request body for the Anthropic Messages API.
type messagesRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

// anthropicMessage represents a single message in the Anthropic Messages API.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// contentBlock represents a content block in the Anthropic Messages API response.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// messagesResponse is the response body from the Anthropic Messages API.
type messagesResponse struct {
	ID         string         `json:"id"`
	Content    []contentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
}

type anthropicErrorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// AnthropicConfig holds the parameters needed to create an Anthropic provider.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key.
	APIKey string
	// Model is the model identifier.
	Model string
	// BaseURL is the API base URL (empty means default).
	BaseURL string
}

// AnthropicProvider implements Translator using the Anthropic Messages API.
type AnthropicProvider struct {
	client  *httpclient.Client
	apiKey  string
	model   string
	baseURL string
}

// NewAnthropicProvider creates an Anthropic translation provider.
func NewAnthropicProvider(cfg AnthropicConfig, client *httpclient.Client) *AnthropicProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	return &AnthropicProvider{
		client:  client,
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name returns "anthropic".
func (p *AnthropicProvider) Name() string {
	return ProviderAnthropic
}

// Model returns the model identifier being used.
func (p *AnthropicProvider) Model() string {
	return p.model
}

// Translate translates text into English.
func (p *AnthropicProvider) Translate(ctx context.Context, text, sourceLang string) (string, error) {
	if skip(text, sourceLang) {
		return text, nil
	}

	systemPrompt, userPrompt := BuildPrompt(text, sourceLang)
	req, err := newJSONRequest(ctx, ProviderAnthropic, p.baseURL+"/v1/messages", messagesRequest{
		Model:     p.model,
		MaxTokens: defaultAnthropicMaxTokens,
		System:    systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)

	var resp messagesResponse
	if err := doJSON(p.client, ProviderAnthropic, req, parseAnthropicAPIError, &resp); err != nil {
		return "", err
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			return finalize(ProviderAnthropic, cleanCompletion(block.Text))
		}
	}
	return "", fmt.Errorf("anthropic: response contains no text content blocks")
}

// parseAnthropicAPIError parses an Anthropic API error from the response status code and body.
func parseAnthropicAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		Provider:   ProviderAnthropic,
		StatusCode: statusCode,
		Message:    string(body),
	}

	var errResp anthropicErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
		apiErr.Type = errResp.Error.Type
	}

	return apiErr
}
