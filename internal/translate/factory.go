package translate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/helixir/name-similarity-service/internal/domain"
	"github.com/helixir/name-similarity-service/internal/httpclient"
	"github.com/helixir/name-similarity-service/internal/resilience"
)

// Provider names.
const (
	ProviderGoogle     = "google"
	ProviderGoogleFree = "google_free"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderNoop       = "noop"
)

// FactoryConfig holds the parameters needed to create a Translator.
// It is defined here so this package does not import the config package.
type FactoryConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration
	// RateLimit is the sustained requests per second per provider.
	RateLimit float64
	// MaxRetries is the number of retries for transient failures.
	MaxRetries int

	Google     GoogleConfig
	GoogleFree GoogleFreeConfig
	OpenAI     OpenAIConfig
	Anthropic  AnthropicConfig
}

// NewTranslator creates the named provider. Remote providers get their own
// rate-limited HTTP client and are wrapped in the breaker registered under
// the provider name when breakers is non-nil.
func NewTranslator(cfg FactoryConfig, provider string, breakers *resilience.Registry) (Translator, error) {
	var t Translator
	switch provider {
	case ProviderNoop, "":
		return NewNoop(), nil
	case ProviderGoogle:
		t = NewGoogleProvider(cfg.Google, newClient(cfg))
	case ProviderGoogleFree:
		t = NewGoogleFreeProvider(cfg.GoogleFree, newClient(cfg))
	case ProviderOpenAI:
		t = NewOpenAIProvider(cfg.OpenAI, newClient(cfg))
	case ProviderAnthropic:
		t = NewAnthropicProvider(cfg.Anthropic, newClient(cfg))
	default:
		return nil, fmt.Errorf("%w: translator %q", domain.ErrUnsupportedProvider, provider)
	}

	if breakers != nil {
		t = NewGuarded(t, breakers.Get(provider))
	}
	return t, nil
}

func newClient(cfg FactoryConfig) *httpclient.Client {
	return httpclient.New(httpclient.Config{
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		MaxRetries: cfg.MaxRetries,
	})
}

// Guarded wraps a Translator with a circuit breaker. Only transient provider
// failures count against the breaker.
type Guarded struct {
	inner   Translator
	breaker *resilience.Breaker
}

// NewGuarded wraps t with breaker.
func NewGuarded(t Translator, breaker *resilience.Breaker) *Guarded {
	return &Guarded{inner: t, breaker: breaker}
}

// Name returns the wrapped provider name.
func (g *Guarded) Name() string {
	return g.inner.Name()
}

// Translate calls the wrapped provider unless the breaker is open. Transient
// provider errors and expired deadlines count against the breaker; caller
// cancellation does not.
func (g *Guarded) Translate(ctx context.Context, text, sourceLang string) (string, error) {
	var out string
	var callErr error
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		out, callErr = g.inner.Translate(ctx, text, sourceLang)
		if callErr != nil && (IsTransient(callErr) || errors.Is(callErr, context.DeadlineExceeded)) {
			return callErr
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, callErr
}
