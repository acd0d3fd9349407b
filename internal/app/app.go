// Package app assembles the scoring service and its collaborators from
// configuration. The HTTP server and the Kafka worker share it.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/helixir/name-similarity-service/internal/config"
	"github.com/helixir/name-similarity-service/internal/domain"
	"github.com/helixir/name-similarity-service/internal/events"
	"github.com/helixir/name-similarity-service/internal/httpclient"
	"github.com/helixir/name-similarity-service/internal/langdetect"
	"github.com/helixir/name-similarity-service/internal/namematch"
	"github.com/helixir/name-similarity-service/internal/observability"
	"github.com/helixir/name-similarity-service/internal/resilience"
	"github.com/helixir/name-similarity-service/internal/scoring"
	"github.com/helixir/name-similarity-service/internal/translate"
	"github.com/helixir/name-similarity-service/internal/translit"
)

// detectBreaker is the registry name of the language detection breaker.
const detectBreaker = "detect"

// breakerNames are the collaborators guarded when breakers are enabled.
var breakerNames = []string{
	config.ProviderGoogle,
	config.ProviderGoogleFree,
	config.ProviderOpenAI,
	config.ProviderAnthropic,
	detectBreaker,
}

// App holds the assembled service.
type App struct {
	Service   *scoring.Service
	Publisher events.Publisher
	// Breakers is nil when circuit breakers are disabled.
	Breakers *resilience.Registry
}

// New builds the service described by cfg. The caller owns the returned App
// and must Close it.
func New(cfg *config.Config, metrics *observability.Metrics, logger zerolog.Logger) (*App, error) {
	var breakers *resilience.Registry
	if cfg.Translation.Breaker.Enabled {
		breakers = resilience.NewRegistry(breakerConfigs(cfg.Translation.Breaker), breakerObserver(metrics, logger))
	}

	factory := translate.FactoryConfig{
		Timeout:    cfg.Translation.Timeout,
		RateLimit:  cfg.Translation.RateLimit,
		MaxRetries: cfg.Translation.MaxRetries,
		Google: translate.GoogleConfig{
			APIKey:  cfg.Translation.Google.APIKey,
			BaseURL: cfg.Translation.Google.BaseURL,
		},
		GoogleFree: translate.GoogleFreeConfig{
			BaseURL: cfg.Translation.GoogleFree.BaseURL,
		},
		OpenAI: translate.OpenAIConfig{
			APIKey:  cfg.Translation.OpenAI.APIKey,
			Model:   cfg.Translation.OpenAI.Model,
			BaseURL: cfg.Translation.OpenAI.BaseURL,
		},
		Anthropic: translate.AnthropicConfig{
			APIKey:  cfg.Translation.Anthropic.APIKey,
			Model:   cfg.Translation.Anthropic.Model,
			BaseURL: cfg.Translation.Anthropic.BaseURL,
		},
	}

	primary, err := translate.NewTranslator(factory, cfg.Translation.Primary, breakers)
	if err != nil {
		return nil, fmt.Errorf("create primary translator: %w", err)
	}
	free, err := translate.NewTranslator(factory, cfg.Translation.Free, breakers)
	if err != nil {
		return nil, fmt.Errorf("create free translator: %w", err)
	}

	var detectCB *resilience.Breaker
	if breakers != nil {
		detectCB = breakers.Get(detectBreaker)
	}
	detector := langdetect.New(
		cfg.Detection.Provider,
		langdetect.GoogleConfig{
			APIKey:  cfg.Translation.Google.APIKey,
			BaseURL: cfg.Translation.Google.BaseURL,
		},
		httpclient.New(httpclient.Config{
			Timeout:    cfg.Translation.Timeout,
			RateLimit:  cfg.Detection.RateLimit,
			MaxRetries: cfg.Translation.MaxRetries,
		}),
		detectCB,
	)

	engineCfg, err := cfg.Scoring.EngineConfig()
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	var opts []namematch.Option
	if cfg.Scoring.Romanize {
		opts = append(opts, namematch.WithRomanizer(translit.New()))
	}
	engine, err := namematch.New(engineCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	mode, err := domain.ParseMode(cfg.Scoring.DefaultMode)
	if err != nil {
		return nil, fmt.Errorf("scoring default_mode: %w", err)
	}

	var publisher events.Publisher = events.NewNoopPublisher()
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(events.WriterConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			Async:        cfg.Kafka.Async,
		}, events.NewEmitter(events.EmitterConfig{}), metrics, logger)
		logger.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.Topic).
			Msg("kafka event publisher configured")
	}

	svc, err := scoring.NewService(scoring.Config{
		DefaultMode:      mode,
		DetectTimeout:    cfg.Scoring.DetectTimeout,
		TranslateTimeout: cfg.Scoring.TranslateTimeout,
		PublishTimeout:   cfg.Scoring.PublishTimeout,
	}, scoring.Deps{
		Engine:    engine,
		Detector:  detector,
		Primary:   primary,
		Free:      free,
		Publisher: publisher,
		Metrics:   metrics,
	})
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("create scoring service: %w", err)
	}

	logger.Info().
		Str("primary", primary.Name()).
		Str("free", free.Name()).
		Str("detector", detector.Name()).
		Str("default_mode", mode.String()).
		Bool("breakers", breakers != nil).
		Msg("scoring service assembled")

	return &App{Service: svc, Publisher: publisher, Breakers: breakers}, nil
}

// BreakerStates returns the state name of every breaker created so far.
// It returns nil when breakers are disabled.
func (a *App) BreakerStates() map[string]string {
	if a.Breakers == nil {
		return nil
	}
	snapshot := a.Breakers.Snapshot()
	out := make(map[string]string, len(snapshot))
	for name, state := range snapshot {
		out[name] = state.String()
	}
	return out
}

// Close flushes and closes the event publisher.
func (a *App) Close() error {
	return a.Publisher.Close()
}

// breakerConfigs applies the non-zero overrides of bc to the built-in
// configuration of every guarded collaborator.
func breakerConfigs(bc config.BreakerConfig) map[string]resilience.Config {
	out := make(map[string]resilience.Config, len(breakerNames))
	for _, name := range breakerNames {
		c := resilience.DefaultConfig(name)
		if bc.ConsecutiveThreshold > 0 {
			c.ConsecutiveThreshold = bc.ConsecutiveThreshold
		}
		if bc.Cooldown > 0 {
			c.Cooldown = bc.Cooldown
		}
		if bc.HalfOpenProbes > 0 {
			c.HalfOpenProbes = bc.HalfOpenProbes
		}
		out[name] = c
	}
	return out
}

func breakerObserver(metrics *observability.Metrics, logger zerolog.Logger) resilience.StateChangeFunc {
	return func(name string, from, to resilience.State) {
		if metrics != nil {
			metrics.RecordBreakerTransition(name, to.String())
		}
		event := logger.Info()
		if to == resilience.StateOpen {
			event = logger.Warn()
		}
		event.
			Str("breaker", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("circuit breaker state changed")
	}
}
