// Package config provides configuration management for the name similarity service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/helixir/name-similarity-service/internal/domain"
	"github.com/helixir/name-similarity-service/internal/namematch"
)

// Provider names accepted by the translation and detection sections.
const (
	ProviderGoogle     = "google"
	ProviderGoogleFree = "google_free"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderNoop       = "noop"
	ProviderHeuristic  = "heuristic"
)

// Environment variables holding secrets. They are never read from the config file.
const (
	EnvGoogleAPIKey    = "NAMESIM_TRANSLATION_GOOGLE_API_KEY"
	EnvOpenAIAPIKey    = "NAMESIM_TRANSLATION_OPENAI_API_KEY"
	EnvAnthropicAPIKey = "NAMESIM_TRANSLATION_ANTHROPIC_API_KEY"
)

// Config holds all configuration for the name similarity service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Scoring contains engine and comparison settings.
	Scoring ScoringConfig `mapstructure:"scoring"`
	// Translation contains translator provider settings.
	Translation TranslationConfig `mapstructure:"translation"`
	// Detection contains language detector settings.
	Detection DetectionConfig `mapstructure:"detection"`
	// Kafka contains event publisher and request consumer settings.
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// MaxBodyBytes limits the size of request bodies.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
}

// ScoringConfig holds engine and comparison settings.
type ScoringConfig struct {
	// DefaultMode is the translation mode used when a request has none.
	DefaultMode string `mapstructure:"default_mode"`
	// SentinelScore is returned for inputs equal ignoring case.
	SentinelScore float64 `mapstructure:"sentinel_score"`
	// FoldDiacritics strips combining marks from Latin letters.
	FoldDiacritics bool `mapstructure:"fold_diacritics"`
	// Scripts are the non-Latin scripts kept by the normalizer (hangul, han, kana).
	Scripts []string `mapstructure:"scripts"`
	// Romanize compares non-Latin tokens by their romanized form.
	Romanize bool `mapstructure:"romanize"`
	// DetectTimeout bounds one language detection call.
	DetectTimeout time.Duration `mapstructure:"detect_timeout"`
	// TranslateTimeout bounds one translation call.
	TranslateTimeout time.Duration `mapstructure:"translate_timeout"`
	// PublishTimeout bounds publication of a result event.
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

// TranslationConfig holds translator settings.
type TranslationConfig struct {
	// Primary is the translator used by always_translate and translate_if_needed.
	Primary string `mapstructure:"primary"`
	// Free is the translator used by prefer_free_translate.
	Free string `mapstructure:"free"`
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the sustained requests per second per provider.
	RateLimit float64 `mapstructure:"rate_limit"`
	// MaxRetries is the number of retries for transient failures.
	MaxRetries int `mapstructure:"max_retries"`
	// Google contains Cloud Translation settings (also used by detection).
	Google GoogleConfig `mapstructure:"google"`
	// GoogleFree contains settings for the keyless web endpoint.
	GoogleFree GoogleFreeConfig `mapstructure:"google_free"`
	// OpenAI contains OpenAI-specific settings.
	OpenAI LLMProviderConfig `mapstructure:"openai"`
	// Anthropic contains Anthropic-specific settings.
	Anthropic LLMProviderConfig `mapstructure:"anthropic"`
	// Breaker contains circuit breaker settings applied to every provider.
	Breaker BreakerConfig `mapstructure:"breaker"`
}

// GoogleConfig holds Cloud Translation settings.
type GoogleConfig struct {
	// APIKey is the API key (loaded from NAMESIM_TRANSLATION_GOOGLE_API_KEY env var).
	APIKey string `mapstructure:"-"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
}

// GoogleFreeConfig holds settings for the keyless web endpoint.
type GoogleFreeConfig struct {
	// BaseURL is the endpoint base URL.
	BaseURL string `mapstructure:"base_url"`
}

// LLMProviderConfig holds settings for an LLM-backed translator.
type LLMProviderConfig struct {
	// APIKey is the provider API key (loaded from the environment only).
	APIKey string `mapstructure:"-"`
	// Model is the model to use.
	Model string `mapstructure:"model"`
	// BaseURL is the API base URL (for custom endpoints).
	BaseURL string `mapstructure:"base_url"`
}

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	// Enabled wraps remote collaborators in circuit breakers.
	Enabled bool `mapstructure:"enabled"`
	// ConsecutiveThreshold is consecutive failures before the circuit opens.
	// Zero keeps the per-provider default.
	ConsecutiveThreshold int `mapstructure:"consecutive_threshold"`
	// Cooldown is how long the circuit stays open before probing.
	// Zero keeps the per-provider default.
	Cooldown time.Duration `mapstructure:"cooldown"`
	// HalfOpenProbes is the number of concurrent probes while half-open.
	HalfOpenProbes int `mapstructure:"half_open_probes"`
}

// DetectionConfig holds language detector settings.
type DetectionConfig struct {
	// Provider is the detector (heuristic, google).
	Provider string `mapstructure:"provider"`
	// RateLimit is the sustained detection requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// KafkaConfig holds Kafka publisher and consumer settings.
type KafkaConfig struct {
	// Enabled controls whether result events are published.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// Topic is the Kafka topic result events are published to.
	Topic string `mapstructure:"topic"`
	// RequestTopic is the topic the worker consumes score requests from.
	RequestTopic string `mapstructure:"request_topic"`
	// GroupID is the consumer group of the worker.
	GroupID string `mapstructure:"group_id"`
	// BatchSize is the maximum number of messages to batch before sending.
	BatchSize int `mapstructure:"batch_size"`
	// BatchTimeout is the maximum time to wait for a batch to fill before sending.
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	// Async makes event writes fire-and-forget.
	Async bool `mapstructure:"async"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// EngineConfig converts the scoring section into an engine configuration.
func (c *ScoringConfig) EngineConfig() (namematch.Config, error) {
	scripts, err := namematch.ParseScripts(c.Scripts)
	if err != nil {
		return namematch.Config{}, err
	}
	return namematch.Config{
		Scripts:        scripts,
		FoldDiacritics: c.FoldDiacritics,
		SentinelScore:  c.SentinelScore,
	}, nil
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("NAMESIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/name-similarity-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
// These fields are tagged with mapstructure:"-" to prevent loading from config files.
func loadSecrets(cfg *Config) {
	cfg.Translation.Google.APIKey = os.Getenv(EnvGoogleAPIKey)
	cfg.Translation.OpenAI.APIKey = os.Getenv(EnvOpenAIAPIKey)
	cfg.Translation.Anthropic.APIKey = os.Getenv(EnvAnthropicAPIKey)
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.max_body_bytes", 64<<10)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Scoring defaults
	v.SetDefault("scoring.default_mode", string(domain.DefaultMode))
	v.SetDefault("scoring.sentinel_score", namematch.DefaultSentinelScore)
	v.SetDefault("scoring.fold_diacritics", true)
	v.SetDefault("scoring.scripts", []string{"hangul"})
	v.SetDefault("scoring.romanize", true)
	v.SetDefault("scoring.detect_timeout", "2s")
	v.SetDefault("scoring.translate_timeout", "5s")
	v.SetDefault("scoring.publish_timeout", "5s")

	// Translation defaults
	// API keys are loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("translation.primary", ProviderGoogle)
	v.SetDefault("translation.free", ProviderGoogleFree)
	v.SetDefault("translation.timeout", "10s")
	v.SetDefault("translation.rate_limit", 10.0)
	v.SetDefault("translation.max_retries", 2)
	v.SetDefault("translation.google.base_url", "https://translation.googleapis.com")
	v.SetDefault("translation.google_free.base_url", "https://translate.googleapis.com")
	v.SetDefault("translation.openai.model", "gpt-4o-mini")
	v.SetDefault("translation.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("translation.anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("translation.anthropic.base_url", "https://api.anthropic.com")
	v.SetDefault("translation.breaker.enabled", true)
	v.SetDefault("translation.breaker.consecutive_threshold", 0)
	v.SetDefault("translation.breaker.cooldown", "0s")
	v.SetDefault("translation.breaker.half_open_probes", 1)

	// Detection defaults
	v.SetDefault("detection.provider", ProviderGoogle)
	v.SetDefault("detection.rate_limit", 10.0)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "events.name_similarity_service")
	v.SetDefault("kafka.request_topic", "requests.name_similarity_service")
	v.SetDefault("kafka.group_id", "name-similarity-worker")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", "10ms")
	v.SetDefault("kafka.async", false)
}

var translators = map[string]bool{
	ProviderGoogle:     true,
	ProviderGoogleFree: true,
	ProviderOpenAI:     true,
	ProviderAnthropic:  true,
	ProviderNoop:       true,
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("max_body_bytes must not be negative")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate scoring
	if c.Scoring.DefaultMode != "" {
		if _, err := domain.ParseMode(c.Scoring.DefaultMode); err != nil {
			return fmt.Errorf("scoring default_mode: %w", err)
		}
	}
	if c.Scoring.SentinelScore < 0 || c.Scoring.SentinelScore > 100 {
		return fmt.Errorf("scoring sentinel_score must be between 0 and 100")
	}
	if _, err := namematch.ParseScripts(c.Scoring.Scripts); err != nil {
		return fmt.Errorf("scoring scripts: %w", err)
	}

	// Validate translation providers
	for _, p := range []string{c.Translation.Primary, c.Translation.Free} {
		if !translators[p] {
			return fmt.Errorf("%w: translator %q", domain.ErrUnsupportedProvider, p)
		}
	}
	if c.Translation.RateLimit < 0 {
		return fmt.Errorf("translation rate_limit must not be negative")
	}
	if c.Translation.Breaker.ConsecutiveThreshold < 0 || c.Translation.Breaker.HalfOpenProbes < 0 {
		return fmt.Errorf("translation breaker thresholds must not be negative")
	}

	switch c.Detection.Provider {
	case ProviderGoogle, ProviderHeuristic:
	default:
		return fmt.Errorf("%w: detector %q", domain.ErrUnsupportedProvider, c.Detection.Provider)
	}

	// Validate that the selected providers have their API keys set.
	if c.uses(ProviderGoogle) && c.Translation.Google.APIKey == "" {
		return fmt.Errorf("provider %q requires %s to be set", ProviderGoogle, EnvGoogleAPIKey)
	}
	if c.uses(ProviderOpenAI) && c.Translation.OpenAI.APIKey == "" {
		return fmt.Errorf("provider %q requires %s to be set", ProviderOpenAI, EnvOpenAIAPIKey)
	}
	if c.uses(ProviderAnthropic) && c.Translation.Anthropic.APIKey == "" {
		return fmt.Errorf("provider %q requires %s to be set", ProviderAnthropic, EnvAnthropicAPIKey)
	}

	// Validate Kafka
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required when kafka is enabled")
		}
	}

	return nil
}

// ValidateWorker checks the settings the request consumer needs on top of Validate.
func (c *Config) ValidateWorker() error {
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required for the worker")
	}
	if c.Kafka.RequestTopic == "" {
		return fmt.Errorf("kafka request_topic is required for the worker")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("kafka group_id is required for the worker")
	}
	return nil
}

// uses reports whether provider is selected for translation or detection.
func (c *Config) uses(provider string) bool {
	return c.Translation.Primary == provider ||
		c.Translation.Free == provider ||
		c.Detection.Provider == provider
}
