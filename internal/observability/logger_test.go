package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestDefaultLoggingConfig(t *testing.T) {
	cfg := DefaultLoggingConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.False(t, cfg.AddSource)
}

func TestNewLogger(t *testing.T) {
	t.Run("json output carries service and level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(LoggingConfig{Level: "warn", Format: "json"}, &buf)

		logger.Info().Msg("dropped")
		assert.Zero(t, buf.Len())

		logger.Warn().Msg("kept")
		entry := decodeLine(t, &buf)
		assert.Equal(t, ServiceName, entry["service"])
		assert.Equal(t, "warn", entry["level"])
		assert.Equal(t, "kept", entry["message"])
		assert.Contains(t, entry, "time")
	})

	t.Run("add source includes caller", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(LoggingConfig{Level: "info", AddSource: true}, &buf)

		logger.Info().Msg("with caller")
		entry := decodeLine(t, &buf)
		assert.Contains(t, entry, "caller")
	})

	t.Run("console format is not json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(LoggingConfig{Level: "info", Format: "console"}, &buf)

		logger.Info().Msg("pretty")
		assert.Contains(t, buf.String(), "pretty")
		assert.False(t, json.Valid(buf.Bytes()))
	})

	t.Run("stderr output", func(t *testing.T) {
		logger := NewLogger(LoggingConfig{Level: "info", Output: "stderr"})
		assert.NotEqual(t, zerolog.Logger{}, logger)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"WARNING", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel("debug"))
	assert.True(t, ValidLevel("WARNING"))
	assert.False(t, ValidLevel("verbose"))
	assert.False(t, ValidLevel(""))
}

func TestLoggerContextChaining(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithComparisonContext(logger, "req-1", "translate_if_needed")
	enriched = WithCollaboratorContext(enriched, "translate", "google")
	enriched = WithCorrelationContext(enriched, "corr-9", SourceKafka)
	enriched.Info().Msg("chained context")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "translate_if_needed", entry["mode"])
	assert.Equal(t, "translate", entry["collaborator"])
	assert.Equal(t, "google", entry["provider"])
	assert.Equal(t, "corr-9", entry["correlation_id"])
	assert.Equal(t, "kafka", entry["source"])
}

func TestWithCorrelationContext_OmitsEmptyID(t *testing.T) {
	var buf bytes.Buffer
	logger := WithCorrelationContext(zerolog.New(&buf), "", SourceHTTP)
	logger.Info().Msg("x")

	entry := decodeLine(t, &buf)
	assert.NotContains(t, entry, "correlation_id")
	assert.Equal(t, "http", entry["source"])
}
