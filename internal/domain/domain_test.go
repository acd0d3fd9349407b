package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected Mode
	}{
		{input: "always_translate", expected: ModeAlwaysTranslate},
		{input: "prefer_free_translate", expected: ModePreferFreeTranslate},
		{input: "translate_if_needed", expected: ModeTranslateIfNeeded},
		{input: "no_translate", expected: ModeNoTranslate},
		{input: "on", expected: ModeAlwaysTranslate},
		{input: "OFF", expected: ModePreferFreeTranslate},
		{input: " optional ", expected: ModeTranslateIfNeeded},
		{input: "none", expected: ModeNoTranslate},
		{input: "", expected: DefaultMode},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			m, err := ParseMode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, m)
			assert.True(t, m.IsValid())
		})
	}
}

func TestParseMode_RejectsUnknown(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"maybe", "yes", "1", "translate"} {
		_, err := ParseMode(input)
		require.Error(t, err, input)
		assert.True(t, errors.Is(err, ErrInvalidMode))
	}
	assert.False(t, Mode("bogus").IsValid())
}

func TestMode_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var body struct {
		Mode Mode `json:"mode"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"mode":"optional"}`), &body))
	assert.Equal(t, ModeTranslateIfNeeded, body.Mode)

	err := json.Unmarshal([]byte(`{"mode":"sometimes"}`), &body)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidMode))
}

func TestNeedsTranslation(t *testing.T) {
	t.Parallel()

	assert.True(t, NeedsTranslation("김현종"))
	assert.True(t, NeedsTranslation("山田太郎"))
	assert.False(t, NeedsTranslation("中村 善治"))
	assert.False(t, NeedsTranslation("Kim"))
	assert.False(t, NeedsTranslation("김현종2"))
	assert.False(t, NeedsTranslation("김지수 KIM"))
}

func TestErrors_Unwrap(t *testing.T) {
	t.Parallel()

	var err error = NewValidationError("text1", "is required")
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, "validation error: text1: is required", err.Error())

	err = NewCollaboratorError("translate", "google", ErrEmptyTranslation)
	assert.True(t, errors.Is(err, ErrEmptyTranslation))
	var ce *CollaboratorError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "google", ce.Provider)
}

func TestNewEvent(t *testing.T) {
	t.Parallel()

	ev, err := NewEvent(EventTypeScoreComputed, "req-1", ScoreComputedPayload{RequestID: "req-1", Score: "92.30"})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, 1, ev.EventVersion)
	assert.Equal(t, EventTypeScoreComputed, ev.EventType)
	assert.False(t, ev.CreatedAt.IsZero())

	var payload ScoreComputedPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, "92.30", payload.Score)

	ev.WithMetadata(map[string]string{"source": "http"})
	assert.Equal(t, "http", ev.Metadata["source"])
}

func TestScoreRequest_Validate(t *testing.T) {
	t.Parallel()

	ok := ScoreRequest{Text1: "a", Text2: "b", Mode: "on"}
	assert.NoError(t, ok.Validate())

	missing := ScoreRequest{Text2: "b"}
	assert.True(t, errors.Is(missing.Validate(), ErrInvalidInput))

	badMode := ScoreRequest{Text1: "a", Text2: "b", Mode: "sometimes"}
	var ve *ValidationError
	require.True(t, errors.As(badMode.Validate(), &ve))
	assert.Equal(t, "mode", ve.Field)
}

func TestDigest(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Digest(""))
	assert.Len(t, Digest("김현종"), 64)
	assert.NotEqual(t, Digest("Kim"), Digest("kim"))
}
