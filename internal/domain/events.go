package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventTypeScoreComputed is published once per finished comparison.
const EventTypeScoreComputed = "name_similarity.scored"

// Event is the envelope published to the event stream.
type Event struct {
	EventID      string            `json:"event_id"`
	EventVersion int               `json:"event_version"`
	EventType    string            `json:"event_type"`
	AggregateID  string            `json:"aggregate_id"`
	Payload      json.RawMessage   `json:"payload"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// NewEvent creates a new event with the given parameters.
// The payload is JSON-serialized automatically.
func NewEvent(eventType, aggregateID string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		EventID:      uuid.New().String(),
		EventVersion: 1,
		EventType:    eventType,
		AggregateID:  aggregateID,
		Payload:      payloadBytes,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// WithMetadata sets the metadata on the event.
func (e *Event) WithMetadata(metadata map[string]string) *Event {
	e.Metadata = metadata
	return e
}

// ScoreComputedPayload is the payload for name_similarity.scored events.
// Input names are carried as SHA-256 digests only.
type ScoreComputedPayload struct {
	RequestID     string        `json:"request_id"`
	Mode          Mode          `json:"mode"`
	Score         string        `json:"score"`
	Swapped       bool          `json:"swapped"`
	Mixed         bool          `json:"mixed"`
	Sentinel      bool          `json:"sentinel"`
	Fallback      string        `json:"fallback,omitempty"`
	Translator    string        `json:"translator,omitempty"`
	Text1Digest   string        `json:"text1_sha256"`
	Text2Digest   string        `json:"text2_sha256"`
	Duration      time.Duration `json:"duration_ns"`
	CorrelationID string        `json:"correlation_id,omitempty"`
}

// ScoreRequest is the message consumed from the request topic.
type ScoreRequest struct {
	RequestID     string `json:"request_id"`
	Text1         string `json:"text1"`
	Text2         string `json:"text2"`
	Mode          string `json:"mode,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Validate checks the request fields.
func (r *ScoreRequest) Validate() error {
	if r.Text1 == "" {
		return NewValidationError("text1", "is required")
	}
	if r.Text2 == "" {
		return NewValidationError("text2", "is required")
	}
	if _, err := ParseMode(r.Mode); err != nil {
		return NewValidationError("mode", err.Error())
	}
	return nil
}

// Digest returns the hex SHA-256 of text. Names leave the process (logs,
// events) only in this form.
func Digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
