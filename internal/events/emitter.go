package events

import (
	"fmt"

	"github.com/helixir/name-similarity-service/internal/domain"
)

// Metadata keys set on every event.
const (
	MetadataSource        = "source"
	MetadataOrigin        = "origin"
	MetadataCorrelationID = "correlation_id"
)

// EmitterConfig configures the Emitter with service context.
type EmitterConfig struct {
	// ServiceName identifies the source service.
	ServiceName string
}

// EmitParams contains the parameters for emitting an event.
type EmitParams struct {
	// RequestID is the comparison request ID (aggregate ID).
	RequestID string
	// EventType is the type of event (e.g., "name_similarity.scored").
	EventType string
	// Payload is the event payload that will be JSON-serialized.
	Payload interface{}
	// CorrelationID for request tracing (optional).
	CorrelationID string
	// Origin is the entry point of the request, http or kafka (optional).
	Origin string
}

// Emitter creates domain events enriched with service context.
type Emitter struct {
	config EmitterConfig
}

// NewEmitter creates a new Emitter with the given service configuration.
func NewEmitter(config EmitterConfig) *Emitter {
	if config.ServiceName == "" {
		config.ServiceName = "name-similarity-service"
	}
	return &Emitter{config: config}
}

// Emit creates an Event from the given parameters.
func (e *Emitter) Emit(params EmitParams) (*domain.Event, error) {
	if params.RequestID == "" {
		return nil, fmt.Errorf("request_id is required")
	}
	if params.EventType == "" {
		return nil, fmt.Errorf("event_type is required")
	}

	event, err := domain.NewEvent(params.EventType, params.RequestID, params.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	metadata := map[string]string{MetadataSource: e.config.ServiceName}
	if params.CorrelationID != "" {
		metadata[MetadataCorrelationID] = params.CorrelationID
	}
	if params.Origin != "" {
		metadata[MetadataOrigin] = params.Origin
	}

	return event.WithMetadata(metadata), nil
}
