// Package events publishes comparison results to Kafka and consumes score
// requests from it.
//
// # Components
//
//   - Emitter: builds domain.Event envelopes enriched with service metadata
//   - KafkaPublisher: emits events and writes them to a topic (kafka-go Writer)
//   - NoopPublisher: used when Kafka is disabled
//   - Consumer: reads domain.ScoreRequest messages (kafka-go Reader) and hands
//     them to a Handler
//
// # Event Types
//
//   - name_similarity.scored: a comparison finished
//
// Event payloads never contain the compared names; they carry SHA-256
// digests (see domain.Digest).
//
// # Usage
//
//	emitter := events.NewEmitter(events.EmitterConfig{ServiceName: "name-similarity-service"})
//	publisher := events.NewKafkaPublisher(cfg, emitter, metrics)
//	defer publisher.Close()
//
//	err := publisher.Publish(ctx, events.EmitParams{
//	    RequestID: requestID,
//	    EventType: domain.EventTypeScoreComputed,
//	    Payload:   payload,
//	})
package events
