// Package observability provides logging, metrics, and context helpers for
// the name similarity service.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//
// Request handlers attach a request-scoped logger to the context with
// logger.WithContext; downstream code logs through zerolog.Ctx(ctx).
//
//	logger = observability.WithComparisonContext(logger, requestID, "translate_if_needed")
//	logger = observability.WithCollaboratorContext(logger, "translate", "google")
//
// # Metrics
//
//	metrics := observability.NewMetrics("name_similarity")
//	metrics.RecordComparison("no_translate", observability.OutcomeScored, "plain", 87.5, 1, 0.002)
//	metrics.RecordCollaboratorRequest(observability.CollaboratorTranslate, "google", 0.12)
//
// # Standard Fields
//
//   - request_id: comparison request identifier
//   - correlation_id: upstream correlation identifier
//   - source: entry point (http, kafka)
//   - mode: translation mode
//   - collaborator, provider: remote collaborator kind and provider name
//
// Input names are never logged in clear; log lines carry their SHA-256
// digests.
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
