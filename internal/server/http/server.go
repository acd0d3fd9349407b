// Package httpserver provides the HTTP REST API server for the name similarity service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/helixir/name-similarity-service/internal/scoring"
)

// Scorer defines the comparison operations used by the HTTP server.
type Scorer interface {
	Score(ctx context.Context, req scoring.Request) (scoring.Result, error)
	Inspect(text1, text2 string) scoring.Inspection
}

// ReadinessCheck reports whether a dependency is ready to serve.
type ReadinessCheck func(ctx context.Context) error

// Server is the HTTP REST API server.
type Server struct {
	router       chi.Router
	httpServer   *http.Server
	scorer       Scorer
	validate     *validator.Validate
	logger       zerolog.Logger
	maxBodyBytes int64
	metricsPath  string
	checks       map[string]ReadinessCheck
	breakers     func() map[string]string
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// MaxBodyBytes limits request bodies; zero means 64 KiB.
	MaxBodyBytes int64
	// MetricsPath mounts the Prometheus handler when non-empty.
	MetricsPath string
}

// Option configures optional Server features.
type Option func(*Server)

// WithReadinessCheck adds a named check to /readyz.
func WithReadinessCheck(name string, check ReadinessCheck) Option {
	return func(s *Server) {
		s.checks[name] = check
	}
}

// WithBreakerStates reports circuit breaker states on /readyz.
func WithBreakerStates(states func() map[string]string) Option {
	return func(s *Server) {
		s.breakers = states
	}
}

const defaultMaxBodyBytes = 64 << 10

// NewServer creates a new HTTP server with all dependencies.
func NewServer(cfg Config, scorer Scorer, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		scorer:       scorer,
		validate:     newValidator(),
		logger:       logger.With().Str("component", "http-server").Logger(),
		maxBodyBytes: cfg.MaxBodyBytes,
		metricsPath:  cfg.MetricsPath,
		checks:       make(map[string]ReadinessCheck),
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = defaultMaxBodyBytes
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(s.requestLoggerMiddleware)

	// Health endpoints
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	if s.metricsPath != "" {
		r.Handle(s.metricsPath, promhttp.Handler())
	}

	r.Route("/api/v1/similarity", func(r chi.Router) {
		r.Use(jsonContentTypeMiddleware)
		r.Use(bodyLimitMiddleware(s.maxBodyBytes))

		r.Post("/", s.compareNames)
		r.Post("/classify", s.classifyNames)
	})

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type readinessResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks,omitempty"`
	Breakers map[string]string `json:"breakers,omitempty"`
}

// readinessHandler runs the registered checks. Open circuit breakers degrade
// the status without failing readiness, since every collaborator has a
// fallback.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	resp := readinessResponse{Status: "ready"}
	code := http.StatusOK

	if len(s.checks) > 0 {
		resp.Checks = make(map[string]string, len(s.checks))
		for name, check := range s.checks {
			if err := check(r.Context()); err != nil {
				s.logger.Warn().Err(err).Str("check", name).Msg("readiness check failed")
				resp.Checks[name] = "unavailable"
				resp.Status = "not_ready"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	if s.breakers != nil {
		resp.Breakers = s.breakers()
		if code == http.StatusOK {
			for _, state := range resp.Breakers {
				if state != "closed" {
					resp.Status = "degraded"
					break
				}
			}
		}
	}

	writeJSON(w, code, resp)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort log; headers already sent.
		_ = err
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// writeError writes a JSON error envelope.
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorResponse{Error: errorBody{Code: code, Message: message}})
}
