package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/helixir/name-similarity-service/internal/domain"
	"github.com/helixir/name-similarity-service/internal/observability"
	"github.com/helixir/name-similarity-service/internal/scoring"
)

// Error codes of the JSON error envelope.
const (
	codeInvalidRequest = "invalid_request"
	codeValidation     = "validation_failed"
	codeInvalidMode    = "invalid_mode"
	codeTooLarge       = "request_too_large"
	codeUnavailable    = "service_unavailable"
	codeInternal       = "internal"
)

// similarityRequest is the JSON request body for comparing two names.
type similarityRequest struct {
	Text1 string `json:"text1" validate:"required,max=512"`
	Text2 string `json:"text2" validate:"required,max=512"`
	Mode  string `json:"mode,omitempty" validate:"omitempty,max=32"`
}

// classifyRequest is the JSON request body for inspecting a pair.
type classifyRequest struct {
	Text1 string `json:"text1" validate:"required,max=512"`
	Text2 string `json:"text2" validate:"required,max=512"`
}

// compareNames handles POST /api/v1/similarity.
func (s *Server) compareNames(w http.ResponseWriter, r *http.Request) {
	var req similarityRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()
	rc := observability.RequestContextFromContext(ctx)

	result, err := s.scorer.Score(ctx, scoring.Request{
		RequestID:     rc.RequestID,
		Text1:         req.Text1,
		Text2:         req.Text2,
		Mode:          req.Mode,
		CorrelationID: rc.CorrelationID,
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("comparison rejected")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultToResponse(result))
}

// classifyNames handles POST /api/v1/similarity/classify.
func (s *Server) classifyNames(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	writeJSON(w, http.StatusOK, inspectionToResponse(s.scorer.Inspect(req.Text1, req.Text2)))
}

// decodeAndValidate reads the JSON body into dst and validates it. It writes
// the error response and returns false on failure.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeError(w, http.StatusRequestEntityTooLarge, codeTooLarge,
				fmt.Sprintf("request body must be at most %d bytes", maxErr.Limit))
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "request body is required")
		default:
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid JSON request body")
		}
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, validationMessage(err))
		return false
	}
	return true
}

// validationMessage renders validator errors as "field: problem" pairs.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}

// writeDomainError maps domain errors to appropriate HTTP status codes
// without leaking internal details.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidMode):
		writeError(w, http.StatusBadRequest, codeInvalidMode, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, codeValidation, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrServiceUnavailable), errors.Is(err, domain.ErrCircuitOpen):
		writeError(w, http.StatusServiceUnavailable, codeUnavailable, "service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}
