// Package httpserver contains HTTP handlers and middleware.
//
// It exposes each completion schema as a JSON endpoint and maps the
// pipeline's error taxonomy onto HTTP status codes.
package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fairyhunter13/resume-matcher/internal/adapter/observability"
	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error onto an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return http.StatusServiceUnavailable, "UPSTREAM_TIMEOUT"
	case errors.Is(err, domain.ErrUpstreamRateLimit):
		return http.StatusServiceUnavailable, "UPSTREAM_RATE_LIMIT"
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, "UPSTREAM_ERROR"
	case errors.Is(err, domain.ErrUnparseable):
		return http.StatusBadGateway, "UNPARSEABLE_COMPLETION"
	case errors.Is(err, domain.ErrSchemaInvalid):
		return http.StatusServiceUnavailable, "SCHEMA_INVALID"
	case errors.Is(err, domain.ErrNoQuestions):
		return http.StatusBadGateway, "NO_QUESTIONS"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// errorDetails exposes the structured part of pipeline errors. Raw model
// output is never echoed back to clients.
func errorDetails(err error) interface{} {
	var mie *domain.MissingInputError
	if errors.As(err, &mie) {
		return map[string]any{"schema": mie.Schema, "fields": mie.Fields}
	}
	var sve *domain.SchemaValidationError
	if errors.As(err, &sve) {
		return map[string]any{"schema": sve.Schema, "fields": sve.Fields}
	}
	var upe *domain.UnrecoverableParseError
	if errors.As(err, &upe) {
		return map[string]any{"schema": upe.Schema, "offset": upe.Offset}
	}
	var pe *domain.ProviderError
	if errors.As(err, &pe) && pe.StatusCode != 0 {
		return map[string]any{"provider_status": pe.StatusCode}
	}
	return nil
}

func writeError(w http.ResponseWriter, r *http.Request, err error, details interface{}) {
	code, codeStr := statusFor(err)
	if details == nil {
		details = errorDetails(err)
	}
	msg := err.Error()
	var pe *domain.ProviderError
	if errors.As(err, &pe) && pe.Body != "" {
		// Provider bodies can be large and may echo the prompt.
		msg = http.StatusText(code)
	}
	if code >= http.StatusInternalServerError && r != nil {
		observability.LoggerFromContext(r.Context()).Error("request failed",
			slog.String("code", codeStr), slog.Any("error", err))
	}
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: msg, Details: details}})
}
