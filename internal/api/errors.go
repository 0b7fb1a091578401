package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/busfahrer-sim/internal/engine"
	"github.com/MJE43/busfahrer-sim/internal/games"
	"github.com/MJE43/busfahrer-sim/internal/scan"
	"github.com/MJE43/busfahrer-sim/internal/store"
)

// ErrorBuilder helps construct structured errors with context
type ErrorBuilder struct {
	errType   string
	message   string
	context   map[string]any
	requestID string
}

// NewError creates a new error builder
func NewError(errType, message string) *ErrorBuilder {
	return &ErrorBuilder{
		errType: errType,
		message: message,
		context: make(map[string]any),
	}
}

// WithContext adds context information to the error
func (eb *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	eb.context[key] = value
	return eb
}

// WithRequestID adds request ID to the error
func (eb *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	eb.requestID = requestID
	return eb
}

// WithCause adds the underlying cause error
func (eb *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	if err != nil {
		eb.context["cause"] = err.Error()
	}
	return eb
}

// Build creates the final EngineError
func (eb *ErrorBuilder) Build() EngineError {
	return EngineError{
		Type:      eb.errType,
		Message:   eb.message,
		Context:   eb.context,
		RequestID: eb.requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// classify maps package sentinels to an error type and HTTP status.
func classify(err error) (string, int) {
	switch {
	case errors.Is(err, games.ErrInvalidBoardSize),
		errors.Is(err, games.ErrBoardExceedsDeck),
		errors.Is(err, games.ErrInvalidDenominator),
		errors.Is(err, games.ErrInvalidMaxDecks),
		errors.Is(err, engine.ErrUnknownMode),
		errors.Is(err, scan.ErrEmptySweep):
		return ErrTypeInvalidConfig, http.StatusBadRequest
	case errors.Is(err, scan.ErrInvalidRange), errors.Is(err, scan.ErrTooManyTrials),
		errors.Is(err, scan.ErrTooManyConfigurations):
		return ErrTypeInvalidRange, http.StatusBadRequest
	case errors.Is(err, store.ErrSweepNotFound):
		return ErrTypeNotFound, http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTypeTimeout, http.StatusRequestTimeout
	default:
		return ErrTypeInternal, http.StatusInternalServerError
	}
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleError classifies err and writes the matching structured response.
func (eh *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var engineErr EngineError
	status := http.StatusInternalServerError
	if errors.As(err, &engineErr) {
		eh.writeErrorResponse(w, r, status, engineErr)
		return
	}

	errType, status := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	engineErr = NewError(errType, message).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method).
		WithCause(err).
		Build()

	eh.writeErrorResponse(w, r, status, engineErr)
}

// HandleValidationError handles validation-specific errors
func (eh *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, field, message string) {
	engineErr := NewError(ErrTypeValidation, fmt.Sprintf("Validation failed: %s", message)).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("field", field).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method).
		Build()

	eh.writeErrorResponse(w, r, http.StatusBadRequest, engineErr)
}

// logError logs the error with a level based on its category
func (eh *ErrorHandler) logError(r *http.Request, engineErr EngineError, status int) {
	category := GetErrorCategory(engineErr.Type)

	level := slog.LevelError
	if status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}

	attrs := []any{
		"type", engineErr.Type,
		"category", category,
		"status", status,
		"request_id", engineErr.RequestID,
		"method", r.Method,
		"path", r.URL.Path,
	}
	for key, value := range engineErr.Context {
		// Never log raw seeds - only hashes
		if key == "server_seed" || key == "client_seed" {
			continue
		}
		attrs = append(attrs, key, value)
	}
	eh.logger.Log(r.Context(), level, engineErr.Message, attrs...)
}

// writeErrorResponse logs and writes the error response as JSON
func (eh *ErrorHandler) writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, engineErr EngineError) {
	eh.logError(r, engineErr, status)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.Header().Set("X-Error-Type", engineErr.Type)
	w.Header().Set("X-Error-Category", string(GetErrorCategory(engineErr.Type)))
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(engineErr); err != nil {
		eh.logger.Error("failed to encode error response", "error", err)
	}
}

// RecoveryHandler provides panic recovery with structured error logging
func (eh *ErrorHandler) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				engineErr := NewError(ErrTypeInternal, "Internal server error").
					WithRequestID(middleware.GetReqID(r.Context())).
					WithContext("panic", fmt.Sprintf("%v", rvr)).
					WithContext("path", r.URL.Path).
					WithContext("method", r.Method).
					Build()

				eh.writeErrorResponse(w, r, http.StatusInternalServerError, engineErr)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
