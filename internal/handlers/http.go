package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"

	"github.com/omarshaarawi/fplstandings/internal/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return e.Message
}

// toAPIError maps service errors to HTTP errors. Anything unrecognised is a 500.
func (h *Handlers) toAPIError(err error) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, service.ErrUnknownPeriod):
		return &APIError{Status: http.StatusBadRequest, Message: err.Error()}
	case errors.Is(err, service.ErrNotLoaded):
		return &APIError{Status: http.StatusServiceUnavailable, Message: "League data not loaded yet, retry with POST /api/reload"}
	default:
		h.logger.Error("Internal error", "error", err)
		return &APIError{Status: http.StatusInternalServerError, Message: "Internal server error"}
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondOK(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, data)
}

func (h *Handlers) respondError(w http.ResponseWriter, err error) {
	apiErr := h.toAPIError(err)
	respondJSON(w, apiErr.Status, apiErr)
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
