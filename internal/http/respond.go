package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/apper-canvas/market-mosaic-media/internal/logger"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleDomainError maps the error taxonomy onto HTTP statuses.
func handleDomainError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var (
		status    int
		code      string
		retryable bool
	)

	switch {
	case errors.Is(err, domain.ErrValidation):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrRemoteCall):
		status, code, retryable = http.StatusBadGateway, "remote_call_failed", true
	case errors.Is(err, context.DeadlineExceeded):
		status, code, retryable = http.StatusGatewayTimeout, "timeout", true
	default:
		logger.FromContext(r.Context(), log).Error("unhandled error",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context(), log).Warn("request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}

	respondJSON(w, status, ErrorResponse{
		Error:     domain.UserMessage(err),
		Code:      code,
		Retryable: retryable,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decode(w, r, dst, false)
}

// decodeOptionalJSON accepts an empty body, leaving dst untouched.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decode(w, r, dst, true)
}

func decode(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if optional && errors.Is(err, io.EOF) {
		return true
	}
	if err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid JSON body",
			Code:    "invalid_request",
			Details: err.Error(),
		})
		return false
	}
	return true
}
