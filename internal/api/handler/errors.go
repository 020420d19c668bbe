package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/kiranshivaraju/contentdesk/internal/ai"
	"github.com/kiranshivaraju/contentdesk/internal/api/response"
	"github.com/kiranshivaraju/contentdesk/internal/apperr"
	"github.com/kiranshivaraju/contentdesk/internal/content"
)

const maxBodyBytes = 1 << 20

// writeError maps err onto the status and code table shared by every route.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *apperr.ValidationError
		nf *apperr.NotFoundError
		ce *apperr.ConfigurationError
		ue *apperr.UpstreamError
	)
	switch {
	case errors.Is(err, content.ErrVideoInProgress):
		response.Error(w, http.StatusConflict, "VIDEO_IN_PROGRESS", err.Error(), nil)
	case errors.As(err, &ve):
		var details any
		if ve.Field != "" {
			details = map[string]string{"field": ve.Field}
		}
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), details)
	case errors.As(err, &nf):
		response.Error(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.As(err, &ce):
		response.Error(w, http.StatusInternalServerError, "CONFIGURATION_ERROR", err.Error(),
			map[string]string{"setting": ce.Setting})
	case errors.Is(err, ai.ErrInferenceTimeout):
		response.Error(w, http.StatusGatewayTimeout, "AI_INFERENCE_TIMEOUT",
			"AI generation took too long and was cancelled", nil)
	case errors.Is(err, ai.ErrProviderUnavailable):
		response.Error(w, http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE",
			"The AI provider is not available", nil)
	case errors.As(err, &ue):
		response.Error(w, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error(), map[string]any{
			"provider": ue.Provider,
			"status":   ue.StatusCode,
			"body":     ue.Body,
		})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}

// decodeJSON reads a single JSON object from the request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return &apperr.ValidationError{Reason: fmt.Sprintf("invalid JSON body: %v", err), Err: err}
	}
	return nil
}
