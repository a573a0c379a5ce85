// Package handlers provides HTTP handlers for the portfolio tracker API.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"portfolio_tracker/internal/errors"
)

// envelope is the uniform response shape. Success responses carry data,
// failures carry a structured error.
type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *errBody  `json:"error,omitempty"`
}

type errBody struct {
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// respondJSON writes a success envelope.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// respondError maps an error onto the envelope. AppErrors keep their
// field/code detail; anything else becomes an opaque 500.
func respondError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	body := &errBody{Message: "internal server error"}

	if appErr, ok := errors.AsAppError(err); ok {
		body.Message = appErr.Message
		body.Field = appErr.Field
		body.Code = appErr.Code
		body.Details = appErr.Details
	}
	if status >= 500 {
		log.Error().Err(err).Msg("request failed")
		body.Message = "internal server error"
		body.Details = nil
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(envelope{Success: false, Error: body}); encErr != nil {
		log.Error().Err(encErr).Msg("failed to encode error response")
	}
}

// decodeJSON decodes a request body into dst with unknown fields rejected.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Validation("invalid JSON body: " + err.Error())
	}
	return nil
}

// urlID parses a numeric URL parameter.
func urlID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.ValidationField(name, errors.CodeInvalidType, "must be a positive integer")
	}
	return id, nil
}
