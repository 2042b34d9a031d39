package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/avdeluca/inkwell-be/internal/apperr"
)

// errMissingCaller means a protected handler ran without the auth
// middleware attaching an identity. A routing bug, reported as 500.
var errMissingCaller = errors.New("caller identity missing from context")

// envelope is the uniform response wrapper: {success, data?, error?}.
// Validation failures additionally carry per-field messages.
type envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// respondData writes a success envelope.
func respondData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

// respondError maps a service error to a status code and writes a
// failure envelope. Unexpected errors are logged and surfaced as a
// generic 500 without internals.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch apperr.KindOf(err) {
	case apperr.KindInvalidArgument, apperr.KindDuplicate:
		status = http.StatusBadRequest
	case apperr.KindValidation:
		status = http.StatusUnprocessableEntity
	case apperr.KindUnauthenticated:
		status = http.StatusUnauthorized
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Unexpected error handling request")
		message = "internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: false, Error: message, Fields: apperr.FieldsOf(err)})
}

// respondBadRequest writes a plain 400 failure envelope.
func respondBadRequest(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(envelope{Success: false, Error: message})
}
