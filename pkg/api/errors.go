package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"deal-scout/pkg/models"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

func WriteError(w http.ResponseWriter, status int, message string, details json.RawMessage) {
	WriteJSON(w, status, ErrorBody{Error: message, Details: details})
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, nil)
}

// WriteInternalServerError reports an unclassified failure with its message
// as details.
func WriteInternalServerError(w http.ResponseWriter, err error) {
	WriteError(w, http.StatusInternalServerError, "Internal server error", models.RawDetails([]byte(err.Error())))
}

// WriteModelError maps a *models.Error to its status and body. Other errors
// are reported as internal server errors.
func WriteModelError(w http.ResponseWriter, err error) {
	var e *models.Error
	if !errors.As(err, &e) {
		WriteInternalServerError(w, err)
		return
	}
	WriteError(w, e.Kind.Status(), e.Message, e.Details)
}
