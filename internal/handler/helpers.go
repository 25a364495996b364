package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/rotteck/merchshop/internal/admin"
	"github.com/rotteck/merchshop/internal/order"
)

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// requireMethod enforces the single declared method per endpoint, answering
// anything else with 405 and an Allow header.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		respondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, order.ErrInvalidEmail),
		errors.Is(err, order.ErrNoValidItems),
		errors.Is(err, order.ErrZeroQuantity),
		errors.Is(err, order.ErrInvalidCode):
		return http.StatusBadRequest
	case errors.Is(err, admin.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
