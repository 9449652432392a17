package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/snmlog/transferplus/internal/lifecycle"
)

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondLifecycleError maps the typed transition errors onto HTTP statuses.
func (rt *Router) respondLifecycleError(w http.ResponseWriter, err error) {
	var (
		validation *lifecycle.ValidationError
		notFound   *lifecycle.NotFoundError
		duplicate  *lifecycle.DuplicateError
	)
	switch {
	case errors.As(err, &validation):
		respondError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &duplicate):
		respondJSON(w, http.StatusConflict, map[string]string{
			"error":       duplicate.Error(),
			"existing_id": duplicate.ExistingID,
		})
	default:
		rt.log.WithError(err).Error("request failed")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
