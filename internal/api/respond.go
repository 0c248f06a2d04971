package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ignite/sitehub/internal/registry"
	"github.com/ignite/sitehub/internal/vercel"
)

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeError maps service errors to HTTP statuses. Unknown errors are
// logged server-side and returned as an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *registry.ValidationError
	var conflictErr *registry.ConflictError
	var configErr *vercel.ConfigError
	var apiErr *vercel.APIError

	switch {
	case errors.As(err, &validationErr):
		writeJSONError(w, validationErr.Error(), http.StatusBadRequest)
	case errors.As(err, &conflictErr):
		writeJSONError(w, conflictErr.Error(), http.StatusConflict)
	case errors.Is(err, registry.ErrNotFound):
		writeJSONError(w, "not found", http.StatusNotFound)
	case errors.As(err, &configErr):
		writeJSONError(w, "domain provider not configured", http.StatusServiceUnavailable)
	case errors.As(err, &apiErr):
		writeJSONError(w, "domain provider error: "+apiErr.Message, http.StatusBadGateway)
	default:
		log.Printf("Unhandled API error: %v", err)
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
