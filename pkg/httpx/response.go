package httpx

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the standard error envelope used across the API.
func WriteError(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, code, map[string]any{
		"success": false,
		"error":   message,
	})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// Required for sensitive responses like secrets and session state.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
