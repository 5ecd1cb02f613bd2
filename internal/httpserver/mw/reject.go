package mw

import (
	"encoding/json"
	"net/http"
)

// reject writes a small JSON error body so API clients can parse every failure the same way.
func reject(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": http.StatusText(status)})
}
