package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// failSoft is the error shape of the aggregate endpoints: clients key off
// success=false to show a "data unavailable" state instead of fake numbers.
func failSoft(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// requireUUID enforces the malformed-identifier rule: path params must be
// well-formed UUIDs or the request is a 400, before any store lookup.
func requireUUID(w http.ResponseWriter, raw string) bool {
	if _, err := uuid.Parse(raw); err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return false
	}
	return true
}
