package http

import (
	"net/http"
	"strconv"

	"github.com/campus-metrics/outcometrack/internal/audit"
)

// RecentAuditHandler serves GET /audit?n=100, newest events first.
func RecentAuditHandler(log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(r.URL.Query().Get("n"))
		events, err := log.Recent(r.Context(), n)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": events})
	}
}
