package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campus-metrics/outcometrack/internal/audit"
	authmw "github.com/campus-metrics/outcometrack/internal/auth/middleware"
	"github.com/campus-metrics/outcometrack/internal/trash"
)

func ListTrashHandler(bin *trash.Bin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := bin.List(r.Context())
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
	}
}

// RestoreTrashHandler puts a trashed record back under its original id. The
// entry's kind decides which store receives it; unknown kinds never restore.
func RestoreTrashHandler(bin *trash.Bin, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "trashID")
		if !requireUUID(w, id) {
			return
		}
		e, err := bin.Restore(r.Context(), id)
		if err != nil {
			if errors.Is(err, trash.ErrNotFound) {
				http.Error(w, "trash entry not found", http.StatusNotFound)
				return
			}
			http.Error(w, "restore failed", http.StatusInternalServerError)
			return
		}
		_ = log.Append(r.Context(), authmw.SubjectFromContext(r.Context()),
			audit.TypeRestored, id, map[string]string{"kind": string(e.Kind), "label": e.Label})
		writeJSON(w, http.StatusOK, e)
	}
}

func PurgeTrashHandler(bin *trash.Bin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "trashID")
		if !requireUUID(w, id) {
			return
		}
		if err := bin.Purge(r.Context(), id); err != nil {
			if errors.Is(err, trash.ErrNotFound) {
				http.Error(w, "trash entry not found", http.StatusNotFound)
				return
			}
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
