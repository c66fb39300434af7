package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campus-metrics/outcometrack/internal/audit"
	authmw "github.com/campus-metrics/outcometrack/internal/auth/middleware"
	"github.com/campus-metrics/outcometrack/internal/cache"
	"github.com/campus-metrics/outcometrack/internal/catalog"
	"github.com/campus-metrics/outcometrack/internal/outcome"
)

// MappingResponse is the wire shape of GET /clo-plo-mapping/{courseID}.
type MappingResponse struct {
	CourseID        string                       `json:"courseId"`
	CourseName      string                       `json:"courseName"`
	CourseCode      string                       `json:"courseCode"`
	CloToPloMapping map[string]string            `json:"cloToPloMapping"`
	CloDetails      map[string]outcome.CloDetail `json:"cloDetails"`
}

// MappingCache is the read-through cache in front of subject CLO lookups,
// keyed by course id. Edits to a subject's CLOs must invalidate its entry.
type MappingCache = cache.TTL[MappingResponse]

func CloPloMappingHandler(cat *catalog.SQLStore, mc *MappingCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		if !requireUUID(w, courseID) {
			return
		}
		if resp, ok := mc.Get(courseID); ok {
			writeJSON(w, http.StatusOK, resp)
			return
		}

		sub, err := cat.GetSubject(r.Context(), courseID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				http.Error(w, "subject not found", http.StatusNotFound)
				return
			}
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		mapping, details := outcome.BuildMapping(sub.CLOs)
		resp := MappingResponse{
			CourseID:        sub.ID,
			CourseName:      sub.Name,
			CourseCode:      sub.Code,
			CloToPloMapping: mapping,
			CloDetails:      details,
		}
		mc.Set(courseID, resp)
		writeJSON(w, http.StatusOK, resp)
	}
}

// UpdateSubjectCLOsHandler replaces a subject's CLO definitions and drops the
// course from the mapping cache so the next read sees the edit.
func UpdateSubjectCLOsHandler(cat *catalog.SQLStore, mc *MappingCache, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		if !requireUUID(w, courseID) {
			return
		}
		var req struct {
			CLOs []outcome.CLODef `json:"clos"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		for _, d := range req.CLOs {
			if d.CloNumber < 1 {
				http.Error(w, "clonumber must be positive", http.StatusBadRequest)
				return
			}
		}
		if err := cat.UpdateSubjectCLOs(r.Context(), courseID, req.CLOs); err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				http.Error(w, "subject not found", http.StatusNotFound)
				return
			}
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		mc.Invalidate(courseID)
		_ = log.Append(r.Context(), authmw.SubjectFromContext(r.Context()),
			audit.TypeSubjectCLOsUpdated, courseID, map[string]int{"clos": len(req.CLOs)})
		w.WriteHeader(http.StatusNoContent)
	}
}
