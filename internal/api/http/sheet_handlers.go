package http

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campus-metrics/outcometrack/internal/audit"
	authmw "github.com/campus-metrics/outcometrack/internal/auth/middleware"
	"github.com/campus-metrics/outcometrack/internal/catalog"
	"github.com/campus-metrics/outcometrack/internal/outcome"
	"github.com/campus-metrics/outcometrack/internal/rbac"
	"github.com/campus-metrics/outcometrack/internal/sheet"
	"github.com/campus-metrics/outcometrack/internal/trash"
)

// LoadSheetHandler serves GET /subject-sheets/{semesterID}/{courseID}: the
// calling teacher's sheet for that course, created on first open. The response
// is the working view — the stored marks reconciled against the semester's
// canonical roster. Roster changes only persist on the next save.
func LoadSheetHandler(st sheet.Store, cat *catalog.SQLStore, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		semesterID := chi.URLParam(r, "semesterID")
		courseID := chi.URLParam(r, "courseID")
		if !requireUUID(w, semesterID) || !requireUUID(w, courseID) {
			return
		}
		teacherID := authmw.SubjectFromContext(r.Context())
		if teacherID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sem, err := cat.GetSemester(r.Context(), semesterID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				http.Error(w, "semester not found", http.StatusNotFound)
				return
			}
			http.Error(w, "db error", http.StatusInternalServerError)
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

		roster := sem.RosterFor(courseID)

		sh, err := st.GetByIdentity(r.Context(), semesterID, courseID, teacherID)
		if errors.Is(err, sheet.ErrNotFound) {
			mapping, details := outcome.BuildMapping(sub.CLOs)
			sh, err = st.Create(r.Context(), outcome.Sheet{
				SemesterID:      semesterID,
				CourseID:        courseID,
				TeacherID:       teacherID,
				Strategy:        sub.DefaultStrategy(),
				CloToPloMapping: mapping,
				CloDetails:      details,
				Students:        outcome.SyncRoster(roster, nil, details),
			})
			if errors.Is(err, sheet.ErrExists) {
				// lost the create race against ourselves in another tab
				sh, err = st.GetByIdentity(r.Context(), semesterID, courseID, teacherID)
			}
			if err == nil {
				_ = log.Append(r.Context(), teacherID, audit.TypeSheetCreated, sh.ID, nil)
			}
		}
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		sh.Students = outcome.SyncRoster(roster, sh.Students, sh.CloDetails)
		writeJSON(w, http.StatusOK, sh)
	}
}

// SaveMarksHandler serves PUT /subject-sheets/{sheetID}/marks. The body is the
// full working view of students[]; it replaces the stored list wholesale
// (last write wins — a sheet has exactly one owning teacher). KPIs are
// recomputed server-side before persisting so they never drift from the raw
// marks.
func SaveMarksHandler(st sheet.Store, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sheetID := chi.URLParam(r, "sheetID")
		if !requireUUID(w, sheetID) {
			return
		}
		var req struct {
			Students []outcome.StudentRecord `json:"students"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		sh, err := st.Get(r.Context(), sheetID)
		if err != nil {
			if errors.Is(err, sheet.ErrNotFound) {
				http.Error(w, "sheet not found", http.StatusNotFound)
				return
			}
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if !ownsSheet(r, sh) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		sh.Students = req.Students
		outcome.RecomputeKPIs(&sh)
		saved, err := st.SaveStudents(r.Context(), sheetID, sh.Students)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		_ = log.Append(r.Context(), authmw.SubjectFromContext(r.Context()),
			audit.TypeSheetMarksSaved, sheetID, map[string]int{"students": len(saved.Students)})
		writeJSON(w, http.StatusOK, saved)
	}
}

// SaveStructureHandler serves PUT /subject-sheets/{sheetID}/structure. It
// replaces the CLO field sets and max marks; every CLO whose field set changed
// is re-baselined, discarding its entered marks. That data loss is the point
// of a structure edit, not an accident. KPIs are recomputed against the new
// structure before persisting: a max-marks change alone keeps the raw marks
// but changes every percentage derived from them.
func SaveStructureHandler(st sheet.Store, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sheetID := chi.URLParam(r, "sheetID")
		if !requireUUID(w, sheetID) {
			return
		}
		var req struct {
			CloDetails map[string]outcome.CloDetail `json:"cloDetails"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.CloDetails) == 0 {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		sh, err := st.Get(r.Context(), sheetID)
		if err != nil {
			if errors.Is(err, sheet.ErrNotFound) {
				http.Error(w, "sheet not found", http.StatusNotFound)
				return
			}
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if !ownsSheet(r, sh) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		if sh.Strategy == outcome.WeightedAverageOfRatios {
			for cloKey, d := range req.CloDetails {
				if len(d.Fields) > 0 && !weightagesSumTo100(d.Fields) {
					http.Error(w, "weightages for "+cloKey+" must sum to 100", http.StatusBadRequest)
					return
				}
			}
		}

		rebaselined := []string{}
		for cloKey, d := range req.CloDetails {
			if fieldsChanged(sh.CloDetails[cloKey].Fields, d.Fields) {
				outcome.Rebaseline(sh.Students, cloKey, d.Fields)
				rebaselined = append(rebaselined, cloKey)
			}
		}

		sh.CloDetails = req.CloDetails
		outcome.RecomputeKPIs(&sh)

		saved, err := st.SaveStructureAndStudents(r.Context(), sheetID, sh.CloDetails, sh.Students)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		_ = log.Append(r.Context(), authmw.SubjectFromContext(r.Context()),
			audit.TypeSheetRebaselined, sheetID, map[string]any{"clos": rebaselined})
		writeJSON(w, http.StatusOK, saved)
	}
}

// DeleteSheetHandler moves a sheet to the trash. Admin-only; deletion acts on
// the whole sheet, never per student.
func DeleteSheetHandler(st sheet.Store, cat *catalog.SQLStore, bin *trash.Bin, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sheetID := chi.URLParam(r, "sheetID")
		if !requireUUID(w, sheetID) {
			return
		}
		sh, err := st.Delete(r.Context(), sheetID)
		if err != nil {
			if errors.Is(err, sheet.ErrNotFound) {
				http.Error(w, "sheet not found", http.StatusNotFound)
				return
			}
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		label := sh.CourseID
		if sub, err := cat.GetSubject(r.Context(), sh.CourseID); err == nil {
			label = sub.Code
		}
		if _, err := bin.Put(r.Context(), trash.KindSheet, label, sh); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		_ = log.Append(r.Context(), authmw.SubjectFromContext(r.Context()),
			audit.TypeTrashed, sheetID, map[string]string{"kind": string(trash.KindSheet)})
		w.WriteHeader(http.StatusNoContent)
	}
}

func ownsSheet(r *http.Request, sh outcome.Sheet) bool {
	if rbac.RoleFromContext(r.Context()) == "admin" {
		return true
	}
	return authmw.SubjectFromContext(r.Context()) == sh.TeacherID
}

func weightagesSumTo100(fields []outcome.Field) bool {
	sum := 0.0
	for _, f := range fields {
		sum += f.Weightage
	}
	return math.Abs(sum-100) < 1e-9
}

func fieldsChanged(old, next []outcome.Field) bool {
	if len(old) != len(next) {
		return true
	}
	prev := make(map[string]float64, len(old))
	for _, f := range old {
		prev[f.Name] = f.Weightage
	}
	for _, f := range next {
		w, ok := prev[f.Name]
		if !ok || w != f.Weightage {
			return true
		}
	}
	return false
}
