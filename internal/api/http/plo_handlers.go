package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	authmw "github.com/campus-metrics/outcometrack/internal/auth/middleware"
	"github.com/campus-metrics/outcometrack/internal/catalog"
	"github.com/campus-metrics/outcometrack/internal/outcome"
	"github.com/campus-metrics/outcometrack/internal/rbac"
	"github.com/campus-metrics/outcometrack/internal/sheet"
)

// semesterSheets assembles the aggregation input: every sheet in the semester
// plus the display name of its subject.
func semesterSheets(r *http.Request, st sheet.Store, cat *catalog.SQLStore, semesterID string) ([]outcome.SemesterSheet, error) {
	sheets, err := st.ListBySemester(r.Context(), semesterID)
	if err != nil {
		return nil, err
	}
	out := make([]outcome.SemesterSheet, 0, len(sheets))
	names := map[string]string{}
	for _, sh := range sheets {
		name, ok := names[sh.CourseID]
		if !ok {
			if sub, err := cat.GetSubject(r.Context(), sh.CourseID); err == nil {
				name = sub.Name
			} else {
				name = sh.CourseID
			}
			names[sh.CourseID] = name
		}
		out = append(out, outcome.SemesterSheet{
			SubjectName:     name,
			CloToPloMapping: sh.CloToPloMapping,
			Students:        sh.Students,
		})
	}
	return out, nil
}

// AllStudentsPLOHandler serves GET /subject-sheets/all-students-plo/{semesterID}.
func AllStudentsPLOHandler(st sheet.Store, cat *catalog.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		semesterID := chi.URLParam(r, "semesterID")
		if !requireUUID(w, semesterID) {
			return
		}
		sheets, err := semesterSheets(r, st, cat, semesterID)
		if err != nil {
			failSoft(w, http.StatusInternalServerError, "db error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":         true,
			"studentsPLOData": outcome.AggregateAllStudents(sheets),
		})
	}
}

// StudentPLOHandler serves
// GET /subject-sheets/student-plo/{semesterID}/{studentID}[/{ploNumber}] —
// same shape as the all-students endpoint, restricted to one student and
// optionally a single PLO slot. Students may only query themselves; teachers
// and admins may query anyone.
func StudentPLOHandler(st sheet.Store, cat *catalog.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		semesterID := chi.URLParam(r, "semesterID")
		studentID := chi.URLParam(r, "studentID")
		if !requireUUID(w, semesterID) {
			return
		}
		if studentID == "" {
			http.Error(w, "student id required", http.StatusBadRequest)
			return
		}
		if rbac.RoleFromContext(r.Context()) == "student" &&
			studentID != authmw.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		sheets, err := semesterSheets(r, st, cat, semesterID)
		if err != nil {
			failSoft(w, http.StatusInternalServerError, "db error")
			return
		}

		name := displayName(sheets, studentID)
		if name == "" {
			http.Error(w, "student not found in semester", http.StatusNotFound)
			return
		}

		var stats map[string]outcome.PLOStat
		if raw := chi.URLParam(r, "ploNumber"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > outcome.NumPLOs {
				http.Error(w, "invalid plo number", http.StatusBadRequest)
				return
			}
			stats = map[string]outcome.PLOStat{
				outcome.PLOLabel(n): outcome.AggregateStudentPLO(sheets, studentID, n),
			}
		} else {
			stats = outcome.AggregateStudentPLOs(sheets, studentID)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":         true,
			"studentsPLOData": map[string]map[string]outcome.PLOStat{name: stats},
		})
	}
}

func displayName(sheets []outcome.SemesterSheet, studentID string) string {
	for _, sh := range sheets {
		for _, s := range sh.Students {
			if s.StudentID == studentID {
				return s.StudentName
			}
		}
	}
	return ""
}
