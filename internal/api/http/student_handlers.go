package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/campus-metrics/outcometrack/internal/auth/middleware"
	"github.com/campus-metrics/outcometrack/internal/sheet"
)

// StudentMarksHandler serves GET /student-marks/{subjectID}/{semesterID} for
// the authenticated student. The student identity comes from the JWT subject
// only — the path cannot be used to read another student's marks.
func StudentMarksHandler(st sheet.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID := chi.URLParam(r, "subjectID")
		semesterID := chi.URLParam(r, "semesterID")
		if !requireUUID(w, subjectID) || !requireUUID(w, semesterID) {
			return
		}
		studentID := authmw.SubjectFromContext(r.Context())
		if studentID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sheets, err := st.ListBySemester(r.Context(), semesterID)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		for _, sh := range sheets {
			if sh.CourseID != subjectID {
				continue
			}
			for _, rec := range sh.Students {
				if rec.StudentID != studentID {
					continue
				}
				totalMarks := make(map[string]map[string]string, len(sh.CloDetails))
				for cloKey, d := range sh.CloDetails {
					totalMarks[cloKey] = d.TotalMarks
				}
				writeJSON(w, http.StatusOK, map[string]any{
					"student": map[string]string{
						"studentId":   rec.StudentID,
						"studentName": rec.StudentName,
						"rollNumber":  rec.RollNumber,
						"email":       rec.Email,
					},
					"studentMarks": rec.Marks,
					"cloDetails":   sh.CloDetails,
					"totalMarks":   totalMarks,
				})
				return
			}
		}
		http.Error(w, "marks not found", http.StatusNotFound)
	}
}
