package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campus-metrics/outcometrack/internal/audit"
	authmw "github.com/campus-metrics/outcometrack/internal/auth/middleware"
	"github.com/campus-metrics/outcometrack/internal/catalog"
	"github.com/campus-metrics/outcometrack/internal/trash"
)

var validate = validator.New()

func decodeValid(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("bad json")
	}
	return validate.Struct(v)
}

func catalogErr(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, "db error", http.StatusInternalServerError)
}

/* ------------------------------ departments ------------------------------ */

func CreateDepartmentHandler(cat *catalog.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var d catalog.Department
		if err := decodeValid(r, &d); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d.ID = ""
		created, err := cat.CreateDepartment(r.Context(), d)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func ListDepartmentsHandler(cat *catalog.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := cat.ListDepartments(r.Context())
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func UpdateDepartmentHandler(cat *catalog.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "departmentID")
		if !requireUUID(w, id) {
			return
		}
		var d catalog.Department
		if err := decodeValid(r, &d); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d.ID = id
		if err := cat.UpdateDepartment(r.Context(), d); err != nil {
			catalogErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func DeleteDepartmentHandler(cat *catalog.SQLStore, bin *trash.Bin, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "departmentID")
		if !requireUUID(w, id) {
			return
		}
		d, err := cat.DeleteDepartment(r.Context(), id)
		if err != nil {
			catalogErr(w, err)
			return
		}
		if _, err := bin.Put(r.Context(), trash.KindDepartment, d.Name, d); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		_ = log.Append(r.Context(), authmw.SubjectFromContext(r.Context()),
			audit.TypeTrashed, id, map[string]string{"kind": string(trash.KindDepartment)})
		w.WriteHeader(http.StatusNoContent)
	}
}

/* -------------------------------- programs ------------------------------- */

func CreateProgramHandler(cat *catalog.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p catalog.Program
		if err := decodeValid(r, &p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p.ID = ""
		created, err := cat.CreateProgram(r.Context(), p)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func ListProgramsHandler(cat *catalog.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := cat.ListPrograms(r.Context(), r.URL.Query().Get("department_id"))
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func DeleteProgramHandler(cat *catalog.SQLStore, bin *trash.Bin, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "programID")
		if !requireUUID(w, id) {
			return
		}
		p, err := cat.DeleteProgram(r.Context(), id)
		if err != nil {
			catalogErr(w, err)
			return
		}
		if _, err := bin.Put(r.Context(), trash.KindProgram, p.Name, p); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		_ = log.Append(r.Context(), authmw.SubjectFromContext(r.Context()),
			audit.TypeTrashed, id, map[string]string{"kind": string(trash.KindProgram)})
		w.WriteHeader(http.StatusNoContent)
	}
}

/* -------------------------------- subjects ------------------------------- */

func CreateSubjectHandler(cat *catalog.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s catalog.Subject
		if err := decodeValid(r, &s); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.ID = ""
		created, err := cat.CreateSubject(r.Context(), s)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func GetSubjectHandler(cat *catalog.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "courseID")
		if !requireUUID(w, id) {
			return
		}
		s, err := cat.GetSubject(r.Context(), id)
		if err != nil {
			catalogErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func ListSubjectsHandler(cat *catalog.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := cat.ListSubjects(r.Context(), r.URL.Query().Get("program_id"))
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func DeleteSubjectHandler(cat *catalog.SQLStore, bin *trash.Bin, mc *MappingCache, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "courseID")
		if !requireUUID(w, id) {
			return
		}
		s, err := cat.DeleteSubject(r.Context(), id)
		if err != nil {
			catalogErr(w, err)
			return
		}
		if _, err := bin.Put(r.Context(), trash.KindSubject, s.Code, s); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		mc.Invalidate(id)
		_ = log.Append(r.Context(), authmw.SubjectFromContext(r.Context()),
			audit.TypeTrashed, id, map[string]string{"kind": string(trash.KindSubject)})
		w.WriteHeader(http.StatusNoContent)
	}
}

/* -------------------------------- semesters ------------------------------ */

func CreateSemesterHandler(cat *catalog.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s catalog.Semester
		if err := decodeValid(r, &s); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.ID = ""
		created, err := cat.CreateSemester(r.Context(), s)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func GetSemesterHandler(cat *catalog.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "semesterID")
		if !requireUUID(w, id) {
			return
		}
		s, err := cat.GetSemester(r.Context(), id)
		if err != nil {
			catalogErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func ListSemestersHandler(cat *catalog.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := cat.ListSemesters(r.Context(), r.URL.Query().Get("program_id"))
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// UpdateSemesterContentsHandler replaces a semester's term slots, including
// the canonical rosters. Sheets pick up enrollment changes on their next load.
func UpdateSemesterContentsHandler(cat *catalog.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "semesterID")
		if !requireUUID(w, id) {
			return
		}
		var req struct {
			Contents []catalog.SemesterContent `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		for _, c := range req.Contents {
			if c.Number < 1 || c.Number > 8 {
				http.Error(w, "content number must be 1..8", http.StatusBadRequest)
				return
			}
		}
		if err := cat.UpdateSemesterContents(r.Context(), id, req.Contents); err != nil {
			catalogErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteSemesterHandler(cat *catalog.SQLStore, bin *trash.Bin, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "semesterID")
		if !requireUUID(w, id) {
			return
		}
		s, err := cat.DeleteSemester(r.Context(), id)
		if err != nil {
			catalogErr(w, err)
			return
		}
		if _, err := bin.Put(r.Context(), trash.KindSemester, s.Session, s); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		_ = log.Append(r.Context(), authmw.SubjectFromContext(r.Context()),
			audit.TypeTrashed, id, map[string]string{"kind": string(trash.KindSemester)})
		w.WriteHeader(http.StatusNoContent)
	}
}
