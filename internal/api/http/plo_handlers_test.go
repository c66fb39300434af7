package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	api "github.com/campus-metrics/outcometrack/internal/api/http"
	authmw "github.com/campus-metrics/outcometrack/internal/auth/middleware"
	"github.com/campus-metrics/outcometrack/internal/catalog"
	"github.com/campus-metrics/outcometrack/internal/db"
	"github.com/campus-metrics/outcometrack/internal/outcome"
	"github.com/campus-metrics/outcometrack/internal/rbac"
	"github.com/campus-metrics/outcometrack/internal/sheet"
)

// Full trip through the aggregate endpoint: sqlite-backed stores, a seeded
// subject and sheet, and the {success, studentsPLOData} envelope the frontend
// keys off.
func Test_AllStudentsPLO_Endpoint(t *testing.T) {
	ctx := context.Background()

	dbh, err := db.Open(ctx, db.DriverSQLite, "file:plo_handler_test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	defer dbh.Close()

	cat := catalog.NewSQLStore(dbh)
	sheets := sheet.NewSQLStore(dbh)

	sub, err := cat.CreateSubject(ctx, catalog.Subject{
		ProgramID: "a6f7e6f0-0000-4000-8000-00000000000a",
		Name:      "Programming Fundamentals",
		Code:      "CS-101",
	})
	if err != nil {
		t.Fatalf("seed subject: %v", err)
	}

	semesterID := "a6f7e6f0-0000-4000-8000-00000000000b"
	_, err = sheets.Create(ctx, outcome.Sheet{
		SemesterID:      semesterID,
		CourseID:        sub.ID,
		TeacherID:       "a6f7e6f0-0000-4000-8000-00000000000c",
		Strategy:        outcome.WeightedAverageOfRatios,
		CloToPloMapping: map[string]string{"clo1": "PLO 1"},
		CloDetails: map[string]outcome.CloDetail{
			"clo1": {
				CloNumber:  1,
				PloNumber:  1,
				Fields:     []outcome.Field{{Name: "quiz", Weightage: 100}},
				TotalMarks: map[string]string{"quiz": "50"},
			},
		},
		Students: []outcome.StudentRecord{{
			StudentID:   "stu-1",
			StudentName: "Ada",
			Marks: map[string]outcome.CloMarks{
				"clo1": {KPI: "80%", Fields: map[string]string{"quiz": "40"}},
			},
		}},
	})
	if err != nil {
		t.Fatalf("seed sheet: %v", err)
	}

	r := chi.NewRouter()
	r.Get("/subject-sheets/all-students-plo/{semesterID}", api.AllStudentsPLOHandler(sheets, cat))

	req := httptest.NewRequest("GET", "/subject-sheets/all-students-plo/"+semesterID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success         bool                                    `json:"success"`
		StudentsPLOData map[string]map[string]outcome.PLOStat `json:"studentsPLOData"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success=true")
	}
	ada, ok := resp.StudentsPLOData["Ada"]
	if !ok {
		t.Fatalf("student missing from aggregate: %v", resp.StudentsPLOData)
	}
	if got := ada["PLO 1"].Percentage; got != 80 {
		t.Fatalf("PLO 1 percentage = %d, want 80", got)
	}
	// untouched slots exist and hold zero, never disappear
	if got := ada["PLO 12"].Percentage; got != 0 {
		t.Fatalf("PLO 12 percentage = %d, want 0", got)
	}
	if ada["PLO 12"].Subjects == nil {
		t.Fatal("PLO 12 subjects should be an empty list, not null")
	}
}

// Students can fetch their own PLO breakdown but never anyone else's.
func Test_StudentPLO_OwnOnly(t *testing.T) {
	ctx := context.Background()

	dbh, err := db.Open(ctx, db.DriverSQLite, "file:plo_own_test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	defer dbh.Close()

	cat := catalog.NewSQLStore(dbh)
	sheets := sheet.NewSQLStore(dbh)

	semesterID := "a6f7e6f0-0000-4000-8000-00000000001b"
	_, err = sheets.Create(ctx, outcome.Sheet{
		SemesterID:      semesterID,
		CourseID:        "a6f7e6f0-0000-4000-8000-00000000001c",
		TeacherID:       "a6f7e6f0-0000-4000-8000-00000000001d",
		Strategy:        outcome.WeightedAverageOfRatios,
		CloToPloMapping: map[string]string{"clo1": "PLO 1"},
		Students: []outcome.StudentRecord{{
			StudentID:   "stu-1",
			StudentName: "Ada",
			Marks: map[string]outcome.CloMarks{
				"clo1": {KPI: "80%", Fields: map[string]string{"quiz": "40"}},
			},
		}},
	})
	if err != nil {
		t.Fatalf("seed sheet: %v", err)
	}

	r := chi.NewRouter()
	r.Get("/subject-sheets/student-plo/{semesterID}/{studentID}", api.StudentPLOHandler(sheets, cat))

	get := func(studentID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/subject-sheets/student-plo/"+semesterID+"/"+studentID, nil)
		reqCtx := rbac.WithRole(authmw.WithSubject(req.Context(), "stu-1"), "student")
		req = req.WithContext(reqCtx)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := get("stu-1"); rec.Code != 200 {
		t.Fatalf("own lookup: status %d: %s", rec.Code, rec.Body.String())
	}
	if rec := get("stu-2"); rec.Code != 403 {
		t.Fatalf("foreign lookup: status %d, want 403", rec.Code)
	}
}
