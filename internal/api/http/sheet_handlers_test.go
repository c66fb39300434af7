package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	api "github.com/campus-metrics/outcometrack/internal/api/http"
	"github.com/campus-metrics/outcometrack/internal/audit"
	authmw "github.com/campus-metrics/outcometrack/internal/auth/middleware"
	"github.com/campus-metrics/outcometrack/internal/db"
	"github.com/campus-metrics/outcometrack/internal/outcome"
	"github.com/campus-metrics/outcometrack/internal/rbac"
	"github.com/campus-metrics/outcometrack/internal/sheet"
)

const structTestTeacher = "b6f7e6f0-0000-4000-8000-000000000001"

func seedWeightedSheet(t *testing.T, st sheet.Store) outcome.Sheet {
	t.Helper()
	created, err := st.Create(context.Background(), outcome.Sheet{
		SemesterID:      "b6f7e6f0-0000-4000-8000-000000000002",
		CourseID:        "b6f7e6f0-0000-4000-8000-000000000003",
		TeacherID:       structTestTeacher,
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
	return created
}

func putStructure(t *testing.T, st sheet.Store, log *audit.Log, sheetID, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Put("/subject-sheets/{sheetID}/structure", api.SaveStructureHandler(st, log))

	req := httptest.NewRequest("PUT", "/subject-sheets/"+sheetID+"/structure", strings.NewReader(body))
	ctx := rbac.WithRole(authmw.WithSubject(req.Context(), structTestTeacher), "teacher")
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// A structure save that keeps the field set but raises the max marks must
// recompute every stored KPI against the new max; the raw marks stay.
func Test_StructureSave_MaxMarksChangeRecomputesKPIs(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:structure_max_test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	defer dbh.Close()
	st := sheet.NewSQLStore(dbh)
	created := seedWeightedSheet(t, st)

	rec := putStructure(t, st, audit.NewLog(dbh), created.ID, `{"cloDetails":{"clo1":{
		"cloNumber":1,"ploNumber":1,
		"fields":[{"name":"quiz","weightage":100}],
		"totalMarks":{"quiz":"100"}}}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	got, err := st.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	marks := got.Students[0].Marks["clo1"]
	if marks.Fields["quiz"] != "40" {
		t.Fatalf("raw marks must survive a max-marks edit, got %q", marks.Fields["quiz"])
	}
	if marks.KPI != "40%" {
		t.Fatalf("KPI not recomputed against new max: got %q, want 40%%", marks.KPI)
	}
}

// Changing the field set still re-baselines: entered marks for that CLO are
// discarded and the KPI goes blank.
func Test_StructureSave_FieldChangeRebaselines(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:structure_fields_test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	defer dbh.Close()
	st := sheet.NewSQLStore(dbh)
	created := seedWeightedSheet(t, st)

	rec := putStructure(t, st, audit.NewLog(dbh), created.ID, `{"cloDetails":{"clo1":{
		"cloNumber":1,"ploNumber":1,
		"fields":[{"name":"quiz","weightage":50},{"name":"project","weightage":50}],
		"totalMarks":{"quiz":"50","project":"100"}}}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	got, err := st.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	marks := got.Students[0].Marks["clo1"]
	if marks.Fields["quiz"] != "" || marks.Fields["project"] != "" {
		t.Fatalf("field change must clear the CLO's marks, got %+v", marks.Fields)
	}
	if marks.KPI != "" {
		t.Fatalf("KPI after re-baseline must be blank, got %q", marks.KPI)
	}
}
