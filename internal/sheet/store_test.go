package sheet

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/campus-metrics/outcometrack/internal/outcome"
)

func seedSheet(t *testing.T, st Store) outcome.Sheet {
	t.Helper()
	created, err := st.Create(context.Background(), outcome.Sheet{
		SemesterID: "sem-1",
		CourseID:   "course-1",
		TeacherID:  "t1",
		Strategy:   outcome.WeightedAverageOfRatios,
		CloToPloMapping: map[string]string{
			"clo1": "PLO 1",
		},
		CloDetails: map[string]outcome.CloDetail{
			"clo1": {
				CloNumber:  1,
				PloNumber:  1,
				Fields:     []outcome.Field{{Name: "quiz", Weightage: 100}},
				TotalMarks: map[string]string{"quiz": "50"},
			},
		},
		Students: []outcome.StudentRecord{{
			StudentID:   "s1",
			StudentName: "Ada",
			Marks: map[string]outcome.CloMarks{
				"clo1": {KPI: "", Fields: map[string]string{"quiz": ""}},
			},
		}},
	})
	if err != nil {
		t.Fatalf("seed create: %v", err)
	}
	return created
}

func TestCreate_RejectsDuplicateIdentity(t *testing.T) {
	st := NewInMemoryStore()
	seedSheet(t, st)
	_, err := st.Create(context.Background(), outcome.Sheet{
		SemesterID: "sem-1", CourseID: "course-1", TeacherID: "t1",
	})
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	// same course, different teacher is fine
	if _, err := st.Create(context.Background(), outcome.Sheet{
		SemesterID: "sem-1", CourseID: "course-1", TeacherID: "t2",
	}); err != nil {
		t.Fatalf("distinct identity rejected: %v", err)
	}
}

func TestGetByIdentity(t *testing.T) {
	st := NewInMemoryStore()
	want := seedSheet(t, st)
	got, err := st.GetByIdentity(context.Background(), "sem-1", "course-1", "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != want.ID {
		t.Fatalf("wrong sheet: %q vs %q", got.ID, want.ID)
	}
	if _, err := st.GetByIdentity(context.Background(), "sem-1", "course-1", "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveStudents_RoundTripStable(t *testing.T) {
	st := NewInMemoryStore()
	created := seedSheet(t, st)
	ctx := context.Background()

	loaded, err := st.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	saved, err := st.SaveStudents(ctx, created.ID, loaded.Students)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	again, err := st.SaveStudents(ctx, created.ID, saved.Students)
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if !reflect.DeepEqual(saved.Students, again.Students) {
		t.Fatalf("save/load round trip drifted:\nfirst:  %+v\nsecond: %+v", saved.Students, again.Students)
	}
}

func TestSaveStructure(t *testing.T) {
	st := NewInMemoryStore()
	created := seedSheet(t, st)
	details := map[string]outcome.CloDetail{
		"clo1": {
			CloNumber:  1,
			PloNumber:  1,
			Fields:     []outcome.Field{{Name: "quiz", Weightage: 50}, {Name: "project", Weightage: 50}},
			TotalMarks: map[string]string{"quiz": "50", "project": "100"},
		},
	}
	got, err := st.SaveStructure(context.Background(), created.ID, details)
	if err != nil {
		t.Fatalf("save structure: %v", err)
	}
	if len(got.CloDetails["clo1"].Fields) != 2 {
		t.Fatalf("structure not persisted: %+v", got.CloDetails)
	}
}

func TestSaveStructureAndStudents(t *testing.T) {
	st := NewInMemoryStore()
	created := seedSheet(t, st)
	details := map[string]outcome.CloDetail{
		"clo1": {
			CloNumber:  1,
			PloNumber:  1,
			Fields:     []outcome.Field{{Name: "quiz", Weightage: 100}},
			TotalMarks: map[string]string{"quiz": "100"},
		},
	}
	students := []outcome.StudentRecord{{
		StudentID:   "s1",
		StudentName: "Ada",
		Marks: map[string]outcome.CloMarks{
			"clo1": {KPI: "40%", Fields: map[string]string{"quiz": "40"}},
		},
	}}
	got, err := st.SaveStructureAndStudents(context.Background(), created.ID, details, students)
	if err != nil {
		t.Fatalf("combined save: %v", err)
	}
	if got.CloDetails["clo1"].TotalMarks["quiz"] != "100" {
		t.Fatalf("structure not persisted: %+v", got.CloDetails)
	}
	if got.Students[0].Marks["clo1"].KPI != "40%" {
		t.Fatalf("students not persisted: %+v", got.Students)
	}
	if _, err := st.SaveStructureAndStudents(context.Background(), "missing", details, students); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown sheet, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	st := NewInMemoryStore()
	created := seedSheet(t, st)
	ctx := context.Background()
	if _, err := st.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := st.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := st.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete should be ErrNotFound, got %v", err)
	}
}

func TestListBySemester(t *testing.T) {
	st := NewInMemoryStore()
	seedSheet(t, st)
	ctx := context.Background()
	if _, err := st.Create(ctx, outcome.Sheet{SemesterID: "sem-2", CourseID: "course-9", TeacherID: "t1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := st.ListBySemester(ctx, "sem-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].SemesterID != "sem-1" {
		t.Fatalf("expected one sem-1 sheet, got %+v", got)
	}
}
