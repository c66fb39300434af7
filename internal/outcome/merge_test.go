package outcome

import (
	"reflect"
	"testing"
)

func testDetails() map[string]CloDetail {
	return map[string]CloDetail{
		"clo1": {
			CloNumber:  1,
			PloNumber:  1,
			Fields:     []Field{{Name: "quiz", Weightage: 40}, {Name: "final", Weightage: 60}},
			TotalMarks: map[string]string{"quiz": "10", "final": "50"},
		},
	}
}

func TestSyncRoster_CarriesMarksByID(t *testing.T) {
	roster := []RosterStudent{
		{StudentID: "s1", Name: "Ada Lovelace", RollNumber: "19-001"},
		{StudentID: "s2", Name: "Grace Hopper", RollNumber: "19-002"},
	}
	stored := []StudentRecord{{
		StudentID:   "s1",
		StudentName: "A. Lovelace", // stale snapshot
		Marks: map[string]CloMarks{
			"clo1": {KPI: "80%", Fields: map[string]string{"quiz": "8", "final": "40"}},
		},
	}}

	out := SyncRoster(roster, stored, testDetails())
	if len(out) != 2 {
		t.Fatalf("expected 2 students, got %d", len(out))
	}
	if out[0].StudentName != "Ada Lovelace" {
		t.Fatalf("snapshot not refreshed from roster: %q", out[0].StudentName)
	}
	if out[0].Marks["clo1"].KPI != "80%" {
		t.Fatalf("marks lost on merge: %+v", out[0].Marks)
	}
	// new student gets blank marks for every CLO and field
	blank := out[1].Marks["clo1"]
	if blank.KPI != "" || blank.Fields["quiz"] != "" || blank.Fields["final"] != "" {
		t.Fatalf("expected blank marks for new student, got %+v", blank)
	}
}

func TestSyncRoster_DropsDepartedStudents(t *testing.T) {
	roster := []RosterStudent{{StudentID: "s2", Name: "Grace Hopper"}}
	stored := []StudentRecord{
		{StudentID: "s1", Marks: map[string]CloMarks{"clo1": {KPI: "80%"}}},
		{StudentID: "s2", Marks: map[string]CloMarks{"clo1": {KPI: "60%"}}},
	}
	out := SyncRoster(roster, stored, testDetails())
	if len(out) != 1 || out[0].StudentID != "s2" {
		t.Fatalf("expected only s2 to survive, got %+v", out)
	}
	if out[0].Marks["clo1"].KPI != "60%" {
		t.Fatalf("surviving student's marks changed: %+v", out[0].Marks)
	}
}

func TestSyncRoster_Idempotent(t *testing.T) {
	roster := []RosterStudent{
		{StudentID: "s1", Name: "Ada Lovelace", RollNumber: "19-001", Email: "ada@uni.edu"},
	}
	stored := []StudentRecord{{
		StudentID:   "s1",
		StudentName: "Ada Lovelace",
		RollNumber:  "19-001",
		Email:       "ada@uni.edu",
		Marks: map[string]CloMarks{
			"clo1": {KPI: "80%", Fields: map[string]string{"quiz": "8", "final": "40"}},
		},
	}}
	once := SyncRoster(roster, stored, testDetails())
	twice := SyncRoster(roster, once, testDetails())
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("round-trip drift:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestRebaseline_ResetsOnlyAffectedCLO(t *testing.T) {
	students := []StudentRecord{{
		StudentID: "s1",
		Marks: map[string]CloMarks{
			"clo1": {KPI: "80%", Fields: map[string]string{"quiz": "8"}},
			"clo2": {KPI: "60%", Fields: map[string]string{"lab": "6"}},
		},
	}}
	Rebaseline(students, "clo1", []Field{{Name: "quiz", Weightage: 50}, {Name: "project", Weightage: 50}})

	got := students[0].Marks["clo1"]
	if got.KPI != "" {
		t.Fatalf("expected KPI reset, got %q", got.KPI)
	}
	if _, ok := got.Fields["project"]; !ok {
		t.Fatalf("new field set not applied: %+v", got.Fields)
	}
	if got.Fields["quiz"] != "" {
		t.Fatalf("old marks survived a re-baseline: %+v", got.Fields)
	}
	if students[0].Marks["clo2"].KPI != "60%" {
		t.Fatalf("unaffected CLO was touched: %+v", students[0].Marks["clo2"])
	}
}
