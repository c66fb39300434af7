package outcome

import "testing"

func sheetWith(subject, cloKey, plo, studentID, name, kpi string) SemesterSheet {
	return SemesterSheet{
		SubjectName:     subject,
		CloToPloMapping: map[string]string{cloKey: plo},
		Students: []StudentRecord{{
			StudentID:   studentID,
			StudentName: name,
			Marks: map[string]CloMarks{
				cloKey: {KPI: kpi},
			},
		}},
	}
}

func TestAggregate_AveragesAcrossSubjects(t *testing.T) {
	sheets := []SemesterSheet{
		sheetWith("Databases", "clo1", "PLO 1", "s1", "Ada", "80%"),
		sheetWith("Networks", "clo1", "PLO 1", "s1", "Ada", "60%"),
	}
	stats := AggregateStudentPLOs(sheets, "s1")
	got := stats["PLO 1"]
	if got.ValidCLOs != 2 {
		t.Fatalf("expected 2 valid CLOs, got %d", got.ValidCLOs)
	}
	if got.Percentage != 70 {
		t.Fatalf("expected percentage 70, got %d", got.Percentage)
	}
	if len(got.Subjects) != 2 {
		t.Fatalf("expected 2 provenance records, got %d", len(got.Subjects))
	}
}

func TestAggregate_ZeroValidCLOsIsZeroNotEmpty(t *testing.T) {
	sheets := []SemesterSheet{
		sheetWith("Databases", "clo1", "PLO 1", "s1", "Ada", "80%"),
	}
	stats := AggregateStudentPLOs(sheets, "s1")
	if len(stats) != NumPLOs {
		t.Fatalf("expected %d pre-initialized slots, got %d", NumPLOs, len(stats))
	}
	empty := stats["PLO 7"]
	if empty.Percentage != 0 || empty.ValidCLOs != 0 {
		t.Fatalf("expected zeroed slot, got %+v", empty)
	}
	if empty.Subjects == nil {
		t.Fatalf("subjects slice must encode as [], not null")
	}
}

func TestAggregate_SkipsBlankAndUnparseableKPIs(t *testing.T) {
	sheets := []SemesterSheet{
		sheetWith("Databases", "clo1", "PLO 2", "s1", "Ada", ""),
		sheetWith("Networks", "clo1", "PLO 2", "s1", "Ada", "pending"),
		sheetWith("Compilers", "clo1", "PLO 2", "s1", "Ada", "90%"),
	}
	got := AggregateStudentPLOs(sheets, "s1")["PLO 2"]
	if got.ValidCLOs != 1 || got.Percentage != 90 {
		t.Fatalf("expected one 90%% contribution, got %+v", got)
	}
}

func TestAggregate_IgnoresUnmappedPLOLabels(t *testing.T) {
	sheets := []SemesterSheet{
		sheetWith("Databases", "clo1", "PLO 99", "s1", "Ada", "80%"),
	}
	stats := AggregateStudentPLOs(sheets, "s1")
	for label, stat := range stats {
		if stat.ValidCLOs != 0 {
			t.Fatalf("slot %s picked up an out-of-range mapping: %+v", label, stat)
		}
	}
}

func TestAggregate_MatchesByStudentIDNotName(t *testing.T) {
	sh := sheetWith("Databases", "clo1", "PLO 1", "s1", "Ada", "80%")
	sh.Students = append(sh.Students, StudentRecord{
		StudentID:   "s2",
		StudentName: "Ada", // same display name, different student
		Marks:       map[string]CloMarks{"clo1": {KPI: "20%"}},
	})
	got := AggregateStudentPLOs([]SemesterSheet{sh}, "s2")["PLO 1"]
	if got.Percentage != 20 || got.ValidCLOs != 1 {
		t.Fatalf("expected s2's own 20%%, got %+v", got)
	}
}

func TestAggregateStudentPLO_SingleSlot(t *testing.T) {
	sheets := []SemesterSheet{
		sheetWith("Databases", "clo1", "PLO 3", "s1", "Ada", "75%"),
	}
	got := AggregateStudentPLO(sheets, "s1", 3)
	if got.Percentage != 75 {
		t.Fatalf("expected 75, got %+v", got)
	}
	if out := AggregateStudentPLO(sheets, "s1", 13); out.ValidCLOs != 0 {
		t.Fatalf("out-of-range slot should be zero, got %+v", out)
	}
}

func TestAggregateAllStudents_DedupedByID(t *testing.T) {
	sheets := []SemesterSheet{
		sheetWith("Databases", "clo1", "PLO 1", "s1", "Ada", "80%"),
		sheetWith("Networks", "clo1", "PLO 1", "s1", "Ada", "60%"),
		sheetWith("Networks", "clo2", "PLO 2", "s2", "Grace", "50%"),
	}
	all := AggregateAllStudents(sheets)
	if len(all) != 2 {
		t.Fatalf("expected 2 students, got %d", len(all))
	}
	if all["Ada"]["PLO 1"].Percentage != 70 {
		t.Fatalf("expected Ada PLO 1 = 70, got %+v", all["Ada"]["PLO 1"])
	}
	if all["Grace"]["PLO 2"].Percentage != 50 {
		t.Fatalf("expected Grace PLO 2 = 50, got %+v", all["Grace"]["PLO 2"])
	}
}

func TestAggregateAllStudents_NameCollision(t *testing.T) {
	sh := SemesterSheet{
		SubjectName:     "Databases",
		CloToPloMapping: map[string]string{"clo1": "PLO 1"},
		Students: []StudentRecord{
			{StudentID: "s1", StudentName: "Ada", RollNumber: "19-001",
				Marks: map[string]CloMarks{"clo1": {KPI: "80%"}}},
			{StudentID: "s2", StudentName: "Ada", RollNumber: "19-002",
				Marks: map[string]CloMarks{"clo1": {KPI: "40%"}}},
		},
	}
	all := AggregateAllStudents([]SemesterSheet{sh})
	if len(all) != 2 {
		t.Fatalf("expected both namesakes, got %d entries", len(all))
	}
	if all["Ada (19-001)"]["PLO 1"].Percentage != 80 {
		t.Fatalf("expected disambiguated key for first Ada, got keys %v", keys(all))
	}
	if all["Ada (19-002)"]["PLO 1"].Percentage != 40 {
		t.Fatalf("expected disambiguated key for second Ada, got keys %v", keys(all))
	}
}

func keys(m map[string]map[string]PLOStat) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
