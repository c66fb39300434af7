package outcome

import (
	"fmt"
	"math"
)

// NumPLOs is the fixed number of program learning outcome slots tracked per
// student per semester.
const NumPLOs = 12

// PLOLabel formats the canonical slot label, "PLO 1".."PLO 12".
func PLOLabel(n int) string { return fmt.Sprintf("PLO %d", n) }

// PLOSubject is a provenance record: which subject/CLO contributed a KPI to a
// PLO's total.
type PLOSubject struct {
	SubjectName string `json:"subjectName"`
	CloKey      string `json:"cloKey"`
	KPI         string `json:"kpi"`
}

// PLOStat accumulates every CLO KPI mapped to one PLO for one student.
// Percentage is the rounded average, and stays 0 (not empty) when no CLO feeds
// the slot — PLO cells render "0", CLO cells render blank.
type PLOStat struct {
	TotalKPI   float64      `json:"totalKPI"`
	ValidCLOs  int          `json:"validCLOs"`
	Percentage int          `json:"percentage"`
	Subjects   []PLOSubject `json:"subjects"`
}

// AggregateStudentPLOs walks every sheet in a semester and averages, per PLO
// slot, all CLO KPIs mapped to that slot for the given student. Students are
// matched by their stable StudentID; display names play no part in the join.
func AggregateStudentPLOs(sheets []SemesterSheet, studentID string) map[string]PLOStat {
	stats := newPLOStats()
	for _, sh := range sheets {
		rec, ok := findStudent(sh.Students, studentID)
		if !ok {
			continue
		}
		for cloKey, ploLabel := range sh.CloToPloMapping {
			stat, tracked := stats[ploLabel]
			if !tracked {
				continue // unmapped or out-of-range PLO label
			}
			kpi, ok := rec.Marks[cloKey]
			if !ok {
				continue
			}
			v, ok := ParsePercent(kpi.KPI)
			if !ok {
				continue
			}
			stat.TotalKPI += v
			stat.ValidCLOs++
			stat.Subjects = append(stat.Subjects, PLOSubject{
				SubjectName: sh.SubjectName,
				CloKey:      cloKey,
				KPI:         kpi.KPI,
			})
			stats[ploLabel] = stat
		}
	}
	finalize(stats)
	return stats
}

// AggregateStudentPLO computes a single slot; n outside 1..NumPLOs returns a
// zero stat.
func AggregateStudentPLO(sheets []SemesterSheet, studentID string, n int) PLOStat {
	if n < 1 || n > NumPLOs {
		return PLOStat{Subjects: []PLOSubject{}}
	}
	return AggregateStudentPLOs(sheets, studentID)[PLOLabel(n)]
}

// AggregateAllStudents runs the per-student aggregation once for every
// distinct StudentID found across the sheets' rosters. The result is keyed by
// display name for wire compatibility; a duplicated display name is
// disambiguated with the roll number.
func AggregateAllStudents(sheets []SemesterSheet) map[string]map[string]PLOStat {
	type ident struct{ name, roll string }
	seen := map[string]ident{}
	var order []string
	for _, sh := range sheets {
		for _, s := range sh.Students {
			if s.StudentID == "" {
				continue
			}
			if _, ok := seen[s.StudentID]; !ok {
				seen[s.StudentID] = ident{name: s.StudentName, roll: s.RollNumber}
				order = append(order, s.StudentID)
			}
		}
	}

	nameCount := map[string]int{}
	for _, id := range order {
		nameCount[seen[id].name]++
	}

	out := make(map[string]map[string]PLOStat, len(order))
	for _, id := range order {
		who := seen[id]
		key := who.name
		if nameCount[who.name] > 1 && who.roll != "" {
			key = fmt.Sprintf("%s (%s)", who.name, who.roll)
		}
		out[key] = AggregateStudentPLOs(sheets, id)
	}
	return out
}

func newPLOStats() map[string]PLOStat {
	stats := make(map[string]PLOStat, NumPLOs)
	for i := 1; i <= NumPLOs; i++ {
		stats[PLOLabel(i)] = PLOStat{Subjects: []PLOSubject{}}
	}
	return stats
}

func finalize(stats map[string]PLOStat) {
	for label, stat := range stats {
		if stat.ValidCLOs > 0 {
			stat.Percentage = int(math.Round(stat.TotalKPI / float64(stat.ValidCLOs)))
		}
		stats[label] = stat
	}
}

func findStudent(students []StudentRecord, studentID string) (StudentRecord, bool) {
	for _, s := range students {
		if s.StudentID == studentID {
			return s, true
		}
	}
	return StudentRecord{}, false
}
