package outcome

// SyncRoster reconciles a sheet's stored per-student marks with the canonical
// enrollment roster. The roster decides who appears and in what order; stored
// marks are carried over by StudentID; students no longer enrolled are dropped;
// newly enrolled students get empty marks for every CLO. Name, roll number and
// email are re-snapshotted from the roster so renames show up on the next load.
func SyncRoster(roster []RosterStudent, stored []StudentRecord, details map[string]CloDetail) []StudentRecord {
	byID := make(map[string]StudentRecord, len(stored))
	for _, s := range stored {
		byID[s.StudentID] = s
	}

	out := make([]StudentRecord, 0, len(roster))
	for _, r := range roster {
		rec := StudentRecord{
			StudentID:   r.StudentID,
			StudentName: r.Name,
			RollNumber:  r.RollNumber,
			Email:       r.Email,
		}
		if prev, ok := byID[r.StudentID]; ok && prev.Marks != nil {
			rec.Marks = prev.Marks
		} else {
			rec.Marks = EmptyMarks(details)
		}
		out = append(out, rec)
	}
	return out
}

// EmptyMarks builds a blank marks map covering every CLO and every field the
// sheet currently defines.
func EmptyMarks(details map[string]CloDetail) map[string]CloMarks {
	marks := make(map[string]CloMarks, len(details))
	for cloKey, d := range details {
		fields := make(map[string]string, len(d.Fields))
		for _, f := range d.Fields {
			fields[f.Name] = ""
		}
		marks[cloKey] = CloMarks{KPI: "", Fields: fields}
	}
	return marks
}

// Rebaseline resets every student's marks for one CLO to a fresh, empty field
// set. Structure edits (adding or removing a field, changing a weightage)
// deliberately discard the CLO's entered marks.
func Rebaseline(students []StudentRecord, cloKey string, fields []Field) {
	for i := range students {
		if students[i].Marks == nil {
			students[i].Marks = map[string]CloMarks{}
		}
		blank := make(map[string]string, len(fields))
		for _, f := range fields {
			blank[f.Name] = ""
		}
		students[i].Marks[cloKey] = CloMarks{KPI: "", Fields: blank}
	}
}
