package outcome

// Field is one scored component of a CLO (quiz, assignment, mid, final, ...).
// Weightage is a percentage share; weightages of a CLO's fields should sum to 100
// when the weighted strategy is in use.
type Field struct {
	Name      string  `json:"name"`
	Weightage float64 `json:"weightage"`
}

// CloDetail describes the structure of a single CLO inside a sheet: which PLO it
// feeds, its scored fields, and the max ("total") marks per field. Max marks are
// kept as strings because teachers may leave them blank.
type CloDetail struct {
	CloNumber  int               `json:"cloNumber"`
	PloNumber  int               `json:"ploNumber"`
	CloID      string            `json:"cloId,omitempty"`
	Fields     []Field           `json:"fields"`
	TotalMarks map[string]string `json:"totalMarks"`
}

// CloMarks holds one student's raw marks for one CLO plus the computed KPI.
// KPI is "" when not computable (see ComputeKPI) and "{int}%" otherwise.
type CloMarks struct {
	KPI    string            `json:"kpi"`
	Fields map[string]string `json:"fields"`
}

// StudentRecord is a sheet's per-student row. StudentID is the stable join key;
// name, roll number and email are a display snapshot refreshed from the canonical
// roster on every load.
type StudentRecord struct {
	StudentID   string              `json:"studentId"`
	StudentName string              `json:"studentName"`
	RollNumber  string              `json:"rollNumber"`
	Email       string              `json:"email"`
	Marks       map[string]CloMarks `json:"marks"`
}

// RosterStudent is one entry of the canonical enrollment roster owned by the
// semester. Sheets never branch this; they only key marks by StudentID.
type RosterStudent struct {
	StudentID  string `json:"studentid"`
	Name       string `json:"name"`
	RollNumber string `json:"rollNumber"`
	Email      string `json:"email"`
}

// CLODef is the catalog-level CLO definition owned by a subject. It seeds a
// sheet's mapping and details the first time the sheet is created.
type CLODef struct {
	CloNumber         int     `json:"clonumber"`
	PassingPercentage float64 `json:"passingPercentage"`
	Type              string  `json:"type"`
	Description       string  `json:"description"`
	PloNumber         int     `json:"ploNumber"`
}

// Sheet is the persisted per-subject-per-semester marks record. Unique per
// (semester, course, teacher); the store enforces that with a composite
// constraint.
type Sheet struct {
	ID              string               `json:"id"`
	SemesterID      string               `json:"semesterId"`
	CourseID        string               `json:"courseId"`
	TeacherID       string               `json:"teacherId"`
	Strategy        KpiStrategy          `json:"strategy"`
	CloToPloMapping map[string]string    `json:"cloToPloMapping"`
	CloDetails      map[string]CloDetail `json:"cloDetails"`
	Students        []StudentRecord      `json:"students"`
	UpdatedAt       int64                `json:"updated_at,omitempty"`
}

// SemesterSheet is the minimal view of a sheet needed for PLO aggregation.
type SemesterSheet struct {
	SubjectName     string
	CloToPloMapping map[string]string
	Students        []StudentRecord
}
