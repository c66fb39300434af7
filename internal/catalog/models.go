package catalog

import "github.com/campus-metrics/outcometrack/internal/outcome"

type Department struct {
	ID   string `json:"id"`
	Name string `json:"name" validate:"required"`
}

type Program struct {
	ID           string `json:"id"`
	DepartmentID string `json:"departmentId" validate:"required,uuid4"`
	Name         string `json:"name" validate:"required"`
	Code         string `json:"code,omitempty"`
}

// Subject is a course in the catalog. Its CLO definitions seed a sheet's
// CLO→PLO mapping the first time a teacher opens that sheet. Lab subjects
// default to the ratio-of-sums KPI strategy.
type Subject struct {
	ID        string           `json:"id"`
	ProgramID string           `json:"programId" validate:"required,uuid4"`
	Name      string           `json:"name" validate:"required"`
	Code      string           `json:"code" validate:"required"`
	IsLab     bool             `json:"isLab"`
	CLOs      []outcome.CLODef `json:"clos"`
}

// SemesterContent is one academic term slot (1..8) of a semester: the subjects
// taught in it and the canonical student roster. The roster here is the single
// source of truth for enrollment; sheets only ever key marks by student id.
type SemesterContent struct {
	Number     int                     `json:"number" validate:"min=1,max=8"`
	SubjectIDs []string                `json:"subjectIds"`
	Students   []outcome.RosterStudent `json:"students"`
}

type Semester struct {
	ID        string            `json:"id"`
	ProgramID string            `json:"programId" validate:"required,uuid4"`
	Session   string            `json:"session" validate:"required"`
	Contents  []SemesterContent `json:"contents"`
}

// RosterFor returns the canonical roster for a course within a semester: the
// students of the first content slot that teaches the course. A course absent
// from every slot has an empty roster.
func (s Semester) RosterFor(courseID string) []outcome.RosterStudent {
	for _, c := range s.Contents {
		for _, id := range c.SubjectIDs {
			if id == courseID {
				return c.Students
			}
		}
	}
	return nil
}

// DefaultStrategy picks the KPI strategy a new sheet for this subject starts
// with. Teachers do not choose this per save; it is a property of the course.
func (s Subject) DefaultStrategy() outcome.KpiStrategy {
	if s.IsLab {
		return outcome.RatioOfSums
	}
	return outcome.WeightedAverageOfRatios
}
