package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/campus-metrics/outcometrack/internal/outcome"
)

var ErrNotFound = errors.New("catalog record not found")

// SQLStore persists the catalog entities. Embedded documents (CLO definitions,
// semester contents) are stored as JSON columns next to the relational keys.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

/* ------------------------------ departments ------------------------------ */

func (s *SQLStore) CreateDepartment(ctx context.Context, d Department) (Department, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO departments (id, name) VALUES ($1,$2)`, d.ID, d.Name)
	return d, err
}

func (s *SQLStore) GetDepartment(ctx context.Context, id string) (Department, error) {
	var d Department
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM departments WHERE id=$1`, id).Scan(&d.ID, &d.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return Department{}, ErrNotFound
	}
	return d, err
}

func (s *SQLStore) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM departments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Department{}
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateDepartment(ctx context.Context, d Department) error {
	res, err := s.db.ExecContext(ctx, `UPDATE departments SET name=$1 WHERE id=$2`, d.Name, d.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) DeleteDepartment(ctx context.Context, id string) (Department, error) {
	d, err := s.GetDepartment(ctx, id)
	if err != nil {
		return Department{}, err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM departments WHERE id=$1`, id)
	return d, err
}

/* -------------------------------- programs ------------------------------- */

func (s *SQLStore) CreateProgram(ctx context.Context, p Program) (Program, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO programs (id, department_id, name, code) VALUES ($1,$2,$3,$4)`,
		p.ID, p.DepartmentID, p.Name, p.Code)
	return p, err
}

func (s *SQLStore) GetProgram(ctx context.Context, id string) (Program, error) {
	var p Program
	err := s.db.QueryRowContext(ctx,
		`SELECT id, department_id, name, code FROM programs WHERE id=$1`, id).
		Scan(&p.ID, &p.DepartmentID, &p.Name, &p.Code)
	if errors.Is(err, sql.ErrNoRows) {
		return Program{}, ErrNotFound
	}
	return p, err
}

func (s *SQLStore) ListPrograms(ctx context.Context, departmentID string) ([]Program, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if departmentID == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT id, department_id, name, code FROM programs ORDER BY name`)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, department_id, name, code FROM programs WHERE department_id=$1 ORDER BY name`, departmentID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Program{}
	for rows.Next() {
		var p Program
		if err := rows.Scan(&p.ID, &p.DepartmentID, &p.Name, &p.Code); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteProgram(ctx context.Context, id string) (Program, error) {
	p, err := s.GetProgram(ctx, id)
	if err != nil {
		return Program{}, err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM programs WHERE id=$1`, id)
	return p, err
}

/* -------------------------------- subjects ------------------------------- */

func (s *SQLStore) CreateSubject(ctx context.Context, sub Subject) (Subject, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	cj, err := json.Marshal(sub.CLOs)
	if err != nil {
		return Subject{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO subjects (id, program_id, name, code, is_lab, clos_json) VALUES ($1,$2,$3,$4,$5,$6)`,
		sub.ID, sub.ProgramID, sub.Name, sub.Code, sub.IsLab, string(cj))
	return sub, err
}

func (s *SQLStore) GetSubject(ctx context.Context, id string) (Subject, error) {
	var sub Subject
	var cj string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, program_id, name, code, is_lab, clos_json FROM subjects WHERE id=$1`, id).
		Scan(&sub.ID, &sub.ProgramID, &sub.Name, &sub.Code, &sub.IsLab, &cj)
	if errors.Is(err, sql.ErrNoRows) {
		return Subject{}, ErrNotFound
	}
	if err != nil {
		return Subject{}, err
	}
	if err := json.Unmarshal([]byte(cj), &sub.CLOs); err != nil {
		sub.CLOs = []outcome.CLODef{}
	}
	return sub, nil
}

func (s *SQLStore) ListSubjects(ctx context.Context, programID string) ([]Subject, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if programID == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT id, program_id, name, code, is_lab, clos_json FROM subjects ORDER BY code`)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, program_id, name, code, is_lab, clos_json FROM subjects WHERE program_id=$1 ORDER BY code`, programID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Subject{}
	for rows.Next() {
		var sub Subject
		var cj string
		if err := rows.Scan(&sub.ID, &sub.ProgramID, &sub.Name, &sub.Code, &sub.IsLab, &cj); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(cj), &sub.CLOs); err != nil {
			sub.CLOs = []outcome.CLODef{}
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// UpdateSubjectCLOs replaces a subject's CLO definitions. Callers must
// invalidate the mapping cache for this subject afterwards.
func (s *SQLStore) UpdateSubjectCLOs(ctx context.Context, id string, clos []outcome.CLODef) error {
	cj, err := json.Marshal(clos)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE subjects SET clos_json=$1 WHERE id=$2`, string(cj), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) DeleteSubject(ctx context.Context, id string) (Subject, error) {
	sub, err := s.GetSubject(ctx, id)
	if err != nil {
		return Subject{}, err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM subjects WHERE id=$1`, id)
	return sub, err
}

/* -------------------------------- semesters ------------------------------ */

func (s *SQLStore) CreateSemester(ctx context.Context, sem Semester) (Semester, error) {
	if sem.ID == "" {
		sem.ID = uuid.NewString()
	}
	cj, err := json.Marshal(sem.Contents)
	if err != nil {
		return Semester{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO semesters (id, program_id, session, contents_json) VALUES ($1,$2,$3,$4)`,
		sem.ID, sem.ProgramID, sem.Session, string(cj))
	return sem, err
}

func (s *SQLStore) GetSemester(ctx context.Context, id string) (Semester, error) {
	var sem Semester
	var cj string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, program_id, session, contents_json FROM semesters WHERE id=$1`, id).
		Scan(&sem.ID, &sem.ProgramID, &sem.Session, &cj)
	if errors.Is(err, sql.ErrNoRows) {
		return Semester{}, ErrNotFound
	}
	if err != nil {
		return Semester{}, err
	}
	if err := json.Unmarshal([]byte(cj), &sem.Contents); err != nil {
		sem.Contents = []SemesterContent{}
	}
	return sem, nil
}

func (s *SQLStore) ListSemesters(ctx context.Context, programID string) ([]Semester, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if programID == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT id, program_id, session, contents_json FROM semesters ORDER BY session DESC`)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, program_id, session, contents_json FROM semesters WHERE program_id=$1 ORDER BY session DESC`, programID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Semester{}
	for rows.Next() {
		var sem Semester
		var cj string
		if err := rows.Scan(&sem.ID, &sem.ProgramID, &sem.Session, &cj); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(cj), &sem.Contents); err != nil {
			sem.Contents = []SemesterContent{}
		}
		out = append(out, sem)
	}
	return out, rows.Err()
}

// UpdateSemesterContents replaces the term slots (subjects + rosters) of a
// semester wholesale. Enrollment changes flow into sheets on their next load.
func (s *SQLStore) UpdateSemesterContents(ctx context.Context, id string, contents []SemesterContent) error {
	cj, err := json.Marshal(contents)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE semesters SET contents_json=$1 WHERE id=$2`, string(cj), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) DeleteSemester(ctx context.Context, id string) (Semester, error) {
	sem, err := s.GetSemester(ctx, id)
	if err != nil {
		return Semester{}, err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM semesters WHERE id=$1`, id)
	return sem, err
}
