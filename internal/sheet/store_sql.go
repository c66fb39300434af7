package sheet

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campus-metrics/outcometrack/internal/outcome"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Create(ctx context.Context, sh outcome.Sheet) (outcome.Sheet, error) {
	if sh.ID == "" {
		sh.ID = uuid.NewString()
	}
	if !sh.Strategy.Valid() {
		sh.Strategy = outcome.WeightedAverageOfRatios
	}
	mj, err := json.Marshal(sh.CloToPloMapping)
	if err != nil {
		return outcome.Sheet{}, err
	}
	dj, err := json.Marshal(sh.CloDetails)
	if err != nil {
		return outcome.Sheet{}, err
	}
	sj, err := json.Marshal(sh.Students)
	if err != nil {
		return outcome.Sheet{}, err
	}
	sh.UpdatedAt = time.Now().Unix()
	_, err = s.db.ExecContext(ctx, `INSERT INTO sheets
		(id, semester_id, course_id, teacher_id, strategy, mapping_json, clo_details_json, students_json, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		sh.ID, sh.SemesterID, sh.CourseID, sh.TeacherID, string(sh.Strategy),
		string(mj), string(dj), string(sj), sh.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return outcome.Sheet{}, ErrExists
		}
		return outcome.Sheet{}, err
	}
	return sh, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (outcome.Sheet, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, selectSheet+` WHERE id=$1`, id))
}

func (s *SQLStore) GetByIdentity(ctx context.Context, semesterID, courseID, teacherID string) (outcome.Sheet, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		selectSheet+` WHERE semester_id=$1 AND course_id=$2 AND teacher_id=$3`,
		semesterID, courseID, teacherID))
}

func (s *SQLStore) ListBySemester(ctx context.Context, semesterID string) ([]outcome.Sheet, error) {
	rows, err := s.db.QueryContext(ctx, selectSheet+` WHERE semester_id=$1 ORDER BY updated_at DESC`, semesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []outcome.Sheet{}
	for rows.Next() {
		sh, err := scanSheet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveStudents(ctx context.Context, id string, students []outcome.StudentRecord) (outcome.Sheet, error) {
	sj, err := json.Marshal(students)
	if err != nil {
		return outcome.Sheet{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE sheets SET students_json=$1, updated_at=$2 WHERE id=$3`,
		string(sj), time.Now().Unix(), id)
	if err != nil {
		return outcome.Sheet{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return outcome.Sheet{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *SQLStore) SaveStructure(ctx context.Context, id string, details map[string]outcome.CloDetail) (outcome.Sheet, error) {
	dj, err := json.Marshal(details)
	if err != nil {
		return outcome.Sheet{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE sheets SET clo_details_json=$1, updated_at=$2 WHERE id=$3`,
		string(dj), time.Now().Unix(), id)
	if err != nil {
		return outcome.Sheet{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return outcome.Sheet{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *SQLStore) SaveStructureAndStudents(ctx context.Context, id string, details map[string]outcome.CloDetail, students []outcome.StudentRecord) (outcome.Sheet, error) {
	dj, err := json.Marshal(details)
	if err != nil {
		return outcome.Sheet{}, err
	}
	sj, err := json.Marshal(students)
	if err != nil {
		return outcome.Sheet{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sheets SET clo_details_json=$1, students_json=$2, updated_at=$3 WHERE id=$4`,
		string(dj), string(sj), time.Now().Unix(), id)
	if err != nil {
		return outcome.Sheet{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return outcome.Sheet{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *SQLStore) Delete(ctx context.Context, id string) (outcome.Sheet, error) {
	sh, err := s.Get(ctx, id)
	if err != nil {
		return outcome.Sheet{}, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sheets WHERE id=$1`, id); err != nil {
		return outcome.Sheet{}, err
	}
	return sh, nil
}

const selectSheet = `SELECT id, semester_id, course_id, teacher_id, strategy,
	mapping_json, clo_details_json, students_json, updated_at FROM sheets`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLStore) scanOne(row *sql.Row) (outcome.Sheet, error) {
	sh, err := scanSheet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return outcome.Sheet{}, ErrNotFound
	}
	return sh, err
}

func scanSheet(row rowScanner) (outcome.Sheet, error) {
	var sh outcome.Sheet
	var strategy, mj, dj, sj string
	if err := row.Scan(&sh.ID, &sh.SemesterID, &sh.CourseID, &sh.TeacherID, &strategy,
		&mj, &dj, &sj, &sh.UpdatedAt); err != nil {
		return outcome.Sheet{}, err
	}
	sh.Strategy = outcome.KpiStrategy(strategy)
	if err := json.Unmarshal([]byte(mj), &sh.CloToPloMapping); err != nil {
		sh.CloToPloMapping = map[string]string{}
	}
	if err := json.Unmarshal([]byte(dj), &sh.CloDetails); err != nil {
		sh.CloDetails = map[string]outcome.CloDetail{}
	}
	if err := json.Unmarshal([]byte(sj), &sh.Students); err != nil {
		sh.Students = []outcome.StudentRecord{}
	}
	return sh, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // sqlite
		strings.Contains(msg, "duplicate key") // postgres
}
