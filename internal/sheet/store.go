package sheet

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/campus-metrics/outcometrack/internal/outcome"
)

var (
	ErrNotFound = errors.New("sheet not found")
	// ErrExists signals the (semester, course, teacher) identity is taken.
	ErrExists = errors.New("sheet already exists for this semester, course and teacher")
)

type Store interface {
	Create(ctx context.Context, s outcome.Sheet) (outcome.Sheet, error)
	Get(ctx context.Context, id string) (outcome.Sheet, error)
	GetByIdentity(ctx context.Context, semesterID, courseID, teacherID string) (outcome.Sheet, error)
	ListBySemester(ctx context.Context, semesterID string) ([]outcome.Sheet, error)
	SaveStudents(ctx context.Context, id string, students []outcome.StudentRecord) (outcome.Sheet, error)
	SaveStructure(ctx context.Context, id string, details map[string]outcome.CloDetail) (outcome.Sheet, error)
	// SaveStructureAndStudents persists a structure edit together with the
	// re-baselined marks in a single write, so a failure can never leave the
	// new structure paired with stale marks.
	SaveStructureAndStudents(ctx context.Context, id string, details map[string]outcome.CloDetail, students []outcome.StudentRecord) (outcome.Sheet, error)
	Delete(ctx context.Context, id string) (outcome.Sheet, error)
}

type memoryStore struct {
	mu     sync.RWMutex
	sheets map[string]outcome.Sheet
}

func NewInMemoryStore() Store {
	return &memoryStore{sheets: map[string]outcome.Sheet{}}
}

func (m *memoryStore) Create(_ context.Context, s outcome.Sheet) (outcome.Sheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.sheets {
		if existing.SemesterID == s.SemesterID && existing.CourseID == s.CourseID && existing.TeacherID == s.TeacherID {
			return outcome.Sheet{}, ErrExists
		}
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	m.sheets[s.ID] = s
	return s, nil
}

func (m *memoryStore) Get(_ context.Context, id string) (outcome.Sheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sheets[id]
	if !ok {
		return outcome.Sheet{}, ErrNotFound
	}
	return s, nil
}

func (m *memoryStore) GetByIdentity(_ context.Context, semesterID, courseID, teacherID string) (outcome.Sheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sheets {
		if s.SemesterID == semesterID && s.CourseID == courseID && s.TeacherID == teacherID {
			return s, nil
		}
	}
	return outcome.Sheet{}, ErrNotFound
}

func (m *memoryStore) ListBySemester(_ context.Context, semesterID string) ([]outcome.Sheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []outcome.Sheet{}
	for _, s := range m.sheets {
		if s.SemesterID == semesterID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memoryStore) SaveStudents(_ context.Context, id string, students []outcome.StudentRecord) (outcome.Sheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sheets[id]
	if !ok {
		return outcome.Sheet{}, ErrNotFound
	}
	s.Students = students
	m.sheets[id] = s
	return s, nil
}

func (m *memoryStore) SaveStructure(_ context.Context, id string, details map[string]outcome.CloDetail) (outcome.Sheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sheets[id]
	if !ok {
		return outcome.Sheet{}, ErrNotFound
	}
	s.CloDetails = details
	m.sheets[id] = s
	return s, nil
}

func (m *memoryStore) SaveStructureAndStudents(_ context.Context, id string, details map[string]outcome.CloDetail, students []outcome.StudentRecord) (outcome.Sheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sheets[id]
	if !ok {
		return outcome.Sheet{}, ErrNotFound
	}
	s.CloDetails = details
	s.Students = students
	m.sheets[id] = s
	return s, nil
}

func (m *memoryStore) Delete(_ context.Context, id string) (outcome.Sheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sheets[id]
	if !ok {
		return outcome.Sheet{}, ErrNotFound
	}
	delete(m.sheets, id)
	return s, nil
}
