// Package trash implements soft deletion. Deleted records are parked as JSON
// snapshots in a trash table and can be restored by an admin. Restoration
// dispatches over a closed set of entity kinds; there is no dynamic lookup by
// collection-name transformation.
package trash

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campus-metrics/outcometrack/internal/catalog"
	"github.com/campus-metrics/outcometrack/internal/lostfound"
	"github.com/campus-metrics/outcometrack/internal/outcome"
	"github.com/campus-metrics/outcometrack/internal/sheet"
)

var ErrNotFound = errors.New("trash entry not found")

// Kind identifies what a trash entry used to be. The set is closed: restoring
// anything else is an error, never a guess.
type Kind string

const (
	KindDepartment Kind = "department"
	KindProgram    Kind = "program"
	KindSubject    Kind = "subject"
	KindSemester   Kind = "semester"
	KindSheet      Kind = "sheet"
	KindLostFound  Kind = "lostfound"
)

func (k Kind) Valid() bool {
	switch k {
	case KindDepartment, KindProgram, KindSubject, KindSemester, KindSheet, KindLostFound:
		return true
	}
	return false
}

type Entry struct {
	ID        string `json:"id"`
	Kind      Kind   `json:"kind"`
	Label     string `json:"label"`
	DataJSON  string `json:"-"`
	DeletedAt int64  `json:"deleted_at"`
}

// Bin owns the trash table and knows how to put each entity kind back.
type Bin struct {
	db        *sql.DB
	catalog   *catalog.SQLStore
	sheets    sheet.Store
	lostFound *lostfound.SQLStore
}

func NewBin(db *sql.DB, cat *catalog.SQLStore, sheets sheet.Store, lf *lostfound.SQLStore) *Bin {
	return &Bin{db: db, catalog: cat, sheets: sheets, lostFound: lf}
}

// Put snapshots a deleted record. label is a human-readable hint for the trash
// listing (a name or code).
func (b *Bin) Put(ctx context.Context, kind Kind, label string, record any) (Entry, error) {
	if !kind.Valid() {
		return Entry{}, fmt.Errorf("unknown trash kind: %q", kind)
	}
	data, err := json.Marshal(record)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{
		ID:        uuid.NewString(),
		Kind:      kind,
		Label:     label,
		DataJSON:  string(data),
		DeletedAt: time.Now().Unix(),
	}
	_, err = b.db.ExecContext(ctx, `INSERT INTO trash (id, kind, label, data_json, deleted_at)
		VALUES ($1,$2,$3,$4,$5)`, e.ID, string(e.Kind), e.Label, e.DataJSON, e.DeletedAt)
	return e, err
}

func (b *Bin) List(ctx context.Context) ([]Entry, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT id, kind, label, data_json, deleted_at FROM trash ORDER BY deleted_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Entry{}
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.ID, &kind, &e.Label, &e.DataJSON, &e.DeletedAt); err != nil {
			return nil, err
		}
		e.Kind = Kind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (b *Bin) get(ctx context.Context, id string) (Entry, error) {
	var e Entry
	var kind string
	err := b.db.QueryRowContext(ctx, `SELECT id, kind, label, data_json, deleted_at FROM trash WHERE id=$1`, id).
		Scan(&e.ID, &kind, &e.Label, &e.DataJSON, &e.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	e.Kind = Kind(kind)
	return e, err
}

// Restore re-creates the snapshotted record under its original id and removes
// the trash entry.
func (b *Bin) Restore(ctx context.Context, id string) (Entry, error) {
	e, err := b.get(ctx, id)
	if err != nil {
		return Entry{}, err
	}

	switch e.Kind {
	case KindDepartment:
		var d catalog.Department
		if err := json.Unmarshal([]byte(e.DataJSON), &d); err != nil {
			return Entry{}, err
		}
		_, err = b.catalog.CreateDepartment(ctx, d)
	case KindProgram:
		var p catalog.Program
		if err := json.Unmarshal([]byte(e.DataJSON), &p); err != nil {
			return Entry{}, err
		}
		_, err = b.catalog.CreateProgram(ctx, p)
	case KindSubject:
		var sub catalog.Subject
		if err := json.Unmarshal([]byte(e.DataJSON), &sub); err != nil {
			return Entry{}, err
		}
		_, err = b.catalog.CreateSubject(ctx, sub)
	case KindSemester:
		var sem catalog.Semester
		if err := json.Unmarshal([]byte(e.DataJSON), &sem); err != nil {
			return Entry{}, err
		}
		_, err = b.catalog.CreateSemester(ctx, sem)
	case KindSheet:
		var sh outcome.Sheet
		if err := json.Unmarshal([]byte(e.DataJSON), &sh); err != nil {
			return Entry{}, err
		}
		_, err = b.sheets.Create(ctx, sh)
	case KindLostFound:
		var it lostfound.Item
		if err := json.Unmarshal([]byte(e.DataJSON), &it); err != nil {
			return Entry{}, err
		}
		_, err = b.lostFound.Create(ctx, it)
	default:
		return Entry{}, fmt.Errorf("unknown trash kind: %q", e.Kind)
	}
	if err != nil {
		return Entry{}, err
	}

	_, err = b.db.ExecContext(ctx, `DELETE FROM trash WHERE id=$1`, id)
	return e, err
}

// Purge drops a trash entry permanently.
func (b *Bin) Purge(ctx context.Context, id string) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM trash WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
