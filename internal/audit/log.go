// Package audit is an append-only record of who changed what: sheet saves,
// structure edits, CLO definition changes, trash and restore operations.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

const (
	TypeSheetCreated       = "SheetCreated"
	TypeSheetMarksSaved    = "SheetMarksSaved"
	TypeSheetRebaselined   = "SheetRebaselined"
	TypeSubjectCLOsUpdated = "SubjectCLOsUpdated"
	TypeTrashed            = "Trashed"
	TypeRestored           = "Restored"
)

type Event struct {
	Offset    int64  `json:"offset"`
	Actor     string `json:"actor"`
	Type      string `json:"typ"`
	Key       string `json:"key"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

type Log struct{ db *sql.DB }

func NewLog(db *sql.DB) *Log { return &Log{db: db} }

// Append records one event. data is marshalled to JSON; a nil data records
// "{}". Audit failures are the caller's choice to ignore; the write path never
// depends on them.
func (l *Log) Append(ctx context.Context, actor, typ, key string, data any) error {
	payload := "{}"
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			payload = string(b)
		}
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO audit_log (actor, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		actor, typ, key, payload, time.Now().Unix())
	return err
}

// Recent returns the latest n events, newest first.
func (l *Log) Recent(ctx context.Context, n int) ([]Event, error) {
	if n <= 0 || n > 500 {
		n = 100
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT "offset", actor, typ, key, data, created_at FROM audit_log ORDER BY "offset" DESC LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Offset, &e.Actor, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
