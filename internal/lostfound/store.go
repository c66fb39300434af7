// Package lostfound implements the campus lost-and-found item registry that
// ships alongside the outcome tracker.
package lostfound

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("item not found")

const (
	StatusOpen     = "open"
	StatusClaimed  = "claimed"
	StatusReturned = "returned"
)

type Item struct {
	ID          string `json:"id"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Status      string `json:"status"`
	PhotoKey    string `json:"photoKey,omitempty"`
	ReportedBy  string `json:"reportedBy"`
	CreatedAt   int64  `json:"created_at"`
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Create(ctx context.Context, it Item) (Item, error) {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.Status == "" {
		it.Status = StatusOpen
	}
	it.CreatedAt = time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `INSERT INTO lost_found_items
		(id, title, description, location, status, photo_key, reported_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		it.ID, it.Title, it.Description, it.Location, it.Status, it.PhotoKey, it.ReportedBy, it.CreatedAt)
	return it, err
}

func (s *SQLStore) Get(ctx context.Context, id string) (Item, error) {
	var it Item
	err := s.db.QueryRowContext(ctx, `SELECT id, title, description, location, status, photo_key, reported_by, created_at
		FROM lost_found_items WHERE id=$1`, id).
		Scan(&it.ID, &it.Title, &it.Description, &it.Location, &it.Status, &it.PhotoKey, &it.ReportedBy, &it.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

func (s *SQLStore) List(ctx context.Context, status string) ([]Item, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT id, title, description, location, status, photo_key, reported_by, created_at
			FROM lost_found_items ORDER BY created_at DESC`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT id, title, description, location, status, photo_key, reported_by, created_at
			FROM lost_found_items WHERE status=$1 ORDER BY created_at DESC`, status)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Title, &it.Description, &it.Location, &it.Status, &it.PhotoKey, &it.ReportedBy, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE lost_found_items SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) SetPhoto(ctx context.Context, id, photoKey string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE lost_found_items SET photo_key=$1 WHERE id=$2`, photoKey, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) (Item, error) {
	it, err := s.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM lost_found_items WHERE id=$1`, id)
	return it, err
}
