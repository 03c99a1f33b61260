package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/guestbook/internal/entry"
)

// ErrNotFound is returned when no entry has the requested id.
var ErrNotFound = errors.New("entry not found")

const entryColumns = `id, name, message, created_at`

func scanEntry(row interface{ Scan(...any) error }) (entry.Entry, error) {
	var (
		e         entry.Entry
		id        string
		createdMs int64
	)
	if err := row.Scan(&id, &e.Name, &e.Message, &createdMs); err != nil {
		return entry.Entry{}, err
	}
	e.ID = entry.ID(id)
	e.CreatedAt = time.UnixMilli(createdMs).UTC()
	return e, nil
}

// ListEntries returns all entries, newest first.
func (db *DB) ListEntries(ctx context.Context) ([]entry.Entry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		ORDER BY created_at DESC, seq DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	entries := []entry.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetEntry returns one entry or ErrNotFound.
func (db *DB) GetEntry(ctx context.Context, id entry.ID) (entry.Entry, error) {
	e, err := scanEntry(db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return entry.Entry{}, ErrNotFound
	}
	return e, err
}

// InsertEntry stores a new entry under a fresh UUID.
func (db *DB) InsertEntry(ctx context.Context, in entry.Input) (entry.Entry, error) {
	id := uuid.NewString()
	now := time.Now().UnixMilli()
	if _, err := db.ExecContext(ctx, `
		INSERT INTO entries (id, name, message, created_at, updated_at, seq)
		VALUES (?, ?, ?, ?, ?, COALESCE((SELECT MAX(seq) FROM entries), 0) + 1)`,
		id, in.Name, in.Message, now, now); err != nil {
		return entry.Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	return entry.Entry{
		ID:        entry.ID(id),
		Name:      in.Name,
		Message:   in.Message,
		CreatedAt: time.UnixMilli(now).UTC(),
	}, nil
}

// ReplaceEntry overwrites name and message of an existing entry.
func (db *DB) ReplaceEntry(ctx context.Context, id entry.ID, in entry.Input) (entry.Entry, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE entries SET name = ?, message = ?, updated_at = ?
		WHERE id = ?`,
		in.Name, in.Message, time.Now().UnixMilli(), string(id))
	if err != nil {
		return entry.Entry{}, fmt.Errorf("replace entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entry.Entry{}, ErrNotFound
	}
	return db.GetEntry(ctx, id)
}

// DeleteEntry removes an entry or returns ErrNotFound.
func (db *DB) DeleteEntry(ctx context.Context, id entry.ID) error {
	res, err := db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
