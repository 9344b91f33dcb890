package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Store is a string-keyed blob store backed by the blobs table. Every write
// bumps the row's version; version 0 means the key was never written.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// GetBlob returns the value stored under key and its version. A key that has
// never been written reports version 0.
func (s *Store) GetBlob(ctx context.Context, key string) (value string, version int64, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT value, version
		FROM blobs
		WHERE key = ?
	`, key).Scan(&value, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("get blob %s: %w", key, err)
	}
	return value, version, nil
}

// PutBlob writes value under key only if the stored version still equals
// version. It returns the new version, or ok == false when another writer got
// there first.
func (s *Store) PutBlob(ctx context.Context, key, value string, version int64) (next int64, ok bool, err error) {
	var res sql.Result
	if version == 0 {
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO blobs (key, value, version, updated_at)
			VALUES (?, ?, 1, ?)
			ON CONFLICT(key) DO NOTHING
		`, key, value, nowUTC())
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE blobs
			SET value = ?, version = version + 1, updated_at = ?
			WHERE key = ? AND version = ?
		`, value, nowUTC(), key, version)
	}
	if err != nil {
		return 0, false, fmt.Errorf("put blob %s: %w", key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("put blob %s: %w", key, err)
	}
	if n == 0 {
		return 0, false, nil
	}
	return version + 1, true, nil
}
