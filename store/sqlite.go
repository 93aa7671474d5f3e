package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
)

type sqliteStore struct {
	db *sql.DB
}

// NewSQLite stores values in the kv table of db. The table comes from the
// database migrations; the db stays owned by the caller.
func NewSQLite(db *sql.DB) Store {
	return &sqliteStore{db}
}

func (s *sqliteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.
		QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).
		Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, pkgerrors.Wrapf(err, "kv get %q", key)
	}
	return value, nil
}

func (s *sqliteStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		value,
		time.Now().UTC(),
	)
	return pkgerrors.Wrapf(err, "kv set %q", key)
}

func (s *sqliteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	return pkgerrors.Wrapf(err, "kv delete %q", key)
}

func (*sqliteStore) Close() error {
	return nil
}
