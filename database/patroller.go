package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// SavePatroller creates the account, or replaces its password.
func SavePatroller(ctx context.Context, db *sql.DB, username, password string) error {
	if username == "" || password == "" {
		return errors.New("patroller user name and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO patroller (username, password_hash) VALUES (?, ?)
		ON CONFLICT (username) DO UPDATE SET password_hash = excluded.password_hash`,
		username,
		hash,
	)
	return errors.Wrap(err, "save patroller")
}

// PurgeTokens drops refresh tokens past their expiration.
func PurgeTokens(ctx context.Context, db *sql.DB, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM token WHERE expiration < ?", now)
	if err != nil {
		return 0, errors.Wrap(err, "purge tokens")
	}
	return res.RowsAffected()
}
