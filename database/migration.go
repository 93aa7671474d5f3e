package database

import (
	"database/sql"
	"embed"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"

	"github.com/mbolis/patrol-report/log"
)

//go:embed migrations
var dbMigrations embed.FS

// migrateLogger sends golang-migrate output to the debug log.
type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...any) {
	log.Debugf("db.migrate: "+strings.TrimSuffix(format, "\n"), v...)
}

func (migrateLogger) Verbose() bool {
	return log.IsLevelEnabled(log.DebugLevel)
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(dbMigrations, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, "migration source")
	}

	dst, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "migration target")
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", dst)
	if err != nil {
		return nil, err
	}
	m.Log = migrateLogger{}
	return m, nil
}

// migrateDB brings the schema to the latest version and refuses to go on
// from a migration that failed halfway.
func migrateDB(db *sql.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		// fresh database
	case err != nil:
		return err
	case dirty:
		return errors.Errorf("schema version %d is dirty", version)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
