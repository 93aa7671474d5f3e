package database

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/mbolis/patrol-report/config"
	"github.com/mbolis/patrol-report/log"
)

// dsn adds the connection options every connection needs: foreign keys,
// and a busy timeout so an autosave waits for a concurrent writer instead
// of failing with SQLITE_BUSY.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func Open(cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn(cfg.DBUrl))
	if err != nil {
		return nil, err
	}

	// SQLite has a single writer
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "open %s", cfg.DBUrl)
	}

	if err := migrateDB(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	log.WithFields(log.Fields{"path": cfg.DBUrl}).Debug("db.open")
	return db, nil
}
