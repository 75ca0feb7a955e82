package database

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open opens the SQLite database named by dsn and runs migrations.
//
// dsn may be a bare file path, ":memory:", or a DATABASE_URL-style string
// of the form "sqlite:///path/to/file.db". WAL mode, a busy timeout, and
// foreign keys are always enabled.
func Open(dsn string) (*sql.DB, error) {
	path := normalizeDSN(dsn)

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// normalizeDSN strips sqlite URL prefixes so DATABASE_URL values like
// "sqlite:///inventory.db" and plain paths both work.
func normalizeDSN(dsn string) string {
	for _, prefix := range []string{"sqlite:///", "sqlite://", "sqlite:"} {
		if strings.HasPrefix(dsn, prefix) {
			rest := strings.TrimPrefix(dsn, prefix)
			if rest == "" {
				return ":memory:"
			}
			return rest
		}
	}
	return dsn
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}
