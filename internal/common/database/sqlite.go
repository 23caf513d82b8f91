// internal/common/database/sqlite.go
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"biashara-bot/internal/common/config"

	_ "modernc.org/sqlite"
)

// NewSQLite opens the single-file ledger. The parent directory is created
// if needed; ":memory:" opens a private in-memory database.
func NewSQLite(cfg config.SQLiteConfig) (*SQLClient, error) {
	path := cfg.Path
	if path == "" {
		path = "sales.db"
	}

	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		dsn += "?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// one writer at a time; also keeps ":memory:" on a single connection
	db.SetMaxOpenConns(1)

	return &SQLClient{DB: db, Driver: config.DriverSQLite}, nil
}
