// internal/common/database/client.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"biashara-bot/internal/common/config"
)

// SQLClient wraps a ledger connection together with the driver that opened it.
type SQLClient struct {
	DB     *sql.DB
	Driver string
}

// Open connects to the ledger database selected by cfg.Driver.
func Open(cfg config.DatabaseConfig) (*SQLClient, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return NewPostgres(cfg.Postgres)
	case config.DriverSQLite, "":
		return NewSQLite(cfg.SQLite)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Ping tests the database connection
func (c *SQLClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *SQLClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// GetDB returns the underlying *sql.DB
func (c *SQLClient) GetDB() *sql.DB {
	return c.DB
}
