package shared

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryDatabase opens a private in-memory database, used by tests.
const MemoryDatabase = ":memory:"

// NewDatabase opens a connection to the SQLite run ledger at the specified path.
//
// An in-memory database is pinned to a single connection so every query sees the same schema.
func NewDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == MemoryDatabase {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase applies pool limits from [DatabaseConfig]; non-positive values are ignored.
func ConfigureDatabase(db *sql.DB, cfg DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
}

// OpenLedger opens the database named by cfg, applies pool settings and runs pending migrations.
func OpenLedger(cfg DatabaseConfig) (*sql.DB, error) {
	db, err := NewDatabase(cfg.Path)
	if err != nil {
		return nil, err
	}
	ConfigureDatabase(db, cfg)

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate run ledger: %w", err)
	}
	return db, nil
}
