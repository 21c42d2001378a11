package shared

import (
	"cmp"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// migrationName matches "<version>_<name>_<up|down>.sql", e.g. "0000_create_runs_up.sql".
var migrationName = regexp.MustCompile(`^(\d+)_(\w+?)_(up|down)\.sql$`)

// Migration is one versioned schema change with its forward and reverse scripts.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// loadMigrations reads the embedded scripts, pairs up/down files by version and sorts them ascending.
func loadMigrations() ([]Migration, error) {
	entries, err := migrationFiles.ReadDir("sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	byVersion := map[int]*Migration{}
	for _, entry := range entries {
		m := migrationName.FindStringSubmatch(entry.Name())
		if entry.IsDir() || m == nil {
			continue
		}

		version, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("invalid migration version in %s: %w", entry.Name(), err)
		}
		content, err := migrationFiles.ReadFile(path.Join("sql", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		mig, ok := byVersion[version]
		if !ok {
			mig = &Migration{Version: version, Name: m[2]}
			byVersion[version] = mig
		}
		if m[3] == "up" {
			mig.Up = string(content)
		} else {
			mig.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		if mig.Up == "" || mig.Down == "" {
			return nil, fmt.Errorf("incomplete migration for version %d", mig.Version)
		}
		migrations = append(migrations, *mig)
	}
	slices.SortFunc(migrations, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })

	return migrations, nil
}

// RunMigrations applies every migration not yet recorded in schema_migrations, each in its own transaction.
func RunMigrations(db *sql.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	if err := ensureMigrationsTable(db); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	for _, mig := range migrations {
		if applied[mig.Version] {
			continue
		}
		err := inTx(db, func(tx *sql.Tx) error {
			if err := execScript(tx, mig.Up); err != nil {
				return err
			}
			_, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", mig.Version, mig.Name, err)
		}
	}
	return nil
}

// RollbackMigration reverts the most recently applied migration.
func RollbackMigration(db *sql.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	var latest sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&latest); err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	if !latest.Valid {
		return errors.New("no migrations to rollback")
	}

	idx := slices.IndexFunc(migrations, func(m Migration) bool { return int64(m.Version) == latest.Int64 })
	if idx < 0 {
		return fmt.Errorf("migration version %d not found", latest.Int64)
	}
	mig := migrations[idx]

	err = inTx(db, func(tx *sql.Tx) error {
		if err := execScript(tx, mig.Down); err != nil {
			return err
		}
		_, err := tx.Exec("DELETE FROM schema_migrations WHERE version = ?", mig.Version)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to rollback migration %d (%s): %w", mig.Version, mig.Name, err)
	}
	return nil
}

func ensureMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func appliedVersions(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}
	defer rows.Close()

	applied := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to check migration status: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func inTx(db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// execScript runs each ";"-separated statement of script, skipping "--" comments and blank statements.
func execScript(tx *sql.Tx, script string) error {
	for _, stmt := range splitStatements(script) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
		}
	}
	return nil
}

func splitStatements(script string) []string {
	var stmts []string
	for _, raw := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			line, _, _ = strings.Cut(line, "--")
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			stmts = append(stmts, strings.Join(lines, "\n"))
		}
	}
	return stmts
}
