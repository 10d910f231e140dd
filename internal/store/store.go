package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - nothing applied yet (fresh file or pre-versioning database)
// 1 - baseline events table
// 2 - endX, endY, intensity columns
// 3 - read-path indexes
const currentSchemaVersion = 3

// Queue is the durable, ordered store of pending interaction events.
//
// Queue itself performs no locking beyond what SQLite provides. The engine
// confines every call to its single goroutine, which gives appends, reads and
// deletes a total order.
type Queue struct {
	db *sql.DB
}

// Open creates or opens the queue database at path and brings its schema up
// to date.
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Queue, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time; pragmas are per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Queue{db: db}, nil
}

// Close closes the database connection.
func (q *Queue) Close() error {
	if q.db == nil {
		return nil
	}
	return q.db.Close()
}

// SchemaVersion returns the applied migration level.
func (q *Queue) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := q.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates the baseline table if missing and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// migration moves the schema from version-1 to version.
type migration struct {
	version    int
	statements []string
}

// migrations are additive: new nullable or defaulted columns and indexes only.
var migrations = []migration{
	{version: 1},
	{
		version: 2,
		statements: []string{
			"ALTER TABLE events ADD COLUMN endX REAL",
			"ALTER TABLE events ADD COLUMN endY REAL",
			"ALTER TABLE events ADD COLUMN intensity REAL NOT NULL DEFAULT 1.0",
		},
	},
	{
		version: 3,
		statements: []string{
			"CREATE INDEX IF NOT EXISTS idx_events_order ON events(timestamp, id)",
			"CREATE INDEX IF NOT EXISTS idx_events_screen ON events(screenName)",
		},
	},
}

// runMigrations applies each pending migration in its own transaction and
// records the new user_version alongside it.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	for _, m := range migrations {
		if version >= m.version {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return err
		}
		version = m.version
	}

	if version != currentSchemaVersion {
		return fmt.Errorf("schema version %d, expected %d", version, currentSchemaVersion)
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate to v%d: begin tx: %w", m.version, err)
	}
	defer tx.Rollback() // No-op if committed

	for _, stmt := range m.statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return fmt.Errorf("migrate to v%d: set user_version: %w", m.version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate to v%d: commit: %w", m.version, err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (q *Queue) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := q.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
