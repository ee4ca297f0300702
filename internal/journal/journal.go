package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/factoid/internal/fact"
	"github.com/roach88/factoid/internal/notify"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema
const currentSchemaVersion = 1

// Journal is an append-only SQLite record of delivered notifications.
//
// It journals what the bus emitted, nothing more: facts are never loaded
// back from it, and the store does not know it exists. Its purpose is
// offline inspection of a session's notification trace via the CLI.
type Journal struct {
	db *sql.DB
}

// Open creates or opens a journal database at the given path.
// Applies required pragmas and the schema automatically; idempotent.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY errors from the engine's flush path.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends one flushed batch under the given tick, in batch order.
// Implements engine.Sink. The batch is written in a single transaction so
// a crash cannot leave a partial tick in the trace.
func (j *Journal) Record(ctx context.Context, tick int64, batch []notify.Notification) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal tx: %w", err)
	}
	defer tx.Rollback()

	for seq, n := range batch {
		valueJSON, err := fact.MarshalValue(n.Value)
		if err != nil {
			return fmt.Errorf("marshal value for %s/%s: %w", n.Kind, n.Key, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO notifications (tick, seq, kind, key, value)
			VALUES (?, ?, ?, ?, ?)
		`, tick, seq, n.Kind.String(), n.Key, string(valueJSON))
		if err != nil {
			return fmt.Errorf("insert notification tick=%d seq=%d: %w", tick, seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal tx: %w", err)
	}
	return nil
}

// Entry is one journaled notification.
type Entry struct {
	Tick  int64
	Seq   int64
	Kind  fact.Kind
	Key   string
	Value fact.Value
}

// ReadTrace returns the full trace ordered by (tick, seq).
func (j *Journal) ReadTrace(ctx context.Context) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT tick, seq, kind, key, value
		FROM notifications
		ORDER BY tick, seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query trace: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kindName, valueJSON string
		if err := rows.Scan(&e.Tick, &e.Seq, &kindName, &e.Key, &valueJSON); err != nil {
			return nil, fmt.Errorf("scan trace row: %w", err)
		}
		e.Kind, err = fact.ParseKind(kindName)
		if err != nil {
			return nil, fmt.Errorf("trace row tick=%d seq=%d: %w", e.Tick, e.Seq, err)
		}
		e.Value, err = fact.UnmarshalValue([]byte(valueJSON))
		if err != nil {
			return nil, fmt.Errorf("trace row tick=%d seq=%d: %w", e.Tick, e.Seq, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trace: %w", err)
	}
	return entries, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and stamps the version.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}
