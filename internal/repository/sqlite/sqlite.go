// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary needs
// no C toolchain. database/sql gives us the connection pool; every request
// borrows a connection for the duration of a statement or transaction.
//
// CONCURRENCY:
// Uniqueness is enforced by the schema, never by application locks. Writers
// that race on the same key (two sign-ins for one GitHub account, two follows
// of one package) are resolved by ON CONFLICT clauses in a single statement.
// busy_timeout makes a writer wait for the database lock instead of failing
// immediately, and _txlock=immediate takes the write lock at BEGIN so
// multi-statement transactions never deadlock on lock upgrade.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/package-registry/internal/repository/sqlite/migrations"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so the same query code
// runs standalone or inside withTx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps a sql.DB connection pool and hands out the per-table repositories.
type DB struct {
	conn *sql.DB
}

// memoryPath opens a private in-memory database. Every pooled connection to
// ":memory:" would get its own empty database, so the pool is pinned to one.
const memoryPath = ":memory:"

// New opens (or creates) the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/registry.db" → file-based database
//   - ":memory:"         → in-memory database, used by tests
func New(dbPath string) (*DB, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("sqlite: database path is required")
	}

	dsn := dbPath
	if dbPath != memoryPath {
		dsn = dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if dbPath == memoryPath {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if dbPath == memoryPath {
		if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
		}
	}

	db := &DB{conn: conn}

	if err := db.migrate(migrations.FS); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the Identity Store backed by this database.
func (db *DB) Users() *UserDB { return &UserDB{db: db} }

// Packages returns the package/version repository backed by this database.
func (db *DB) Packages() *PackageDB { return &PackageDB{db: db} }

// Follows returns the Follow Registry backed by this database.
func (db *DB) Follows() *FollowDB { return &FollowDB{db: db} }

// Feed returns the feed reader backed by this database.
func (db *DB) Feed() *FeedDB { return &FeedDB{db: db} }

// withTx runs fn inside a transaction. fn's error rolls the transaction back
// and is returned unchanged so typed apperrors survive.
func (db *DB) withTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("sqlite: rollback: %v after: %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

const migrationTable = "schema_migrations"

// migrate applies every embedded *.sql file at most once, in name order.
// Only the section after "-- +migrate Up" is executed.
func (db *DB) migrate(migrationFS fs.FS) error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
			name       TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating %s table: %w", migrationTable, err)
	}

	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		var applied int
		err := db.conn.QueryRow(
			`SELECT COUNT(*) FROM `+migrationTable+` WHERE name = ?`, name,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("checking migration %s: %w", name, err)
		}
		if applied > 0 {
			continue
		}

		content, err := fs.ReadFile(migrationFS, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		err = db.withTx(context.Background(), func(q querier) error {
			if _, err := q.ExecContext(context.Background(), upSection(string(content))); err != nil {
				return fmt.Errorf("applying migration %s: %w", name, err)
			}
			_, err := q.ExecContext(context.Background(),
				`INSERT INTO `+migrationTable+` (name, applied_at) VALUES (?, ?)`,
				name, toMillis(time.Now()),
			)
			return err
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// upSection returns the SQL between "-- +migrate Up" and "-- +migrate Down".
func upSection(content string) string {
	const up, down = "-- +migrate Up", "-- +migrate Down"
	if i := strings.Index(content, up); i >= 0 {
		content = content[i+len(up):]
	}
	if i := strings.Index(content, down); i >= 0 {
		content = content[:i]
	}
	return content
}

// Timestamps are stored as UTC unix milliseconds so ORDER BY on them is a
// plain integer comparison.
func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// isConstraintError reports whether err is a UNIQUE / PRIMARY KEY violation.
func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT ||
		code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
