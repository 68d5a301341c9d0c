// Package sqlite implements the repository interfaces on SQLite.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary needs
// no C toolchain. Use a file path for local development and ":memory:" in
// tests.
//
// SQLite serializes writers anyway, and an in-memory database exists per
// connection, so the pool is capped at one connection. A transaction
// therefore owns the whole database until it finishes: code inside WithTx
// must only use the Store it is handed.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/pathnova/pathnova-api/internal/repository"
)

var _ repository.Database = (*DB)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx, so every repository
// method works the same inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// store binds the repositories to one querier.
type store struct {
	q querier
}

func (s store) Users() repository.UserRepository                 { return userRepo{s.q} }
func (s store) AuthProviders() repository.AuthProviderRepository { return authProviderRepo{s.q} }
func (s store) Submissions() repository.SubmissionRepository     { return submissionRepo{s.q} }
func (s store) Plans() repository.PlanRepository                 { return planRepo{s.q} }

// DB wraps the sql.DB pool.
type DB struct {
	store
	conn *sql.DB
}

// New opens (creating if needed) the database at dbPath and migrates it.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Off by default in SQLite; auth_providers and learning_plans rely on
	// ON DELETE CASCADE.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{store: store{q: conn}, conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// WithTx runs fn in a transaction, committing on success.
func (db *DB) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	if err := fn(store{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("sqlite: rolling back: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			email      TEXT UNIQUE,
			name       TEXT,
			created_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// (provider, subject) is the identity of a link; one user may have many.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS auth_providers (
			provider      TEXT NOT NULL,
			subject       TEXT NOT NULL,
			user_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			email_at_link TEXT,
			last_login_at TEXT NOT NULL,
			created_at    TEXT NOT NULL,
			PRIMARY KEY (provider, subject)
		);
		CREATE INDEX IF NOT EXISTS idx_auth_providers_user_id ON auth_providers(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating auth_providers table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS submissions (
			id                TEXT PRIMARY KEY,
			submission_id     TEXT NOT NULL UNIQUE,
			form_id           TEXT NOT NULL,
			user_id           TEXT REFERENCES users(id) ON DELETE SET NULL,
			name              TEXT,
			email             TEXT,
			career_level      TEXT,
			career_goal       TEXT,
			industry          TEXT,
			target_role       TEXT,
			skills            TEXT,
			career_challenges TEXT,
			coaching_style    TEXT,
			target_timeline   TEXT,
			study_time        TEXT,
			pressure_response TEXT,
			answers           TEXT NOT NULL,
			received_at       TEXT NOT NULL,
			updated_at        TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_submissions_user_received ON submissions(user_id, received_at);
		CREATE INDEX IF NOT EXISTS idx_submissions_email ON submissions(email);
	`)
	if err != nil {
		return fmt.Errorf("creating submissions table: %w", err)
	}

	// tech_stack was added after the first form version went live.
	if err := db.addColumnIfNotExists("submissions", "tech_stack", "TEXT"); err != nil {
		return fmt.Errorf("adding tech_stack to submissions: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS learning_plans (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			fingerprint TEXT NOT NULL,
			model       TEXT NOT NULL,
			plan        TEXT NOT NULL,
			created_at  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_learning_plans_lookup ON learning_plans(user_id, fingerprint, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating learning_plans table: %w", err)
	}

	return nil
}

// addColumnIfNotExists makes ALTER TABLE ADD COLUMN idempotent.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition))
	return err
}

// Timestamps are stored as fixed-width UTC text so that ORDER BY on the
// column is chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// Primary result code only, when extended codes are off.
		return strings.Contains(se.Error(), "UNIQUE constraint failed")
	}
	return false
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
