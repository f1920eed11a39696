// Package sqlite implements the repository interfaces on SQLite.
//
// The store is an embedded single-file database accessed through
// database/sql. We use modernc.org/sqlite (a pure Go translation of the
// SQLite sources) so the binary cross-compiles without a C toolchain.
//
// Consistency notes that shape this package:
//   - Single statements are atomic; nothing here assumes multi-entity
//     transactions beyond what a *sql.Tx provides locally.
//   - The stars(user_id, idea_id) unique index is the backstop against
//     duplicate star rows from racing toggles.
//   - Counter mutations (stars, forks) happen inside the store — a
//     transaction for the star toggle, a single relative UPDATE for the
//     fork increment — so counters cannot drift from their relations the
//     way application-level read-modify-write would let them.
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool. The repository interfaces are
// implemented by the per-concern accessors (Users, Ideas, Stars, Stats,
// Identities, KV), which all share this pool. The server owns the
// lifecycle: New opens and migrates, Close flushes the WAL and releases
// the file lock on shutdown.
type DB struct {
	conn *sql.DB
}

// Users returns the user-profile repository over this pool.
func (db *DB) Users() *UserRepo { return &UserRepo{conn: db.conn} }

// Ideas returns the idea repository over this pool.
func (db *DB) Ideas() *IdeaRepo { return &IdeaRepo{conn: db.conn} }

// Stars returns the star repository over this pool.
func (db *DB) Stars() *StarRepo { return &StarRepo{conn: db.conn} }

// Stats returns the aggregate-counter repository over this pool.
func (db *DB) Stats() *StatsRepo { return &StatsRepo{conn: db.conn} }

// Identities returns the identity repository over this pool.
func (db *DB) Identities() *IdentityRepo { return &IdentityRepo{conn: db.conn} }

// KV returns the preference key-value repository over this pool.
func (db *DB) KV() *KVRepo { return &KVRepo{conn: db.conn} }

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests for a throwaway in-memory database — but note
// each pool connection gets its own memory database, so concurrent tests
// need a file-backed path.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress — without it
	// SQLite locks the whole file per write.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	// SQLite allows one writer at a time; make concurrent writers wait for
	// the lock instead of failing with SQLITE_BUSY.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Callers should defer this right after New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           TEXT PRIMARY KEY,
			username     TEXT NOT NULL UNIQUE,
			email        TEXT NOT NULL,
			full_name    TEXT NOT NULL DEFAULT '',
			avatar_url   TEXT,
			bio          TEXT,
			location     TEXT,
			website      TEXT,
			joined_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			followers    INTEGER NOT NULL DEFAULT 0,
			following    INTEGER NOT NULL DEFAULT 0,
			public_repos INTEGER NOT NULL DEFAULT 0,
			is_verified  INTEGER NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// forked_from has no foreign key on purpose: deleting an original idea
	// is a hard delete and must not be blocked by (or cascade into) its
	// forks. The lineage reference simply dangles.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS ideas (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			content     TEXT NOT NULL DEFAULT '',
			author_id   TEXT NOT NULL REFERENCES users(id),
			tags        TEXT,
			category    TEXT,
			license     TEXT,
			version     TEXT,
			stars       INTEGER NOT NULL DEFAULT 0,
			forks       INTEGER NOT NULL DEFAULT 0,
			is_fork     INTEGER NOT NULL DEFAULT 0,
			forked_from TEXT,
			visibility  TEXT NOT NULL DEFAULT 'public',
			status      TEXT NOT NULL DEFAULT 'published',
			language    TEXT,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_ideas_author_id  ON ideas(author_id);
		CREATE INDEX IF NOT EXISTS idx_ideas_created_at ON ideas(created_at);
		CREATE INDEX IF NOT EXISTS idx_ideas_stars      ON ideas(stars);
	`)
	if err != nil {
		return fmt.Errorf("creating ideas table: %w", err)
	}

	// The unique (user_id, idea_id) index enforces star-as-set-membership:
	// at most one row per pair, even under concurrent toggles.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS stars (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			idea_id    TEXT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, idea_id)
		);
		CREATE INDEX IF NOT EXISTS idx_stars_idea_id ON stars(idea_id);
	`)
	if err != nil {
		return fmt.Errorf("creating stars table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS identities (
			id                 TEXT PRIMARY KEY,
			email              TEXT NOT NULL UNIQUE,
			password_hash      TEXT NOT NULL DEFAULT '',
			username           TEXT NOT NULL DEFAULT '',
			full_name          TEXT NOT NULL DEFAULT '',
			provider           TEXT NOT NULL DEFAULT 'password',
			email_confirmed_at DATETIME,
			created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating identities table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating kv table: %w", err)
	}

	return nil
}
