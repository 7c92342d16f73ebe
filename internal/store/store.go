package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite export of a class model.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for ad-hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS packages (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  name            TEXT NOT NULL,
  parent_id       INTEGER REFERENCES packages(id),
  file            TEXT,
  line            INTEGER,
  col             INTEGER
);

CREATE TABLE IF NOT EXISTS classes (
  id              INTEGER PRIMARY KEY,
  name            TEXT NOT NULL UNIQUE,
  package_id      INTEGER REFERENCES packages(id),
  ordinal         INTEGER NOT NULL,
  kind            TEXT NOT NULL,
  modifiers       TEXT,
  generics        TEXT,
  header          TEXT,
  file            TEXT,
  line            INTEGER,
  col             INTEGER
);

CREATE TABLE IF NOT EXISTS members (
  id              INTEGER PRIMARY KEY,
  class_id        INTEGER NOT NULL REFERENCES classes(id),
  kind            TEXT NOT NULL,
  ordinal         INTEGER NOT NULL,
  name            TEXT NOT NULL,
  modifiers       TEXT,
  generics        TEXT,
  type_expr       TEXT,
  signature       TEXT NOT NULL,
  is_static       BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS parameters (
  id              INTEGER PRIMARY KEY,
  member_id       INTEGER NOT NULL REFERENCES members(id),
  ordinal         INTEGER NOT NULL,
  type_expr       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS supertypes (
  id              INTEGER PRIMARY KEY,
  class_id        INTEGER NOT NULL REFERENCES classes(id),
  kind            TEXT NOT NULL,
  ordinal         INTEGER NOT NULL,
  name            TEXT NOT NULL,
  type_expr       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS upcasts (
  class_id        INTEGER NOT NULL REFERENCES classes(id),
  target          TEXT NOT NULL,
  PRIMARY KEY (class_id, target)
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT
);

CREATE INDEX IF NOT EXISTS idx_packages_parent ON packages(parent_id);
CREATE INDEX IF NOT EXISTS idx_classes_package ON classes(package_id);
CREATE INDEX IF NOT EXISTS idx_members_class ON members(class_id);
CREATE INDEX IF NOT EXISTS idx_members_name ON members(name);
CREATE INDEX IF NOT EXISTS idx_parameters_member ON parameters(member_id);
CREATE INDEX IF NOT EXISTS idx_supertypes_class ON supertypes(class_id);
CREATE INDEX IF NOT EXISTS idx_supertypes_name ON supertypes(name);
CREATE INDEX IF NOT EXISTS idx_upcasts_target ON upcasts(target);
`

// Clear removes every exported row.
func (s *Store) Clear() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := clearTx(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// clearTx deletes in reverse-dependency order to respect FK constraints.
func clearTx(tx *sql.Tx) error {
	for _, q := range []string{
		"DELETE FROM upcasts",
		"DELETE FROM supertypes",
		"DELETE FROM parameters",
		"DELETE FROM members",
		"DELETE FROM classes",
		"DELETE FROM packages",
	} {
		if _, err := tx.Exec(q); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
	}
	return nil
}

// SetMetadata stores a key/value pair, replacing any previous value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %q: %w", key, err)
	}
	return nil
}

// GetMetadata returns the value for key, or "" if unset.
func (s *Store) GetMetadata(key string) (string, error) {
	var value sql.NullString
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %q: %w", key, err)
	}
	return value.String, nil
}
