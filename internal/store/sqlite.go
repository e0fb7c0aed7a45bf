package store

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/gameticharles/symexpr"

	_ "modernc.org/sqlite"
)

// Current schema version
const SchemaVersion = "1"

// SQLite is a SQLite-backed store. Expressions are persisted in their
// canonical textual rendering and parsed on load.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite creates a new SQLite store at the given path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Create tables if not exists
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS expressions (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db}

	version, err := s.getMetadata("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}
	switch version {
	case "":
		if err := s.setMetadata("schema_version", SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	case SchemaVersion:
	default:
		db.Close()
		return nil, fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}

	return s, nil
}

func (s *SQLite) getMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *SQLite) setMetadata(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// Get retrieves an expression by name.
func (s *SQLite) Get(name string) (*symexpr.Expr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var src string
	err := s.db.QueryRow(`SELECT value FROM expressions WHERE name = ?`, name).Scan(&src)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e, err := symexpr.ParseString(src)
	if err != nil {
		return nil, fmt.Errorf("stored expression %q is corrupt: %w", name, err)
	}
	return e, nil
}

// Put stores an expression by name.
func (s *SQLite) Put(name string, e *symexpr.Expr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO expressions (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value`, name, e.String())
	return err
}

// Delete removes an expression by name.
func (s *SQLite) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM expressions WHERE name = ?`, name)
	return err
}

// List returns all stored expressions.
func (s *SQLite) List() (map[string]*symexpr.Expr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(`SELECT name, value FROM expressions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]*symexpr.Expr)
	for rows.Next() {
		var name, src string
		if err := rows.Scan(&name, &src); err != nil {
			return nil, err
		}
		e, err := symexpr.ParseString(src)
		if err != nil {
			return nil, fmt.Errorf("stored expression %q is corrupt: %w", name, err)
		}
		out[name] = e
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
