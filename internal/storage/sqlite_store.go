package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/TheMichaelB/guestvault/internal/events"
)

// SQLiteStore implements slot storage in a single SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *events.Logger
}

// NewSQLiteStore opens (or creates) a SQLite slot store.
func NewSQLiteStore(dbPath string, logger *events.Logger) (*SQLiteStore, error) {
	// Connection options apply to every pooled connection; secure_delete
	// zeroes freed pages.
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000&_secure_delete=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		logger: logger.WithField("component", "sqlite_slot_store"),
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return store, nil
}

// initialize creates tables.
func (s *SQLiteStore) initialize() error {
	schema := `
    CREATE TABLE IF NOT EXISTS slots (
        key TEXT PRIMARY KEY,
        value BLOB NOT NULL,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    );
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Read retrieves a slot value.
func (s *SQLiteStore) Read(key string) ([]byte, error) {
	if !validKey.MatchString(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	var value []byte
	err := s.db.QueryRow(`SELECT value FROM slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query slot: %w", err)
	}

	return value, nil
}

// Write upserts a slot value.
func (s *SQLiteStore) Write(key string, data []byte) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	s.logger.WithFields(map[string]interface{}{
		"slot": key,
		"size": len(data),
	}).Debug("Writing slot to SQLite")

	if data == nil {
		data = []byte{}
	}

	_, err := s.db.Exec(`
        INSERT INTO slots (key, value, updated_at)
        VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(key) DO UPDATE SET
            value = excluded.value,
            updated_at = CURRENT_TIMESTAMP
    `, key, data)
	if err != nil {
		return fmt.Errorf("upsert slot: %w", err)
	}

	return nil
}

// Delete removes a slot.
func (s *SQLiteStore) Delete(key string) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	s.logger.WithField("slot", key).Debug("Deleting slot from SQLite")

	if _, err := s.db.Exec(`DELETE FROM slots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	return nil
}

// Exists checks if a slot exists.
func (s *SQLiteStore) Exists(key string) (bool, error) {
	if !validKey.MatchString(key) {
		return false, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM slots WHERE key = ?`, key).Scan(&n); err != nil {
		return false, fmt.Errorf("query slot: %w", err)
	}

	return n > 0, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
