package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pvlab-dev/pvlab/internal/api"
)

// Store provides SQLite-backed persistence for the credential record, so
// the session survives a full restart of the console. No other component
// reads or writes this storage directly.
type Store struct {
	db *sql.DB
}

// NewStore opens the SQLite database at dbPath and creates the credential
// table if it doesn't exist.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	// A single-row table: the console holds at most one session.
	schema := `
	CREATE TABLE IF NOT EXISTS credentials (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		token TEXT NOT NULL,
		user_json TEXT NOT NULL,
		saved_at DATETIME NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Save commits the credential record, replacing any previous one.
func (s *Store) Save(token string, user api.User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO credentials (id, token, user_json, saved_at)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET token = excluded.token,
		                               user_json = excluded.user_json,
		                               saved_at = excluded.saved_at`,
		token, string(userJSON), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	return nil
}

// Load reads the persisted credential record. ok is false when no record
// exists; that is not an error.
func (s *Store) Load() (token string, user api.User, ok bool, err error) {
	row := s.db.QueryRow(`SELECT token, user_json FROM credentials WHERE id = 1`)

	var userJSON string
	err = row.Scan(&token, &userJSON)
	if err == sql.ErrNoRows {
		return "", api.User{}, false, nil
	}
	if err != nil {
		return "", api.User{}, false, fmt.Errorf("scan credentials: %w", err)
	}

	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return "", api.User{}, false, fmt.Errorf("unmarshal user: %w", err)
	}

	return token, user, true, nil
}

// Clear removes the persisted credential record.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM credentials WHERE id = 1`); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
