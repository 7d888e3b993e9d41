// Package history provides the SQLite-backed log of question/answer exchanges.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS exchanges (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	mode          TEXT NOT NULL,
	question      TEXT NOT NULL,
	question_hash TEXT NOT NULL,
	answer        TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_exchanges_created_at ON exchanges(created_at);
CREATE INDEX IF NOT EXISTS idx_exchanges_question_hash ON exchanges(question_hash);
`

// Exchange modes.
const (
	ModeQuestion = "question"
	ModeChat     = "chat"
)

const (
	defaultRecent = 20
	maxRecent     = 200
)

// Exchange is one recorded question/answer pair.
type Exchange struct {
	ID           int64     `json:"id"`
	Mode         string    `json:"mode"`
	Question     string    `json:"question"`
	QuestionHash string    `json:"questionHash"`
	Answer       string    `json:"answer"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Log defines the interface for exchange recording. Consumers should
// depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type Log interface {
	Record(ex Exchange) error
	Recent(limit int) ([]Exchange, error)
	Close() error
}

// Verify *DB satisfies Log at compile time.
var _ Log = (*DB)(nil)

// DB wraps a sql.DB with history operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Record appends one exchange. A zero CreatedAt is filled with the
// current time.
func (db *DB) Record(ex Exchange) error {
	created := ex.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO exchanges (mode, question, question_hash, answer, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, ex.Mode, ex.Question, ex.QuestionHash, ex.Answer, created)
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

// Recent returns the newest exchanges, newest first. A non-positive or
// oversized limit falls back to the default page size.
func (db *DB) Recent(limit int) ([]Exchange, error) {
	if limit <= 0 || limit > maxRecent {
		limit = defaultRecent
	}
	rows, err := db.conn.Query(`
		SELECT id, mode, question, question_hash, answer, created_at
		FROM exchanges
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		var ex Exchange
		if err := rows.Scan(&ex.ID, &ex.Mode, &ex.Question, &ex.QuestionHash, &ex.Answer, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}
