// Package journal records every session turn in a local SQLite database.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ashwch/determinal/internal/appdirs"
	"github.com/ashwch/determinal/internal/safety"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const maxTextLength = 8192

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT    NOT NULL,
	input      TEXT    NOT NULL,
	backend    TEXT    NOT NULL DEFAULT '',
	model      TEXT    NOT NULL DEFAULT '',
	decision   TEXT    NOT NULL DEFAULT '',
	command    TEXT    NOT NULL DEFAULT '',
	executed   INTEGER NOT NULL DEFAULT 0,
	exit_code  INTEGER NOT NULL DEFAULT 0,
	error      TEXT    NOT NULL DEFAULT '',
	created_at TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS turns_created_at ON turns (created_at);
`

type Turn struct {
	ID        int64
	SessionID string
	Input     string
	Backend   string
	Model     string
	Decision  string
	Command   string
	Executed  bool
	ExitCode  int
	Error     string
	CreatedAt time.Time
}

type Store struct {
	db        *sql.DB
	sessionID string
}

// OpenDefault opens the journal in the state directory.
func OpenDefault() (*Store, error) {
	if _, err := appdirs.EnsureStateDir(); err != nil {
		return nil, err
	}
	path, err := appdirs.JournalPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Open creates the database at path if needed. Each Store gets a fresh
// session id.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("could not open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not initialize journal: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not secure journal permissions: %w", err)
	}
	return &Store{db: db, sessionID: uuid.NewString()}, nil
}

func (s *Store) SessionID() string {
	return s.sessionID
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores one turn. Input, command and error text are redacted first.
func (s *Store) Record(ctx context.Context, turn Turn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	if turn.SessionID == "" {
		turn.SessionID = s.sessionID
	}
	input := clean(turn.Input)
	if input == "" {
		return fmt.Errorf("turn input cannot be empty")
	}
	executed := 0
	if turn.Executed {
		executed = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (session_id, input, backend, model, decision, command, executed, exit_code, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		turn.SessionID,
		input,
		turn.Backend,
		turn.Model,
		turn.Decision,
		clean(turn.Command),
		executed,
		turn.ExitCode,
		clean(turn.Error),
		turn.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("could not record turn: %w", err)
	}
	return nil
}

// Recent returns up to limit turns, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, input, backend, model, decision, command, executed, exit_code, error, created_at
		 FROM turns ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("could not query journal: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var (
			t         Turn
			executed  int
			createdAt string
		)
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Input, &t.Backend, &t.Model, &t.Decision, &t.Command, &executed, &t.ExitCode, &t.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("could not read journal row: %w", err)
		}
		t.Executed = executed != 0
		if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			t.CreatedAt = parsed
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not read journal: %w", err)
	}
	return turns, nil
}

func clean(text string) string {
	text = strings.TrimSpace(safety.RedactText(text))
	if len(text) > maxTextLength {
		text = text[:maxTextLength]
	}
	return text
}
