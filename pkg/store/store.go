// Package store persists chat transcripts in a local SQLite database. One
// transcript per chat session: the mode it ran under plus the ordered
// messages both sides produced.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS transcripts (
    id         TEXT PRIMARY KEY,
    mode       TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
    id            TEXT PRIMARY KEY,
    transcript_id TEXT NOT NULL REFERENCES transcripts(id) ON DELETE CASCADE,
    role          TEXT NOT NULL,
    content       TEXT NOT NULL,
    filename      TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_transcript ON messages(transcript_id, created_at);
`

type Transcript struct {
	ID        string
	Mode      string
	StartedAt time.Time
	// Messages is the message count, populated by ListTranscripts.
	Messages int
}

type Message struct {
	ID           string
	TranscriptID string
	Role         string
	Content      string
	Filename     string
	CreatedAt    time.Time
}

// BeginTranscript opens a new transcript for a chat session and returns its
// ID.
func (s *Store) BeginTranscript(ctx context.Context, mode string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcripts (id, mode, started_at) VALUES (?, ?, ?)`,
		id, mode, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("creating transcript: %w", err)
	}
	return id, nil
}

// AppendMessage records one chat bubble. Role is "user" or "assistant";
// filename is set when the message carried an attachment.
func (s *Store) AppendMessage(ctx context.Context, transcriptID, role, content, filename string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, transcript_id, role, content, filename, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), transcriptID, role, content, filename, time.Now().UTC(),
	)
	return err
}

// ListTranscripts returns the most recent transcripts with their message
// counts, newest first.
func (s *Store) ListTranscripts(ctx context.Context, limit int) ([]Transcript, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.mode, t.started_at, COUNT(m.id)
		 FROM transcripts t
		 LEFT JOIN messages m ON m.transcript_id = t.id
		 GROUP BY t.id
		 ORDER BY t.started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ts []Transcript
	for rows.Next() {
		var t Transcript
		if err := rows.Scan(&t.ID, &t.Mode, &t.StartedAt, &t.Messages); err != nil {
			return nil, err
		}
		ts = append(ts, t)
	}
	return ts, rows.Err()
}

// Messages returns a transcript's messages in the order they were recorded.
func (s *Store) Messages(ctx context.Context, transcriptID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, transcript_id, role, content, filename, created_at
		 FROM messages WHERE transcript_id = ?
		 ORDER BY created_at, id`,
		transcriptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.TranscriptID, &m.Role, &m.Content, &m.Filename, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
