package session

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// questionSep joins questions in the sessions table.
const questionSep = "\x1f"

// Store provides SQLite-backed persistence for sessions.
type Store struct {
	db *sql.DB
}

// NewStore opens the SQLite database at dbPath and creates tables if they don't exist.
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
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		questions TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		question_index INTEGER NOT NULL,
		question TEXT NOT NULL,
		score TEXT NOT NULL DEFAULT '',
		feedback TEXT NOT NULL DEFAULT '',
		missing_points TEXT NOT NULL DEFAULT '',
		suggestions TEXT NOT NULL DEFAULT '',
		resources TEXT NOT NULL DEFAULT '',
		correct_answer TEXT NOT NULL DEFAULT '',
		answered_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (session_id, question_index),
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateSession records a new active session.
func (s *Store) CreateSession(id string, questions []string) (*Session, error) {
	now := time.Now()

	_, err := s.db.Exec(
		`INSERT INTO sessions (id, questions, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, strings.Join(questions, questionSep), StatusActive, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return &Session{
		ID:        id,
		Questions: append([]string(nil), questions...),
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetSession retrieves a session by ID. Returns nil, nil when not found.
func (s *Store) GetSession(id string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT id, questions, status, created_at, updated_at
		 FROM sessions WHERE id = ?`,
		id,
	)
	return scanSession(row)
}

// GetLatest returns the most recently updated session, or nil when the
// history is empty.
func (s *Store) GetLatest() (*Session, error) {
	row := s.db.QueryRow(
		`SELECT id, questions, status, created_at, updated_at
		 FROM sessions
		 ORDER BY updated_at DESC
		 LIMIT 1`,
	)
	return scanSession(row)
}

func scanSession(row *sql.Row) (*Session, error) {
	var sess Session
	var questions string
	err := row.Scan(&sess.ID, &questions, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if questions != "" {
		sess.Questions = strings.Split(questions, questionSep)
	}
	return &sess, nil
}

// SetStatus updates the status of a session.
func (s *Store) SetStatus(id, status string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// ListSessions returns summaries of the most recent sessions.
func (s *Store) ListSessions(limit int) ([]Summary, error) {
	rows, err := s.db.Query(
		`SELECT s.id, s.status, s.questions, s.updated_at, COALESCE(COUNT(e.id), 0) as answered
		 FROM sessions s
		 LEFT JOIN entries e ON s.id = e.session_id
		 GROUP BY s.id
		 ORDER BY s.updated_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		var questions string
		if err := rows.Scan(&sum.ID, &sum.Status, &questions, &sum.UpdatedAt, &sum.Answered); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if questions != "" {
			sum.Questions = len(strings.Split(questions, questionSep))
		}
		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return summaries, nil
}

// AddEntry records an answered question. Each question index is stored at
// most once per session.
func (s *Store) AddEntry(e Entry) error {
	if e.AnsweredAt.IsZero() {
		e.AnsweredAt = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO entries (session_id, question_index, question, score, feedback,
		                      missing_points, suggestions, resources, correct_answer, answered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Index, e.Question, e.Score, e.Feedback,
		e.MissingPoints, e.Suggestions, e.Resources, e.CorrectAnswer, e.AnsweredAt,
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	if _, err := tx.Exec(`UPDATE sessions SET updated_at = ? WHERE id = ?`, e.AnsweredAt, e.SessionID); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entry: %w", err)
	}
	return nil
}

// GetEntries retrieves all entries for a session in question order.
func (s *Store) GetEntries(sessionID string) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, question_index, question, score, feedback,
		        missing_points, suggestions, resources, correct_answer, answered_at
		 FROM entries
		 WHERE session_id = ?
		 ORDER BY question_index ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Index, &e.Question, &e.Score, &e.Feedback,
			&e.MissingPoints, &e.Suggestions, &e.Resources, &e.CorrectAnswer, &e.AnsweredAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}
