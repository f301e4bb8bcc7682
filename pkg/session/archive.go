package session

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Archive stores finished session records in SQLite so past interviews
// can be queried without walking the session directories.
type Archive struct {
	db    *sql.DB
	log   *slog.Logger
	clock func() time.Time
}

// OpenArchive opens (or creates) the SQLite archive at path.
func OpenArchive(ctx context.Context, path string, log *slog.Logger) (*Archive, error) {
	if log == nil {
		log = slog.Default()
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	a := &Archive{db: db, log: log, clock: time.Now}

	if err := a.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return a, nil
}

func (a *Archive) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS sessions (
    session_id TEXT PRIMARY KEY,
    started_at TIMESTAMP NOT NULL,
    ended_at TIMESTAMP NOT NULL,
    duration_seconds REAL NOT NULL,
    total_questions INTEGER NOT NULL,
    archived_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS answers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    question_id INTEGER NOT NULL,
    question_text TEXT NOT NULL,
    transcript TEXT NOT NULL,
    answered_at TIMESTAMP NOT NULL,
    FOREIGN KEY(session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_answers_session ON answers(session_id);
`
	_, err := a.db.ExecContext(ctx, ddl)
	return err
}

// Save archives a finished session record and its answers atomically.
func (a *Archive) Save(ctx context.Context, rec Record) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions(session_id, started_at, ended_at, duration_seconds, total_questions, archived_at)
		 VALUES(?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		     ended_at=excluded.ended_at,
		     duration_seconds=excluded.duration_seconds,
		     total_questions=excluded.total_questions,
		     archived_at=excluded.archived_at`,
		rec.SessionID,
		rec.StartTime.UTC().Format(time.RFC3339Nano),
		rec.EndTime.UTC().Format(time.RFC3339Nano),
		rec.DurationSeconds,
		rec.TotalQuestions,
		a.clock().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM answers WHERE session_id = ?`, rec.SessionID); err != nil {
		return fmt.Errorf("clear answers: %w", err)
	}

	for _, ans := range rec.Answers {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO answers(session_id, question_id, question_text, transcript, answered_at)
			 VALUES(?, ?, ?, ?, ?)`,
			rec.SessionID, ans.QuestionID, ans.QuestionText, ans.Transcript,
			ans.Timestamp.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	a.log.Info("session archived",
		"session_id", rec.SessionID,
		"answers", len(rec.Answers),
	)
	return nil
}

// Load reads an archived session record back by ID.
func (a *Archive) Load(ctx context.Context, sessionID string) (*Record, error) {
	var rec Record
	var started, ended string
	err := a.db.QueryRowContext(ctx,
		`SELECT session_id, started_at, ended_at, duration_seconds, total_questions
		 FROM sessions WHERE session_id = ?`, sessionID).
		Scan(&rec.SessionID, &started, &ended, &rec.DurationSeconds, &rec.TotalQuestions)
	if err != nil {
		return nil, err
	}
	if ts, err := time.Parse(time.RFC3339Nano, started); err == nil {
		rec.StartTime = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, ended); err == nil {
		rec.EndTime = ts
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT question_id, question_text, transcript, answered_at
		 FROM answers WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ans Answer
		var answered string
		if err := rows.Scan(&ans.QuestionID, &ans.QuestionText, &ans.Transcript, &answered); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, answered); err == nil {
			ans.Timestamp = ts
		}
		rec.Answers = append(rec.Answers, ans)
	}
	return &rec, rows.Err()
}

// ListSessions returns archived session IDs, most recent first.
func (a *Archive) ListSessions(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT session_id FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close releases the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}
