package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteBackend stores records in one table keyed like the original store and
// serves the event-type index from a covering secondary index.
type SQLiteBackend struct {
	db       *sql.DB
	pageSize int
}

func NewSQLiteBackend(path string, pageSize int) (*SQLiteBackend, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	s := &SQLiteBackend{db: db, pageSize: pageSize}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}

func (s *SQLiteBackend) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS log_entries (
		session_id           TEXT NOT NULL,
		interaction_id       TEXT NOT NULL DEFAULT '',
		timestamp            TEXT NOT NULL DEFAULT '',
		event_type           TEXT NOT NULL,
		sort_key             TEXT NOT NULL DEFAULT '',
		content              TEXT NOT NULL DEFAULT '',
		user_question        TEXT NOT NULL DEFAULT '',
		original_ai_response TEXT NOT NULL DEFAULT '',
		admin_id             TEXT NOT NULL DEFAULT '',
		correction_timestamp TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (session_id, interaction_id, timestamp, event_type)
	);

	CREATE INDEX IF NOT EXISTS idx_event_type_timestamp
		ON log_entries(event_type, timestamp, session_id, interaction_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteBackend) Put(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO log_entries (session_id, interaction_id, timestamp, event_type, sort_key, content,
			user_question, original_ai_response, admin_id, correction_timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.InteractionID, rec.Timestamp, rec.EventType, rec.SortKey, rec.Content,
		rec.UserQuestion, rec.OriginalAIResponse, rec.AdminID, rec.CorrectionTimestamp,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s/%s", ErrDuplicate, rec.SessionID, rec.SortKey)
		}
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Query filters by session inside SQL, so pages here are never short.
func (s *SQLiteBackend) Query(ctx context.Context, q Query, token string) (Page, error) {
	where := []string{"event_type = ?"}
	args := []interface{}{q.EventType}
	if q.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, q.SessionID)
	}
	if token != "" {
		after, err := decodeToken(token)
		if err != nil {
			return Page{}, err
		}
		where = append(where, "(timestamp, session_id, interaction_id) < (?, ?, ?)")
		args = append(args, after.Timestamp, after.SessionID, after.InteractionID)
	}
	budget := pageBudget(q, s.pageSize)
	args = append(args, budget+1)

	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, interaction_id, timestamp, event_type, sort_key, content,
			user_question, original_ai_response, admin_id, correction_timestamp
		 FROM log_entries
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY timestamp DESC, session_id DESC, interaction_id DESC
		 LIMIT ?`, args...)
	if err != nil {
		return Page{}, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.SessionID, &r.InteractionID, &r.Timestamp, &r.EventType, &r.SortKey, &r.Content,
			&r.UserQuestion, &r.OriginalAIResponse, &r.AdminID, &r.CorrectionTimestamp); err != nil {
			return Page{}, fmt.Errorf("scan record: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("iterate records: %w", err)
	}

	var p Page
	if len(recs) > budget {
		recs = recs[:budget]
		p.NextToken = encodeToken(cursorOf(recs[budget-1]))
	}
	p.Records = recs
	return p, nil
}
