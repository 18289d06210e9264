package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zhouzirui/z-guardian/backend/internal/metrics"
	"github.com/zhouzirui/z-guardian/backend/internal/model/call"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore persists history in a local SQLite file.
type SQLiteStore struct {
	db         *sql.DB
	maxEntries int
}

// NewSQLiteStore opens or creates the database at dbPath. ":memory:" is accepted.
// maxEntries <= 0 keeps every entry.
func NewSQLiteStore(dbPath string, maxEntries int) (*SQLiteStore, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = dbPath + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	s := &SQLiteStore{db: db, maxEntries: maxEntries}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS call_history (
		id               TEXT PRIMARY KEY,
		session_id       TEXT NOT NULL,
		ai_name          TEXT NOT NULL,
		started_at       TEXT NOT NULL,
		ended_at         TEXT NOT NULL,
		duration_seconds INTEGER NOT NULL,
		message_count    INTEGER NOT NULL,
		has_alerts       INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_call_history_ended ON call_history(ended_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record implements Recorder.
func (s *SQLiteStore) Record(ctx context.Context, entry call.HistoryEntry) error {
	if entry.ID == "" {
		return ErrInvalidEntry
	}
	start := time.Now()
	defer func() {
		metrics.HistoryWriteLatency.WithLabelValues("sqlite").Observe(time.Since(start).Seconds())
	}()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO call_history (id, session_id, ai_name, started_at, ended_at, duration_seconds, message_count, has_alerts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.SessionID, entry.AIName,
		entry.StartedAt.UTC().Format(timeLayout),
		entry.EndedAt.UTC().Format(timeLayout),
		entry.DurationSeconds, entry.MessageCount, boolToInt(entry.HasAlerts),
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}

	if s.maxEntries > 0 {
		_, err = s.db.ExecContext(ctx,
			`DELETE FROM call_history WHERE id NOT IN (
				SELECT id FROM call_history ORDER BY ended_at DESC, id DESC LIMIT ?
			)`, s.maxEntries)
		if err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]call.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, ai_name, started_at, ended_at, duration_seconds, message_count, has_alerts
		 FROM call_history ORDER BY ended_at DESC, id DESC LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []call.HistoryEntry
	for rows.Next() {
		var (
			entry          call.HistoryEntry
			started, ended string
			hasAlerts      int
		)
		if err := rows.Scan(&entry.ID, &entry.SessionID, &entry.AIName, &started, &ended,
			&entry.DurationSeconds, &entry.MessageCount, &hasAlerts); err != nil {
			return nil, err
		}
		var errStart, errEnd error
		entry.StartedAt, errStart = time.Parse(timeLayout, started)
		entry.EndedAt, errEnd = time.Parse(timeLayout, ended)
		if errStart != nil || errEnd != nil {
			// Skip rows with corrupt timestamps.
			continue
		}
		entry.HasAlerts = hasAlerts != 0
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
