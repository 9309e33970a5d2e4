package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ashureev/mindbloom/internal/domain"
	"github.com/ashureev/mindbloom/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // serializes writers to avoid SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// modernc.org/sqlite applies _pragma values on every new connection.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		user_message TEXT NOT NULL,
		response TEXT NOT NULL,
		follow_up TEXT,
		mood TEXT,
		risk_level TEXT NOT NULL,
		source TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(user_id, session_id, id);
	CREATE INDEX IF NOT EXISTS idx_turns_created ON turns(created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RecordTurn appends a turn. Busy/locked errors are retried with backoff.
func (s *SQLiteStore) RecordTurn(ctx context.Context, turn *domain.Turn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	var followUp, mood interface{}
	if turn.FollowUp != "" {
		followUp = turn.FollowUp
	}
	if turn.Mood != "" {
		mood = string(turn.Mood)
	}

	query := `
	INSERT INTO turns (user_id, session_id, user_message, response, follow_up, mood, risk_level, source, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return withRetry(ctx, "record turn", func() error {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()

		result, err := s.db.ExecContext(ctx, query,
			turn.UserID, turn.SessionID, turn.UserMessage, turn.Response,
			followUp, mood, string(turn.RiskLevel), string(turn.Source),
			turn.CreatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
		if id, err := result.LastInsertId(); err == nil {
			turn.ID = id
		}
		return nil
	})
}

// ListTurns returns up to limit most recent turns for a session, oldest first.
func (s *SQLiteStore) ListTurns(ctx context.Context, userID, sessionID string, limit int) ([]*domain.Turn, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, user_id, session_id, user_message, response, follow_up,
		       mood, risk_level, source, created_at
		FROM (
			SELECT * FROM turns WHERE user_id = ? AND session_id = ?
			ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, userID, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close turn rows", "error", closeErr)
		}
	}()

	var turns []*domain.Turn
	for rows.Next() {
		var turn domain.Turn
		var followUp, mood sql.NullString
		var riskLevel, source string
		var createdAt int64

		if err := rows.Scan(
			&turn.ID, &turn.UserID, &turn.SessionID, &turn.UserMessage, &turn.Response,
			&followUp, &mood, &riskLevel, &source, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}

		turn.FollowUp = followUp.String
		turn.Mood = domain.MoodTag(mood.String)
		turn.RiskLevel = domain.RiskLevel(riskLevel)
		turn.Source = domain.ReplySource(source)
		turn.CreatedAt = time.UnixMilli(createdAt)
		turns = append(turns, &turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	return turns, nil
}

// DeleteSession removes every turn of a session.
func (s *SQLiteStore) DeleteSession(ctx context.Context, userID, sessionID string) (int64, error) {
	var deleted int64
	err := withRetry(ctx, "delete session", func() error {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()

		result, err := s.db.ExecContext(ctx, `DELETE FROM turns WHERE user_id = ? AND session_id = ?`, userID, sessionID)
		if err != nil {
			return fmt.Errorf("delete turns: %w", err)
		}
		deleted, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		return nil
	})
	return deleted, err
}

// CountCrisisTurns returns how many recorded turns were escalated.
func (s *SQLiteStore) CountCrisisTurns(ctx context.Context) (int64, error) {
	var n int64
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM turns WHERE risk_level = ?`, string(domain.RiskHigh))
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count crisis turns: %w", err)
	}
	return n, nil
}

// CleanupOlderThan removes turns older than retention.
func (s *SQLiteStore) CleanupOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	threshold := time.Now().Add(-retention).UnixMilli()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM turns WHERE created_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("cleanup old turns: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// withRetry runs op up to three times, backing off on SQLite conflicts.
func withRetry(ctx context.Context, name string, op func() error) error {
	const maxRetries = 3
	baseDelay := 50 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = op()
		if err == nil || !shared.IsSQLiteConflictError(err) {
			return err
		}
		if i == maxRetries-1 {
			break
		}
		delay := baseDelay * time.Duration(1<<i) // 50ms, 100ms
		slog.Debug("SQLite busy, retrying", "op", name, "attempt", i+1, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, maxRetries, err)
}

var _ Repository = (*SQLiteStore)(nil)
