// Package store provides transcript persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/mindbloom/internal/domain"
)

// Repository records conversation turns for audit. It is never used to
// restore engine state.
type Repository interface {
	// RecordTurn appends one exchange to a session transcript.
	RecordTurn(ctx context.Context, turn *domain.Turn) error

	// ListTurns returns up to limit most recent turns for a session, oldest first.
	ListTurns(ctx context.Context, userID, sessionID string, limit int) ([]*domain.Turn, error)

	// DeleteSession removes every turn of a session.
	DeleteSession(ctx context.Context, userID, sessionID string) (int64, error)

	// CountCrisisTurns returns how many recorded turns were escalated.
	CountCrisisTurns(ctx context.Context) (int64, error)

	// CleanupOlderThan removes turns older than the retention period.
	CleanupOlderThan(ctx context.Context, retention time.Duration) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

// Nop is a Repository that keeps nothing. It is used when transcripts are disabled.
type Nop struct{}

func (Nop) RecordTurn(context.Context, *domain.Turn) error { return nil }
func (Nop) ListTurns(context.Context, string, string, int) ([]*domain.Turn, error) {
	return nil, nil
}
func (Nop) DeleteSession(context.Context, string, string) (int64, error)   { return 0, nil }
func (Nop) CountCrisisTurns(context.Context) (int64, error)                { return 0, nil }
func (Nop) CleanupOlderThan(context.Context, time.Duration) (int64, error) { return 0, nil }
func (Nop) Ping(context.Context) error                                     { return nil }
func (Nop) Close() error                                                   { return nil }

var _ Repository = Nop{}
