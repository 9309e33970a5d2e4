package companion

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SessionKey builds the store key for a user's tab session.
func SessionKey(userID, sessionID string) string {
	return userID + ":" + sessionID
}

type sessionEntry struct {
	mu         sync.Mutex
	session    *Session
	lastActive time.Time
	evicted    bool
}

// SessionStore maps session keys to sessions. Each session is mutated under
// its own mutex so two turns for the same session never interleave, while
// turns for different sessions run in parallel.
type SessionStore struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	now     func() time.Time
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		entries: make(map[string]*sessionEntry),
		now:     time.Now,
	}
}

func (s *SessionStore) entry(key string) *sessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		e = &sessionEntry{session: NewSession(), lastActive: s.now()}
		s.entries[key] = e
	}
	return e
}

// Do runs fn with exclusive access to the session for key, creating it lazily.
func (s *SessionStore) Do(key string, fn func(*Session) error) error {
	for {
		e := s.entry(key)
		e.mu.Lock()
		if e.evicted {
			// Swept between lookup and lock; retry against a fresh entry.
			e.mu.Unlock()
			continue
		}
		err := fn(e.session)
		e.lastActive = s.now()
		e.mu.Unlock()
		return err
	}
}

// Reset clears the session for key back to its initial state.
func (s *SessionStore) Reset(key string) {
	_ = s.Do(key, func(sess *Session) error {
		sess.Reset()
		return nil
	})
}

// Delete drops the session for key entirely.
func (s *SessionStore) Delete(key string) {
	s.mu.Lock()
	e, ok := s.entries[key]
	delete(s.entries, key)
	s.mu.Unlock()
	if ok {
		e.mu.Lock()
		e.evicted = true
		e.mu.Unlock()
	}
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep evicts sessions idle for longer than ttl and returns their keys.
// Sessions with a turn in progress are skipped.
func (s *SessionStore) Sweep(ttl time.Duration) []string {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []string
	for key, e := range s.entries {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastActive.Before(cutoff) {
			e.evicted = true
			delete(s.entries, key)
			evicted = append(evicted, key)
		}
		e.mu.Unlock()
	}
	return evicted
}

// EvictCallback is called with the key of every session removed by the sweeper.
type EvictCallback func(key string)

// StartSweeper periodically evicts idle sessions until ctx is done.
func (s *SessionStore) StartSweeper(ctx context.Context, interval, ttl time.Duration, onEvict EvictCallback) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session sweeper started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				evicted := s.Sweep(ttl)
				if len(evicted) == 0 {
					continue
				}
				slog.Info("Session sweeper evicted idle sessions", "count", len(evicted))
				if onEvict != nil {
					for _, key := range evicted {
						onEvict(key)
					}
				}
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
