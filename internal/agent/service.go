package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ashureev/mindbloom/internal/companion"
	"github.com/ashureev/mindbloom/internal/domain"
	"github.com/ashureev/mindbloom/internal/store"
)

const recordTimeout = 5 * time.Second

// Service runs chat turns against per-session state. It owns the session
// store, screens every message locally, and answers with either the remote
// responder or the scripted engine.
type Service struct {
	sessions *companion.SessionStore
	engine   *companion.Engine
	remote   Responder
	repo     store.Repository
	logger   *slog.Logger

	served atomic.Int64
	crisis atomic.Int64
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithResponder answers non-crisis turns with r, falling back to the
// scripted engine when r fails.
func WithResponder(r Responder) ServiceOption {
	return func(s *Service) {
		s.remote = r
	}
}

// WithRepository records every turn to repo.
func WithRepository(repo store.Repository) ServiceOption {
	return func(s *Service) {
		if repo != nil {
			s.repo = repo
		}
	}
}

// WithServiceLogger sets the service logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new agent service.
func NewService(engine *companion.Engine, sessions *companion.SessionStore, opts ...ServiceOption) *Service {
	s := &Service{
		sessions: sessions,
		engine:   engine,
		repo:     store.Nop{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Chat processes one user message and returns the reply. Internal failures
// are logged and answered with FallbackReply; Chat never returns an error.
func (s *Service) Chat(ctx context.Context, req ChatRequest) *ChatResponse {
	turn := &domain.Turn{
		UserID:      req.UserID,
		SessionID:   req.SessionID,
		UserMessage: req.Message,
		RiskLevel:   domain.RiskLow,
		CreatedAt:   time.Now().UTC(),
	}

	var reply domain.Reply
	key := companion.SessionKey(req.UserID, req.SessionID)
	err := s.sessions.Do(key, func(sess *companion.Session) error {
		risk := s.engine.Screen(sess, req.Message)
		turn.RiskLevel = risk.RiskLevel
		if risk.High() {
			reply = companion.SafetyReply()
			turn.Source = domain.SourceSafety
			return nil
		}

		if s.remote != nil {
			history := append(sess.Exchange(), domain.UserMessage(req.Message))
			text, err := s.remote.Respond(ctx, key, history)
			if err == nil {
				reply = domain.Reply{Response: text}
				s.engine.Record(sess, reply)
				turn.Mood = s.engine.Assess(req.Message).Tag
				turn.Source = domain.SourceModel
				return nil
			}
			s.logger.Warn("Remote responder failed, using scripted reply",
				"user_id", req.UserID,
				"session_id", req.SessionID,
				"error", err,
			)
		}

		res, err := s.engine.Compose(sess)
		turn.Mood = res.Mood.Tag
		if err != nil {
			return fmt.Errorf("compose reply: %w", err)
		}
		reply = res.Reply
		turn.Source = domain.SourceScripted
		return nil
	})
	if err != nil {
		s.logger.Error("Chat turn failed",
			"user_id", req.UserID,
			"session_id", req.SessionID,
			"error", err,
		)
		reply = domain.Reply{Response: FallbackReply}
		turn.Source = domain.SourceFallback
	}

	s.served.Add(1)
	if turn.Source == domain.SourceSafety {
		s.crisis.Add(1)
		s.logger.Warn("Crisis response sent", "user_id", req.UserID, "session_id", req.SessionID)
	} else {
		s.logger.Info("Chat turn served",
			"user_id", req.UserID,
			"session_id", req.SessionID,
			"mood", turn.Mood,
			"source", turn.Source,
		)
	}

	turn.Response = reply.Response
	turn.FollowUp = reply.FollowUp
	s.record(ctx, turn)

	return newChatResponse(reply)
}

// record stores the turn even if the request was cancelled after the reply.
func (s *Service) record(ctx context.Context, turn *domain.Turn) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := s.repo.RecordTurn(ctx, turn); err != nil {
		s.logger.Warn("Failed to record turn",
			"user_id", turn.UserID,
			"session_id", turn.SessionID,
			"error", err,
		)
	}
}

// ResetSession clears a session's conversation state and its transcript.
func (s *Service) ResetSession(ctx context.Context, userID, sessionID string) error {
	s.sessions.Reset(companion.SessionKey(userID, sessionID))

	deleted, err := s.repo.DeleteSession(ctx, userID, sessionID)
	if err != nil {
		return fmt.Errorf("delete transcript: %w", err)
	}
	s.logger.Info("Chat session reset", "user_id", userID, "session_id", sessionID, "turns_deleted", deleted)
	return nil
}

// Transcript returns up to limit recorded turns for a session, oldest first.
func (s *Service) Transcript(ctx context.Context, userID, sessionID string, limit int) ([]*domain.Turn, error) {
	turns, err := s.repo.ListTurns(ctx, userID, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transcript: %w", err)
	}
	if turns == nil {
		turns = []*domain.Turn{}
	}
	return turns, nil
}

// GetStats returns agent statistics. CrisisTurns is the persisted count when
// transcripts are kept, otherwise the count for this process.
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	crisis := s.crisis.Load()
	persisted, err := s.repo.CountCrisisTurns(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count crisis turns: %w", err)
	}
	if persisted > crisis {
		crisis = persisted
	}
	return Stats{
		ActiveSessions: s.sessions.Len(),
		CrisisTurns:    crisis,
		TurnsServed:    s.served.Load(),
	}, nil
}
