package companion

import (
	"slices"

	"github.com/ashureev/mindbloom/internal/domain"
)

const (
	// historyLimit is the length above which history is truncated.
	historyLimit = 10
	// historyKeep is how many of the most recent messages survive truncation.
	historyKeep = 5
	// exchangeLimit bounds the user/agent transcript kept for a remote responder.
	exchangeLimit = 40
)

// Session is the mutable state of one conversation. It is not safe for
// concurrent use; SessionStore serializes access per session.
type Session struct {
	messages             []domain.Message
	exchange             []domain.Message
	usedResponses        map[string]struct{}
	lastGroundingOffered bool
	lastFollowUpQuestion string
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{usedResponses: make(map[string]struct{})}
}

// Append adds a message to history.
func (s *Session) Append(msg domain.Message) {
	s.messages = append(s.messages, msg)
}

// Messages returns a copy of the current history.
func (s *Session) Messages() []domain.Message {
	return slices.Clone(s.messages)
}

// Exchange returns a copy of the answered turns, user and agent messages
// interleaved, oldest first. Crisis turns are not part of it.
func (s *Session) Exchange() []domain.Message {
	return slices.Clone(s.exchange)
}

func (s *Session) recordExchange(userMessage, response string) {
	s.exchange = append(s.exchange,
		domain.UserMessage(userMessage),
		domain.Message{Role: domain.RoleAgent, Content: response},
	)
	if len(s.exchange) > exchangeLimit {
		s.exchange = slices.Clone(s.exchange[len(s.exchange)-exchangeLimit:])
	}
}

// UserTurns counts user-authored messages in history.
func (s *Session) UserTurns() int {
	n := 0
	for _, m := range s.messages {
		if m.Role == domain.RoleUser {
			n++
		}
	}
	return n
}

// HasUsed reports whether response text was already emitted in this session.
func (s *Session) HasUsed(response string) bool {
	_, ok := s.usedResponses[response]
	return ok
}

// MarkUsed records response text in the anti-repetition set.
func (s *Session) MarkUsed(response string) {
	s.usedResponses[response] = struct{}{}
}

// UsedCount returns the size of the anti-repetition set.
func (s *Session) UsedCount() int {
	return len(s.usedResponses)
}

// LastGroundingOffered reports whether a grounding reply has been given.
func (s *Session) LastGroundingOffered() bool {
	return s.lastGroundingOffered
}

// LastFollowUpQuestion returns the follow-up of the most recent scripted reply.
func (s *Session) LastFollowUpQuestion() string {
	return s.lastFollowUpQuestion
}

// Trim keeps only the last historyKeep messages once history exceeds
// historyLimit. The used-response set is never trimmed.
func (s *Session) Trim() {
	if len(s.messages) > historyLimit {
		s.messages = slices.Clone(s.messages[len(s.messages)-historyKeep:])
	}
}

// Reset returns the session to its initial empty state.
func (s *Session) Reset() {
	s.messages = nil
	s.exchange = nil
	s.usedResponses = make(map[string]struct{})
	s.lastGroundingOffered = false
	s.lastFollowUpQuestion = ""
}
