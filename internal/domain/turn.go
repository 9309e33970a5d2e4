package domain

import "time"

// ReplySource records which path produced a reply.
type ReplySource string

const (
	// SourceScripted is the canned catalog / rephraser path.
	SourceScripted ReplySource = "scripted"
	// SourceSafety is the fixed crisis escalation message.
	SourceSafety ReplySource = "safety"
	// SourceModel is the optional remote model responder.
	SourceModel ReplySource = "model"
	// SourceFallback is the generic line used after an internal error.
	SourceFallback ReplySource = "fallback"
)

// Turn is one recorded exchange in a session transcript.
type Turn struct {
	ID          int64       `json:"id"`
	UserID      string      `json:"user_id"`
	SessionID   string      `json:"session_id"`
	UserMessage string      `json:"user_message"`
	Response    string      `json:"response"`
	FollowUp    string      `json:"follow_up,omitempty"`
	Mood        MoodTag     `json:"mood,omitempty"`
	RiskLevel   RiskLevel   `json:"risk_level"`
	Source      ReplySource `json:"source"`
	CreatedAt   time.Time   `json:"created_at"`
}
