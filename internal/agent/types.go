// Package agent serves the supportive chat over HTTP and WebSocket.
package agent

import "github.com/ashureev/mindbloom/internal/domain"

// FallbackReply is returned when a turn fails internally.
const FallbackReply = "I'm here with you. Could you tell me a little more about what's on your mind?"

// ChatRequest represents a chat request to the agent.
type ChatRequest struct {
	Message   string `json:"message"`
	UserID    string `json:"-"`
	SessionID string `json:"-"`
}

// ChatResponse represents a chat response from the agent.
type ChatResponse struct {
	Response string `json:"response"`
	FollowUp string `json:"follow_up,omitempty"`
}

func newChatResponse(r domain.Reply) *ChatResponse {
	return &ChatResponse{Response: r.Response, FollowUp: r.FollowUp}
}

// Stats contains agent statistics.
type Stats struct {
	ActiveSessions int   `json:"active_sessions"`
	CrisisTurns    int64 `json:"crisis_turns"`
	TurnsServed    int64 `json:"turns_served"`
}
