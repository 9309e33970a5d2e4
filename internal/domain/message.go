// Package domain contains core domain types for the MindBloom companion.
package domain

// Role identifies who authored a message.
type Role string

const (
	// RoleUser marks a message typed by the person chatting.
	RoleUser Role = "user"
	// RoleAgent marks a message produced by the companion.
	RoleAgent Role = "agent"
)

// Message is a single entry in a session's history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserMessage returns a user-authored message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Reply is what the companion answers for one inbound message.
type Reply struct {
	Response string `json:"response"`
	FollowUp string `json:"follow_up,omitempty"`
}

// ResponseOption is one canned (response, follow-up) pair from a mood catalog.
type ResponseOption struct {
	Response string
	FollowUp string
}

// Reply converts the option into a reply.
func (o ResponseOption) Reply() Reply {
	return Reply{Response: o.Response, FollowUp: o.FollowUp}
}
