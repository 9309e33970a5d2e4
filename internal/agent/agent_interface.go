package agent

import (
	"context"

	"github.com/ashureev/mindbloom/internal/domain"
)

// Responder produces a reply from a session's history using a remote model.
// Implementations must be safe for concurrent use.
type Responder interface {
	Respond(ctx context.Context, sessionID string, history []domain.Message) (string, error)
}
