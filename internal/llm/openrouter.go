// Package llm provides the optional model-backed responder. It talks to
// OpenRouter through its OpenAI-compatible chat completions API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ashureev/mindbloom/internal/domain"
)

// SystemPrompt frames every remote conversation.
const SystemPrompt = `You are a calm AI companion for students.
You must not repeat phrases already used.
You must progress the conversation.
Avoid generic empathy templates.`

// ErrEmptyCompletion is returned when the model produced no usable text.
var ErrEmptyCompletion = errors.New("model returned an empty completion")

// Config configures the OpenRouter client.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// OpenRouterClient produces replies from a session's message history.
type OpenRouterClient struct {
	client  openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewOpenRouterClient creates a client. It does not contact the service.
func NewOpenRouterClient(cfg Config, logger *slog.Logger) *OpenRouterClient {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := cfg.BaseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(cfg.MaxRetries),
		option.WithHeader("X-Title", "MindBloom"),
	)
	return &OpenRouterClient{
		client:  client,
		model:   cfg.Model,
		timeout: timeout,
		logger:  logger,
	}
}

// Respond sends history to the model and returns its reply text.
func (c *OpenRouterClient) Respond(ctx context.Context, sessionID string, history []domain.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	messages = append(messages, openai.SystemMessage(SystemPrompt))
	for _, m := range history {
		if m.Role == domain.RoleAgent {
			messages = append(messages, openai.AssistantMessage(m.Content))
			continue
		}
		messages = append(messages, openai.UserMessage(m.Content))
	}

	start := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("openrouter chat completion: %w", err)
	}
	c.logger.Debug("Model reply received",
		"session_id", sessionID,
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if len(completion.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
