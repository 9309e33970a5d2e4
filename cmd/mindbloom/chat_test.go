package main

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/mindbloom/internal/agent"
	"github.com/ashureev/mindbloom/internal/companion"
	"github.com/ashureev/mindbloom/internal/domain"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newQuietEngine(opts ...companion.Option) *companion.Engine {
	return companion.NewEngine(append([]companion.Option{companion.WithLogger(quietLogger)}, opts...)...)
}

func TestRunChatConversation(t *testing.T) {
	in := strings.NewReader("I lost my job\n\nI was laid off from work\n/quit\nnever read\n")
	var out bytes.Buffer

	require.NoError(t, runChat(in, &out, newQuietEngine(), quietLogger))

	ladder := companion.DefaultCatalog()[domain.MoodJobLoss]
	got := out.String()
	assert.Contains(t, got, ladder[0].Response)
	assert.Contains(t, got, ladder[0].FollowUp)
	assert.Contains(t, got, ladder[1].Response)
	assert.Contains(t, got, "Take care of yourself.")
	assert.NotContains(t, got, ladder[2].Response)
}

func TestRunChatReset(t *testing.T) {
	in := strings.NewReader("I lost my job\n/reset\nI lost my job\n")
	var out bytes.Buffer

	require.NoError(t, runChat(in, &out, newQuietEngine(), quietLogger))

	ladder := companion.DefaultCatalog()[domain.MoodJobLoss]
	got := out.String()
	assert.Contains(t, got, "Conversation reset.")
	assert.Equal(t, 2, strings.Count(got, ladder[0].Response), "reset should restart the ladder")
	assert.NotContains(t, got, ladder[1].Response)
}

func TestRunChatCrisis(t *testing.T) {
	in := strings.NewReader("I want to hurt myself\n")
	var out bytes.Buffer

	require.NoError(t, runChat(in, &out, newQuietEngine(), quietLogger))

	assert.Contains(t, out.String(), "Your life matters")
	assert.Contains(t, out.String(), "Would you like me to share some specific resources?")
}

func TestRunChatFallbackOnError(t *testing.T) {
	in := strings.NewReader("hello\n")
	var out bytes.Buffer

	engine := newQuietEngine(companion.WithCatalog(companion.Catalog{}))
	require.NoError(t, runChat(in, &out, engine, quietLogger))

	assert.Contains(t, out.String(), agent.FallbackReply)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["chat"])
}
