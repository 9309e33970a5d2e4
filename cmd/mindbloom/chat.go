package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ashureev/mindbloom/internal/agent"
	"github.com/ashureev/mindbloom/internal/companion"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the scripted companion in this terminal",
	Long: `Start an interactive conversation on stdin/stdout.

Commands:
  /reset   start the conversation over
  /quit    leave`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel(slog.LevelWarn),
		}))
		engine := companion.NewEngine(companion.WithLogger(logger))
		return runChat(cmd.InOrStdin(), cmd.OutOrStdout(), engine, logger)
	},
}

type chatStyles struct {
	prompt   lipgloss.Style
	reply    lipgloss.Style
	followUp lipgloss.Style
	notice   lipgloss.Style
}

func newChatStyles(out io.Writer) chatStyles {
	r := lipgloss.NewRenderer(out)
	return chatStyles{
		prompt: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")),
		reply: r.NewStyle().
			Foreground(lipgloss.Color("212")).
			PaddingLeft(2),
		followUp: r.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true).
			PaddingLeft(2),
		notice: r.NewStyle().
			Foreground(lipgloss.Color("62")),
	}
}

// runChat drives one terminal conversation until /quit or end of input.
func runChat(in io.Reader, out io.Writer, engine *companion.Engine, logger *slog.Logger) error {
	styles := newChatStyles(out)
	sess := companion.NewSession()
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out, styles.notice.Render("Hi, I'm here to listen. Type /reset to start over or /quit to leave."))

	for {
		fmt.Fprint(out, styles.prompt.Render("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			fmt.Fprintln(out, styles.notice.Render("Take care of yourself."))
			return nil
		case "/reset":
			sess.Reset()
			fmt.Fprintln(out, styles.notice.Render("Conversation reset."))
			continue
		}

		res, err := engine.GenerateResponse(sess, line)
		if err != nil {
			logger.Error("Chat turn failed", "error", err)
			fmt.Fprintln(out, styles.reply.Render(agent.FallbackReply))
			continue
		}

		fmt.Fprintln(out, styles.reply.Render(res.Reply.Response))
		if res.Reply.FollowUp != "" {
			fmt.Fprintln(out, styles.followUp.Render(res.Reply.FollowUp))
		}
	}
}
