package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "mindbloom",
	Short: "Supportive chat companion for students",
	Long: `MindBloom is a scripted, safety-first chat companion.

Every message is screened for crisis language before anything else runs.
Other messages are answered from mood-specific scripts that progress with
the conversation and avoid repeating themselves.

  mindbloom serve    # run the HTTP and WebSocket API
  mindbloom chat     # talk to the companion in this terminal`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(serveCmd, chatCmd)
}

func logLevel(fallback slog.Level) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return fallback
}

// loadEnv reads .env when present. It never overrides variables already set.
func loadEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}
}
