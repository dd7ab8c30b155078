// Package commands provides CLI commands for llamavoice.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diogo/llamavoice/internal/config"
)

var (
	// Global flags
	serverFlag  string
	verboseFlag bool
	fileFlag    string
	outputFlag  string
	speakFlag   bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "llamavoice [prompt]",
	Short: "Voice chat client for a streaming chat backend",
	Long: `llamavoice is a terminal voice assistant. It sends typed or spoken
messages to a chat backend over POST /api/chat, streams the reply as it
arrives and reads it aloud.

Examples:
  llamavoice chat                       Start the voice chat TUI
  llamavoice serve                      Run the chat backend
  llamavoice "What is Go?"              Ask a single question
  llamavoice -f prompt.md --speak       Read prompt from file and speak the reply
  cat prompt.md | llamavoice            Read prompt from stdin
  llamavoice listen --send              Transcribe one utterance and send it
  llamavoice theme dark                 Set the theme preference`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Fprintf(cmd.OutOrStdout(), "llamavoice %s (built %s)\n", Version, BuildTime)
			return nil
		}

		prompt, ok, err := readPrompt(args, fileFlag, os.Stdin, stdinIsPipe())
		if err != nil {
			return err
		}
		if !ok {
			return cmd.Help()
		}

		deps := NewDependencies(loadConfig())
		return runAsk(cmd.Context(), deps, prompt)
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Error"))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "", "Chat backend URL (e.g., http://localhost:3000)")
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Enable debug logging")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save reply to file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read prompt from file")
	rootCmd.Flags().BoolVar(&speakFlag, "speak", false, "Speak the reply aloud")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(themeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(sayCmd)
	rootCmd.AddCommand(personaCmd)
}

// loadConfig reads .env and the config file, then applies the global flags.
func loadConfig() config.Config {
	config.LoadDotEnv()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Warn().Err(err).Msg("using default configuration")
	}
	applyFlags(&cfg)
	return cfg
}

func applyFlags(cfg *config.Config) {
	if serverFlag != "" {
		cfg.ServerURL = serverFlag
	}
	if verboseFlag {
		cfg.Verbose = true
	}
}

// stdinIsPipe reports whether stdin is redirected.
func stdinIsPipe() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readPrompt picks the prompt from, in order, the file flag, piped stdin and
// the positional argument. ok is false when there is no input at all.
func readPrompt(args []string, file string, stdin io.Reader, piped bool) (prompt string, ok bool, err error) {
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		prompt = string(data)
	case piped:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		prompt = string(data)
	case len(args) > 0:
		prompt = args[0]
	default:
		return "", false, nil
	}

	if strings.TrimSpace(prompt) == "" {
		return "", false, fmt.Errorf("prompt cannot be empty")
	}
	return prompt, true, nil
}
