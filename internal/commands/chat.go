package commands

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diogo/llamavoice/internal/chat"
	"github.com/diogo/llamavoice/internal/config"
	"github.com/diogo/llamavoice/internal/logging"
	"github.com/diogo/llamavoice/internal/tui"
	"github.com/diogo/llamavoice/internal/voice"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive voice chat session",
	Long: `Start an interactive voice chat session.

Type a message and press Enter, or press Ctrl+R and speak. Replies stream in
as they arrive and are read aloud when auto-speak is enabled.
Type 'exit', 'quit', or press Ctrl+C to end the session.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), NewDependencies(loadConfig()))
	},
}

func runChat(ctx context.Context, deps *Dependencies) error {
	cfg := deps.Config

	closer, err := logging.SetupFile(cfg.Verbose)
	if err != nil {
		logging.Discard()
	} else {
		defer closer.Close()
	}

	opts, cleanup := newChatOptions(deps)
	defer cleanup()

	log.Info().Str("server", cfg.ServerURL).Msg("starting chat")
	return tui.RunChat(ctx, opts)
}

// newChatOptions wires the controller and voice adapter to a TUI bridge.
func newChatOptions(deps *Dependencies) (tui.ChatOptions, func()) {
	cfg := deps.Config
	bridge := tui.NewBridge()

	adapter := deps.NewVoice(bridge, bridge.Transcript, voice.WithStateHandler(bridge.VoiceState))

	ctrl := chat.NewController(deps.NewClient(), adapter,
		chat.WithAutoSpeak(cfg.AutoSpeak),
		chat.WithInputClearer(bridge.ClearInput),
	)
	ctrl.Subscribe(bridge.ChatState)

	store := deps.OpenTheme()
	store.Apply()
	tui.UpdateTheme()

	transcriptDir, err := config.GetTranscriptDir(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("transcript export unavailable")
	}

	opts := tui.ChatOptions{
		Controller:    ctrl,
		Theme:         store,
		Bridge:        bridge,
		Markdown:      cfg.Markdown,
		ServerURL:     deps.NewClient().URL(),
		TranscriptDir: transcriptDir,
	}
	if cfg.Voice.Recognizer != "none" {
		opts.Voice = adapter
	}

	return opts, adapter.Close
}
