package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/llamavoice/internal/chat"
	"github.com/diogo/llamavoice/internal/logging"
)

var sayCmd = &cobra.Command{
	Use:   "say <text>",
	Short: "Speak text aloud",
	Long:  `Speak text with the configured speech synthesizer and wait until it finishes.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps := NewDependencies(loadConfig())
		logging.SetupConsole(deps.Config.Verbose)
		return say(cmd.Context(), deps, strings.Join(args, " "))
	},
}

// say speaks text through a controller so the speaking flag is tracked the
// same way as in chat.
func say(ctx context.Context, deps *Dependencies, text string) error {
	adapter := deps.NewVoice(newCLINotifier(deps.Err), nil)
	defer adapter.Close()

	ctrl := chat.NewController(deps.NewClient(), adapter)
	ctrl.Speak(text)
	waitForSpeech(ctx, ctrl)
	return nil
}
