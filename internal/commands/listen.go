package commands

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/diogo/llamavoice/internal/logging"
	"github.com/diogo/llamavoice/internal/voice"
)

var sendFlag bool

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Transcribe one spoken utterance",
	Long: `Start one speech recognition session and print the transcript.

With --send the transcript is also sent to the chat backend and the reply is
printed and spoken.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps := NewDependencies(loadConfig())
		logging.SetupConsole(deps.Config.Verbose)

		transcript, err := listenOnce(cmd.Context(), deps)
		if err != nil {
			return err
		}
		if transcript == "" {
			fmt.Fprintln(deps.Err, "No speech detected. Please try again.")
			return nil
		}

		you := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Fprintf(deps.Out, "%s %s\n", you("You:"), transcript)

		if !sendFlag {
			return nil
		}
		return ask(cmd.Context(), deps, transcript, askOptions{
			speak:     deps.Config.AutoSpeak,
			clipboard: deps.Config.CopyToClipboard,
		})
	},
}

func init() {
	listenCmd.Flags().BoolVar(&sendFlag, "send", false, "Send the transcript to the chat backend")
}

// listenOnce runs a single recognition session and returns the accepted
// transcript, or "" when the session ended without one.
func listenOnce(ctx context.Context, deps *Dependencies) (string, error) {
	transcripts := make(chan string, 1)
	ended := make(chan struct{})
	var once sync.Once
	var started atomic.Bool

	adapter := deps.NewVoice(newCLINotifier(deps.Err),
		func(text string) {
			select {
			case transcripts <- text:
			default:
			}
		},
		voice.WithStateHandler(func(listening, _ bool) {
			if listening {
				started.Store(true)
				return
			}
			if started.Load() {
				once.Do(func() { close(ended) })
			}
		}),
	)
	defer adapter.Close()

	if err := adapter.StartListening(ctx); err != nil {
		return "", err
	}

	spin := newSpinner(deps.Err, "Listening")
	spin.start()
	defer spin.stopWithError()

	select {
	case t := <-transcripts:
		return t, nil
	case <-ended:
		select {
		case t := <-transcripts:
			return t, nil
		default:
			return "", nil
		}
	case <-time.After(listenTimeout(deps.Config.Voice.MaxRecordSeconds)):
		return "", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// listenTimeout bounds a session that never reports its start or end.
func listenTimeout(maxRecordSeconds int) time.Duration {
	if maxRecordSeconds <= 0 {
		maxRecordSeconds = 15
	}
	return time.Duration(maxRecordSeconds)*time.Second + 15*time.Second
}

