package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/diogo/llamavoice/internal/chat"
	"github.com/diogo/llamavoice/internal/logging"
	"github.com/diogo/llamavoice/internal/models"
	"github.com/diogo/llamavoice/internal/render"
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)
)

var clipboardWrite = clipboard.WriteAll

// askOptions controls how a one-shot reply is presented.
type askOptions struct {
	// tty decorates the reply with a spinner and rendered markdown.
	tty       bool
	speak     bool
	output    string
	clipboard bool
}

// runAsk sends a single prompt using the global flags.
func runAsk(ctx context.Context, deps *Dependencies, prompt string) error {
	logging.Setup(deps.Config.Verbose, deps.Err)
	return ask(ctx, deps, prompt, askOptions{
		tty:       isStdoutTTY(),
		speak:     speakFlag,
		output:    outputFlag,
		clipboard: deps.Config.CopyToClipboard,
	})
}

// ask runs one chat turn. Without a TTY the reply streams to deps.Out as it
// arrives.
func ask(ctx context.Context, deps *Dependencies, prompt string, opts askOptions) error {
	var speaker chat.Speaker
	if opts.speak {
		adapter := deps.NewVoice(newCLINotifier(deps.Err), nil)
		defer adapter.Close()
		speaker = adapter
	}
	ctrl := chat.NewController(deps.NewClient(), speaker, chat.WithAutoSpeak(opts.speak))

	decorated := opts.tty && opts.output == ""

	var spin *spinner
	switch {
	case decorated:
		deps.OpenTheme().Apply()
		spin = newSpinner(deps.Err, "Waiting for reply")
		spin.start()
	case opts.output == "":
		ctrl.Subscribe(newReplyPrinter(deps.Out).observe)
	}

	if err := ctrl.Send(ctx, prompt); err != nil {
		spin.stopWithError()
		fmt.Fprintln(deps.Err, formatErrorMessage(err, "Chat request failed"))
		waitForSpeech(ctx, ctrl)
		return err
	}
	spin.stopWithSuccess("Done")

	reply, _ := ctrl.LastReply()

	if opts.clipboard {
		if err := clipboardWrite(reply); err != nil {
			warn := lipgloss.NewStyle().Foreground(colorError).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err),
			)
			fmt.Fprintln(deps.Err, warn)
		} else {
			fmt.Fprintln(deps.Err, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard"))
		}
	}

	switch {
	case opts.output != "":
		if err := os.WriteFile(opts.output, []byte(reply), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintln(deps.Err, lipgloss.NewStyle().Foreground(colorSuccess).Render(
			fmt.Sprintf("✓ Reply saved to %s", opts.output),
		))
	case decorated:
		printBubble(deps.Out, reply, deps)
	case !strings.HasSuffix(reply, "\n"):
		fmt.Fprintln(deps.Out)
	}

	waitForSpeech(ctx, ctrl)
	return nil
}

// printBubble renders the reply as markdown inside the assistant bubble.
func printBubble(w io.Writer, reply string, deps *Dependencies) {
	bubbleWidth := getTerminalWidth() - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	fmt.Fprintln(w, assistantLabelStyle.Render("✦ "+models.AssistantName))

	rendered, err := render.Reply(reply, deps.Config.Markdown, contentWidth)
	if err != nil {
		rendered = reply
	}
	rendered = strings.TrimRight(rendered, "\n")

	fmt.Fprintln(w, assistantBubbleStyle.Width(bubbleWidth).Render(rendered))
}

// replyPrinter writes the streamed reply as it grows. A new assistant
// message, such as the fallback after a failure, starts on a new line.
type replyPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	index   int
	printed int
}

func newReplyPrinter(w io.Writer) *replyPrinter {
	return &replyPrinter{w: w, index: -1}
}

func (p *replyPrinter) observe(s chat.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(s.Messages)
	if n == 0 {
		return
	}
	last := s.Messages[n-1]
	if last.Role != models.RoleAssistant {
		return
	}

	if n-1 != p.index {
		if p.index >= 0 {
			_, _ = io.WriteString(p.w, "\n")
		}
		p.index, p.printed = n-1, 0
	}
	if len(last.Content) > p.printed {
		_, _ = io.WriteString(p.w, last.Content[p.printed:])
		p.printed = len(last.Content)
	}
}

// waitForSpeech blocks until the controller stops speaking or ctx ends.
func waitForSpeech(ctx context.Context, ctrl *chat.Controller) {
	quiet := make(chan struct{}, 1)
	ctrl.Subscribe(func(s chat.State) {
		if !s.Speaking {
			select {
			case quiet <- struct{}{}:
			default:
			}
		}
	})

	for ctrl.Speaking() {
		select {
		case <-quiet:
		case <-ctx.Done():
			ctrl.StopSpeaking()
			return
		}
	}
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
