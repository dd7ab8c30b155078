package speech

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/diogo/llamavoice/internal/voice"
)

// systemVoices lists the speech commands tried in order.
var systemVoices = []string{"espeak-ng", "espeak", "say", "spd-say"}

// CommandVoice speaks through a local TTS command.
type CommandVoice struct {
	Command string
	Locale  string
}

// DetectCommandVoice returns the first available system TTS command, or nil.
func DetectCommandVoice(locale string) *CommandVoice {
	for _, name := range systemVoices {
		if _, err := lookPath(name); err == nil {
			return &CommandVoice{Command: name, Locale: locale}
		}
	}
	return nil
}

// Args maps the utterance to command-line flags. Rate 1, pitch 1 and
// volume 1 are each command's defaults.
func (v *CommandVoice) Args(u voice.Utterance) []string {
	switch v.Command {
	case "say":
		return []string{"-r", scaled(u.Rate, 175), u.Text}
	case "spd-say":
		lang, _, _ := strings.Cut(v.Locale, "-")
		return []string{"-w",
			"-r", scaled(u.Rate-1, 100),
			"-p", scaled(u.Pitch-1, 100),
			"-i", scaled(u.Volume-1, 100),
			"-l", strings.ToLower(lang),
			u.Text}
	default:
		args := []string{
			"-s", scaled(u.Rate, 175),
			"-p", scaled(u.Pitch, 50),
			"-a", scaled(u.Volume, 100),
		}
		if v.Locale != "" {
			args = append(args, "-v", strings.ToLower(v.Locale))
		}
		return append(args, u.Text)
	}
}

func scaled(v, factor float64) string {
	return strconv.Itoa(int(math.Round(v * factor)))
}

// Speak runs the command and waits for it. Cancelling ctx stops speech.
func (v *CommandVoice) Speak(ctx context.Context, u voice.Utterance) error {
	cmd := exec.CommandContext(ctx, v.Command, v.Args(u)...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s failed: %w", v.Command, err)
	}
	return nil
}
