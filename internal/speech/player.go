package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog/log"
)

// AudioPlayer plays an audio file, blocking until playback ends.
type AudioPlayer interface {
	Play(ctx context.Context, path string, volume float64) error
}

// Player plays files with an external command: ffplay, mpg123 or afplay.
type Player struct {
	Command string
}

// NewPlayer creates a Player, defaulting to ffplay.
func NewPlayer(command string) *Player {
	if command == "" {
		command = "ffplay"
	}
	return &Player{Command: command}
}

// Available reports whether the player binary is on PATH.
func (p *Player) Available() bool {
	_, err := lookPath(p.Command)
	return err == nil
}

// Args returns the command arguments for playing path at volume (0..1).
func (p *Player) Args(path string, volume float64) []string {
	switch p.Command {
	case "mpg123":
		// mpg123 scale factor is 0..32768
		return []string{"-q", "-f", strconv.Itoa(int(volume * 32768)), path}
	case "afplay":
		return []string{"-v", strconv.FormatFloat(volume, 'f', 2, 64), path}
	default:
		return []string{"-nodisp", "-autoexit", "-loglevel", "quiet",
			"-volume", strconv.Itoa(int(volume * 100)), path}
	}
}

// Play runs the player. Cancelling ctx stops playback.
func (p *Player) Play(ctx context.Context, path string, volume float64) error {
	if secs, err := AudioDuration(ctx, path); err == nil {
		log.Debug().Str("file", path).Float64("seconds", secs).Msg("playing audio")
	}

	cmd := exec.CommandContext(ctx, p.Command, p.Args(path, volume)...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s failed: %w", p.Command, err)
	}
	return nil
}
