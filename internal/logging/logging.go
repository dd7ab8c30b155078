// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/diogo/llamavoice/internal/config"
)

// Level returns debug when verbose, info otherwise.
func Level(verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// Setup sends human-readable logs to w at the level for verbose.
func Setup(verbose bool, w io.Writer) {
	zerolog.SetGlobalLevel(Level(verbose))
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: !isTerminal(w)}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// SetupConsole logs to stderr. Used by the CLI and server commands.
func SetupConsole(verbose bool) {
	Setup(verbose, os.Stderr)
}

// SetupFile logs to the log file under the config dir, for the TUI where
// stdout and stderr belong to the alt screen. The returned closer flushes
// the file.
func SetupFile(verbose bool) (io.Closer, error) {
	if _, err := config.EnsureConfigDir(); err != nil {
		return nil, err
	}
	path, err := config.GetLogPath()
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	Setup(verbose, f)
	return f, nil
}

// Discard silences logging.
func Discard() {
	log.Logger = zerolog.Nop()
}
