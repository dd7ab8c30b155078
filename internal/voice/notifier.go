package voice

import "github.com/rs/zerolog/log"

// LogNotifier writes alerts and log lines to the global logger. It never
// blocks.
type LogNotifier struct{}

func (LogNotifier) Alert(msg string) {
	log.Warn().Str("alert", msg).Msg("voice alert")
}

func (LogNotifier) Log(msg string) {
	log.Info().Msg(msg)
}
