package commands

import (
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/diogo/llamavoice/internal/api"
	"github.com/diogo/llamavoice/internal/config"
	"github.com/diogo/llamavoice/internal/speech"
	"github.com/diogo/llamavoice/internal/theme"
	"github.com/diogo/llamavoice/internal/voice"
)

// Dependencies holds the external dependencies for the commands.
// Tests replace the factories to avoid real devices and network access.
type Dependencies struct {
	Config config.Config
	Keys   config.Keys

	Out io.Writer
	Err io.Writer

	// DetectEngines builds the speech engines for the voice config.
	DetectEngines func(config.VoiceConfig, config.Keys) speech.Engines
	// OpenStorage opens the key/value store backing the theme preference.
	OpenStorage func() (theme.Storage, error)
}

// NewDependencies creates Dependencies with the default implementations.
func NewDependencies(cfg config.Config) *Dependencies {
	return &Dependencies{
		Config:        cfg,
		Keys:          config.LoadKeys(),
		Out:           os.Stdout,
		Err:           os.Stderr,
		DetectEngines: speech.Detect,
		OpenStorage: func() (theme.Storage, error) {
			return config.OpenLocalStorage()
		},
	}
}

// NewClient returns a chat client for the configured backend.
func (d *Dependencies) NewClient() *api.Client {
	return api.NewClient(
		api.WithBaseURL(d.Config.ServerURL),
		api.WithEndpoint(d.Config.Endpoint),
	)
}

// NewVoice detects the speech engines and wraps them in an adapter.
func (d *Dependencies) NewVoice(notifier voice.Notifier, onTranscript func(string), opts ...voice.AdapterOption) *voice.Adapter {
	vc := d.Config.Voice
	engines := d.DetectEngines(vc, d.Keys)
	log.Debug().
		Str("recognizer", engines.RecognizerName).
		Str("synthesizer", engines.SynthesizerName).
		Msg("speech engines")

	opts = append([]voice.AdapterOption{
		voice.WithLocale(vc.Locale),
		voice.WithVoiceParams(vc.Rate, vc.Pitch, vc.Volume),
	}, opts...)

	return voice.NewAdapter(engines.Recognizer, engines.Synthesizer, engines.Microphone, notifier, onTranscript, opts...)
}

// OpenTheme returns the theme store. When storage cannot be opened the
// preference lives in memory only.
func (d *Dependencies) OpenTheme() *theme.Store {
	storage, err := d.OpenStorage()
	if err != nil {
		log.Warn().Err(err).Msg("theme preference will not be saved")
		return theme.NewStore(nil)
	}
	return theme.NewStore(storage)
}
