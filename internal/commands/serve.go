package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diogo/llamavoice/internal/config"
	"github.com/diogo/llamavoice/internal/logging"
	"github.com/diogo/llamavoice/internal/server"
)

var (
	addrFlag     string
	providerFlag string
	modelFlag    string
	personaFlag  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat backend",
	Long: `Run the chat backend that answers POST /api/chat.

Replies are streamed as plain text from Ollama or OpenAI. The OpenAI
provider reads OPENAI_API_KEY from the environment or .env.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps := NewDependencies(loadConfig())
		applyServeFlags(&deps.Config.Backend)
		logging.SetupConsole(deps.Config.Verbose)
		return runServe(cmd.Context(), deps)
	},
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (e.g., :3000)")
	serveCmd.Flags().StringVar(&providerFlag, "provider", "", "Chat provider: ollama or openai")
	serveCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Model name (e.g., llama3.2)")
	serveCmd.Flags().StringVar(&personaFlag, "persona", "", "Persona whose system prompt is prepended")
}

func applyServeFlags(b *config.BackendConfig) {
	if addrFlag != "" {
		b.Addr = addrFlag
	}
	if providerFlag != "" {
		b.Provider = providerFlag
	}
	if modelFlag != "" {
		b.Model = modelFlag
	}
	if personaFlag != "" {
		b.Persona = personaFlag
	}
}

// newServer builds the backend from the configuration.
func newServer(deps *Dependencies) (*server.Server, error) {
	b := deps.Config.Backend

	provider, err := server.NewProvider(b.Provider, b.Model, b.OllamaURL, deps.Keys.OpenAI)
	if err != nil {
		return nil, err
	}

	prompt, err := systemPrompt(b.Persona)
	if err != nil {
		return nil, err
	}

	return server.New(provider,
		server.WithAddr(b.Addr),
		server.WithSystemPrompt(prompt),
		server.WithAllowedOrigins(b.AllowedOrigins),
		server.WithRateLimit(b.RateLimit),
	), nil
}

// systemPrompt returns the prompt of the named persona, or "" for none.
func systemPrompt(persona string) (string, error) {
	if persona == "" {
		return "", nil
	}
	personas, err := config.LoadPersonas()
	if err != nil {
		return "", fmt.Errorf("failed to load personas: %w", err)
	}
	p, err := personas.Find(persona)
	if err != nil {
		return "", err
	}
	return p.SystemPrompt, nil
}

func runServe(ctx context.Context, deps *Dependencies) error {
	srv, err := newServer(deps)
	if err != nil {
		return err
	}

	b := deps.Config.Backend
	log.Info().
		Str("addr", b.Addr).
		Str("provider", b.Provider).
		Str("model", b.Model).
		Str("persona", b.Persona).
		Msg("starting chat backend")

	return srv.Run(ctx)
}
