package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/llamavoice/internal/config"
)

var personaCmd = &cobra.Command{
	Use:   "persona",
	Short: "List backend personas",
	Long: `View the personas (system prompts) available to 'llamavoice serve'.

Custom personas are read from personas.json in the config directory and
override built-in personas of the same name.`,
}

var personaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available personas",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		personas, err := config.LoadPersonas()
		if err != nil {
			return fmt.Errorf("failed to load personas: %w", err)
		}
		return printPersonas(cmd.OutOrStdout(), personas, loadConfig().Backend.Persona)
	},
}

var personaShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show persona details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		personas, err := config.LoadPersonas()
		if err != nil {
			return fmt.Errorf("failed to load personas: %w", err)
		}
		persona, err := personas.Find(args[0])
		if err != nil {
			return err
		}
		printPersona(cmd.OutOrStdout(), persona)
		return nil
	},
}

func init() {
	personaCmd.AddCommand(personaListCmd)
	personaCmd.AddCommand(personaShowCmd)
}

func printPersonas(out io.Writer, personas *config.PersonaConfig, active string) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tDESCRIPTION\tACTIVE")
	_, _ = fmt.Fprintln(w, "----\t-----------\t------")

	for _, p := range personas.Personas {
		mark := ""
		if p.Name == active {
			mark = "✓"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.Description, mark)
	}

	return w.Flush()
}

func printPersona(w io.Writer, p *config.Persona) {
	fmt.Fprintf(w, "Name: %s\n", p.Name)
	fmt.Fprintf(w, "Description: %s\n", p.Description)
	if p.SystemPrompt == "" {
		fmt.Fprintln(w, "\nSystem Prompt: (none)")
		return
	}
	fmt.Fprintf(w, "\nSystem Prompt:\n%s\n", p.SystemPrompt)
}
