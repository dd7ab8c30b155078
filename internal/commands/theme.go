package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/llamavoice/internal/theme"
)

var themeCmd = &cobra.Command{
	Use:   "theme [light|dark|system]",
	Short: "Show or set the theme preference",
	Long: `Show the theme preference and the theme it resolves to, or set it.

'system' follows the terminal background.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(theme.Light), string(theme.Dark), string(theme.System)},
	RunE: func(cmd *cobra.Command, args []string) error {
		deps := NewDependencies(loadConfig())
		return runTheme(deps.OpenTheme(), args, cmd.OutOrStdout())
	},
}

func runTheme(store *theme.Store, args []string, w io.Writer) error {
	if len(args) == 1 {
		pref, err := theme.ParsePreference(strings.ToLower(args[0]))
		if err != nil {
			return err
		}
		if err := store.Set(pref); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Theme: %s (resolved: %s)\n", store.Preference(), store.Resolved())
	return err
}
