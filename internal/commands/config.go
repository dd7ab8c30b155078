package commands

import (
	"github.com/spf13/cobra"

	"github.com/diogo/llamavoice/internal/config"
	"github.com/diogo/llamavoice/internal/tui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open configuration menu",
	Long:  `Interactive menu to configure llamavoice settings.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		deps := NewDependencies(cfg)
		store := deps.OpenTheme()
		store.Apply()
		tui.UpdateTheme()
		return tui.RunConfig(cfg, store)
	},
}
