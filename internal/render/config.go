package render

import (
	"os"

	"github.com/diogo/llamavoice/internal/config"
)

// OptionsFromConfig builds render options from the markdown section of the
// user configuration and the active theme's markdown style. GLAMOUR_STYLE
// takes precedence over the theme.
func OptionsFromConfig(md config.MarkdownConfig, style string) Options {
	opts := DefaultOptions()

	if style != "" {
		opts.Style = style
	}
	opts.EnableEmoji = md.EnableEmoji
	opts.PreserveNewLines = md.PreserveNewLines
	opts.TableWrap = md.TableWrap
	opts.InlineTableLinks = md.InlineTableLinks

	if env := os.Getenv("GLAMOUR_STYLE"); env != "" {
		opts.Style = env
	}

	return opts
}

// OptionsForWidth returns opts for the current theme at the given width.
func OptionsForWidth(md config.MarkdownConfig, width int) Options {
	return OptionsFromConfig(md, GetTUITheme().MarkdownStyle).WithWidth(width)
}
