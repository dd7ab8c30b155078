package render

import "github.com/diogo/llamavoice/internal/config"

// Markdown renders content with a renderer borrowed from the pool for opts.
func Markdown(content string, opts Options) (string, error) {
	r, err := renderers.borrow(opts)
	if err != nil {
		return "", err
	}
	defer renderers.giveBack(opts, r)

	return r.Render(content)
}

// Reply renders a chat reply in the active theme's markdown style.
func Reply(content string, md config.MarkdownConfig, width int) (string, error) {
	return Markdown(content, OptionsForWidth(md, width))
}
