package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// rendererPool keeps idle renderers per option set. A glamour.TermRenderer
// is not safe for concurrent use, so callers borrow one and give it back.
type rendererPool struct {
	mu   sync.Mutex
	idle map[Options]*sync.Pool
}

var renderers = &rendererPool{idle: make(map[Options]*sync.Pool)}

func (p *rendererPool) poolFor(opts Options) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool, ok := p.idle[opts]
	if !ok {
		pool = &sync.Pool{}
		p.idle[opts] = pool
	}
	return pool
}

func (p *rendererPool) borrow(opts Options) (*glamour.TermRenderer, error) {
	if r, ok := p.poolFor(opts).Get().(*glamour.TermRenderer); ok {
		return r, nil
	}
	return newRenderer(opts)
}

func (p *rendererPool) giveBack(opts Options, r *glamour.TermRenderer) {
	if r == nil {
		return
	}
	p.poolFor(opts).Put(r)
}

// dropStyle forgets every pool built for style.
func (p *rendererPool) dropStyle(style string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for opts := range p.idle {
		if opts.Style == style {
			delete(p.idle, opts)
		}
	}
}

func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	ropts := []glamour.TermRendererOption{
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}

	if IsStandardStyle(opts.Style) {
		ropts = append(ropts, glamour.WithStandardStyle(opts.Style))
	} else {
		ropts = append(ropts, glamour.WithStylePath(opts.Style))
	}
	if opts.EnableEmoji {
		ropts = append(ropts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		ropts = append(ropts, glamour.WithPreservedNewLines())
	}

	return glamour.NewTermRenderer(ropts...)
}

// IsStandardStyle reports whether style names one of glamour's bundled styles.
func IsStandardStyle(style string) bool {
	switch style {
	case StyleDark, StyleLight, "dracula", "notty", "ascii", "pink", "tokyo-night":
		return true
	}
	return false
}

// ClearCache drops all pooled renderers.
func ClearCache() {
	renderers.mu.Lock()
	renderers.idle = make(map[Options]*sync.Pool)
	renderers.mu.Unlock()
}

// CacheSize returns the number of option sets with a pool.
func CacheSize() int {
	renderers.mu.Lock()
	defer renderers.mu.Unlock()
	return len(renderers.idle)
}
