// Package theme holds the light/dark/system preference and resolves it to
// a concrete palette.
package theme

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/diogo/llamavoice/internal/render"
)

// StorageKey is the key the preference is persisted under.
const StorageKey = "theme"

// Preference is the user's theme choice.
type Preference string

const (
	Light  Preference = "light"
	Dark   Preference = "dark"
	System Preference = "system"
)

// Preferences lists the cycle order.
var Preferences = []Preference{Light, Dark, System}

// ParsePreference validates s.
func ParsePreference(s string) (Preference, error) {
	switch p := Preference(s); p {
	case Light, Dark, System:
		return p, nil
	}
	return "", fmt.Errorf("invalid theme %q (valid: light, dark, system)", s)
}

// Resolved is a concrete theme.
type Resolved string

const (
	ResolvedLight Resolved = "light"
	ResolvedDark  Resolved = "dark"
)

// Storage persists string values.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Detector reports whether the environment prefers a dark theme.
type Detector interface {
	IsDark() bool
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func() bool

func (f DetectorFunc) IsDark() bool { return f() }

// TerminalDetector queries the terminal background color.
var TerminalDetector Detector = DetectorFunc(lipgloss.HasDarkBackground)

// Store owns the theme preference.
type Store struct {
	mu        sync.Mutex
	storage   Storage
	detector  Detector
	pref      Preference
	observers []func(Preference, Resolved)
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithDetector sets how the system preference is resolved.
func WithDetector(d Detector) StoreOption {
	return func(s *Store) {
		s.detector = d
	}
}

// NewStore reads the stored preference once. A missing or invalid value
// yields System.
func NewStore(storage Storage, opts ...StoreOption) *Store {
	s := &Store{storage: storage, detector: TerminalDetector, pref: System}
	for _, opt := range opts {
		opt(s)
	}

	if storage != nil {
		if v, ok := storage.Get(StorageKey); ok {
			if p, err := ParsePreference(v); err == nil {
				s.pref = p
			} else {
				log.Warn().Str("value", v).Msg("ignoring invalid stored theme")
			}
		}
	}
	return s
}

// Preference returns the current preference.
func (s *Store) Preference() Preference {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pref
}

// Resolved maps the preference to light or dark.
func (s *Store) Resolved() Resolved {
	return s.resolve(s.Preference())
}

func (s *Store) resolve(p Preference) Resolved {
	switch p {
	case Light:
		return ResolvedLight
	case Dark:
		return ResolvedDark
	}
	if s.detector.IsDark() {
		return ResolvedDark
	}
	return ResolvedLight
}

// Set changes the preference, persists it and notifies subscribers. The
// in-memory value changes even when persisting fails.
func (s *Store) Set(p Preference) error {
	if _, err := ParsePreference(string(p)); err != nil {
		return err
	}

	s.mu.Lock()
	s.pref = p
	observers := append([]func(Preference, Resolved){}, s.observers...)
	s.mu.Unlock()

	var err error
	if s.storage != nil {
		if err = s.storage.Set(StorageKey, string(p)); err != nil {
			err = fmt.Errorf("failed to save theme: %w", err)
		}
	}

	resolved := s.resolve(p)
	for _, fn := range observers {
		fn(p, resolved)
	}
	return err
}

// Cycle advances light → dark → system → light and returns the new value.
func (s *Store) Cycle() (Preference, error) {
	next := Next(s.Preference())
	return next, s.Set(next)
}

// Next returns the preference after p in the cycle.
func Next(p Preference) Preference {
	for i, v := range Preferences {
		if v == p {
			return Preferences[(i+1)%len(Preferences)]
		}
	}
	return System
}

// Subscribe registers fn to run after every Set.
func (s *Store) Subscribe(fn func(Preference, Resolved)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Apply activates the palette for the resolved theme.
func (s *Store) Apply() Resolved {
	resolved := s.Resolved()
	render.SetTUITheme(string(resolved))
	return resolved
}

// MarkdownStyle returns the glamour style for the resolved theme.
func (s *Store) MarkdownStyle() string {
	if s.Resolved() == ResolvedLight {
		return render.StyleLight
	}
	return render.StyleDark
}
