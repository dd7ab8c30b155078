package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/llamavoice/internal/config"
	"github.com/diogo/llamavoice/internal/render"
	"github.com/diogo/llamavoice/internal/theme"
)

type configHarness struct {
	model ConfigModel
	store *theme.Store
	saved []config.Config
}

func newConfigHarness(t *testing.T) *configHarness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Cleanup(func() {
		render.SetTUITheme("dark")
		UpdateTheme()
	})

	h := &configHarness{
		store: theme.NewStore(nil, theme.WithDetector(theme.DetectorFunc(func() bool { return true }))),
	}
	m := NewConfigModel(config.DefaultConfig(), h.store)
	m.save = func(c config.Config) error {
		h.saved = append(h.saved, c)
		return nil
	}
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	h.model = updated.(ConfigModel)
	return h
}

func (h *configHarness) press(t *testing.T, msg tea.KeyMsg) tea.Cmd {
	t.Helper()
	updated, cmd := h.model.Update(msg)
	h.model = updated.(ConfigModel)
	return cmd
}

func (h *configHarness) selectItem(t *testing.T, index int) tea.Cmd {
	t.Helper()
	h.model.cursor = index
	return h.press(t, tea.KeyMsg{Type: tea.KeyEnter})
}

func TestConfigModelInitialState(t *testing.T) {
	h := newConfigHarness(t)

	if h.model.view != viewMain {
		t.Errorf("view = %v, want main", h.model.view)
	}
	if theme.Preferences[h.model.themeCursor] != theme.System {
		t.Errorf("theme cursor on %s, want system", theme.Preferences[h.model.themeCursor])
	}
	if !strings.Contains(h.model.View(), "Speech Recognition") {
		t.Error("menu should list speech recognition")
	}
}

func TestConfigModelCursorWraps(t *testing.T) {
	h := newConfigHarness(t)

	h.press(t, tea.KeyMsg{Type: tea.KeyUp})
	if h.model.cursor != menuExit {
		t.Errorf("cursor = %d, want %d", h.model.cursor, menuExit)
	}
	h.press(t, tea.KeyMsg{Type: tea.KeyDown})
	if h.model.cursor != menuTheme {
		t.Errorf("cursor = %d, want %d", h.model.cursor, menuTheme)
	}
}

func TestConfigModelToggles(t *testing.T) {
	tests := []struct {
		name  string
		index int
		get   func(config.Config) bool
	}{
		{"auto speak", menuAutoSpeak, func(c config.Config) bool { return c.AutoSpeak }},
		{"verbose", menuVerbose, func(c config.Config) bool { return c.Verbose }},
		{"clipboard", menuCopyToClipboard, func(c config.Config) bool { return c.CopyToClipboard }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newConfigHarness(t)
			before := tt.get(h.model.config)

			if cmd := h.selectItem(t, tt.index); cmd == nil {
				t.Error("expected a feedback clear command")
			}
			if tt.get(h.model.config) == before {
				t.Error("value was not toggled")
			}
			if len(h.saved) != 1 || tt.get(h.saved[0]) == before {
				t.Errorf("saved = %+v", h.saved)
			}
		})
	}
}

func TestConfigModelCyclesEngines(t *testing.T) {
	h := newConfigHarness(t)
	h.model.config.Voice.Recognizer = "deepgram"
	h.model.config.Voice.Synthesizer = "none"

	h.selectItem(t, menuRecognizer)
	if h.model.config.Voice.Recognizer != "whisper" {
		t.Errorf("recognizer = %s, want whisper", h.model.config.Voice.Recognizer)
	}
	if h.model.feedback != "Speech recognition set to whisper" {
		t.Errorf("feedback = %q", h.model.feedback)
	}

	h.selectItem(t, menuSynthesizer)
	if h.model.config.Voice.Synthesizer != "system" {
		t.Errorf("synthesizer = %s, want system", h.model.config.Voice.Synthesizer)
	}
}

func TestConfigModelSaveError(t *testing.T) {
	h := newConfigHarness(t)
	h.model.save = func(config.Config) error { return errors.New("disk full") }

	h.selectItem(t, menuVerbose)
	if h.model.feedback != "Error: disk full" {
		t.Errorf("feedback = %q", h.model.feedback)
	}
}

func TestConfigModelThemeSelect(t *testing.T) {
	h := newConfigHarness(t)

	h.selectItem(t, menuTheme)
	if h.model.view != viewThemeSelect {
		t.Fatal("expected theme select view")
	}

	// system -> light
	h.press(t, tea.KeyMsg{Type: tea.KeyDown})
	h.press(t, tea.KeyMsg{Type: tea.KeyEnter})

	if h.model.view != viewMain {
		t.Error("selecting a theme should return to the main view")
	}
	if h.store.Preference() != theme.Light {
		t.Errorf("preference = %s, want light", h.store.Preference())
	}
	if render.GetTUITheme().Name != "light" {
		t.Errorf("palette = %s, want light", render.GetTUITheme().Name)
	}
	if len(h.saved) != 0 {
		t.Error("theme changes must not rewrite the config file")
	}
}

func TestConfigModelEsc(t *testing.T) {
	h := newConfigHarness(t)

	h.selectItem(t, menuTheme)
	if cmd := h.press(t, tea.KeyMsg{Type: tea.KeyEsc}); cmd != nil {
		t.Error("esc in theme select should go back, not quit")
	}
	if h.model.view != viewMain {
		t.Error("expected main view")
	}

	if !isQuit(h.press(t, tea.KeyMsg{Type: tea.KeyEsc})) {
		t.Error("esc in main view should quit")
	}
}

func TestConfigModelExitItem(t *testing.T) {
	h := newConfigHarness(t)

	if !isQuit(h.selectItem(t, menuExit)) {
		t.Error("exit item should quit")
	}
}
