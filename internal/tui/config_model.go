package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/llamavoice/internal/config"
	"github.com/diogo/llamavoice/internal/theme"
)

// configView represents the current view in the config menu
type configView int

const (
	viewMain configView = iota
	viewThemeSelect
)

// Menu item indices for main view
const (
	menuTheme = iota
	menuRecognizer
	menuSynthesizer
	menuAutoSpeak
	menuVerbose
	menuCopyToClipboard
	menuExit
	menuItemCount
)

// feedbackClearMsg is sent to clear feedback messages
type feedbackClearMsg struct{}

// ConfigModel is the settings menu.
type ConfigModel struct {
	config config.Config
	theme  *theme.Store
	save   func(config.Config) error

	configPath  string
	storagePath string
	logPath     string

	view        configView
	cursor      int
	themeCursor int

	feedback        string
	feedbackTimeout time.Duration

	width  int
	height int
	ready  bool
}

// NewConfigModel creates the settings menu for cfg. Changes are saved with
// config.SaveConfig; the theme goes through store.
func NewConfigModel(cfg config.Config, store *theme.Store) ConfigModel {
	configPath, _ := config.GetConfigPath()
	storagePath, _ := config.GetStoragePath()
	logPath, _ := config.GetLogPath()

	themeCursor := 0
	for i, p := range theme.Preferences {
		if p == store.Preference() {
			themeCursor = i
		}
	}

	return ConfigModel{
		config:          cfg,
		theme:           store,
		save:            config.SaveConfig,
		configPath:      configPath,
		storagePath:     storagePath,
		logPath:         logPath,
		view:            viewMain,
		themeCursor:     themeCursor,
		feedbackTimeout: 2 * time.Second,
	}
}

// Init initializes the model
func (m ConfigModel) Init() tea.Cmd {
	return nil
}

func clearFeedback(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return feedbackClearMsg{}
	})
}

// Update handles messages and updates the model
func (m ConfigModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case feedbackClearMsg:
		m.feedback = ""

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "esc":
			if m.view == viewThemeSelect {
				m.view = viewMain
			} else {
				return m, tea.Quit
			}

		case "up", "k":
			if m.view == viewMain {
				m.cursor = (m.cursor - 1 + menuItemCount) % menuItemCount
			} else {
				n := len(theme.Preferences)
				m.themeCursor = (m.themeCursor - 1 + n) % n
			}

		case "down", "j":
			if m.view == viewMain {
				m.cursor = (m.cursor + 1) % menuItemCount
			} else {
				m.themeCursor = (m.themeCursor + 1) % len(theme.Preferences)
			}

		case "enter", " ":
			return m.handleSelect()
		}
	}

	return m, nil
}

// persist saves the config and sets feedback.
func (m ConfigModel) persist(success string) (tea.Model, tea.Cmd) {
	if err := m.save(m.config); err != nil {
		m.feedback = fmt.Sprintf("Error: %v", err)
	} else {
		m.feedback = success
	}
	return m, clearFeedback(m.feedbackTimeout)
}

func enabledText(v bool) string {
	if v {
		return "enabled"
	}
	return "disabled"
}

func (m ConfigModel) handleSelect() (tea.Model, tea.Cmd) {
	if m.view == viewThemeSelect {
		pref := theme.Preferences[m.themeCursor]
		m.view = viewMain
		if err := m.theme.Set(pref); err != nil {
			m.feedback = fmt.Sprintf("Error: %v", err)
			return m, clearFeedback(m.feedbackTimeout)
		}
		m.theme.Apply()
		UpdateTheme()
		m.feedback = fmt.Sprintf("Theme set to %s", pref)
		return m, clearFeedback(m.feedbackTimeout)
	}

	switch m.cursor {
	case menuTheme:
		m.view = viewThemeSelect
		return m, nil

	case menuRecognizer:
		m.config.Voice.Recognizer = config.NextOption(config.AvailableRecognizers(), m.config.Voice.Recognizer)
		return m.persist("Speech recognition set to " + m.config.Voice.Recognizer)

	case menuSynthesizer:
		m.config.Voice.Synthesizer = config.NextOption(config.AvailableSynthesizers(), m.config.Voice.Synthesizer)
		return m.persist("Speech synthesis set to " + m.config.Voice.Synthesizer)

	case menuAutoSpeak:
		m.config.AutoSpeak = !m.config.AutoSpeak
		return m.persist("Auto-speak " + enabledText(m.config.AutoSpeak))

	case menuVerbose:
		m.config.Verbose = !m.config.Verbose
		return m.persist("Verbose logging " + enabledText(m.config.Verbose))

	case menuCopyToClipboard:
		m.config.CopyToClipboard = !m.config.CopyToClipboard
		return m.persist("Copy to clipboard " + enabledText(m.config.CopyToClipboard))

	case menuExit:
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI
func (m ConfigModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	header := configHeaderStyle.Width(contentWidth).Render(configTitleStyle.Render("✦ Configuration"))
	sections = append(sections, header)

	pathsContent := lipgloss.JoinVertical(lipgloss.Left,
		configSectionTitleStyle.Render("Paths"),
		fmt.Sprintf("   Config:  %s", configPathStyle.Render(m.configPath)),
		fmt.Sprintf("   Storage: %s", configPathStyle.Render(m.storagePath)),
		fmt.Sprintf("   Log:     %s", configPathStyle.Render(m.logPath)),
	)
	sections = append(sections, configPanelStyle.Width(contentWidth).Render(pathsContent))

	var settingsContent string
	if m.view == viewThemeSelect {
		settingsContent = m.renderThemeSelect()
	} else {
		settingsContent = m.renderMainMenu()
	}
	sections = append(sections, configPanelStyle.Width(contentWidth).Render(settingsContent))

	if m.feedback != "" {
		sections = append(sections, configFeedbackStyle.Render("✓ "+m.feedback))
	}

	back := "Exit"
	if m.view != viewMain {
		back = "Back"
	}
	bar := renderShortcuts([]shortcut{{"↑↓", "Navigate"}, {"Enter", "Select"}, {"Esc", back}})
	sections = append(sections, configStatusBarStyle.Width(contentWidth).Render(bar))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ConfigModel) menuLine(index int, label, value string) string {
	cursor := "  "
	style := configMenuItemStyle
	if m.cursor == index {
		cursor = configCursorStyle.Render("▸ ")
		style = configMenuSelectedStyle
	}
	if value == "" {
		return cursor + style.Render(label)
	}
	return fmt.Sprintf("%s%s%s", cursor, style.Width(22).Render(label), value)
}

func (m ConfigModel) renderMainMenu() string {
	themeValue := fmt.Sprintf("%s (%s)", m.theme.Preference(), m.theme.Resolved())

	items := []string{
		configSectionTitleStyle.Render("Settings"),
		"",
		m.menuLine(menuTheme, "Theme", configValueStyle.Render(themeValue)),
		m.menuLine(menuRecognizer, "Speech Recognition", configValueStyle.Render(m.config.Voice.Recognizer)),
		m.menuLine(menuSynthesizer, "Speech Synthesis", configValueStyle.Render(m.config.Voice.Synthesizer)),
		m.menuLine(menuAutoSpeak, "Auto-speak Replies", m.renderBoolValue(m.config.AutoSpeak)),
		m.menuLine(menuVerbose, "Verbose Logging", m.renderBoolValue(m.config.Verbose)),
		m.menuLine(menuCopyToClipboard, "Copy to Clipboard", m.renderBoolValue(m.config.CopyToClipboard)),
		"",
		m.menuLine(menuExit, "Exit", ""),
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (m ConfigModel) renderThemeSelect() string {
	descriptions := map[theme.Preference]string{
		theme.Light:  "Light palette",
		theme.Dark:   "Dark palette",
		theme.System: "Follow the terminal background",
	}

	items := []string{configSectionTitleStyle.Render("Select Theme"), ""}
	for i, p := range theme.Preferences {
		cursor := "  "
		style := configMenuItemStyle
		if m.themeCursor == i {
			cursor = configCursorStyle.Render("▸ ")
			style = configMenuSelectedStyle
		}

		current := ""
		if p == m.theme.Preference() {
			current = configStatusOkStyle.Render(" (current)")
		}
		items = append(items, cursor+style.Render(fmt.Sprintf("%s - %s", p, descriptions[p]))+current)
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (m ConfigModel) renderBoolValue(value bool) string {
	if value {
		return configEnabledStyle.Render("enabled")
	}
	return configDisabledStyle.Render("disabled")
}

// RunConfig starts the settings menu.
func RunConfig(cfg config.Config, store *theme.Store) error {
	p := tea.NewProgram(NewConfigModel(cfg, store), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
