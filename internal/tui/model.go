package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/diogo/llamavoice/internal/chat"
	"github.com/diogo/llamavoice/internal/config"
	"github.com/diogo/llamavoice/internal/history"
	"github.com/diogo/llamavoice/internal/models"
	"github.com/diogo/llamavoice/internal/render"
	"github.com/diogo/llamavoice/internal/theme"
)

const noticeDuration = 3 * time.Second

// Animation tick message
type animationTickMsg time.Time

type (
	sendDoneMsg    struct{ err error }
	listenDoneMsg  struct{ err error }
	noticeClearMsg struct{}
)

// clipboardWrite is replaced in tests.
var clipboardWrite = clipboard.WriteAll

// ChatController is the part of chat.Controller the TUI drives.
type ChatController interface {
	Send(ctx context.Context, content string) error
	Snapshot() chat.State
	StopSpeaking()
	LastReply() (string, bool)
}

// VoiceControl is the part of voice.Adapter the TUI drives.
type VoiceControl interface {
	StartListening(ctx context.Context) error
	StopListening()
	Listening() bool
	CanListen() bool
}

// ChatOptions wires the chat screen.
type ChatOptions struct {
	Controller ChatController
	// Voice may be nil when speech is disabled.
	Voice  VoiceControl
	Theme  *theme.Store
	Bridge *Bridge

	Markdown      config.MarkdownConfig
	ServerURL     string
	TranscriptDir string
}

// Model represents the chat screen state
type Model struct {
	ctx  context.Context
	opts ChatOptions

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	state          chat.State
	listening      bool
	alerts         []alertMsg
	notice         string
	err            error
	ready          bool
	animationFrame int

	width  int
	height int
}

func newTextarea() textarea.Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message or press Ctrl+R to speak..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()
	styleTextarea(&ta)
	return ta
}

func styleTextarea(ta *textarea.Model) {
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle
}

// NewChatModel creates the chat screen. opts.Bridge must be the bridge the
// controller and voice adapter report to.
func NewChatModel(ctx context.Context, opts ChatOptions) Model {
	if opts.Bridge == nil {
		opts.Bridge = NewBridge()
	}

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	return Model{
		ctx:      ctx,
		opts:     opts,
		textarea: newTextarea(),
		spinner:  s,
		state:    opts.Controller.Snapshot(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.opts.Bridge.wait(),
	)
}

func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

func clearNotice() tea.Cmd {
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return noticeClearMsg{}
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if isBridgeMsg(msg) {
		cmds = append(cmds, m.opts.Bridge.wait())
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case alertMsg:
		m.alerts = append(m.alerts, msg)
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if len(m.alerts) > 0 {
			if msg.String() == "ctrl+c" {
				m.dismissAlerts()
				return m, tea.Quit
			}
			m.dismissAlert()
			return m, tea.Batch(cmds...)
		}

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if !m.listening {
				return m, tea.Quit
			}
			m.stopListening()

		case "ctrl+r":
			if m.opts.Voice == nil {
				return m.withNotice("Voice input is disabled")
			}
			return m, m.listen()

		case "ctrl+x":
			m.stopListening()
			return m, nil

		case "ctrl+s":
			m.opts.Controller.StopSpeaking()
			m.refresh()
			return m, nil

		case "ctrl+t":
			m, cmd = m.cycleTheme()
			return m, cmd

		case "enter":
			m, cmd = m.submit(m.textarea.Value())
			return m, cmd
		}

	case transcriptMsg:
		m.textarea.SetValue(msg.text)
		m, cmd = m.sendTranscript(msg.text)
		cmds = append(cmds, cmd)

	case clearInputMsg:
		m.textarea.Reset()

	case stateChangedMsg:
		m.refresh()

	case sendDoneMsg:
		m.err = msg.err
		m.refresh()

	case listenDoneMsg:
		if msg.err != nil {
			log.Debug().Err(msg.err).Msg("listening did not start")
		}
		m.refresh()

	case noticeClearMsg:
		m.notice = ""

	case spinner.TickMsg:
		if m.state.Streaming {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.state.Streaming {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Only pass KeyMsg to textarea to prevent escape sequence leaks
	if !m.state.Streaming {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 4
	inputHeight := 6
	statusHeight := 2
	padding := 2

	vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
	if vpHeight < 5 {
		vpHeight = 5
	}
	contentWidth := m.width - 4

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 4)
	m.updateViewport()
}

// refresh pulls the latest controller and voice state.
func (m *Model) refresh() {
	m.state = m.opts.Controller.Snapshot()
	if m.opts.Voice != nil {
		m.listening = m.opts.Voice.Listening()
	}
	if m.ready {
		m.updateViewport()
		m.viewport.GotoBottom()
	}
}

func (m *Model) dismissAlert() {
	close(m.alerts[0].ack)
	m.alerts = m.alerts[1:]
}

func (m *Model) dismissAlerts() {
	for len(m.alerts) > 0 {
		m.dismissAlert()
	}
}

func isExit(input string) bool {
	switch input {
	case "exit", "quit", "/exit", "/quit":
		return true
	}
	return false
}

// submit handles a line of input: exit words, slash commands, or a chat
// message. Messages are sent untrimmed; blank input does nothing.
func (m Model) submit(input string) (Model, tea.Cmd) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return m, nil
	}
	if isExit(trimmed) {
		return m, tea.Quit
	}
	if strings.HasPrefix(trimmed, "/") {
		m.textarea.Reset()
		return m.runCommand(trimmed)
	}
	return m.startSend(input)
}

// sendTranscript sends recognized speech as a chat message. Exit words and
// slash commands are not interpreted.
func (m Model) sendTranscript(text string) (Model, tea.Cmd) {
	if strings.TrimSpace(text) == "" {
		return m, nil
	}
	return m.startSend(text)
}

func (m Model) startSend(input string) (Model, tea.Cmd) {
	if m.state.Streaming {
		return m, nil
	}

	m.err = nil
	m.animationFrame = 0
	m.state.Streaming = true

	return m, tea.Batch(
		m.send(input),
		m.spinner.Tick,
		animationTick(),
	)
}

func (m Model) send(content string) tea.Cmd {
	ctrl := m.opts.Controller
	ctx := m.ctx
	return func() tea.Msg {
		return sendDoneMsg{err: ctrl.Send(ctx, content)}
	}
}

func (m Model) listen() tea.Cmd {
	voice := m.opts.Voice
	ctx := m.ctx
	return func() tea.Msg {
		return listenDoneMsg{err: voice.StartListening(ctx)}
	}
}

func (m *Model) stopListening() {
	if m.opts.Voice != nil {
		m.opts.Voice.StopListening()
	}
	m.refresh()
}

func (m Model) withNotice(text string) (Model, tea.Cmd) {
	m.notice = text
	return m, clearNotice()
}

// runCommand executes a slash command.
func (m Model) runCommand(input string) (Model, tea.Cmd) {
	fields := strings.Fields(input)
	name, args := fields[0], fields[1:]

	switch name {
	case "/copy":
		reply, ok := m.opts.Controller.LastReply()
		if !ok {
			return m.withNotice("Nothing to copy yet")
		}
		if err := clipboardWrite(reply); err != nil {
			m.err = fmt.Errorf("copy failed: %w", err)
			return m, nil
		}
		return m.withNotice("Copied last reply to clipboard")

	case "/save":
		format, err := history.ParseFormat(strings.Join(args, ""))
		if err != nil {
			m.err = err
			return m, nil
		}
		t := history.NewTranscript(m.opts.Controller.Snapshot().Messages, time.Now())
		path, err := history.Save(m.opts.TranscriptDir, t, format)
		if err != nil {
			m.err = err
			return m, nil
		}
		return m.withNotice("Saved transcript to " + path)

	case "/theme":
		if m.opts.Theme == nil {
			return m, nil
		}
		if len(args) == 0 {
			return m.withNotice(fmt.Sprintf("Theme: %s (%s)", m.opts.Theme.Preference(), m.opts.Theme.Resolved()))
		}
		pref, err := theme.ParsePreference(args[0])
		if err != nil {
			m.err = err
			return m, nil
		}
		if err := m.opts.Theme.Set(pref); err != nil {
			log.Warn().Err(err).Msg("theme not persisted")
		}
		m.applyTheme()
		return m.withNotice(fmt.Sprintf("Theme: %s (%s)", pref, m.opts.Theme.Resolved()))

	case "/help":
		return m.withNotice("/copy  /save [md|json]  /theme [light|dark|system]  exit")
	}

	return m.withNotice("Unknown command: " + name)
}

func (m Model) cycleTheme() (Model, tea.Cmd) {
	if m.opts.Theme == nil {
		return m, nil
	}
	pref, err := m.opts.Theme.Cycle()
	if err != nil {
		log.Warn().Err(err).Msg("theme not persisted")
	}
	m.applyTheme()
	return m.withNotice(fmt.Sprintf("Theme: %s (%s)", pref, m.opts.Theme.Resolved()))
}

func (m *Model) applyTheme() {
	m.opts.Theme.Apply()
	UpdateTheme()
	styleTextarea(&m.textarea)
	m.spinner.Style = loadingStyle
	if m.ready {
		m.updateViewport()
	}
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	if len(m.alerts) > 0 {
		return m.renderAlert()
	}

	var sections []string
	contentWidth := m.width - 4

	sections = append(sections, headerStyle.Width(contentWidth).Render(m.renderHeader()))

	var messagesContent string
	if len(m.state.Messages) == 0 {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	var inputContent string
	if m.state.Streaming {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.notice != "" {
		sections = append(sections, noticeStyle.Render("  "+m.notice))
	}
	if m.err != nil {
		sections = append(sections, FormatError(m.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	parts := []string{titleStyle.Render("✦ " + models.AppName)}
	if m.opts.ServerURL != "" {
		parts = append(parts, hintStyle.Render("  •  "), subtitleStyle.Render(m.opts.ServerURL))
	}
	if m.listening {
		parts = append(parts, listeningBadgeStyle.Render("● Listening..."))
	}
	if m.state.Speaking {
		parts = append(parts, speakingBadgeStyle.Render("♪ Speaking..."))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

func (m Model) renderAlert() string {
	text := alertTextStyle.Render(m.alerts[0].text)
	hint := hintStyle.Render("Press any key to continue")
	box := alertStyle.Render(lipgloss.JoinVertical(lipgloss.Center, text, "", hint))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	icon := welcomeIconStyle.Width(width).Render("✦")
	title := welcomeTitleStyle.Width(width).Render("Welcome to " + models.AppName)
	subtitle := welcomeStyle.Width(width).Render("Type a message below, or press Ctrl+R and speak")

	content := lipgloss.JoinVertical(lipgloss.Center, "", icon, "", title, "", subtitle, "")

	topPadding := (height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	frame := m.animationFrame

	spin := lipgloss.NewStyle().
		Foreground(gradientColors[frame%len(gradientColors)]).
		Bold(true).
		Render(chars[frame%len(chars)])

	var dots strings.Builder
	numDots := (frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dots.WriteString(lipgloss.NewStyle().Foreground(gradientColors[(frame+i)%len(gradientColors)]).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	text := lipgloss.NewStyle().Foreground(colorText).Render(" " + models.AssistantName + " is replying ")
	return fmt.Sprintf("%s %s %s", spin, text, dots.String())
}

func (m Model) renderStatusBar(width int) string {
	shortcuts := []shortcut{{"Enter", "Send"}}
	if m.opts.Voice != nil && m.opts.Voice.CanListen() {
		if m.listening {
			shortcuts = append(shortcuts, shortcut{"Ctrl+X", "Stop listening"})
		} else {
			shortcuts = append(shortcuts, shortcut{"Ctrl+R", "Listen"})
		}
	}
	if m.state.Speaking {
		shortcuts = append(shortcuts, shortcut{"Ctrl+S", "Stop speaking"})
	}
	shortcuts = append(shortcuts, shortcut{"Ctrl+T", "Theme"}, shortcut{"Esc", "Quit"})

	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(renderShortcuts(shortcuts))
}

type shortcut struct {
	key  string
	desc string
}

func renderShortcuts(shortcuts []shortcut) string {
	items := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		items = append(items, lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		))
	}
	return strings.Join(items, "  │  ")
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6

	for i, msg := range m.state.Messages {
		if i > 0 {
			content.WriteString("\n")
		}

		switch msg.Role {
		case models.RoleUser:
			label := userLabelStyle.Render("● You")
			bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.Content)
			content.WriteString(label + "\n" + bubble)
		default:
			label := assistantLabelStyle.Render("✦ " + models.AssistantName)
			rendered, err := render.Reply(msg.Content, m.opts.Markdown, bubbleWidth-4)
			if err != nil {
				rendered = msg.Content
			}
			rendered = strings.TrimRight(rendered, "\n")
			bubble := assistantBubbleStyle.Width(bubbleWidth).Render(rendered)
			content.WriteString(label + "\n" + bubble)
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// RunChat starts the chat TUI and blocks until it exits.
func RunChat(ctx context.Context, opts ChatOptions) error {
	if opts.Bridge == nil {
		opts.Bridge = NewBridge()
	}
	defer opts.Bridge.Close()

	m := NewChatModel(ctx, opts)
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}
