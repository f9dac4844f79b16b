// Package ui provides the terminal interface for speak.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/tts"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
)

const ellipsis = "…"

// focusArea is the panel receiving keys.
type focusArea int

const (
	focusText focusArea = iota
	focusSettings
)

// NewProgram returns a new Tea program driving ctrl. The caller keeps
// ownership of ctrl and closes it after the program exits.
func NewProgram(cfg Config, ctrl *tts.Controller) *tea.Program {
	log.Debug("Starting speak", "engine", cfg.Engine, "path", cfg.Path, "markdown", cfg.Markdown)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, ctrl), opts...)
}

type model struct {
	cfg  Config
	ctrl *tts.Controller
	feed *snapshotFeed

	snapshot tts.Snapshot
	status   *StatusDisplay
	settings settingsModel

	textarea textarea.Model
	spinner  spinner.Model
	spinning bool
	help     help.Model
	keys     keyMap
	focus    focusArea

	theme  Theme
	styles styles

	source  string
	preview string
	watcher *fileWatcher

	statusMessage string
	statusIsErr   bool
	statusID      int

	width  int
	height int
}

func newModel(cfg Config, ctrl *tts.Controller) model {
	theme := detectTheme(cfg.Theme)

	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := model{
		cfg:      cfg,
		ctrl:     ctrl,
		feed:     newSnapshotFeed(ctrl),
		snapshot: ctrl.Snapshot(),
		status:   NewStatusDisplay(),
		textarea: ta,
		spinner:  sp,
		help:     help.New(),
		keys:     newKeyMap(),
		focus:    focusText,
		width:    80,
		height:   24,
	}
	m.setTheme(theme)
	m.status.Update(m.snapshot)
	m.settings.sync(m.snapshot)

	if cfg.Path == "" && cfg.Text != "" {
		m.textarea.SetValue(cfg.Text)
		m.setText(cfg.Text)
	}

	if cfg.Watch && cfg.Path != "" {
		w, err := newFileWatcher(cfg.Path)
		if err != nil {
			log.Error("unable to watch file", "file", cfg.Path, "error", err)
		} else {
			m.watcher = w
		}
	}

	m.resize()
	m.refreshKeys()
	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.feed.wait()}
	if m.cfg.Path != "" {
		cmds = append(cmds, loadDocumentCmd(m.cfg, false))
	}
	if m.watcher != nil {
		cmds = append(cmds, m.watcher.wait(m.cfg))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		if m.source != "" {
			cmds = append(cmds, m.renderPreview())
		}

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case snapshotMsg:
		snap := tts.Snapshot(msg)
		m.snapshot = snap
		m.status.Update(snap)
		m.settings.sync(snap)
		m.refreshKeys()
		cmds = append(cmds, m.feed.wait())
		if snap.State.IsActive() && !m.spinning {
			m.spinning = true
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		if !m.status.IsActive() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case documentMsg:
		m.textarea.SetValue(msg.text)
		m.setText(msg.text)
		m.source = msg.source
		m.refreshKeys()
		if m.source != "" {
			cmds = append(cmds, m.renderPreview())
		}
		if msg.reload {
			cmds = append(cmds, m.showStatusMessage("Reloaded "+m.cfg.Path, false))
			if m.watcher != nil {
				cmds = append(cmds, m.watcher.wait(m.cfg))
			}
		}
		return m, tea.Batch(cmds...)

	case previewRenderedMsg:
		m.preview = string(msg)
		return m, nil

	case statusMsg:
		return m, m.showStatusMessage(msg.text, msg.isErr)

	case statusMessageTimeoutMsg:
		if msg.id == m.statusID {
			m.statusMessage = ""
			m.statusIsErr = false
		}
		return m, nil

	case errMsg:
		return m, m.showStatusMessage(msg.Error(), true)
	}

	if m.focus == focusText {
		before := m.textarea.Value()
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
		if after := m.textarea.Value(); after != before {
			m.setText(after)
			m.refreshKeys()
		}
	}

	return m, tea.Batch(cmds...)
}

// handleKey runs global and settings bindings. Keys it does not handle go
// to the textarea.
func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.shutdown()
		return tea.Quit, true

	case key.Matches(msg, m.keys.Play):
		m.command("play", m.ctrl.Play)
		return nil, true

	case key.Matches(msg, m.keys.Stop):
		m.command("stop", m.ctrl.Stop)
		return nil, true

	case key.Matches(msg, m.keys.Test):
		m.command("test", m.ctrl.Test)
		return nil, true

	case key.Matches(msg, m.keys.Export):
		return exportCmd(m.cfg.ExportPath, m.textarea.Value()), true

	case key.Matches(msg, m.keys.Copy):
		return copyCmd(m.textarea.Value()), true

	case key.Matches(msg, m.keys.Theme):
		m.setTheme(m.theme.Toggle())
		if m.source != "" {
			return m.renderPreview(), true
		}
		return nil, true

	case key.Matches(msg, m.keys.Focus):
		m.toggleFocus()
		return nil, true

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return nil, true
	}

	if m.focus != focusSettings {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.settings.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.settings.move(1)
	case key.Matches(msg, m.keys.Left):
		m.adjust(-1)
	case key.Matches(msg, m.keys.Right):
		m.adjust(1)
	}
	return nil, true
}

func (m *model) adjust(dir int) {
	u, ok := m.settings.adjust(dir)
	if !ok {
		return
	}
	if err := m.ctrl.SetConfig(u); err != nil {
		log.Debug("config update dropped", "error", err)
	}
	m.refreshKeys()
}

func (m *model) command(name string, fn func() error) {
	if err := fn(); err != nil {
		log.Debug("command dropped", "command", name, "error", err)
	}
}

func (m *model) setText(s string) {
	if err := m.ctrl.SetText(s); err != nil {
		log.Debug("text update dropped", "error", err)
	}
}

func (m *model) toggleFocus() {
	if m.focus == focusText {
		m.focus = focusSettings
		m.textarea.Blur()
		return
	}
	m.focus = focusText
	m.textarea.Focus()
}

func (m *model) setTheme(t Theme) {
	m.theme = t
	m.styles = newStyles(t)

	focused, blurred := textarea.DefaultStyles()
	focused.Placeholder = m.styles.subtle
	blurred.Placeholder = m.styles.subtle
	focused.Text = m.styles.value
	blurred.Text = m.styles.subtle
	focused.CursorLine = lipgloss.NewStyle()
	m.textarea.FocusedStyle = focused
	m.textarea.BlurredStyle = blurred

	m.spinner.Style = m.styles.speaking
	m.help.Styles.ShortKey = m.styles.value
	m.help.Styles.FullKey = m.styles.value
	m.help.Styles.ShortDesc = m.styles.subtle
	m.help.Styles.FullDesc = m.styles.subtle
}

// refreshKeys mirrors which controls are usable in the current state.
func (m *model) refreshKeys() {
	hasText := !isBlank(m.textarea.Value())
	m.keys.Play.SetEnabled(hasText)
	m.keys.Export.SetEnabled(hasText)
	m.keys.Copy.SetEnabled(hasText)
	m.keys.Stop.SetEnabled(m.snapshot.State.IsActive())
	m.keys.Test.SetEnabled(m.snapshot.Config.Voice != "")
}

func (m *model) showStatusMessage(text string, isErr bool) tea.Cmd {
	m.statusID++
	m.statusMessage = text
	m.statusIsErr = isErr
	return statusTimeout(m.statusID)
}

func (m model) renderPreview() tea.Cmd {
	width := min(m.cfg.GlamourMaxWidth, m.width-4)
	return renderPreviewCmd(m.source, m.cfg.GlamourStyle, m.theme, width)
}

func (m *model) shutdown() {
	m.feed.close()
	if m.watcher != nil {
		m.watcher.close()
	}
}

// Fixed rows: title, error banner, settings panel, status bar and the text
// panel's border.
const chromeHeight = 1 + 1 + 6 + 1 + 2

func (m *model) resize() {
	m.help.Width = m.width
	helpHeight := lipgloss.Height(m.help.View(m.keys))

	textHeight := max(3, m.height-chromeHeight-helpHeight)
	if m.source != "" {
		textHeight = max(3, textHeight/2)
	}
	m.textarea.SetWidth(max(10, m.width-4))
	m.textarea.SetHeight(textHeight)
}

func (m model) View() string {
	st := m.styles
	var sections []string

	sections = append(sections, m.titleView())

	if banner := m.status.ErrorBanner(st, m.width); banner != "" {
		sections = append(sections, banner)
	} else {
		sections = append(sections, "")
	}

	textPanel, settingsPanel := st.panel, st.panel
	if m.focus == focusText {
		textPanel = st.focused
	} else {
		settingsPanel = st.focused
	}
	panelWidth := max(10, m.width-2)
	sections = append(sections,
		textPanel.Width(panelWidth).Render(m.textarea.View()),
		settingsPanel.Width(panelWidth).Render(m.settings.view(st, panelWidth, m.focus == focusSettings)),
	)

	if m.preview != "" {
		sections = append(sections, st.panel.Width(panelWidth).Render(m.previewView()))
	}

	sections = append(sections, m.statusBarView(), m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m model) titleView() string {
	st := m.styles
	note := fmt.Sprintf(" %s · %d voices · %s theme", m.cfg.Engine, len(m.snapshot.Voices), m.theme)
	return st.title.Render("Speak") + st.subtitle.Render(note)
}

// previewView clips the rendered preview to the rows left on screen.
func (m model) previewView() string {
	used := lipgloss.Height(m.textarea.View()) + chromeHeight + lipgloss.Height(m.help.View(m.keys)) + 2
	rows := max(1, m.height-used)
	lines := strings.Split(m.preview, "\n")
	if len(lines) > rows {
		lines = lines[:rows]
	}
	return strings.Join(lines, "\n")
}

func (m model) statusBarView() string {
	st := m.styles

	left := m.status.CompactStatus(st)
	if m.status.IsActive() {
		left = m.spinner.View() + " " + left
	}

	note := m.statusMessage
	noteStyle := st.statusBar
	if note != "" && !m.statusIsErr {
		noteStyle = st.message
	} else if note != "" {
		noteStyle = st.statusBar.Foreground(st.palette.errFg)
	}

	words := len(strings.Fields(m.textarea.Value()))
	counter := fmt.Sprintf(" %d words ", words)

	avail := max(0, m.width-ansi.PrintableRuneWidth(left)-ansi.PrintableRuneWidth(counter)-2)
	note = truncate.StringWithTail(note, uint(avail), ellipsis) //nolint:gosec
	padding := max(0, avail-ansi.PrintableRuneWidth(note))

	return st.statusBar.Render(" "+left+" ") +
		noteStyle.Render(note) +
		st.statusBar.Render(strings.Repeat(" ", padding)) +
		st.statusBar.Render(counter)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
