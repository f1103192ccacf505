package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"tucan/internal/controller"
	"tucan/internal/ui/views"
)

// Model is the launcher's Bubble Tea model. It owns the controller: every
// plugin message and keystroke is applied on the Update goroutine.
type Model struct {
	ctrl   *controller.Controller
	logger *log.Logger

	input    textinput.Model
	help     help.Model
	keys     keyMap
	renderer *views.Renderer

	width       int
	height      int
	inPagerMode bool

	program *tea.Program
	helpOps *HelpOps
}

// NewModel creates a new UI model
func NewModel(ctrl *controller.Controller, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.Default()
	}

	input := textinput.New()
	input.Prompt = "❯ "
	input.Placeholder = "Search apps, repositories, windows..."
	input.Focus()

	return &Model{
		ctrl:     ctrl,
		logger:   logger.With("component", "ui"),
		input:    input,
		help:     help.New(),
		keys:     newKeyMap(),
		renderer: views.NewRenderer(),
	}
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
	m.helpOps = NewHelpOps(p)
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case PluginMsg:
		if m.ctrl.Handle(msg.Message) {
			m.logger.Info("Plugin requested exit")
			return m, tea.Quit
		}
		return m, nil

	case helpPagerMsg:
		if msg.err != nil {
			m.logger.Warn("Help pager failed", "err", msg.err)
		}
		return m, nil

	case pauseRenderingMsg:
		m.inPagerMode = true
		return m, nil

	case resumeRenderingMsg:
		m.inPagerMode = false
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.ctrl.MoveUp()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.ctrl.MoveDown()
		return m, nil

	case key.Matches(msg, m.keys.Activate):
		if row, ok := m.ctrl.Selected(); ok {
			m.logger.Debug("Activating entry", "plugin", row.PluginID, "entry", row.Entry.ID)
		}
		m.ctrl.ActivateSelected()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		if m.program == nil {
			return m, nil
		}
		return m, m.fetchHelpPager(renderHelpContent(m.keys, m.ctrl.Plugins()))

	case key.Matches(msg, m.keys.Clear):
		m.input.SetValue("")
		m.search()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.search()
	return m, cmd
}

// search propagates the input to every plugin when it changed
func (m *Model) search() {
	if q := m.input.Value(); q != m.ctrl.Query() {
		reached := m.ctrl.Search(q)
		m.logger.Debug("Search sent", "query", q, "plugins", reached)
	}
}

// fetchHelpPager returns a command that shows help using ov pager
func (m *Model) fetchHelpPager(helpContent string) tea.Cmd {
	return func() tea.Msg {
		m.program.Send(pauseRenderingMsg{})
		err := m.helpOps.ShowHelpInPager(helpContent)
		m.program.Send(resumeRenderingMsg{})
		return helpPagerMsg{err: err}
	}
}

// View renders the model
func (m *Model) View() string {
	if m.inPagerMode {
		return ""
	}
	return m.renderer.Render(views.ViewState{
		Width:         m.width,
		Height:        m.height,
		Input:         m.input.View(),
		Query:         m.ctrl.Query(),
		Sections:      m.ctrl.Sections(),
		SelectedIndex: m.ctrl.SelectedIndex(),
		Plugins:       len(m.ctrl.Plugins()),
		HelpView:      m.help.View(m.keys),
	})
}
