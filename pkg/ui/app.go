// Package ui is the bubbletea front end over the aggregator. The update
// loop is the single mutator of the session: inbound websocket events
// arrive as messages, and the gallery's settle continuations come back as
// generation-tagged tick messages so stale transitions drop out on their
// own.
package ui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	bspinner "github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/cortex-on/agentdeck/pkg/client"
	"github.com/cortex-on/agentdeck/pkg/config"
	"github.com/cortex-on/agentdeck/pkg/session"
	"github.com/cortex-on/agentdeck/pkg/transcript"
)

const sidebarWidth = 28

type updateMsg transcript.UpdateEvent

type sourceClosedMsg struct{}

type stateMsg client.State

type settleMsg struct{ gen uint64 }

// AppModel is the root bubbletea model.
type AppModel struct {
	cfg     config.ClientConfig
	session *session.Session
	source  *client.Source

	input   textinput.Model
	spinner bspinner.Model

	renderer  *glamour.TermRenderer
	width     int
	height    int
	connState client.State
	notice    string
}

// NewAppModel builds the root model around an already-dialed source.
func NewAppModel(cfg config.ClientConfig, sess *session.Session, source *client.Source) AppModel {
	sp := bspinner.New()
	sp.Spinner = bspinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)

	ti := textinput.New()
	ti.Placeholder = "Describe the task and press enter"
	ti.Focus()

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err != nil {
		log.Warn().Err(err).Msg("markdown renderer unavailable, falling back to raw output")
		renderer = nil
	}

	return AppModel{
		cfg:       cfg,
		session:   sess,
		source:    source,
		input:     ti,
		spinner:   sp,
		renderer:  renderer,
		connState: client.StateConnecting,
	}
}

func waitForUpdate(ch <-chan transcript.UpdateEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return sourceClosedMsg{}
		}
		return updateMsg(ev)
	}
}

func waitForConnState(ch <-chan client.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg(st)
	}
}

func (m AppModel) settleAfter(gen uint64) tea.Cmd {
	return tea.Tick(m.cfg.SettleDelay(), func(time.Time) tea.Msg {
		return settleMsg{gen: gen}
	})
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textinput.Blink,
		waitForUpdate(m.source.Events()),
		waitForConnState(m.source.States()),
	)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case updateMsg:
		gen, started := m.session.Apply(transcript.UpdateEvent(msg))
		cmds := []tea.Cmd{waitForUpdate(m.source.Events())}
		if started {
			cmds = append(cmds, m.settleAfter(gen))
		}
		return m, tea.Batch(cmds...)

	case settleMsg:
		m.session.Gallery().Settle(msg.gen)
		return m, nil

	case stateMsg:
		m.connState = client.State(msg)
		if m.connState == client.StateClosed {
			m.session.HandleDisconnect()
			return m, nil
		}
		return m, waitForConnState(m.source.States())

	case sourceClosedMsg:
		m.connState = client.StateClosed
		m.session.HandleDisconnect()
		return m, nil

	case bspinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		_ = m.source.Close()
		return m, tea.Quit

	case "enter":
		text := m.input.Value()
		if text == "" || m.session.Started() {
			return m, nil
		}
		if err := m.session.StartTask(context.Background(), text); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.input.Blur()
		m.notice = ""
		return m, m.spinner.Tick

	case "left", "shift+tab":
		if gen, started := m.session.Gallery().SelectPrevious(); started {
			return m, m.settleAfter(gen)
		}
		return m, nil

	case "right", "tab":
		if gen, started := m.session.Gallery().SelectNext(); started {
			return m, m.settleAfter(gen)
		}
		return m, nil

	case "esc":
		if gen, started := m.session.Gallery().Dismiss(); started {
			return m, m.settleAfter(gen)
		}
		return m, nil

	case "ctrl+y":
		idx, ok := m.session.Gallery().Selected()
		if !ok {
			return m, nil
		}
		if entry, ok := m.session.Gallery().Entry(idx); ok {
			if err := clipboard.WriteAll(entry.Output); err != nil {
				m.notice = "copy failed: " + err.Error()
			} else {
				m.notice = "output copied"
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m AppModel) View() string {
	header := headerStyle.Render("agentdeck") + "  " + mutedStyle.Render(m.connState.String())
	if m.notice != "" {
		header += "  " + mutedStyle.Render(m.notice)
	}

	transcriptView := renderTranscript(m.session.Transcript(), m.session.Loading(), m.spinner.View())
	if url := m.session.LiveURL(); url != "" {
		transcriptView += "\n" + liveURLStyle.Render("live preview: "+url) + "\n"
	}

	mainWidth := m.width - sidebarWidth - 2
	if mainWidth < 20 {
		mainWidth = 20
	}
	main := lipgloss.NewStyle().Width(mainWidth).Render(transcriptView)
	side := renderGallery(m.session.Gallery(), sidebarWidth)
	body := lipgloss.JoinHorizontal(lipgloss.Top, main, "  ", side)

	sections := []string{header, "", body}
	if detail := renderDetail(m.session.Gallery(), m.renderer); detail != "" {
		sections = append(sections, "", detail)
	}
	if !m.session.Started() {
		sections = append(sections, "", m.input.View())
	}
	sections = append(sections, "", mutedStyle.Render("tab/shift+tab: outputs · esc: dismiss · ctrl+y: copy · ctrl+c: quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Run dials the backend, builds the session and starts the program.
func Run(cfg config.ClientConfig) error {
	source, err := client.Dial(context.Background(), cfg.URL,
		client.WithMaxRetries(cfg.MaxRetries))
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	sess := session.New(source)
	p := tea.NewProgram(NewAppModel(cfg, sess, source), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
