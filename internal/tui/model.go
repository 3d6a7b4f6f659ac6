// Package tui is the terminal chat shell for one document.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cloo-solutions/docgpt/internal/domain"
	"github.com/cloo-solutions/docgpt/internal/service"
)

// Greeting is rendered above the log once a document is ready. It is not
// part of the session's messages.
const Greeting = "I'm ready Ask away!"

// ChatPort is the TUI-facing subset of the pipeline.
type ChatPort interface {
	Ask(ctx context.Context, session *service.Session, question string, sink service.Sink) (string, error)
}

// streamMsg carries one token, or the end of a turn when done is set.
type streamMsg struct {
	token  string
	done   bool
	answer string
	err    error
}

// Model is the Bubble Tea model for a chat over one session.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	chat    ChatPort
	session *service.Session

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	events    <-chan streamMsg
	streaming bool
	partial   string
	status    string
	ready     bool
}

// New creates a model for session, which should already have a document.
func New(ctx context.Context, chat ChatPort, session *service.Session) Model {
	ctx, cancel := context.WithCancel(ctx)

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask anything about your document..."
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:      ctx,
		cancel:   cancel,
		chat:     chat,
		session:  session,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   "Enter to send, Ctrl+T to switch model, Ctrl+C to quit.",
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, spinner and stream events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, lh := logBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header lines, status, input box
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-lh)
		m.refresh()
		return m, nil

	case streamMsg:
		if msg.done {
			m.streaming = false
			m.partial = ""
			m.events = nil
			if msg.err != nil {
				m.status = "Error: " + msg.err.Error()
			} else {
				m.status = fmt.Sprintf("Answered by %s.", m.session.Model().Label)
			}
			m.refresh()
			return m, nil
		}
		m.partial += msg.token
		m.refresh()
		return m, waitForStream(m.events)

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			m.cancel()
			return m, tea.Quit
		case tea.KeyCtrlT:
			m.cycleModel()
			return m, nil
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			if m.streaming {
				m.status = "Wait for the current answer to finish."
				return m, nil
			}
			m.input.Reset()
			return m.ask(q)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) (tea.Model, tea.Cmd) {
	events := make(chan streamMsg, 32)
	m.events = events
	m.streaming = true
	m.partial = ""
	m.status = "Thinking..."

	chat, session, ctx := m.chat, m.session, m.ctx
	go func() {
		defer close(events)
		sink := service.SinkFuncs{
			Token: func(token string) { events <- streamMsg{token: token} },
		}
		answer, err := chat.Ask(ctx, session, question, sink)
		events <- streamMsg{done: true, answer: answer, err: err}
	}()

	return m, tea.Batch(waitForStream(events), m.spinner.Tick)
}

func waitForStream(events <-chan streamMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *Model) cycleModel() {
	options := m.session.Profile().ModelOptions()
	current := m.session.Model()
	next := options[0]
	for i, opt := range options {
		if opt.ID == current.ID {
			next = options[(i+1)%len(options)]
			break
		}
	}
	if _, err := m.session.SelectModel(next.ID); err != nil {
		m.status = "Error: " + err.Error()
		return
	}
	m.status = "Model: " + next.Label
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderLog())
	m.viewport.GotoBottom()
}

// renderLog draws the greeting, the session's messages and the answer
// being streamed.
func (m Model) renderLog() string {
	width := max(20, m.viewport.Width)
	var b strings.Builder

	if m.session.Document() != nil {
		b.WriteString(infoStyle.Width(width).Render(Greeting))
		b.WriteString("\n\n")
	}
	for _, msg := range m.session.History() {
		b.WriteString(renderMessage(msg.Role, msg.Text, width))
		b.WriteString("\n")
	}
	if m.streaming && m.partial != "" {
		b.WriteString(renderMessage(domain.RoleAI, m.partial, width))
		b.WriteString("\n")
	}
	return b.String()
}

func renderMessage(role domain.Role, text string, width int) string {
	if role == domain.RoleHuman {
		return humanLabel.Render("You") + "\n" + humanStyle.Width(width).Render(text)
	}
	return aiLabel.Render("AI") + "\n" + aiStyle.Width(width).Render(text)
}

// View renders the layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := m.session.Profile().Title()
	header := headerStyle.Render(title)
	doc := "no document"
	if d := m.session.Document(); d != nil {
		doc = d.Name
	}
	sub := subtleStyle.Render(fmt.Sprintf("%s · model %s", doc, m.session.Model().Label))

	status := m.status
	if m.streaming {
		status = m.spinner.View() + " " + status
	}

	return header + "\n" + sub + "\n" +
		logBoxStyle.Render(m.viewport.View()) + "\n" +
		inputBoxStyle.Render(m.input.View()) + "\n" +
		statusStyle.Render(status)
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	infoStyle     = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8"))
	humanLabel    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	aiLabel       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	humanStyle    = lipgloss.NewStyle().PaddingLeft(2)
	aiStyle       = lipgloss.NewStyle().PaddingLeft(2)
	logBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
