// Package ui holds the terminal front-ends: a full-screen bubbletea chat and a line-mode REPL.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/persona-chat/pkg/persona"
	"github.com/go-go-golems/persona-chat/pkg/transcript"
)

const (
	inputHeight = 3
	// title, status and help lines plus the viewport border
	chromeHeight = 5
)

type Option func(*Model)

// WithGlamourStyle selects a glamour standard style ("dark", "light", "notty", ...).
// The default detects the terminal background.
func WithGlamourStyle(style string) Option {
	return func(m *Model) {
		m.glamourStyle = style
	}
}

// WithClipboard replaces the function used to copy the last reply.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		m.copyToClipboard = write
	}
}

// WithContext sets the parent context of every exchange.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		m.ctx = ctx
	}
}

type Model struct {
	ctx     context.Context
	backend *Backend
	persona *persona.Persona

	transcript transcript.Transcript
	busy       bool
	status     string
	statusErr  bool

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	glamourStyle    string
	renderer        *glamour.TermRenderer
	copyToClipboard func(string) error

	width  int
	height int
	ready  bool
}

func NewModel(svc ChatService, p *persona.Persona, opts ...Option) Model {
	ta := textarea.New()
	ta.Placeholder = p.Placeholder
	if ta.Placeholder == "" {
		ta.Placeholder = "Send a message..."
	}
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusStyle

	m := Model{
		ctx:             context.Background(),
		backend:         NewBackend(svc),
		persona:         p,
		transcript:      transcript.Transcript{},
		textarea:        ta,
		viewport:        viewport.New(80, 20),
		spinner:         sp,
		copyToClipboard: clipboard.WriteAll,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if p.Greeting != "" {
		m.status = p.Greeting
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Transcript returns the conversation shown by the model.
func (m Model) Transcript() transcript.Transcript {
	return m.transcript
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.backend.Interrupt()
			return m, tea.Quit
		case "enter":
			if m.busy {
				return m, nil
			}
			cmd, err := m.backend.Start(m.ctx, m.textarea.Value(), m.transcript)
			if err != nil {
				m.setStatus(err.Error(), true)
				return m, nil
			}
			m.busy = true
			m.setStatus("", false)
			return m, tea.Batch(cmd, m.spinner.Tick)
		case "ctrl+l":
			if m.busy {
				return m, nil
			}
			input, t := m.backend.Reset()
			m.transcript = t
			m.textarea.SetValue(input)
			m.setStatus("conversation cleared", false)
			m.refresh()
			return m, nil
		case "ctrl+y":
			m.copyLastReply()
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case ExchangeFinishedMsg:
		m.busy = false
		m.textarea.SetValue(msg.Input)
		if msg.Err != nil {
			// the transcript is unchanged and the typed text is kept for another try
			m.setStatus("error: "+msg.Err.Error(), true)
			return m, nil
		}
		m.transcript = msg.Transcript
		m.setStatus("", false)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m *Model) copyLastReply() {
	last, ok := m.transcript.Last(transcript.RoleAssistant)
	if !ok {
		m.setStatus("nothing to copy yet", false)
		return
	}
	if err := m.copyToClipboard(last.Content); err != nil {
		log.Warn().Err(err).Str("component", "ui").Msg("clipboard write failed")
		m.setStatus("could not copy: "+err.Error(), true)
		return
	}
	m.setStatus("copied last reply to clipboard", false)
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.textarea.SetWidth(width)
	vh := height - inputHeight - chromeHeight
	if vh < 1 {
		vh = 1
	}
	if !m.ready {
		m.viewport = viewport.New(width-2, vh)
		m.ready = true
	} else {
		m.viewport.Width = width - 2
		m.viewport.Height = vh
	}
	m.renderer = m.newRenderer(width - 4)
}

func (m *Model) newRenderer(wrap int) *glamour.TermRenderer {
	if wrap < 20 {
		wrap = 20
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(wrap)}
	if m.glamourStyle == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(m.glamourStyle))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		log.Warn().Err(err).Str("component", "ui").Msg("markdown renderer unavailable, showing plain text")
		return nil
	}
	return r
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *Model) renderTranscript() string {
	var sb strings.Builder
	name := m.persona.DisplayName()
	if m.persona.Avatar != "" {
		name = m.persona.Avatar + " " + name
	}
	for _, turn := range m.transcript {
		switch turn.Role {
		case transcript.RoleUser:
			sb.WriteString(userStyle.Render("You"))
			sb.WriteString("\n")
			sb.WriteString(turn.Content)
			sb.WriteString("\n\n")
		case transcript.RoleAssistant:
			sb.WriteString(assistantStyle.Render(name))
			sb.WriteString("\n")
			sb.WriteString(m.renderMarkdown(turn.Content))
			sb.WriteString("\n\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m *Model) renderMarkdown(s string) string {
	if m.renderer == nil {
		return s
	}
	out, err := m.renderer.Render(s)
	if err != nil {
		return s
	}
	return strings.Trim(out, "\n")
}

func (m Model) View() string {
	title := m.persona.Title
	if title == "" {
		title = m.persona.DisplayName()
	}

	var status string
	switch {
	case m.busy:
		status = statusStyle.Render(fmt.Sprintf("%s %s is thinking...", m.spinner.View(), m.persona.DisplayName()))
	case m.statusErr:
		status = errorStyle.Render(m.status)
	default:
		status = statusStyle.Render(m.status)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		viewportStyle.Render(m.viewport.View()),
		status,
		m.textarea.View(),
		helpStyle.Render("enter send • ctrl+l clear • ctrl+y copy reply • pgup/pgdown scroll • esc quit"),
	)
}

// Run starts the full-screen chat.
func Run(ctx context.Context, svc ChatService, p *persona.Persona, opts ...Option) error {
	opts = append(opts, WithContext(ctx))
	prog := tea.NewProgram(NewModel(svc, p, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := prog.Run()
	return err
}
