// Package tui renders the interactive chat view: an ordered transcript, a
// prompt, a connection-status indicator, and a staged-attachment slot. All
// messaging goes through the session adapter; the view holds no connection
// state of its own.
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
	"github.com/google/uuid"
	"github.com/lecternhq/lectern/pkg/client"
	"github.com/lecternhq/lectern/pkg/protocol"
	"github.com/lecternhq/lectern/pkg/session"
)

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	bannerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	fileStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
)

// Message is one chat bubble. The transcript is append-only; a bubble is
// never mutated after creation.
type Message struct {
	ID       string
	Text     string
	IsUser   bool
	Filename string
	IsErr    bool
}

// RecordFunc persists one bubble; nil disables persistence.
type RecordFunc func(role, content, filename string)

type inboundMsg struct{ payload any }
type statusMsg struct{ status client.Status }
type sendResultMsg struct{ err error }

type Model struct {
	adapter *session.Adapter
	mode    string
	record  RecordFunc

	messages []Message
	input    textinput.Model
	view     viewport.Model
	spin     spinner.Model
	staged   *protocol.Attachment
	status   client.Status
	waiting  bool
	ready    bool
	width    int
	height   int
}

func NewModel(adapter *session.Adapter, mode string, record RecordFunc) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message, or /attach <path>"
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = dimStyle

	return Model{
		adapter: adapter,
		mode:    mode,
		record:  record,
		input:   ti,
		spin:    sp,
		status:  adapter.Status(),
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			return m.submitInput()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vh := m.height - 6
		if vh < 3 {
			vh = 3
		}
		if !m.ready {
			m.view = viewport.New(m.width, vh)
			m.ready = true
		} else {
			m.view.Width = m.width
			m.view.Height = vh
		}
		m.input.Width = m.width - 4
		m.refreshTranscript()

	case inboundMsg:
		in := protocol.Classify(msg.payload)
		m.waiting = false
		m.append(Message{
			ID:    uuid.NewString(),
			Text:  in.Display(),
			IsErr: in.IsError(),
		})
		if m.record != nil {
			m.record("assistant", in.Display(), "")
		}

	case statusMsg:
		m.status = msg.status

	case sendResultMsg:
		if msg.err != nil {
			// The echoed user bubble stays; only the failure is reported.
			m.waiting = false
			m.append(Message{
				ID:    uuid.NewString(),
				Text:  "Couldn't send that message. Please try again.",
				IsErr: true,
			})
		}

	case spinner.TickMsg:
		if m.waiting {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if path, ok := parseAttachCommand(text); ok {
		return m.stageAttachment(path)
	}

	att := m.staged
	m.staged = nil
	m.input.Reset()

	bubble := Message{ID: uuid.NewString(), Text: text, IsUser: true}
	if att != nil {
		bubble.Filename = att.Name
	}
	m.append(bubble)
	if m.record != nil {
		m.record("user", text, bubble.Filename)
	}

	m.waiting = true
	adapter, mode := m.adapter, m.mode
	send := func() tea.Msg {
		return sendResultMsg{err: adapter.Send(context.Background(), mode, text, att)}
	}
	return m, tea.Batch(send, m.spin.Tick)
}

func (m Model) stageAttachment(path string) (tea.Model, tea.Cmd) {
	att, err := protocol.LoadAttachment(path)
	if err != nil {
		m.append(Message{ID: uuid.NewString(), Text: err.Error(), IsErr: true})
		m.input.Reset()
		return m, nil
	}
	m.staged = att
	m.input.Reset()
	return m, nil
}

// parseAttachCommand recognizes "/attach <path>".
func parseAttachCommand(text string) (string, bool) {
	rest, ok := strings.CutPrefix(text, "/attach")
	if !ok {
		return "", false
	}
	path := strings.TrimSpace(rest)
	if path == "" {
		return "", false
	}
	return path, true
}

func (m *Model) append(msg Message) {
	m.messages = append(m.messages, msg)
	m.refreshTranscript()
}

func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	m.view.SetContent(m.renderMessages())
	m.view.GotoBottom()
}

func (m Model) renderMessages() string {
	var b strings.Builder
	for _, msg := range m.messages {
		switch {
		case msg.IsUser:
			b.WriteString(userStyle.Render("You: "))
			b.WriteString(msg.Text)
			if msg.Filename != "" {
				b.WriteString(fileStyle.Render(fmt.Sprintf(" [%s]", msg.Filename)))
			}
		case msg.IsErr:
			b.WriteString(errorStyle.Render(msg.Text))
		default:
			b.WriteString(assistantStyle.Render("Assistant: "))
			b.WriteString(msg.Text)
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder

	indicator := dimStyle.Render("● connected")
	if m.status != client.StatusConnected {
		indicator = bannerStyle.Render("○ disconnected")
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("Lectern (%s) ", m.mode)))
	b.WriteString(indicator)
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	b.WriteString(m.view.View())
	b.WriteString("\n")

	if m.status != client.StatusConnected {
		b.WriteString(bannerStyle.Render("Disconnected from the assistant. Messages will be sent when the connection returns."))
		b.WriteString("\n")
	} else if m.waiting {
		b.WriteString(m.spin.View())
		b.WriteString(dimStyle.Render("Thinking..."))
		b.WriteString("\n")
	} else if m.staged != nil {
		b.WriteString(fileStyle.Render(fmt.Sprintf("Attached: %s (%d bytes), press enter with a message to send", m.staged.Name, m.staged.Size)))
		b.WriteString("\n")
	} else {
		b.WriteString("\n")
	}

	b.WriteString(dimStyle.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")
	b.WriteString(m.input.View())

	return b.String()
}

// Run wires the adapter's listeners to the program and blocks until the view
// exits. Listener registrations are removed on the way out.
func Run(adapter *session.Adapter, mode string, record RecordFunc) error {
	p := tea.NewProgram(NewModel(adapter, mode, record), tea.WithAltScreen())

	removeMsg := adapter.OnMessage(func(payload any) {
		p.Send(inboundMsg{payload: payload})
	})
	defer removeMsg()

	removeStatus := adapter.OnStatusChange(func(s client.Status) {
		p.Send(statusMsg{status: s})
	})
	defer removeStatus()

	_, err := p.Run()
	return err
}
