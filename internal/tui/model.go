package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gungunsaluja/FileView/internal/client"
	"github.com/gungunsaluja/FileView/internal/domain/chat"
	"github.com/gungunsaluja/FileView/internal/shared/protocol"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Messages delivered through the event channel. Client handlers run on the
// connection's goroutines; the channel hands their events to the update
// loop in arrival order.
type (
	connectedMsg    struct{}
	disconnectedMsg struct{}
	connErrorMsg    struct{ err error }
	relayMsg        struct{ msg protocol.Message }
	spinMsg         struct{}
)

// Model drives the chat terminal UI.
type Model struct {
	client     *client.Client
	transcript *chat.Transcript
	theme      Theme
	serverURL  string

	events chan tea.Msg

	input  textarea.Model
	chatVP viewport.Model

	width  int
	height int
	ready  bool

	wasConnected bool
	lastError    string
	spinnerPos   int
}

// New creates the chat UI and wires it to the connection manager. The
// client's handlers are replaced; events flow through the model's channel
// from then on.
func New(cl *client.Client, serverURL, themeName string) *Model {
	ta := textarea.New()
	ta.Placeholder = "Type a message and press Enter"
	ta.Focus()
	ta.CharLimit = 8000
	ta.SetHeight(1)
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()

	m := &Model{
		client:     cl,
		transcript: chat.NewTranscript(),
		theme:      NewTheme(themeName),
		serverURL:  serverURL,
		events:     make(chan tea.Msg, 256),
		input:      ta,
		width:      80,
		height:     24,
	}

	cl.SetHandlers(client.Handlers{
		OnConnect:    func() { m.push(connectedMsg{}) },
		OnDisconnect: func() { m.push(disconnectedMsg{}) },
		OnMessage:    func(msg protocol.Message) { m.push(relayMsg{msg: msg}) },
		OnError:      func(err error) { m.push(connErrorMsg{err: err}) },
	})

	return m
}

// push forwards an event without blocking the connection's goroutines. A
// dropped stream fragment self-heals: the done frame carries the full text.
func (m *Model) push(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.connectCmd(), m.waitEvent())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		chatW, chatH := m.chatSize()
		if !m.ready {
			m.chatVP = viewport.New(chatW, chatH)
			m.ready = true
		} else {
			m.chatVP.Width = chatW
			m.chatVP.Height = chatH
		}
		m.input.SetWidth(max(10, m.width-6))
		m.refreshChat()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.client.Close()
			return m, tea.Quit
		case tea.KeyEnter:
			return m, m.onEnter()
		case tea.KeyCtrlR:
			if m.client.State() == client.StateDisconnected {
				m.lastError = ""
				return m, tea.Batch(m.connectCmd(), m.waitEvent())
			}
			return m, nil
		case tea.KeyPgUp:
			m.chatVP.ViewUp()
			return m, nil
		case tea.KeyPgDown:
			m.chatVP.ViewDown()
			return m, nil
		}

	case connectedMsg:
		m.wasConnected = true
		m.lastError = ""
		return m, m.waitEvent()

	case disconnectedMsg:
		if m.wasConnected {
			m.wasConnected = false
			m.transcript.AddSystem("connection lost")
			m.refreshChat()
		}
		return m, m.waitEvent()

	case connErrorMsg:
		m.lastError = msg.err.Error()
		return m, m.waitEvent()

	case relayMsg:
		return m, tea.Batch(m.applyRelay(msg.msg), m.waitEvent())

	case spinMsg:
		m.spinnerPos = (m.spinnerPos + 1) % len(spinnerFrames)
		if m.busy() {
			return m, m.spinTick()
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.chatVP, cmd = m.chatVP.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	if !m.ready {
		return "…"
	}

	top := m.renderTopBar()
	pane := m.theme.Pane.Width(m.width - 2).Render(m.chatVP.View())
	input := m.theme.InputBox.Width(m.width - 2).Render(m.input.View())
	footer := m.theme.Footer.Render(" Enter send · Ctrl+R reconnect · PgUp/PgDn scroll · Ctrl+C quit")
	return lipgloss.JoinVertical(lipgloss.Left, top, pane, input, footer)
}

// onEnter submits the input line. Sends fail fast when the connection is
// down; nothing is queued.
func (m *Model) onEnter() tea.Cmd {
	val := strings.TrimSpace(m.input.Value())
	if val == "" {
		return nil
	}
	m.input.Reset()

	if err := m.client.SendChat(val); err != nil {
		m.transcript.AddSystem("not connected, message was not sent")
		m.refreshChat()
		return nil
	}

	m.transcript.AddUser(val)
	m.refreshChat()
	return nil
}

// applyRelay folds one server frame into the transcript and keeps the
// spinner running through the thinking and streaming phases.
func (m *Model) applyRelay(msg protocol.Message) tea.Cmd {
	if msg.Type == protocol.TypeConnected {
		m.transcript.AddSystem(msg.Content)
		m.refreshChat()
		return nil
	}

	started := m.transcript.Thinking() == "" && !m.transcript.Streaming()
	m.transcript.Apply(msg)
	m.refreshChat()

	if started && m.busy() {
		m.spinnerPos = 0
		return m.spinTick()
	}
	return nil
}

func (m *Model) waitEvent() tea.Cmd {
	ch := m.events
	return func() tea.Msg { return <-ch }
}

func (m *Model) connectCmd() tea.Cmd {
	cl := m.client
	return func() tea.Msg {
		// Errors surface through the OnError handler
		_ = cl.Connect(context.Background())
		return nil
	}
}

func (m *Model) spinTick() tea.Cmd {
	return tea.Tick(90*time.Millisecond, func(time.Time) tea.Msg { return spinMsg{} })
}

func (m *Model) busy() bool {
	return m.transcript.Thinking() != "" || m.transcript.Streaming()
}

func (m *Model) chatSize() (int, int) {
	h := m.height - 1 - 3 - 1 - 2 // top bar, input box, footer, pane border
	if h < 3 {
		h = 3
	}
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	return w, h
}

func (m *Model) refreshChat() {
	if !m.ready {
		return
	}

	width, _ := m.chatSize()
	var b strings.Builder
	for _, msg := range m.transcript.Messages() {
		b.WriteString(m.renderMessage(msg, width))
		b.WriteString("\n\n")
	}
	if thinking := m.transcript.Thinking(); thinking != "" {
		b.WriteString(m.theme.RoleSys.Render(thinking))
		b.WriteString("\n")
	}
	m.chatVP.SetContent(strings.TrimRight(b.String(), "\n"))
	m.chatVP.GotoBottom()
}

func (m *Model) renderMessage(msg chat.Message, width int) string {
	var roleStyle lipgloss.Style
	var label string
	switch msg.Role {
	case chat.RoleUser:
		roleStyle = m.theme.RoleYou
		label = "YOU"
	case chat.RoleAssistant:
		roleStyle = m.theme.RoleAI
		label = "AI"
	default:
		roleStyle = m.theme.RoleSys
		label = "SYS"
	}

	header := roleStyle.Render(label) + " " + m.theme.TopBarMeta.Render(msg.CreatedAt.Format("15:04"))
	body := msg.DisplayContent
	if msg.Streaming {
		body += "▌"
	}
	return header + "\n" + m.theme.Body.Width(width).Render(body)
}

func (m *Model) renderTopBar() string {
	left := m.theme.TopBarTitle.Render("fileview-chat") + " " + m.theme.TopBarMeta.Render(m.serverURL)
	status := m.renderStatus()

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(status) - 1
	if gap < 1 {
		gap = 1
	}
	return m.theme.TopBar.Render(" " + left + strings.Repeat(" ", gap) + status)
}

// renderStatus shows the live connection state, the retry budget while
// reconnecting, and the spinner during a turn.
func (m *Model) renderStatus() string {
	if m.busy() {
		return m.theme.Spinner.Render(spinnerFrames[m.spinnerPos] + " waiting")
	}

	switch m.client.State() {
	case client.StateConnected:
		return m.theme.StatusUp.Render("● connected")
	case client.StateConnecting:
		return m.theme.StatusWait.Render("◌ connecting")
	default:
		status := "○ disconnected"
		if m.client.RetryPending() {
			status = fmt.Sprintf("○ reconnecting %d", m.client.Attempts())
		}
		if m.lastError != "" {
			status += " · " + m.lastError
		}
		return m.theme.StatusDown.Render(status)
	}
}
