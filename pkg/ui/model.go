// Package ui is the Bubble Tea program that hosts the chat panel.
package ui

import (
	"context"
	"errors"
	"log/slog"

	"camara_chat/pkg/chat"
	"camara_chat/pkg/config"
	"camara_chat/pkg/ui/components/chatpanel"
	"camara_chat/pkg/ui/components/statusbar"
	"camara_chat/pkg/version"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

const statusBarHeight = 1

// replyMsg carries the outcome of one send back to the update loop.
type replyMsg struct {
	reply string
	err   error
}

// Model represents the Bubble Tea application state
type Model struct {
	widget    *chat.Widget
	panel     *chatpanel.Panel
	statusBar *statusbar.StatusBarView
	sender    chat.Sender

	width  int
	height int
	ready  bool
}

// NewModel builds the panel, binds the chat widget to it and shows the greeting.
func NewModel(cfg config.ClientConfig, sender chat.Sender) (Model, error) {
	if sender == nil {
		return Model{}, errors.New("ui: sender is required")
	}

	title := cfg.Title
	if title == "" {
		title = config.Default().Client.Title
	}
	panel := chatpanel.New(title)

	widget, err := chat.New(panel)
	if err != nil {
		return Model{}, err
	}

	sb := statusbar.NewStatusBarView()
	sb.SetEndpoint(cfg.Endpoint)
	sb.SetVersion(version.Summary())

	return Model{
		widget:    widget,
		panel:     panel,
		statusBar: sb,
		sender:    sender,
	}, nil
}

// Init initializes the model (Bubble Tea lifecycle method)
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates model state (Bubble Tea lifecycle method)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.panel.SetSize(msg.Width, max(msg.Height-statusBarHeight, 1))
		m.statusBar.SetWidth(msg.Width)
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+t":
			return m, m.toggle()
		}
		return m, m.panel.Update(msg)

	case tea.PasteMsg:
		m.panel.HandlePaste(msg.Content)
		return m, nil

	case chatpanel.ToggleMsg:
		return m, m.toggle()

	case chatpanel.SubmitMsg:
		return m, m.submit(msg.Content)

	case replyMsg:
		m.widget.Complete(msg.reply, msg.err)
		m.panel.SetLoading(false)
		m.statusBar.SetSending(false)
		return m, nil
	}

	return m, m.panel.Update(msg)
}

func (m Model) toggle() tea.Cmd {
	expanded := m.widget.Toggle()
	m.panel.SetToggle(expanded, m.widget.Glyph())
	return nil
}

// submit starts a send. Blank input does nothing; input arriving while a
// send is in flight stays in the field.
func (m Model) submit(content string) tea.Cmd {
	req, err := m.widget.Begin(content)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return nil
	case errors.Is(err, chat.ErrBusy):
		m.statusBar.SetMessage("aguarde a resposta anterior")
		return nil
	case err != nil:
		slog.Error("chat_submit_failed", "error", err)
		return nil
	}

	m.panel.ClearInput()
	m.statusBar.SetMessage("")
	m.statusBar.SetSending(true)

	return tea.Batch(m.panel.SetLoading(true), sendCmd(m.sender, req))
}

func sendCmd(sender chat.Sender, req chat.Request) tea.Cmd {
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("chat_send_panic", "panic", r)
				msg = replyMsg{err: errors.New("ui: send panicked")}
			}
		}()
		reply, err := sender.Send(context.Background(), req)
		return replyMsg{reply: reply, err: err}
	}
}

// View renders the panel above the status bar (Bubble Tea lifecycle method)
func (m Model) View() tea.View {
	if !m.ready {
		v := tea.NewView("")
		v.AltScreen = true
		return v
	}

	content := lipgloss.JoinVertical(lipgloss.Left, m.panel.View(), m.statusBar.Render())
	v := tea.NewView(content)
	v.AltScreen = true
	v.WindowTitle = "Câmara Espanhola"
	return v
}

// Widget exposes the chat widget for inspection.
func (m Model) Widget() *chat.Widget {
	return m.widget
}

// Panel exposes the chat panel for inspection.
func (m Model) Panel() *chatpanel.Panel {
	return m.panel
}
