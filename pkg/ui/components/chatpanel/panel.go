// Package chatpanel renders the chat transcript, the input field and the
// panel controls, and turns key presses into submit and toggle requests.
package chatpanel

import (
	"fmt"
	"os"
	"strings"

	"camara_chat/pkg/chat"
	"camara_chat/pkg/markup"
	"camara_chat/pkg/ui/styles"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
	"github.com/charmbracelet/x/ansi"
)

const (
	borderSize     = 1
	paddingH       = 1
	textareaHeight = 3
	// header + separator + loading line + textarea + controls
	chromeLines = 1 + 1 + 1 + textareaHeight + 1
	scrollPage  = 10

	sendLabel    = "[Enviar]"
	loadingLabel = "Digitando..."
	placeholder  = "Digite sua mensagem..."
	footerHint   = "tab foco | ctrl+t minimizar | ctrl+y copiar"
	userLabel    = "Você:"
	botLabel     = "Assistente:"
)

// Focus identifies which control receives key presses.
type Focus int

const (
	FocusInput Focus = iota
	FocusSend
	FocusToggle
	FocusTranscript
	focusCount
)

func (f Focus) String() string {
	switch f {
	case FocusInput:
		return "input"
	case FocusSend:
		return "send"
	case FocusToggle:
		return "toggle"
	case FocusTranscript:
		return "transcript"
	default:
		return fmt.Sprintf("Focus(%d)", int(f))
	}
}

// SubmitMsg is emitted when the user triggers a send. Content is the raw
// input; the widget decides whether it is sendable.
type SubmitMsg struct {
	Content string
}

// ToggleMsg is emitted when the user activates the toggle control.
type ToggleMsg struct{}

// Panel is the visible chat surface. It implements chat.Transcript.
type Panel struct {
	title    string
	width    int
	height   int
	entries  []chat.Message
	lines    []string
	scrollY  int
	expanded bool
	glyph    string
	loading  bool
	focus    Focus

	textarea textarea.Model
	spinner  spinner.Model
}

var _ chat.Transcript = (*Panel)(nil)

// New creates an expanded panel with the input focused.
func New(title string) *Panel {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.SetHeight(textareaHeight)
	ta.Focus()

	return &Panel{
		title:    title,
		expanded: true,
		glyph:    chat.GlyphExpanded,
		focus:    FocusInput,
		textarea: ta,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(styles.SpinnerStyle),
		),
	}
}

// Append renders one entry at the end of the transcript and scrolls to it.
func (p *Panel) Append(msg chat.Message) {
	p.entries = append(p.entries, msg)
	p.reflow()
	p.scrollY = p.maxScroll()
}

// Entries returns the rendered entries in order.
func (p *Panel) Entries() []chat.Message {
	out := make([]chat.Message, len(p.entries))
	copy(out, p.entries)
	return out
}

// SetSize sets the outer dimensions of the panel.
func (p *Panel) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.textarea.SetWidth(p.contentWidth())
	p.reflow()
	p.scrollY = min(p.scrollY, p.maxScroll())
}

// SetToggle mirrors the widget's visibility and glyph.
func (p *Panel) SetToggle(expanded bool, glyph string) {
	p.expanded = expanded
	p.glyph = glyph
	if !expanded {
		p.setFocus(FocusToggle)
	} else if p.focus == FocusToggle {
		p.setFocus(FocusInput)
	}
}

// Expanded reports whether the panel body is visible.
func (p *Panel) Expanded() bool {
	return p.expanded
}

// SetLoading shows or hides the typing indicator. Turning it on returns the
// first spinner tick.
func (p *Panel) SetLoading(loading bool) tea.Cmd {
	wasLoading := p.loading
	p.loading = loading
	if loading && !wasLoading {
		return p.spinner.Tick
	}
	return nil
}

// Loading reports whether the typing indicator is visible.
func (p *Panel) Loading() bool {
	return p.loading
}

// Input returns the current input text.
func (p *Panel) Input() string {
	return p.textarea.Value()
}

// ClearInput empties the input field.
func (p *Panel) ClearInput() {
	p.textarea.Reset()
}

// Focus returns the focused control.
func (p *Panel) Focus() Focus {
	return p.focus
}

// FocusInput moves focus to the input field.
func (p *Panel) FocusInput() {
	p.setFocus(FocusInput)
}

func (p *Panel) setFocus(f Focus) {
	p.focus = f
	if f == FocusInput {
		p.textarea.Focus()
	} else {
		p.textarea.Blur()
	}
}

func (p *Panel) cycleFocus(step int) {
	if !p.expanded {
		p.setFocus(FocusToggle)
		return
	}
	next := (int(p.focus) + step + int(focusCount)) % int(focusCount)
	p.setFocus(Focus(next))
}

// HandlePaste routes pasted text to the input when it has focus.
func (p *Panel) HandlePaste(content string) {
	if p.expanded && p.focus == FocusInput {
		p.textarea.InsertString(content)
	}
}

// Update handles key presses and spinner ticks.
func (p *Panel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !p.loading {
			return nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return cmd
	case tea.KeyPressMsg:
		return p.handleKey(msg)
	}
	return nil
}

func (p *Panel) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()
	switch key {
	case "tab":
		p.cycleFocus(1)
		return nil
	case "shift+tab":
		p.cycleFocus(-1)
		return nil
	case "ctrl+y":
		return p.copyToClipboard()
	}

	if !p.expanded {
		if p.focus == FocusToggle && (key == "enter" || key == "space") {
			return toggleCmd()
		}
		return nil
	}

	switch key {
	case "pgup", "pgdown":
		p.handleScroll(key)
		return nil
	case "up", "down":
		if p.focus != FocusInput || p.textarea.LineCount() <= 1 {
			p.handleScroll(key)
			return nil
		}
	case "home", "end":
		if p.focus != FocusInput {
			p.handleScroll(key)
			return nil
		}
	}

	switch p.focus {
	case FocusInput:
		if key == "enter" {
			return submitCmd(p.textarea.Value())
		}
		var cmd tea.Cmd
		p.textarea, cmd = p.textarea.Update(msg)
		return cmd
	case FocusSend:
		if key == "enter" || key == "space" {
			return submitCmd(p.textarea.Value())
		}
	case FocusToggle:
		if key == "enter" || key == "space" {
			return toggleCmd()
		}
	}
	return nil
}

func submitCmd(content string) tea.Cmd {
	return func() tea.Msg {
		return SubmitMsg{Content: content}
	}
}

func toggleCmd() tea.Cmd {
	return func() tea.Msg {
		return ToggleMsg{}
	}
}

func (p *Panel) handleScroll(key string) {
	maxScroll := p.maxScroll()
	switch key {
	case "up":
		p.scrollY--
	case "down":
		p.scrollY++
	case "pgup":
		p.scrollY -= scrollPage
	case "pgdown":
		p.scrollY += scrollPage
	case "home":
		p.scrollY = 0
	case "end":
		p.scrollY = maxScroll
	}
	p.scrollY = max(0, min(p.scrollY, maxScroll))
}

// ScrollOffset returns the index of the first visible transcript line.
func (p *Panel) ScrollOffset() int {
	return p.scrollY
}

// PlainTranscript returns the transcript as unstyled text.
func (p *Panel) PlainTranscript() string {
	var sb strings.Builder
	for i, entry := range p.entries {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if entry.Role == chat.RoleUser {
			sb.WriteString(userLabel + " " + markup.Sanitize(entry.Content))
			continue
		}
		sb.WriteString(botLabel + " " + markup.Text(entry.Content))
	}
	return sb.String()
}

func (p *Panel) copyToClipboard() tea.Cmd {
	text := p.PlainTranscript()
	return func() tea.Msg {
		_, _ = fmt.Fprint(os.Stdout, osc52.New(text))
		return nil
	}
}

func (p *Panel) reflow() {
	width := p.contentWidth()
	lines := make([]string, 0, len(p.entries)*3)
	for i, entry := range p.entries {
		if i > 0 {
			lines = append(lines, "")
		}
		if entry.Role == chat.RoleUser {
			lines = append(lines, styles.UserLabelStyle.Render(userLabel))
			lines = append(lines, markup.RenderPlain(entry.Content, width)...)
			continue
		}
		lines = append(lines, styles.AssistantLabelStyle.Render(botLabel))
		lines = append(lines, markup.Render(entry.Content, width)...)
	}
	p.lines = lines
}

func (p *Panel) contentWidth() int {
	return max(p.width-2*(borderSize+paddingH), 1)
}

func (p *Panel) contentHeight() int {
	return max(p.height-2*borderSize, 1)
}

func (p *Panel) viewportHeight() int {
	return max(p.contentHeight()-chromeLines, 1)
}

func (p *Panel) maxScroll() int {
	return max(len(p.lines)-p.viewportHeight(), 0)
}

// View renders the panel. A collapsed panel is a single framed header line.
func (p *Panel) View() string {
	width := p.contentWidth()
	box := styles.BoxStyle
	if p.focus == FocusTranscript {
		box = styles.BoxStyleMuted
	}
	box = box.Width(max(p.width, 1)).Padding(0, paddingH)

	header := p.renderHeader(width)
	if !p.expanded {
		return box.Render(header)
	}

	lines := make([]string, 0, p.contentHeight())
	lines = append(lines, header)

	vh := p.viewportHeight()
	end := min(p.scrollY+vh, len(p.lines))
	for i := p.scrollY; i < end; i++ {
		lines = append(lines, padStyled(p.lines[i], width))
	}
	for len(lines) < 1+vh {
		lines = append(lines, strings.Repeat(" ", width))
	}

	lines = append(lines, styles.TextMutedStyle.Render(strings.Repeat("─", width)))

	if p.loading {
		lines = append(lines, padStyled(p.spinner.View()+" "+styles.TextMutedStyle.Render(loadingLabel), width))
	} else {
		lines = append(lines, strings.Repeat(" ", width))
	}

	p.textarea.SetWidth(width)
	taLines := strings.Split(p.textarea.View(), "\n")
	for i := 0; i < textareaHeight; i++ {
		if i < len(taLines) {
			lines = append(lines, padStyled(taLines[i], width))
		} else {
			lines = append(lines, strings.Repeat(" ", width))
		}
	}

	lines = append(lines, p.renderControls(width))

	return box.Render(strings.Join(lines, "\n"))
}

func (p *Panel) renderHeader(width int) string {
	toggle := p.control("["+p.glyph+"]", p.focus == FocusToggle)
	toggleWidth := lipgloss.Width(toggle)
	titleWidth := max(width-toggleWidth-1, 0)
	title := styles.TitleStyle.Render(ansi.Truncate(p.title, titleWidth, "..."))
	gap := max(width-lipgloss.Width(title)-toggleWidth, 1)
	return title + strings.Repeat(" ", gap) + toggle
}

func (p *Panel) renderControls(width int) string {
	send := p.control(sendLabel, p.focus == FocusSend)
	sendWidth := lipgloss.Width(send)
	hintWidth := max(width-sendWidth-1, 0)
	hint := styles.FooterStyle.Render(ansi.Truncate(footerHint, hintWidth, ""))
	gap := max(width-lipgloss.Width(hint)-sendWidth, 0)
	return hint + strings.Repeat(" ", gap) + send
}

func (p *Panel) control(label string, focused bool) string {
	if focused {
		return styles.ButtonFocusedStyle.Render(label)
	}
	return styles.ButtonStyle.Render(label)
}

func padStyled(text string, width int) string {
	textWidth := lipgloss.Width(text)
	if textWidth >= width {
		return text
	}
	return text + strings.Repeat(" ", width-textWidth)
}
