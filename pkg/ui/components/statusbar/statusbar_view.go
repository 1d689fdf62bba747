package statusbar

import (
	"strings"

	"camara_chat/pkg/ui/styles"

	"github.com/charmbracelet/x/ansi"
)

const (
	statusPrefix   = "[camara_chat]"
	minGap         = 2
	contentPadding = 2
)

// StatusBarView renders the bottom bar: endpoint on the left, send state and
// version on the right.
type StatusBarView struct {
	endpoint string
	message  string
	sending  bool
	version  string
	width    int
}

// NewStatusBarView creates a new status bar view
func NewStatusBarView() *StatusBarView {
	return &StatusBarView{width: 80}
}

// SetEndpoint updates the chat endpoint shown on the left.
func (s *StatusBarView) SetEndpoint(endpoint string) {
	s.endpoint = strings.TrimSpace(endpoint)
}

// SetMessage sets a temporary message that replaces the endpoint.
func (s *StatusBarView) SetMessage(msg string) {
	s.message = msg
}

// SetSending marks whether a message is in flight.
func (s *StatusBarView) SetSending(sending bool) {
	s.sending = sending
}

// SetVersion sets the version label.
func (s *StatusBarView) SetVersion(v string) {
	s.version = strings.TrimSpace(v)
}

// SetWidth updates the width for rendering
func (s *StatusBarView) SetWidth(width int) {
	s.width = width
}

func (s *StatusBarView) stateLabel() string {
	if s.sending {
		return "enviando..."
	}
	return "pronto"
}

// Render returns the styled status bar string, exactly width cells wide.
func (s *StatusBarView) Render() string {
	if s.width <= 0 {
		return ""
	}

	right := s.stateLabel()
	if s.version != "" {
		right += " | v" + s.version
	}
	rightWidth := ansi.StringWidth(right)

	innerWidth := max(s.width-contentPadding, 0)

	var inner string
	if rightWidth > innerWidth {
		inner = ansi.Truncate(right, innerWidth, "")
	} else {
		leftText := s.endpoint
		if s.message != "" {
			leftText = s.message
		}

		left := statusPrefix
		leftAvailable := max(innerWidth-rightWidth-minGap, 0)
		prefixWidth := ansi.StringWidth(statusPrefix)
		switch {
		case leftAvailable < prefixWidth:
			left = ansi.Truncate(statusPrefix, leftAvailable, "")
		case leftText != "" && leftAvailable > prefixWidth+1:
			body := ansi.Truncate(leftText, leftAvailable-prefixWidth-1, "...")
			left = statusPrefix + " " + body
		}

		gap := max(innerWidth-ansi.StringWidth(left)-rightWidth, 0)
		inner = left + strings.Repeat(" ", gap) + right
	}

	if w := ansi.StringWidth(inner); w < innerWidth {
		inner += strings.Repeat(" ", innerWidth-w)
	}

	style := styles.StatusBarStyle
	if s.sending {
		style = styles.StatusBarStyleDark
	}
	if s.width < contentPadding {
		return style.UnsetPadding().Render(ansi.Truncate(inner, s.width, ""))
	}
	return style.Render(inner)
}
