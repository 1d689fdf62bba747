package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	GlyphCollapsed = "+"
	GlyphExpanded  = "−"
)

var errSendAborted = errors.New("chat: send aborted")

// Transcript is the visible side of the widget. Append renders one entry,
// styled for its role, and scrolls so the newest entry is in view.
type Transcript interface {
	Append(msg Message)
}

// Sender relays one user turn to the remote endpoint and returns the reply markup.
type Sender interface {
	Send(ctx context.Context, req Request) (string, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, req Request) (string, error)

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Request is the payload of one outbound call.
type Request struct {
	Message string    `json:"message"`
	History []Message `json:"history"`
}

// State is the submission state of the widget.
type State int

const (
	StateIdle State = iota
	StateSending
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Widget owns the chat history, the visibility flag and the submission state.
// It is not safe for concurrent use; callers drive it from a single UI loop.
type Widget struct {
	transcript Transcript
	history    History
	expanded   bool
	state      State
}

// New binds a widget to its transcript and shows the greeting.
func New(transcript Transcript) (*Widget, error) {
	if transcript == nil {
		return nil, ErrNoTranscript
	}

	w := &Widget{
		transcript: transcript,
		expanded:   true,
	}
	w.append(Message{Role: RoleAssistant, Content: Greeting})
	return w, nil
}

// Toggle flips panel visibility and reports whether it is now expanded.
func (w *Widget) Toggle() bool {
	w.expanded = !w.expanded
	slog.Debug("chat_toggle", "expanded", w.expanded)
	return w.expanded
}

// Expanded reports whether the panel body is shown.
func (w *Widget) Expanded() bool {
	return w.expanded
}

// Glyph returns the toggle indicator for the current visibility.
func (w *Widget) Glyph() string {
	if w.expanded {
		return GlyphExpanded
	}
	return GlyphCollapsed
}

// Append renders a message and records it in the history.
// User content must be non-empty after trimming.
func (w *Widget) Append(content string, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if role == RoleUser {
		content = strings.TrimSpace(content)
		if content == "" {
			return ErrEmptyMessage
		}
	}
	w.append(Message{Role: role, Content: content})
	return nil
}

func (w *Widget) append(msg Message) {
	w.transcript.Append(msg)
	w.history.Append(msg)
}

// Begin starts a submission. Blank input returns ErrEmptyMessage and a submission
// already in flight returns ErrBusy; neither touches the history. On success the
// user entry is appended, the widget is SENDING, and the returned request carries
// the last HistoryWindow messages (including the new one).
func (w *Widget) Begin(input string) (Request, error) {
	message := strings.TrimSpace(input)
	if message == "" {
		return Request{}, ErrEmptyMessage
	}
	if w.state == StateSending {
		slog.Debug("chat_submit_rejected_busy")
		return Request{}, ErrBusy
	}

	w.append(Message{Role: RoleUser, Content: message})
	w.state = StateSending

	req := Request{
		Message: message,
		History: w.history.Window(HistoryWindow),
	}
	slog.Info("chat_submit_start",
		"length", len(message),
		"history_len", w.history.Len(),
		"window", len(req.History),
	)
	return req, nil
}

// Complete finishes the submission started by Begin. A nil err appends reply as
// the assistant turn; any error appends FallbackReply instead. The widget is
// IDLE afterwards in both cases.
func (w *Widget) Complete(reply string, err error) {
	defer func() {
		w.state = StateIdle
	}()

	if err != nil {
		slog.Debug("chat_reply_failed", "error", err)
		w.append(Message{Role: RoleAssistant, Content: FallbackReply})
		return
	}

	slog.Info("chat_reply_received", "length", len(reply))
	w.append(Message{Role: RoleAssistant, Content: reply})
}

// Submit runs one full send cycle synchronously. Send failures are rendered as
// the fallback reply and are not returned; only ErrEmptyMessage and ErrBusy are.
func (w *Widget) Submit(ctx context.Context, input string, sender Sender) error {
	req, err := w.Begin(input)
	if err != nil {
		return err
	}

	completed := false
	defer func() {
		if !completed {
			w.Complete("", errSendAborted)
		}
	}()

	reply, sendErr := sender.Send(ctx, req)
	completed = true
	w.Complete(reply, sendErr)
	return nil
}

// Loading reports whether a submission is in flight.
func (w *Widget) Loading() bool {
	return w.state == StateSending
}

// State returns the current submission state.
func (w *Widget) State() State {
	return w.state
}

// History returns a copy of every message shown so far.
func (w *Widget) History() []Message {
	return w.history.Messages()
}
