// Package chat holds the chat widget's state: the transcript-backed history,
// the panel visibility flag and the one-submission-at-a-time send cycle.
package chat

import "errors"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// HistoryWindow is how many of the most recent messages travel with each request.
const HistoryWindow = 6

const (
	Greeting      = "Olá! Sou o assistente da Câmara Espanhola. Como posso ajudar você hoje?"
	FallbackReply = "Desculpe, ocorreu um erro ao processar sua mensagem. Por favor, tente novamente mais tarde."
)

var (
	ErrEmptyMessage = errors.New("chat: empty message")
	ErrInvalidRole  = errors.New("chat: invalid role")
	ErrBusy         = errors.New("chat: a message is already being sent")
	ErrNoTranscript = errors.New("chat: transcript is required")
)

// Message is a single chat turn. Assistant content may carry HTML markup;
// user content is always plain text.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// History is the ordered record of every message shown in the transcript.
type History struct {
	messages []Message
}

// Append adds msg at the end.
func (h *History) Append(msg Message) {
	h.messages = append(h.messages, msg)
}

// Len returns the number of recorded messages.
func (h *History) Len() int {
	return len(h.messages)
}

// Messages returns a copy of the full history.
func (h *History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Window returns a copy of the last n messages, oldest first.
func (h *History) Window(n int) []Message {
	if n <= 0 {
		return []Message{}
	}
	start := len(h.messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(h.messages)-start)
	copy(out, h.messages[start:])
	return out
}
