// Package chatapi is the HTTP wire contract between the chat widget and the
// /api/chat backend.
package chatapi

import (
	"errors"

	"camara_chat/pkg/chat"
)

var (
	// ErrTransport wraps failures that never produced an HTTP response.
	ErrTransport = errors.New("chatapi: transport failure")
	// ErrProtocol wraps non-2xx statuses and bodies that do not carry a reply.
	ErrProtocol = errors.New("chatapi: protocol failure")
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest = chat.Request

// ChatResponse is the body returned by POST /api/chat. FormattedResponse is a
// pointer so a null or missing field can be told apart from an empty reply.
type ChatResponse struct {
	Response          string  `json:"response,omitempty"`
	FormattedResponse *string `json:"formatted_response"`
}

// ErrorResponse is returned by the backend with 4xx/5xx statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}
