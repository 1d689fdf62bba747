package chatapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"camara_chat/pkg/chat"
	"camara_chat/pkg/config"
	"camara_chat/pkg/version"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.ClientConfig{Endpoint: srv.URL})
}

func TestNew_Defaults(t *testing.T) {
	c := New(config.ClientConfig{})
	if c.URL() != "http://localhost:8080/api/chat" {
		t.Fatalf("Unexpected default URL %q", c.URL())
	}
	if c.HTTPClient.Timeout != 0 {
		t.Fatalf("Expected no timeout by default, got %v", c.HTTPClient.Timeout)
	}
}

func TestNew_NormalizesURL(t *testing.T) {
	c := New(config.ClientConfig{
		Endpoint:              "https://chat.example.com/",
		ChatPath:              "api/chat",
		RequestTimeoutSeconds: 15,
	})
	if c.URL() != "https://chat.example.com/api/chat" {
		t.Fatalf("Unexpected URL %q", c.URL())
	}
	if c.HTTPClient.Timeout != 15*time.Second {
		t.Fatalf("Expected 15s timeout, got %v", c.HTTPClient.Timeout)
	}
}

func TestSend_Success(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotBody map[string]any

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &gotBody); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"**Oi!**","formatted_response":"<b>Oi!</b>"}`))
	})

	reply, err := client.Send(context.Background(), chat.Request{
		Message: "Olá",
		History: []chat.Message{{Role: chat.RoleUser, Content: "Olá"}},
	})
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if reply != "<b>Oi!</b>" {
		t.Fatalf("Expected formatted_response, got %q", reply)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/chat" {
		t.Fatalf("Expected POST /api/chat, got %s %s", gotMethod, gotPath)
	}
	if gotContentType != "application/json" {
		t.Fatalf("Expected JSON content type, got %q", gotContentType)
	}
	if gotBody["message"] != "Olá" {
		t.Fatalf("Expected message field, got %v", gotBody["message"])
	}
	history, ok := gotBody["history"].([]any)
	if !ok || len(history) != 1 {
		t.Fatalf("Expected history with 1 entry, got %v", gotBody["history"])
	}
}

func TestSend_SetsUserAgent(t *testing.T) {
	var gotAgent string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"formatted_response":"ok"}`))
	})

	if _, err := client.Send(context.Background(), chat.Request{Message: "x"}); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if gotAgent != version.UserAgent() {
		t.Fatalf("Expected User-Agent %q, got %q", version.UserAgent(), gotAgent)
	}
}

func TestSend_NilHistoryIsEmptyArray(t *testing.T) {
	var raw string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		raw = string(data)
		_, _ = w.Write([]byte(`{"formatted_response":"ok"}`))
	})

	if _, err := client.Send(context.Background(), chat.Request{Message: "x"}); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if raw != `{"message":"x","history":[]}` {
		t.Fatalf("Unexpected body %s", raw)
	}
}

func TestSend_EmptyFormattedResponseIsAReply(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"formatted_response":""}`))
	})

	reply, err := client.Send(context.Background(), chat.Request{Message: "x"})
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if reply != "" {
		t.Fatalf("Expected empty reply, got %q", reply)
	}
}

func TestSend_ProtocolFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`},
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":"No message provided"}`},
		{name: "non-json error", status: http.StatusBadGateway, body: `<html>bad gateway</html>`},
		{name: "malformed json", status: http.StatusOK, body: `{"formatted_response":`},
		{name: "missing field", status: http.StatusOK, body: `{"response":"hi"}`},
		{name: "null field", status: http.StatusOK, body: `{"formatted_response":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Send(context.Background(), chat.Request{Message: "teste"})
			if !errors.Is(err, ErrProtocol) {
				t.Fatalf("Expected ErrProtocol, got %v", err)
			}
		})
	}
}

func TestSend_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := New(config.ClientConfig{Endpoint: url})
	_, err := client.Send(context.Background(), chat.Request{Message: "teste"})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Expected ErrTransport, got %v", err)
	}
}

func TestSend_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Send(ctx, chat.Request{Message: "teste"})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Expected ErrTransport on canceled context, got %v", err)
	}
}

func TestClient_DrivesWidget(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	tr := &sliceTranscript{}
	widget, err := chat.New(tr)
	if err != nil {
		t.Fatalf("chat.New() error: %v", err)
	}

	if err := widget.Submit(context.Background(), "teste", client); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	history := widget.History()
	if len(history) != 3 {
		t.Fatalf("Expected greeting, user and fallback, got %v", history)
	}
	if history[2].Content != chat.FallbackReply {
		t.Fatalf("Expected fallback reply, got %q", history[2].Content)
	}
}

type sliceTranscript struct {
	entries []chat.Message
}

func (s *sliceTranscript) Append(msg chat.Message) {
	s.entries = append(s.entries, msg)
}
