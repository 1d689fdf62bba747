// Package server is the HTTP backend behind the chat widget.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"camara_chat/pkg/chat"
	"camara_chat/pkg/chatapi"
	"camara_chat/pkg/config"
)

// HealthBanner is the body of GET /.
const HealthBanner = "Câmara Espanhola Chatbot API is running!"

const maxBodyBytes = 1 << 20

// Answerer produces replies for POST /api/chat.
type Answerer interface {
	Answer(ctx context.Context, message string, history []chat.Message) (Answer, error)
}

// Server serves the chat API.
type Server struct {
	cfg      config.ServerConfig
	answerer Answerer
	handler  http.Handler
}

// New builds a server around answerer.
func New(cfg config.ServerConfig, answerer Answerer) (*Server, error) {
	if answerer == nil {
		return nil, fmt.Errorf("server requires an answerer")
	}
	s := &Server{cfg: cfg, answerer: answerer}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("POST "+config.DefaultChatPath, s.handleChat)
	s.handler = requestID(cors(cfg.AllowedOrigins, mux))
	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = s.cfg.Addr()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_start", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	slog.Info("server_shutdown", "addr", addr)
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, HealthBanner)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatapi.ChatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		slog.Debug("chat_request_invalid", "request_id", RequestIDFrom(r.Context()), "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	answer, err := s.answerer.Answer(r.Context(), message, req.History)
	if err != nil {
		slog.Error("chat_answer_failed", "request_id", RequestIDFrom(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate a reply")
		return
	}

	html := answer.HTML
	writeJSON(w, http.StatusOK, chatapi.ChatResponse{
		Response:          answer.Text,
		FormattedResponse: &html,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response_write_failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, chatapi.ErrorResponse{Error: msg})
}
