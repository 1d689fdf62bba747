package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"camara_chat/pkg/ai"
	"camara_chat/pkg/chat"
	"camara_chat/pkg/format"
	"camara_chat/pkg/logging"
	"camara_chat/pkg/retrieval"
)

const systemPromptTemplate = `Você é um assistente útil que responde perguntas com base nos documentos fornecidos.
Use apenas as informações dos documentos para responder. Se a informação não estiver nos documentos, diga que não tem essa informação.

Formatação das respostas:
1. Quando listar itens numerados, coloque cada item em uma linha separada, SEM linhas em branco entre os itens.
2. Se um item numerado tiver subitens com bullets, coloque-os logo abaixo do item principal.
3. Use markdown para destacar informações importantes: **negrito**, *itálico*, etc.
4. Separe parágrafos principais com linhas em branco, mas NÃO coloque linhas em branco entre itens numerados.
5. Coloque uma linha em branco apenas antes do último parágrafo conclusivo.

Contexto dos documentos:

%s`

// Searcher finds the documents relevant to a question.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]retrieval.Document, error)
}

// Answer is one backend reply in both of its shapes.
type Answer struct {
	Text string
	HTML string
}

// Service answers questions from the indexed documents.
type Service struct {
	provider    ai.Provider
	searcher    Searcher
	topK        int
	temperature float64
}

// NewService builds an answer service. searcher may be nil, in which case
// every prompt carries an empty document context.
func NewService(provider ai.Provider, searcher Searcher, topK int, temperature float64) (*Service, error) {
	if provider == nil {
		return nil, fmt.Errorf("answer service requires a provider")
	}
	return &Service{
		provider:    provider,
		searcher:    searcher,
		topK:        topK,
		temperature: temperature,
	}, nil
}

// Answer retrieves context for message, asks the provider and formats the reply.
func (s *Service) Answer(ctx context.Context, message string, history []chat.Message) (Answer, error) {
	start := time.Now()

	var docs []retrieval.Document
	if s.searcher != nil {
		var err error
		docs, err = s.searcher.Search(ctx, message, s.topK)
		if err != nil {
			return Answer{}, fmt.Errorf("failed to search documents: %w", err)
		}
	}

	messages := BuildMessages(message, history, docs)
	for i, m := range messages {
		logging.Trace(ctx, "answer_prompt_message", "index", i, "role", m.Role, "content", m.Content)
	}

	temperature := s.temperature
	resp, err := s.provider.CreateChatCompletion(ctx, ai.ChatRequest{
		Messages:    messages,
		Temperature: &temperature,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("failed to generate reply: %w", err)
	}

	slog.Info("answer_complete",
		"documents", len(docs),
		"history", len(history),
		"model", resp.Model,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return Answer{Text: resp.Content, HTML: format.HTML(resp.Content)}, nil
}

// BuildMessages lays out the system prompt, the prior turns and the new question.
// History entries with an unknown role are skipped.
func BuildMessages(message string, history []chat.Message, docs []retrieval.Document) []ai.Message {
	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.Message{Role: "system", Content: SystemPrompt(docs)})
	for _, m := range history {
		if !m.Role.Valid() {
			continue
		}
		messages = append(messages, ai.Message{Role: string(m.Role), Content: m.Content})
	}
	return append(messages, ai.Message{Role: string(chat.RoleUser), Content: message})
}

// SystemPrompt renders the assistant instructions around the document context.
func SystemPrompt(docs []retrieval.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, fmt.Sprintf("Document from %s (relevance: %.2f):\n%s", d.Source, d.Score, d.Text))
	}
	return fmt.Sprintf(systemPromptTemplate, strings.Join(parts, "\n\n"))
}
