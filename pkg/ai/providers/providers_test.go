package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"testing"

	"camara_chat/pkg/ai"
	"camara_chat/pkg/config"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(rt roundTripperFunc) *http.Client {
	return &http.Client{Transport: rt}
}

func newHTTPResponse(req *http.Request, status int, contentType string, body []byte) *http.Response {
	resp := &http.Response{
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewReader(body)),
		Request:    req,
	}
	if contentType != "" {
		resp.Header.Set("Content-Type", contentType)
	}
	return resp
}

func newJSONResponse(t *testing.T, req *http.Request, status int, payload any) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return newHTTPResponse(req, status, "application/json", data)
}

func testOpenAIConfig() config.OpenAIConfig {
	cfg := config.Default().Providers.OpenAI
	cfg.APIKey = "sk-test"
	cfg.APIURL = "https://api.test/v1"
	return cfg
}

func TestNewOpenAIProvider_RequiresAPIKey(t *testing.T) {
	cfg := config.Default()
	cfg.Providers.OpenAI.APIKey = ""

	_, err := NewOpenAIProvider(ai.ProviderConfig{Type: ai.ProviderOpenAI, Config: cfg})
	if err == nil {
		t.Fatal("Expected error when OpenAI API key is missing")
	}
}

func TestOpenAIProvider_CreateChatCompletion(t *testing.T) {
	var gotPath string
	var gotAuth string
	var gotPayload map[string]any

	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		gotPath = req.URL.Path
		gotAuth = req.Header.Get("Authorization")

		if req.Body == nil {
			t.Fatalf("expected request body")
		}
		if err := json.NewDecoder(req.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		_ = req.Body.Close()

		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o",
			"choices": []any{
				map[string]any{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": "Olá! Como posso ajudar?",
					},
				},
			},
		}
		return newJSONResponse(t, req, http.StatusOK, resp), nil
	})

	provider, err := newOpenAIProviderWithHTTPClient(testOpenAIConfig(), client)
	if err != nil {
		t.Fatalf("newOpenAIProviderWithHTTPClient() error: %v", err)
	}

	temperature := 0.2
	resp, err := provider.CreateChatCompletion(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{
			{Role: "system", Content: "contexto"},
			{Role: "user", Content: "Oi"},
		},
		Temperature: &temperature,
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion() error: %v", err)
	}

	if resp.Content != "Olá! Como posso ajudar?" {
		t.Fatalf("Unexpected content %q", resp.Content)
	}
	if gotPath != "/v1/chat/completions" {
		t.Fatalf("Expected path /v1/chat/completions, got %q", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("Expected bearer auth, got %q", gotAuth)
	}
	if gotPayload["model"] != "gpt-4o" {
		t.Fatalf("Expected default model gpt-4o, got %v", gotPayload["model"])
	}
	if temp, ok := gotPayload["temperature"].(float64); !ok || math.Abs(temp-0.2) > 1e-9 {
		t.Fatalf("Expected temperature 0.2, got %v", gotPayload["temperature"])
	}
	messages, ok := gotPayload["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %v", gotPayload["messages"])
	}
}

func TestOpenAIProvider_RejectsUnknownRole(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		t.Fatal("request should not be sent")
		return nil, nil
	})
	provider, err := newOpenAIProviderWithHTTPClient(testOpenAIConfig(), client)
	if err != nil {
		t.Fatalf("newOpenAIProviderWithHTTPClient() error: %v", err)
	}

	_, err = provider.CreateChatCompletion(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: "tool", Content: "x"}},
	})
	if err == nil {
		t.Fatal("Expected error for unsupported role")
	}
}

func TestOpenAIProvider_Embed(t *testing.T) {
	var gotPayload map[string]any

	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/embeddings" {
			t.Fatalf("Expected /v1/embeddings, got %q", req.URL.Path)
		}
		if err := json.NewDecoder(req.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		_ = req.Body.Close()

		// Out of order on purpose: the index field decides placement.
		resp := map[string]any{
			"object": "list",
			"model":  "text-embedding-3-large",
			"data": []any{
				map[string]any{"object": "embedding", "index": 1, "embedding": []float64{0, 1}},
				map[string]any{"object": "embedding", "index": 0, "embedding": []float64{1, 0}},
			},
			"usage": map[string]any{"prompt_tokens": 2, "total_tokens": 2},
		}
		return newJSONResponse(t, req, http.StatusOK, resp), nil
	})

	provider, err := newOpenAIProviderWithHTTPClient(testOpenAIConfig(), client)
	if err != nil {
		t.Fatalf("newOpenAIProviderWithHTTPClient() error: %v", err)
	}

	vectors, err := provider.Embed(context.Background(), []string{"primeiro", "segundo"})
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("Expected 2 vectors, got %d", len(vectors))
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Fatalf("Expected vectors ordered by index, got %v", vectors)
	}
	if gotPayload["model"] != "text-embedding-3-large" {
		t.Fatalf("Expected embedding model, got %v", gotPayload["model"])
	}
}

func TestOpenAIProvider_Embed_BadIndex(t *testing.T) {
	tests := []struct {
		name    string
		indices []int
	}{
		{name: "duplicate", indices: []int{0, 0}},
		{name: "out of range", indices: []int{0, 2}},
		{name: "negative", indices: []int{-1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(func(req *http.Request) (*http.Response, error) {
				data := make([]any, 0, len(tt.indices))
				for _, idx := range tt.indices {
					data = append(data, map[string]any{"object": "embedding", "index": idx, "embedding": []float64{1, 0}})
				}
				resp := map[string]any{
					"object": "list",
					"model":  "text-embedding-3-large",
					"data":   data,
					"usage":  map[string]any{"prompt_tokens": 2, "total_tokens": 2},
				}
				return newJSONResponse(t, req, http.StatusOK, resp), nil
			})
			provider, err := newOpenAIProviderWithHTTPClient(testOpenAIConfig(), client)
			if err != nil {
				t.Fatalf("newOpenAIProviderWithHTTPClient() error: %v", err)
			}

			vectors, err := provider.Embed(context.Background(), []string{"primeiro", "segundo"})
			if err == nil {
				t.Fatalf("Expected error for indices %v, got vectors %v", tt.indices, vectors)
			}
		})
	}
}

func TestOpenAIProvider_Embed_Empty(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		t.Fatal("request should not be sent for empty input")
		return nil, nil
	})
	provider, err := newOpenAIProviderWithHTTPClient(testOpenAIConfig(), client)
	if err != nil {
		t.Fatalf("newOpenAIProviderWithHTTPClient() error: %v", err)
	}

	vectors, err := provider.Embed(context.Background(), nil)
	if err != nil || vectors != nil {
		t.Fatalf("Expected nil, nil for empty input, got %v, %v", vectors, err)
	}
}
