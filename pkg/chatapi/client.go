package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"camara_chat/pkg/chat"
	"camara_chat/pkg/config"
	"camara_chat/pkg/logging"
	"camara_chat/pkg/version"
)

const maxErrorPreview = 200

// Client posts chat turns to the backend. It satisfies chat.Sender.
type Client struct {
	BaseURL    string
	Path       string
	HTTPClient *http.Client
}

var _ chat.Sender = (*Client)(nil)

// New builds a client from the widget's endpoint settings. A zero
// RequestTimeoutSeconds leaves the HTTP client without a deadline.
func New(cfg config.ClientConfig) *Client {
	baseURL := strings.TrimSpace(cfg.Endpoint)
	if baseURL == "" {
		baseURL = config.DefaultEndpoint
	}
	path := strings.TrimSpace(cfg.ChatPath)
	if path == "" {
		path = config.DefaultChatPath
	}

	httpClient := &http.Client{}
	if cfg.RequestTimeoutSeconds > 0 {
		httpClient.Timeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	}

	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Path:       "/" + strings.TrimLeft(path, "/"),
		HTTPClient: httpClient,
	}
}

// URL returns the full chat endpoint.
func (c *Client) URL() string {
	return c.BaseURL + c.Path
}

// Send posts req and returns the formatted_response markup.
func (c *Client) Send(ctx context.Context, req chat.Request) (string, error) {
	if req.History == nil {
		req.History = []chat.Message{}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.URL()
	slog.Debug("chatapi_request",
		"url", url,
		"message_len", len(req.Message),
		"history_len", len(req.History),
		"request_size", len(payload),
	)
	logging.Trace(ctx, "chatapi_request_body", "body", string(payload))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	start := time.Now()
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		slog.Error("chatapi_request_failed", "url", url, "error", err)
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("chatapi_read_failed", "status_code", resp.StatusCode, "error", err)
		return "", fmt.Errorf("%w: failed to read response: %v", ErrTransport, err)
	}

	slog.Debug("chatapi_response",
		"status_code", resp.StatusCode,
		"response_size", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	logging.Trace(ctx, "chatapi_response_body", "body", string(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		preview := string(body)
		if len(preview) > maxErrorPreview {
			preview = preview[:maxErrorPreview] + "..."
		}
		slog.Error("chatapi_error_status", "status_code", resp.StatusCode, "response_preview", preview)

		var apiErr ErrorResponse
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
			return "", fmt.Errorf("%w: status %d: %s", ErrProtocol, resp.StatusCode, apiErr.Error)
		}
		return "", fmt.Errorf("%w: status %d", ErrProtocol, resp.StatusCode)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		slog.Error("chatapi_decode_failed", "error", err)
		return "", fmt.Errorf("%w: invalid JSON: %v", ErrProtocol, err)
	}
	if chatResp.FormattedResponse == nil {
		slog.Error("chatapi_missing_reply")
		return "", fmt.Errorf("%w: formatted_response missing", ErrProtocol)
	}

	return *chatResp.FormattedResponse, nil
}
