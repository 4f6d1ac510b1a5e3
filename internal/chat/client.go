package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tickerdesk/tickerdesk/pkg/models"
)

var (
	// ErrTransport marks network-level failures reaching the backend.
	ErrTransport = errors.New("chat: backend unreachable")
	// ErrProtocol marks a response the backend returned but the session
	// cannot use (missing or malformed "ai-response" field).
	ErrProtocol = errors.New("chat: malformed backend response")
)

// exchangeRequest is the wire format of a chat round trip.
type exchangeRequest struct {
	Prompt  string               `json:"prompt"`
	History []models.ChatMessage `json:"history"`
}

// exchangeResponse mirrors the backend reply. AIResponse is a pointer so a
// missing field is distinguishable from an empty string.
type exchangeResponse struct {
	AIResponse *string `json:"ai-response"`
}

// Client exchanges prompts with the assistant backend over HTTP.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a backend client for the given base URL, e.g.
// "http://localhost:3000/api/v1". A zero timeout defaults to two minutes.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Exchange POSTs the prompt and prior history to the backend's /chat
// endpoint and extracts the "ai-response" field from the reply.
func (c *Client) Exchange(ctx context.Context, prompt string, history []models.ChatMessage) (string, error) {
	if history == nil {
		history = []models.ChatMessage{}
	}
	body, err := json.Marshal(exchangeRequest{Prompt: prompt, History: history})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrTransport, resp.StatusCode, snippet)
	}

	var parsed exchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	if parsed.AIResponse == nil {
		return "", fmt.Errorf("%w: missing ai-response field", ErrProtocol)
	}

	return *parsed.AIResponse, nil
}
