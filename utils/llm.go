package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrCompletionNotConfigured signals that no completion credential is available. Callers
// fall back to canned replies rather than failing the request.
var ErrCompletionNotConfigured = errors.New("completion provider not configured")

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string              `json:"model"`
	Messages    []completionMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// CompletionClient calls an OpenAI-compatible chat completion endpoint. A single
// request/response per call, no retries.
type CompletionClient struct {
	APIKey  string
	Model   string
	BaseURL string
	HTTP    *http.Client
}

func NewCompletionClient(apiKey, model, baseURL string) *CompletionClient {
	return &CompletionClient{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Complete sends the system prompt plus the user's message as the sole turn and returns the
// assistant reply text.
func (c *CompletionClient) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if c == nil || c.APIKey == "" {
		return "", ErrCompletionNotConfigured
	}

	msgs := []completionMessage{}
	if systemPrompt != "" {
		msgs = append(msgs, completionMessage{Role: "system", Content: systemPrompt})
	}
	msgs = append(msgs, completionMessage{Role: "user", Content: userMessage})

	body, err := json.Marshal(completionRequest{
		Model:       c.Model,
		Messages:    msgs,
		Temperature: 0.7,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("completion API status %d: %s", resp.StatusCode, string(raw))
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("completion response has no choices")
	}
	return out.Choices[0].Message.Content, nil
}
