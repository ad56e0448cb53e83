package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const resendEndpoint = "https://api.resend.com/emails"

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// ResendClient sends transactional email through Resend. The only caller is the chat
// handoff notification, which treats any failure here as non-fatal.
type ResendClient struct {
	APIKey string
	From   string
	HTTP   *http.Client
}

func NewResendClient(apiKey, from string) *ResendClient {
	return &ResendClient{
		APIKey: apiKey,
		From:   from,
		HTTP:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Send delivers one HTML email. Returns an error when the credential is missing or the API
// responds with a non-2xx status.
func (c *ResendClient) Send(ctx context.Context, to []string, subject, html string) error {
	if c == nil || c.APIKey == "" {
		return fmt.Errorf("RESEND_API_KEY not set")
	}

	body, err := json.Marshal(resendRequest{From: c.From, To: to, Subject: subject, HTML: html})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendEndpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("resend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("resend status %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}
