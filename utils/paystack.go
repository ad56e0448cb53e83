package utils

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// PaystackClient drives the hosted-checkout flow: initialize a transaction, hand the
// authorization URL back to the browser, and verify webhook signatures when the final
// status comes in.
type PaystackClient struct {
	SecretKey string
	BaseURL   string
	HTTP      *http.Client
}

func NewPaystackClient(secretKey, baseURL string) *PaystackClient {
	return &PaystackClient{
		SecretKey: secretKey,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		HTTP:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether a secret key is available. Absence is a ServiceError at the
// call site, not a silent fallback.
func (c *PaystackClient) Configured() bool {
	return c != nil && c.SecretKey != ""
}

// PaystackInitRequest is the subset of the initialize-transaction payload we use. Amount is
// in the currency's subunit, per Paystack's contract.
type PaystackInitRequest struct {
	Amount      int64             `json:"amount"`
	Email       string            `json:"email"`
	Currency    string            `json:"currency"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// PaystackInitData is the usable part of a successful initialize response.
type PaystackInitData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackInitResponse struct {
	Status  bool             `json:"status"`
	Message string           `json:"message"`
	Data    PaystackInitData `json:"data"`
}

// Initialize creates an authorization session keyed by our reference and returns the
// redirect URL the payer completes checkout at.
func (c *PaystackClient) Initialize(ctx context.Context, in PaystackInitRequest) (*PaystackInitData, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal initialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("initialize request: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	var out paystackInitResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse initialize response: %w (body: %s)", err, string(raw))
	}
	if !out.Status || out.Data.AuthorizationURL == "" {
		return nil, fmt.Errorf("paystack initialize failed: %s", out.Message)
	}
	return &out.Data, nil
}

// PaystackEvent is the webhook envelope. Only the fields the reconciler reads are modeled;
// field presence is never trusted beyond what is checked at the handler.
type PaystackEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID        int64  `json:"id"`
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
	} `json:"data"`
}

// VerifySignature checks the X-Paystack-Signature header: HMAC-SHA512 of the raw body keyed
// by the secret, hex-encoded.
func (c *PaystackClient) VerifySignature(body []byte, signature string) bool {
	if !c.Configured() || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(c.SecretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}
