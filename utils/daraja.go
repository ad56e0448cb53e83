package utils

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DarajaClient drives the Safaricom Daraja STK-push flow: client-credentials token,
// timestamped password, push request, and callback parsing. Amounts are whole shillings.
type DarajaClient struct {
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	PassKey        string
	BaseURL        string
	CallbackURL    string
	HTTP           *http.Client
}

func NewDarajaClient(consumerKey, consumerSecret, shortCode, passKey, baseURL, callbackURL string) *DarajaClient {
	return &DarajaClient{
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		ShortCode:      shortCode,
		PassKey:        passKey,
		BaseURL:        strings.TrimRight(baseURL, "/"),
		CallbackURL:    callbackURL,
		HTTP:           &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether every credential the push path needs is present.
func (c *DarajaClient) Configured() bool {
	return c != nil && c.ConsumerKey != "" && c.ConsumerSecret != "" && c.ShortCode != "" && c.PassKey != ""
}

type darajaTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// Token obtains an OAuth access token via the Basic-auth client-credentials exchange.
func (c *DarajaClient) Token(ctx context.Context) (string, error) {
	url := c.BaseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.ConsumerKey, c.ConsumerSecret)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token status %d: %s", resp.StatusCode, string(raw))
	}
	var tok darajaTokenResponse
	if err := json.Unmarshal(raw, &tok); err != nil {
		return "", fmt.Errorf("parse token: %w (body: %s)", err, string(raw))
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("empty access token")
	}
	return tok.AccessToken, nil
}

const darajaTimestampLayout = "20060102150405"

// Password builds the STK password: base64(shortcode + passkey + timestamp).
func (c *DarajaClient) Password(at time.Time) (password, timestamp string) {
	timestamp = at.Format(darajaTimestampLayout)
	password = base64.StdEncoding.EncodeToString([]byte(c.ShortCode + c.PassKey + timestamp))
	return password, timestamp
}

// StkPushRequest carries the normalized subscriber number and the whole-shilling amount.
type StkPushRequest struct {
	Phone       string
	Amount      int64
	Reference   string
	Description string
}

// StkPushData is the immediate (pre-callback) acknowledgment from Daraja.
type StkPushData struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// Push submits an STK push. The payer gets an on-device prompt; the final outcome arrives
// on the registered callback URL.
func (c *DarajaClient) Push(ctx context.Context, in StkPushRequest) (*StkPushData, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	password, timestamp := c.Password(time.Now())
	payload := map[string]interface{}{
		"BusinessShortCode": c.ShortCode,
		"Password":          password,
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            in.Amount,
		"PartyA":            in.Phone,
		"PartyB":            c.ShortCode,
		"PhoneNumber":       in.Phone,
		"CallBackURL":       c.CallbackURL,
		"AccountReference":  in.Reference,
		"TransactionDesc":   in.Description,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("push request: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	var out StkPushData
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse push response: %w (body: %s)", err, string(raw))
	}
	if out.ResponseCode != "0" || out.CheckoutRequestID == "" {
		return nil, fmt.Errorf("stk push rejected: %s", out.ResponseDescription)
	}
	return &out, nil
}

// StkCallback is the asynchronous result Daraja posts to our webhook endpoint.
type StkCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string      `json:"Name"`
					Value interface{} `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// MetadataString looks up a named item from the callback metadata, formatted as a string.
func (cb *StkCallback) MetadataString(name string) string {
	for _, item := range cb.Body.StkCallback.CallbackMetadata.Item {
		if item.Name != name || item.Value == nil {
			continue
		}
		switch v := item.Value.(type) {
		case string:
			return v
		case float64:
			return strings.TrimSuffix(fmt.Sprintf("%.0f", v), ".0")
		default:
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}
