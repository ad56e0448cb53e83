package utils

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPaystackVerifySignature(t *testing.T) {
	c := NewPaystackClient("sk_test_abc", "https://api.paystack.co")
	body := []byte(`{"event":"charge.success"}`)

	mac := hmac.New(sha512.New, []byte("sk_test_abc"))
	mac.Write(body)
	good := hex.EncodeToString(mac.Sum(nil))

	if !c.VerifySignature(body, good) {
		t.Fatal("expected valid signature to verify")
	}
	if c.VerifySignature(body, "") {
		t.Fatal("expected empty signature to fail")
	}
	if c.VerifySignature(body, "deadbeef") {
		t.Fatal("expected wrong signature to fail")
	}
	if c.VerifySignature([]byte("tampered"), good) {
		t.Fatal("expected tampered body to fail")
	}

	unconfigured := NewPaystackClient("", "https://api.paystack.co")
	if unconfigured.VerifySignature(body, good) {
		t.Fatal("expected unconfigured client to reject everything")
	}
}

func TestPaystackInitialize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/initialize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_abc" {
			t.Errorf("unexpected auth header %q", got)
		}
		var in PaystackInitRequest
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Amount != 3000 || in.Reference == "" {
			t.Errorf("unexpected payload %+v", in)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/xyz","access_code":"ac_1","reference":"` + in.Reference + `"}}`))
	}))
	defer srv.Close()

	c := NewPaystackClient("sk_test_abc", srv.URL)
	data, err := c.Initialize(context.Background(), PaystackInitRequest{
		Amount: 3000, Email: "p@example.com", Currency: "KES", Reference: "CMF-1-abc",
	})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if data.AuthorizationURL != "https://checkout.paystack.com/xyz" {
		t.Fatalf("unexpected authorization url %q", data.AuthorizationURL)
	}
}

func TestPaystackInitialize_ProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":false,"message":"Invalid currency"}`))
	}))
	defer srv.Close()

	c := NewPaystackClient("sk_test_abc", srv.URL)
	if _, err := c.Initialize(context.Background(), PaystackInitRequest{Amount: 100}); err == nil {
		t.Fatal("expected error on provider rejection")
	}
}
