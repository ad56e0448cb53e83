package config

import (
	"os"
	"strings"
)

// Config carries every environment-derived setting the handlers need. It is built once in
// main and injected into the controllers so that tests can substitute values without
// touching the process environment.
type Config struct {
	Env           string
	Port          string
	PublicSiteURL string

	// Paystack hosted checkout
	PaystackSecretKey string
	PaystackBaseURL   string

	// Safaricom Daraja (M-Pesa STK push)
	DarajaConsumerKey    string
	DarajaConsumerSecret string
	DarajaShortCode      string
	DarajaPassKey        string
	DarajaBaseURL        string

	// Completion API for the support bot. Absence degrades to canned replies.
	CompletionAPIKey  string
	CompletionModel   string
	CompletionBaseURL string

	// Resend transactional email. Absence skips handoff notifications.
	ResendAPIKey string
	EmailFrom    string
	OpsEmail     string

	CORSOrigins []string
}

// Load reads the configuration from the environment. Only hard requirements are enforced
// here (the DB vars and JWT_SECRET are checked in main); provider credentials are allowed
// to be absent and are handled per-request.
func Load() *Config {
	cfg := &Config{
		Env:           strings.ToLower(getenv("ENV", "development")),
		Port:          getenv("PORT", "8080"),
		PublicSiteURL: strings.TrimRight(getenv("PUBLIC_SITE_URL", "https://cmfagency.co.ke"), "/"),

		PaystackSecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackBaseURL:   getenv("PAYSTACK_BASE_URL", "https://api.paystack.co"),

		DarajaConsumerKey:    os.Getenv("DARAJA_CONSUMER_KEY"),
		DarajaConsumerSecret: os.Getenv("DARAJA_CONSUMER_SECRET"),
		DarajaShortCode:      os.Getenv("DARAJA_SHORTCODE"),
		DarajaPassKey:        os.Getenv("DARAJA_PASSKEY"),
		DarajaBaseURL:        getenv("DARAJA_BASE_URL", "https://api.safaricom.co.ke"),

		CompletionAPIKey:  os.Getenv("COMPLETION_API_KEY"),
		CompletionModel:   getenv("COMPLETION_MODEL", "gpt-4o-mini"),
		CompletionBaseURL: getenv("COMPLETION_BASE_URL", "https://api.openai.com/v1"),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		EmailFrom:    getenv("EMAIL_FROM", "CMF Agency <support@cmfagency.co.ke>"),
		OpsEmail:     getenv("OPS_EMAIL", "ops@cmfagency.co.ke"),
	}

	if raw := os.Getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			if o := strings.TrimSpace(p); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	return cfg
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
