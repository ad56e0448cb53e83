package routes

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/etiditalex/CMFagency-sub001/config"
	"github.com/etiditalex/CMFagency-sub001/controllers"
	"github.com/etiditalex/CMFagency-sub001/middleware"
	"github.com/etiditalex/CMFagency-sub001/store"
	"github.com/etiditalex/CMFagency-sub001/utils"
)

func optionsHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// InitRouter builds the full route tree. Everything the handlers need is constructed here
// from the injected DB handle and config, so tests can build routers against fakes.
func InitRouter(db *gorm.DB, cfg *config.Config) *mux.Router {
	r := mux.NewRouter()

	// Health check endpoint for Docker health checks (root level)
	r.Handle("/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"service":   "cmf-agency-api",
		})
	})).Methods(http.MethodGet)

	origins := []string{
		"https://cmfagency.co.ke", "https://www.cmfagency.co.ke",
		"http://localhost:3000", "http://localhost:8080", "http://127.0.0.1:3000", "http://127.0.0.1:8080",
	}
	origins = append(origins, cfg.CORSOrigins...)
	r.Use(func(next http.Handler) http.Handler {
		return handlers.CORS(
			handlers.AllowedOrigins(origins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With", "X-Request-ID"}),
			handlers.AllowCredentials(),
		)(next)
	})

	api := r.PathPrefix("/v1").Subrouter()

	// Catch-all OPTIONS handler for CORS preflight
	api.PathPrefix("/").HandlerFunc(optionsHandler).Methods(http.MethodOptions)

	// Stores and provider clients
	conversations := store.NewConversations(db)
	campaigns := store.NewCampaigns(db)
	transactions := store.NewTransactions(db)
	dedup := store.NewWebhookDedup(utils.RedisClient)

	paystack := utils.NewPaystackClient(cfg.PaystackSecretKey, cfg.PaystackBaseURL)
	daraja := utils.NewDarajaClient(
		cfg.DarajaConsumerKey, cfg.DarajaConsumerSecret,
		cfg.DarajaShortCode, cfg.DarajaPassKey,
		cfg.DarajaBaseURL, cfg.PublicSiteURL+"/v1/webhooks/mpesa",
	)
	llm := utils.NewCompletionClient(cfg.CompletionAPIKey, cfg.CompletionModel, cfg.CompletionBaseURL)

	var mailer controllers.Notifier
	if cfg.ResendAPIKey != "" {
		mailer = utils.NewResendClient(cfg.ResendAPIKey, cfg.EmailFrom)
	}

	chatController := controllers.NewChatController(conversations, llm, mailer, cfg)
	paymentController := controllers.NewPaymentController(campaigns, transactions, paystack, daraja, cfg)
	webhookController := controllers.NewWebhookController(transactions, paystack, dedup)
	campaignController := controllers.NewCampaignController(campaigns)

	// Rate limiters: chat 60/min, payments 20/min, webhooks 500/hour with whitelist
	chatLimiter := middleware.NewIPRateLimiter(60, time.Minute)
	paymentLimiter := middleware.NewIPRateLimiter(20, time.Minute)
	webhookLimiter := middleware.NewWebhookLimiter(500, time.Hour, []string{"127.0.0.1"})

	api.Handle("/chat/message", chatLimiter.Middleware(http.HandlerFunc(chatController.HandleMessage))).Methods(http.MethodPost)

	api.Handle("/campaigns/{slug}", http.HandlerFunc(campaignController.HandleGet)).Methods(http.MethodGet)

	api.Handle("/payments/checkout", paymentLimiter.Middleware(http.HandlerFunc(paymentController.HandleCheckout))).Methods(http.MethodPost)
	api.Handle("/payments/mpesa", paymentLimiter.Middleware(http.HandlerFunc(paymentController.HandleMpesa))).Methods(http.MethodPost)
	api.Handle("/payments/{reference}/status", http.HandlerFunc(paymentController.HandleStatus)).Methods(http.MethodGet)

	api.Handle("/webhooks/paystack", webhookLimiter.Middleware(http.HandlerFunc(webhookController.HandlePaystack))).Methods(http.MethodPost)
	api.Handle("/webhooks/mpesa", webhookLimiter.Middleware(http.HandlerFunc(webhookController.HandleMpesa))).Methods(http.MethodPost)

	registerAdminRoutes(api, db)

	return r
}
