package routes

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/etiditalex/CMFagency-sub001/controllers/admins"
	"github.com/etiditalex/CMFagency-sub001/middleware"
)

// registerAdminRoutes mounts the dashboard surface under /admin. Everything except login
// requires a valid admin token.
func registerAdminRoutes(api *mux.Router, db *gorm.DB) {
	authController := admins.NewAuthController(db)
	campaignController := admins.NewCampaignController(db)
	contestantController := admins.NewContestantController(db)
	knowledgeController := admins.NewKnowledgeController(db)
	conversationController := admins.NewConversationController(db)
	transactionController := admins.NewTransactionController(db)

	loginLimiter := middleware.NewIPRateLimiter(10, time.Minute)
	api.Handle("/admin/login", loginLimiter.Middleware(http.HandlerFunc(authController.Login))).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminAuthMiddleware)
	adminLimiter := middleware.NewAdminRateLimiter(300, 60)
	admin.Use(adminLimiter.Middleware)

	admin.Handle("/logout", http.HandlerFunc(authController.Logout)).Methods(http.MethodPost)

	admin.Handle("/campaigns", http.HandlerFunc(campaignController.List)).Methods(http.MethodGet)
	admin.Handle("/campaigns", http.HandlerFunc(campaignController.Create)).Methods(http.MethodPost)
	admin.Handle("/campaigns/{id}", http.HandlerFunc(campaignController.Update)).Methods(http.MethodPut)
	admin.Handle("/campaigns/{id}", http.HandlerFunc(campaignController.Delete)).Methods(http.MethodDelete)

	admin.Handle("/campaigns/{id}/contestants", http.HandlerFunc(contestantController.List)).Methods(http.MethodGet)
	admin.Handle("/campaigns/{id}/contestants", http.HandlerFunc(contestantController.Create)).Methods(http.MethodPost)
	admin.Handle("/contestants/{id}", http.HandlerFunc(contestantController.Update)).Methods(http.MethodPut)
	admin.Handle("/contestants/{id}", http.HandlerFunc(contestantController.Delete)).Methods(http.MethodDelete)

	admin.Handle("/knowledge", http.HandlerFunc(knowledgeController.List)).Methods(http.MethodGet)
	admin.Handle("/knowledge", http.HandlerFunc(knowledgeController.Create)).Methods(http.MethodPost)
	admin.Handle("/knowledge/{id}", http.HandlerFunc(knowledgeController.Update)).Methods(http.MethodPut)
	admin.Handle("/knowledge/{id}", http.HandlerFunc(knowledgeController.Delete)).Methods(http.MethodDelete)

	admin.Handle("/conversations", http.HandlerFunc(conversationController.List)).Methods(http.MethodGet)
	admin.Handle("/conversations/{id}", http.HandlerFunc(conversationController.Get)).Methods(http.MethodGet)
	admin.Handle("/conversations/{id}/pickup", http.HandlerFunc(conversationController.Pickup)).Methods(http.MethodPost)
	admin.Handle("/conversations/{id}/reply", http.HandlerFunc(conversationController.Reply)).Methods(http.MethodPost)

	admin.Handle("/transactions", http.HandlerFunc(transactionController.List)).Methods(http.MethodGet)
}
