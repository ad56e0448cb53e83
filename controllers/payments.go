package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/etiditalex/CMFagency-sub001/config"
	"github.com/etiditalex/CMFagency-sub001/models"
	"github.com/etiditalex/CMFagency-sub001/utils"
)

// CampaignStore resolves campaigns and their contestants for checkout.
type CampaignStore interface {
	FindBySlug(ctx context.Context, slug string) (*models.Campaign, error)
	FindContestant(ctx context.Context, campaignID, contestantID uint) (*models.Contestant, error)
	Contestants(ctx context.Context, campaignID uint) ([]models.Contestant, error)
}

// TransactionStore persists payment rows. Webhooks own terminal transitions.
type TransactionStore interface {
	Create(ctx context.Context, txn *models.Transaction) error
	UpdateMetadata(ctx context.Context, id uint, metadata map[string]string) error
	FindByReference(ctx context.Context, reference string) (*models.Transaction, error)
	FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Transaction, error)
	MarkTerminal(ctx context.Context, id uint, status models.TransactionStatus, metadata map[string]string) (bool, error)
}

// CheckoutGateway obtains a hosted-checkout URL (Paystack).
type CheckoutGateway interface {
	Configured() bool
	Initialize(ctx context.Context, in utils.PaystackInitRequest) (*utils.PaystackInitData, error)
}

// StkGateway fires an M-Pesa STK push (Daraja).
type StkGateway interface {
	Configured() bool
	Push(ctx context.Context, in utils.StkPushRequest) (*utils.StkPushData, error)
}

// PaymentController turns a campaign purchase intent into a pending transaction
// plus a gateway handle. It never marks transactions terminal; callbacks do.
type PaymentController struct {
	Campaigns    CampaignStore
	Transactions TransactionStore
	Paystack     CheckoutGateway
	Mpesa        StkGateway
	Cfg          *config.Config
}

func NewPaymentController(campaigns CampaignStore, transactions TransactionStore, paystack CheckoutGateway, mpesa StkGateway, cfg *config.Config) *PaymentController {
	return &PaymentController{Campaigns: campaigns, Transactions: transactions, Paystack: paystack, Mpesa: mpesa, Cfg: cfg}
}

type checkoutRequest struct {
	CampaignSlug string `json:"slug"`
	Quantity     int    `json:"quantity"`
	Email        string `json:"email"`
	ContestantID *uint  `json:"contestant_id,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

type checkoutIntent struct {
	campaign   *models.Campaign
	contestant *models.Contestant
	quantity   int
	total      int64
}

// validateIntent runs the shared checkout checks in a fixed order so both
// providers reject the same bad input with the same error.
func (c *PaymentController) validateIntent(ctx context.Context, req *checkoutRequest, mpesa bool) (*checkoutIntent, *utils.APIError) {
	slug := strings.TrimSpace(strings.ToLower(req.CampaignSlug))
	if slug == "" || !utils.IsValidSlug(slug) {
		return nil, utils.NewAPIError(utils.KindInvalidRequest, "A valid slug is required")
	}
	if req.Quantity <= 0 {
		return nil, utils.NewAPIError(utils.KindInvalidRequest, "quantity must be a positive integer")
	}

	campaign, err := c.Campaigns.FindBySlug(ctx, slug)
	if err != nil {
		log.Printf("[Payments] load campaign %s: %v", slug, err)
		return nil, utils.NewAPIError(utils.KindService, "Unable to load campaign")
	}
	if campaign == nil {
		return nil, utils.NewAPIError(utils.KindNotFound, "Campaign not found")
	}

	if mpesa && campaign.Currency != "KES" {
		return nil, utils.NewAPIError(utils.KindUnsupportedCurrency, "M-Pesa payments are only available for KES campaigns")
	}

	quantity := req.Quantity
	if quantity > campaign.MaxPerTxn {
		quantity = campaign.MaxPerTxn
	}

	intent := &checkoutIntent{campaign: campaign, quantity: quantity}
	if campaign.Type == models.CampaignVote {
		if req.ContestantID == nil {
			return nil, utils.NewAPIError(utils.KindInvalidContestant, "contestant_id is required for voting campaigns")
		}
		contestant, err := c.Campaigns.FindContestant(ctx, campaign.ID, *req.ContestantID)
		if err != nil {
			log.Printf("[Payments] load contestant %d: %v", *req.ContestantID, err)
			return nil, utils.NewAPIError(utils.KindService, "Unable to load contestant")
		}
		if contestant == nil {
			return nil, utils.NewAPIError(utils.KindInvalidContestant, "Contestant does not belong to this campaign")
		}
		intent.contestant = contestant
	}

	intent.total = campaign.UnitAmount * int64(intent.quantity)
	return intent, nil
}

func (c *PaymentController) createPending(ctx context.Context, intent *checkoutIntent, provider, reference string, payerEmail *string, extra map[string]string) (*models.Transaction, *utils.APIError) {
	txn := &models.Transaction{
		Reference:    reference,
		Provider:     provider,
		CampaignID:   intent.campaign.ID,
		CampaignType: intent.campaign.Type,
		PayerEmail:   payerEmail,
		Quantity:     intent.quantity,
		Currency:     intent.campaign.Currency,
		UnitAmount:   intent.campaign.UnitAmount,
		Amount:       intent.total,
		Status:       models.TxnPending,
	}
	if intent.contestant != nil {
		id := intent.contestant.ID
		txn.ContestantID = &id
	}
	if len(extra) > 0 {
		txn.EncodeMetadata(extra)
	}
	if err := c.Transactions.Create(ctx, txn); err != nil {
		log.Printf("[Payments] insert transaction %s: %v", reference, err)
		return nil, utils.NewAPIError(utils.KindTransactionRejected, "Unable to record transaction")
	}
	return txn, nil
}

// HandleCheckout implements POST /v1/payments/checkout (Paystack hosted page).
func (c *PaymentController) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, utils.NewAPIError(utils.KindInvalidRequest, "Invalid JSON body"))
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		utils.WriteError(w, utils.NewAPIError(utils.KindInvalidRequest, "A valid email is required"))
		return
	}

	ctx := r.Context()
	intent, apiErr := c.validateIntent(ctx, &req, false)
	if apiErr != nil {
		utils.WriteError(w, apiErr)
		return
	}
	if !c.Paystack.Configured() {
		utils.WriteError(w, utils.NewAPIError(utils.KindService, "Card payments are not available right now"))
		return
	}

	reference := utils.GenerateReference("CMF")
	if _, apiErr := c.createPending(ctx, intent, models.ProviderPaystack, reference, &email, nil); apiErr != nil {
		utils.WriteError(w, apiErr)
		return
	}

	init, err := c.Paystack.Initialize(ctx, utils.PaystackInitRequest{
		Amount:      intent.total,
		Email:       email,
		Currency:    intent.campaign.Currency,
		Reference:   reference,
		CallbackURL: fmt.Sprintf("%s/payments/complete?reference=%s", c.Cfg.PublicSiteURL, reference),
		Metadata: map[string]string{
			"campaign_slug": intent.campaign.Slug,
			"quantity":      fmt.Sprintf("%d", intent.quantity),
		},
	})
	if err != nil {
		// The row stays pending; a later webhook or reconciliation settles it.
		log.Printf("[Payments] paystack initialize %s: %v", reference, err)
		utils.WriteError(w, utils.NewAPIError(utils.KindGateway, "Payment provider rejected the request"))
		return
	}

	utils.WriteRaw(w, http.StatusOK, map[string]string{
		"reference":         reference,
		"authorization_url": init.AuthorizationURL,
	})
}

// HandleMpesa implements POST /v1/payments/mpesa (Daraja STK push).
func (c *PaymentController) HandleMpesa(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, utils.NewAPIError(utils.KindInvalidRequest, "Invalid JSON body"))
		return
	}
	phone, err := utils.NormalizeKenyanPhone(req.Phone)
	if err != nil {
		utils.WriteError(w, utils.NewAPIError(utils.KindInvalidRequest, "A valid Kenyan phone number is required"))
		return
	}

	ctx := r.Context()
	intent, apiErr := c.validateIntent(ctx, &req, true)
	if apiErr != nil {
		utils.WriteError(w, apiErr)
		return
	}
	if !c.Mpesa.Configured() {
		utils.WriteError(w, utils.NewAPIError(utils.KindService, "M-Pesa payments are not available right now"))
		return
	}

	reference := utils.GenerateReference("CMF")
	meta := map[string]string{"phone": phone}
	txn, apiErr := c.createPending(ctx, intent, models.ProviderMpesa, reference, nil, meta)
	if apiErr != nil {
		utils.WriteError(w, apiErr)
		return
	}

	push, err := c.Mpesa.Push(ctx, utils.StkPushRequest{
		Phone:       phone,
		Amount:      intent.total,
		Reference:   reference,
		Description: fmt.Sprintf("CMF %s x%d", intent.campaign.Slug, intent.quantity),
	})
	if err != nil {
		log.Printf("[Payments] stk push %s: %v", reference, err)
		utils.WriteError(w, utils.NewAPIError(utils.KindGateway, "M-Pesa request failed, please try again"))
		return
	}

	// The callback is matched by CheckoutRequestID, so losing this write only
	// costs us the match, not the money; the row remains reconcilable by reference.
	meta["checkout_request_id"] = push.CheckoutRequestID
	if err := c.Transactions.UpdateMetadata(ctx, txn.ID, meta); err != nil {
		log.Printf("[Payments] save checkout request id %s: %v", reference, err)
	}

	utils.WriteRaw(w, http.StatusOK, map[string]string{
		"reference":           reference,
		"checkout_request_id": push.CheckoutRequestID,
		"message":             "Check your phone and enter your M-Pesa PIN to complete the payment",
	})
}

// HandleStatus implements GET /v1/payments/{reference}/status.
func (c *PaymentController) HandleStatus(w http.ResponseWriter, r *http.Request) {
	reference := strings.TrimSpace(mux.Vars(r)["reference"])
	if reference == "" {
		utils.WriteError(w, utils.NewAPIError(utils.KindInvalidRequest, "reference is required"))
		return
	}
	txn, err := c.Transactions.FindByReference(r.Context(), reference)
	if err != nil {
		log.Printf("[Payments] status lookup %s: %v", reference, err)
		utils.WriteError(w, utils.NewAPIError(utils.KindService, "Unable to load transaction"))
		return
	}
	if txn == nil {
		utils.WriteError(w, utils.NewAPIError(utils.KindNotFound, "Transaction not found"))
		return
	}
	utils.WriteRaw(w, http.StatusOK, map[string]any{
		"reference": txn.Reference,
		"status":    string(txn.Status),
		"provider":  txn.Provider,
		"amount":    txn.Amount,
		"currency":  txn.Currency,
	})
}
