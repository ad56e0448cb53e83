package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/etiditalex/CMFagency-sub001/models"
	"github.com/etiditalex/CMFagency-sub001/store"
	"github.com/etiditalex/CMFagency-sub001/utils"
)

// SignatureVerifier checks a Paystack webhook signature against the raw body.
type SignatureVerifier interface {
	VerifySignature(body []byte, signature string) bool
}

// WebhookController is the only writer of terminal transaction states. Both handlers are
// idempotent: replays and out-of-order deliveries ack with 200 and change nothing.
type WebhookController struct {
	Transactions TransactionStore
	Paystack     SignatureVerifier
	Dedup        *store.WebhookDedup
}

func NewWebhookController(transactions TransactionStore, paystack SignatureVerifier, dedup *store.WebhookDedup) *WebhookController {
	return &WebhookController{Transactions: transactions, Paystack: paystack, Dedup: dedup}
}

// HandlePaystack implements POST /v1/webhooks/paystack.
func (c *WebhookController) HandlePaystack(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.WriteError(w, utils.NewAPIError(utils.KindInvalidRequest, "Unable to read body"))
		return
	}
	if !c.Paystack.VerifySignature(body, r.Header.Get("X-Paystack-Signature")) {
		log.Printf("[Webhooks] paystack signature rejected")
		utils.WriteError(w, utils.NewAPIError(utils.KindInvalidRequest, "Invalid signature"))
		return
	}

	var event utils.PaystackEvent
	if err := json.Unmarshal(body, &event); err != nil {
		utils.WriteError(w, utils.NewAPIError(utils.KindInvalidRequest, "Invalid JSON body"))
		return
	}

	var status models.TransactionStatus
	switch event.Event {
	case "charge.success":
		status = models.TxnSuccess
	case "charge.failed":
		status = models.TxnFailed
	default:
		// Not a charge outcome; ack so Paystack stops retrying.
		utils.WriteRaw(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	ctx := r.Context()
	eventID := fmt.Sprintf("paystack:%d:%s", event.Data.ID, event.Event)
	if c.Dedup.Seen(ctx, eventID) {
		utils.WriteRaw(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	txn, err := c.Transactions.FindByReference(ctx, event.Data.Reference)
	if err != nil {
		log.Printf("[Webhooks] paystack lookup %s: %v", event.Data.Reference, err)
		c.Dedup.Forget(ctx, eventID)
		utils.WriteError(w, utils.NewAPIError(utils.KindService, "Unable to load transaction"))
		return
	}
	if txn == nil {
		// Unknown reference: ack, nothing to settle.
		log.Printf("[Webhooks] paystack unknown reference %s", event.Data.Reference)
		utils.WriteRaw(w, http.StatusOK, map[string]string{"status": "unknown"})
		return
	}

	meta := txn.DecodeMetadata()
	meta["provider_status"] = event.Data.Status
	meta["provider_event_id"] = fmt.Sprintf("%d", event.Data.ID)
	if err := c.settle(ctx, txn, status, meta); err != nil {
		log.Printf("[Webhooks] paystack %v", err)
		c.Dedup.Forget(ctx, eventID)
		utils.WriteError(w, utils.NewAPIError(utils.KindService, "Unable to record payment outcome"))
		return
	}

	utils.WriteRaw(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleMpesa implements POST /v1/webhooks/mpesa.
func (c *WebhookController) HandleMpesa(w http.ResponseWriter, r *http.Request) {
	var cb utils.StkCallback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		utils.WriteError(w, utils.NewAPIError(utils.KindInvalidRequest, "Invalid JSON body"))
		return
	}
	result := cb.Body.StkCallback
	if result.CheckoutRequestID == "" {
		utils.WriteError(w, utils.NewAPIError(utils.KindInvalidRequest, "Missing CheckoutRequestID"))
		return
	}

	ctx := r.Context()
	eventID := "mpesa:" + result.CheckoutRequestID
	if c.Dedup.Seen(ctx, eventID) {
		utils.WriteRaw(w, http.StatusOK, map[string]string{"ResultDesc": "Duplicate"})
		return
	}

	txn, err := c.Transactions.FindByCheckoutRequestID(ctx, result.CheckoutRequestID)
	if err != nil {
		log.Printf("[Webhooks] mpesa lookup %s: %v", result.CheckoutRequestID, err)
		c.Dedup.Forget(ctx, eventID)
		utils.WriteError(w, utils.NewAPIError(utils.KindService, "Unable to load transaction"))
		return
	}
	if txn == nil {
		log.Printf("[Webhooks] mpesa unknown checkout request %s", result.CheckoutRequestID)
		utils.WriteRaw(w, http.StatusOK, map[string]string{"ResultDesc": "Unknown"})
		return
	}

	status := models.TxnFailed
	meta := txn.DecodeMetadata()
	meta["result_code"] = fmt.Sprintf("%d", result.ResultCode)
	meta["result_desc"] = result.ResultDesc
	if result.ResultCode == 0 {
		status = models.TxnSuccess
		if receipt := cb.MetadataString("MpesaReceiptNumber"); receipt != "" {
			meta["mpesa_receipt"] = receipt
		}
	}
	if err := c.settle(ctx, txn, status, meta); err != nil {
		log.Printf("[Webhooks] mpesa %v", err)
		c.Dedup.Forget(ctx, eventID)
		utils.WriteError(w, utils.NewAPIError(utils.KindService, "Unable to record payment outcome"))
		return
	}

	// Daraja expects this shape back.
	utils.WriteRaw(w, http.StatusOK, map[string]any{"ResultCode": 0, "ResultDesc": "Accepted"})
}

// settle applies the terminal transition. The store's pending-only guard makes this safe
// against replays that slip past the soft dedup. A storage error propagates so the
// handler can answer non-2xx and the provider retries the delivery.
func (c *WebhookController) settle(ctx context.Context, txn *models.Transaction, status models.TransactionStatus, meta map[string]string) error {
	updated, err := c.Transactions.MarkTerminal(ctx, txn.ID, status, meta)
	if err != nil {
		return fmt.Errorf("settle %s -> %s: %w", txn.Reference, status, err)
	}
	if !updated {
		log.Printf("[Webhooks] settle %s -> %s: already terminal", txn.Reference, status)
		return nil
	}
	log.Printf("[Webhooks] settled %s -> %s", txn.Reference, status)
	return nil
}
