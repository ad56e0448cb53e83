package admins

import (
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/etiditalex/CMFagency-sub001/models"
	"github.com/etiditalex/CMFagency-sub001/utils"
)

// TransactionController is the read-only payment ledger view for the dashboard.
type TransactionController struct {
	DB *gorm.DB
}

func NewTransactionController(db *gorm.DB) *TransactionController {
	return &TransactionController{DB: db}
}

// GET /v1/admin/transactions
func (c *TransactionController) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	status := r.URL.Query().Get("status")
	provider := r.URL.Query().Get("provider")
	campaignID := r.URL.Query().Get("campaignId")
	reference := r.URL.Query().Get("reference")
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	query := c.DB.WithContext(r.Context()).Model(&models.Transaction{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if provider != "" {
		query = query.Where("provider = ?", provider)
	}
	if campaignID != "" {
		query = query.Where("campaign_id = ?", campaignID)
	}
	if reference != "" {
		query = query.Where("reference LIKE ?", "%"+reference+"%")
	}

	var total int64
	query.Count(&total)

	var transactions []models.Transaction
	if err := query.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&transactions).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to load transactions"})
		return
	}

	rows := make([]map[string]interface{}, 0, len(transactions))
	for _, t := range transactions {
		rows = append(rows, map[string]interface{}{
			"id":            t.ID,
			"reference":     t.Reference,
			"provider":      t.Provider,
			"campaign_id":   t.CampaignID,
			"campaign_type": t.CampaignType,
			"status":        t.Status,
			"payer_email":   utils.GetStringValue(t.PayerEmail),
			"payer_name":    utils.GetStringValue(t.PayerName),
			"quantity":      t.Quantity,
			"currency":      t.Currency,
			"amount":        t.Amount,
			"created_at":    t.CreatedAt,
		})
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"transactions": rows,
			"total":        total,
			"page":         page,
			"limit":        limit,
		},
	})
}
