package admins

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/etiditalex/CMFagency-sub001/models"
	"github.com/etiditalex/CMFagency-sub001/utils"
)

// CampaignController manages campaigns from the dashboard.
type CampaignController struct {
	DB *gorm.DB
}

func NewCampaignController(db *gorm.DB) *CampaignController {
	return &CampaignController{DB: db}
}

type campaignRequest struct {
	Type       string `json:"type"`
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	Currency   string `json:"currency"`
	UnitAmount int64  `json:"unit_amount"`
	MaxPerTxn  int    `json:"max_per_txn"`
	Active     *bool  `json:"active"`
}

// GET /v1/admin/campaigns
func (c *CampaignController) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	search := r.URL.Query().Get("search")
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	query := c.DB.WithContext(r.Context()).Model(&models.Campaign{})
	if search != "" {
		query = query.Where("title LIKE ? OR slug LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	query.Count(&total)

	var campaigns []models.Campaign
	if err := query.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&campaigns).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to load campaigns",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"campaigns": campaigns,
			"total":     total,
			"page":      page,
			"limit":     limit,
		},
	})
}

// POST /v1/admin/campaigns
func (c *CampaignController) Create(w http.ResponseWriter, r *http.Request) {
	var req campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid JSON body"})
		return
	}

	campaign, msg := c.buildCampaign(&req)
	if msg != "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: msg})
		return
	}

	if err := c.DB.WithContext(r.Context()).Create(campaign).Error; err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "Failed to create campaign, slug may already exist",
		})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Campaign created", Data: campaign})
}

// PUT /v1/admin/campaigns/{id}
func (c *CampaignController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 1 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid campaign id"})
		return
	}

	var campaign models.Campaign
	if err := c.DB.WithContext(r.Context()).First(&campaign, id).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Campaign not found"})
		return
	}

	var req campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid JSON body"})
		return
	}

	if req.Slug != "" {
		slug := strings.ToLower(strings.TrimSpace(req.Slug))
		if !utils.IsValidSlug(slug) {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid slug"})
			return
		}
		campaign.Slug = slug
	}
	if req.Title != "" {
		campaign.Title = strings.TrimSpace(req.Title)
	}
	if req.Currency != "" {
		campaign.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	}
	if req.UnitAmount > 0 {
		campaign.UnitAmount = req.UnitAmount
	}
	if req.MaxPerTxn > 0 {
		campaign.MaxPerTxn = req.MaxPerTxn
	}
	if req.Active != nil {
		campaign.Active = *req.Active
	}

	if err := c.DB.WithContext(r.Context()).Save(&campaign).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to update campaign"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Campaign updated", Data: campaign})
}

// DELETE /v1/admin/campaigns/{id} deactivates rather than deletes, so existing
// transactions keep a valid campaign row to point at.
func (c *CampaignController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 1 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid campaign id"})
		return
	}

	res := c.DB.WithContext(r.Context()).Model(&models.Campaign{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to deactivate campaign"})
		return
	}
	if res.RowsAffected == 0 {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Campaign not found"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Campaign deactivated"})
}

func (c *CampaignController) buildCampaign(req *campaignRequest) (*models.Campaign, string) {
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !utils.IsValidSlug(slug) {
		return nil, "Invalid slug: lowercase letters, digits and single hyphens only"
	}
	ctype := models.CampaignType(req.Type)
	if ctype != models.CampaignTicket && ctype != models.CampaignVote {
		return nil, "type must be ticket or vote"
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, "title is required"
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return nil, "currency must be a 3-letter code"
	}
	if req.UnitAmount <= 0 {
		return nil, "unit_amount must be positive"
	}

	campaign := &models.Campaign{
		Type:       ctype,
		Slug:       slug,
		Title:      strings.TrimSpace(req.Title),
		Currency:   currency,
		UnitAmount: req.UnitAmount,
		MaxPerTxn:  10,
		Active:     true,
	}
	if req.MaxPerTxn > 0 {
		campaign.MaxPerTxn = req.MaxPerTxn
	}
	if req.Active != nil {
		campaign.Active = *req.Active
	}
	return campaign, ""
}
