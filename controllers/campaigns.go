package controllers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/etiditalex/CMFagency-sub001/utils"
)

// CampaignController serves the public, read-only campaign surface the checkout pages use.
type CampaignController struct {
	Campaigns CampaignStore
}

func NewCampaignController(campaigns CampaignStore) *CampaignController {
	return &CampaignController{Campaigns: campaigns}
}

// HandleGet implements GET /v1/campaigns/{slug}.
func (c *CampaignController) HandleGet(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(strings.ToLower(mux.Vars(r)["slug"]))
	if slug == "" || !utils.IsValidSlug(slug) {
		utils.WriteError(w, utils.NewAPIError(utils.KindInvalidRequest, "A valid slug is required"))
		return
	}

	ctx := r.Context()
	campaign, err := c.Campaigns.FindBySlug(ctx, slug)
	if err != nil {
		log.Printf("[Campaigns] load %s: %v", slug, err)
		utils.WriteError(w, utils.NewAPIError(utils.KindService, "Unable to load campaign"))
		return
	}
	if campaign == nil {
		utils.WriteError(w, utils.NewAPIError(utils.KindNotFound, "Campaign not found"))
		return
	}

	contestants, err := c.Campaigns.Contestants(ctx, campaign.ID)
	if err != nil {
		log.Printf("[Campaigns] contestants for %s: %v", slug, err)
		utils.WriteError(w, utils.NewAPIError(utils.KindService, "Unable to load contestants"))
		return
	}
	// Stored image values are object keys; serve time-limited URLs. A key is served
	// as-is if presigning is unavailable.
	for i := range contestants {
		if img := contestants[i].ImageURL; img != nil && *img != "" {
			if signed, err := utils.GenerateSignedURL(*img, 3600); err == nil {
				contestants[i].ImageURL = &signed
			}
		}
	}
	campaign.Contestants = contestants

	utils.WriteRaw(w, http.StatusOK, campaign)
}
