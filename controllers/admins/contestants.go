package admins

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/etiditalex/CMFagency-sub001/models"
	"github.com/etiditalex/CMFagency-sub001/utils"
)

const (
	maxContestantImageBytes = 5 << 20
	imageURLExpirySeconds   = 3600
)

// signImage swaps the stored object key for a time-limited URL in the response copy.
// The key stays in the database; on presign failure the raw key is returned instead.
func signImage(contestant *models.Contestant) {
	if img := contestant.ImageURL; img != nil && *img != "" {
		if signed, err := utils.GenerateSignedURL(*img, imageURLExpirySeconds); err == nil {
			contestant.ImageURL = &signed
		}
	}
}

// ContestantController manages a vote campaign's nominees, including their photos in
// object storage.
type ContestantController struct {
	DB *gorm.DB
}

func NewContestantController(db *gorm.DB) *ContestantController {
	return &ContestantController{DB: db}
}

// GET /v1/admin/campaigns/{id}/contestants
func (c *ContestantController) List(w http.ResponseWriter, r *http.Request) {
	campaignID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || campaignID < 1 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid campaign id"})
		return
	}

	var contestants []models.Contestant
	if err := c.DB.WithContext(r.Context()).Where("campaign_id = ?", campaignID).
		Order("sort_order ASC, id ASC").Find(&contestants).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to load contestants"})
		return
	}

	for i := range contestants {
		signImage(&contestants[i])
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: contestants})
}

// POST /v1/admin/campaigns/{id}/contestants accepts a multipart form: name, sort_order, image.
func (c *ContestantController) Create(w http.ResponseWriter, r *http.Request) {
	campaignID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || campaignID < 1 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid campaign id"})
		return
	}

	var campaign models.Campaign
	if err := c.DB.WithContext(r.Context()).First(&campaign, campaignID).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Campaign not found"})
		return
	}
	if campaign.Type != models.CampaignVote {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Contestants can only be added to vote campaigns"})
		return
	}

	if err := r.ParseMultipartForm(maxContestantImageBytes); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid multipart form"})
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "name is required"})
		return
	}
	sortOrder, _ := strconv.Atoi(r.FormValue("sort_order"))

	contestant := models.Contestant{
		CampaignID: uint(campaignID),
		Name:       name,
		SortOrder:  sortOrder,
	}

	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		ext := strings.ToLower(filepath.Ext(header.Filename))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" && ext != ".webp" {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "image must be jpg, png or webp"})
			return
		}
		objectName := fmt.Sprintf("contestants/%d/%d%s", campaignID, time.Now().UnixNano(), ext)
		if err := utils.UploadToS3(objectName, file); err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to upload image"})
			return
		}
		contestant.ImageURL = &objectName
	}

	if err := c.DB.WithContext(r.Context()).Create(&contestant).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to create contestant"})
		return
	}

	signImage(&contestant)
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Contestant created", Data: contestant})
}

// PUT /v1/admin/contestants/{id} takes a multipart form; fields present are updated.
func (c *ContestantController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 1 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid contestant id"})
		return
	}

	var contestant models.Contestant
	if err := c.DB.WithContext(r.Context()).First(&contestant, id).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Contestant not found"})
		return
	}

	if err := r.ParseMultipartForm(maxContestantImageBytes); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid multipart form"})
		return
	}

	if name := strings.TrimSpace(r.FormValue("name")); name != "" {
		contestant.Name = name
	}
	if raw := r.FormValue("sort_order"); raw != "" {
		if sortOrder, err := strconv.Atoi(raw); err == nil {
			contestant.SortOrder = sortOrder
		}
	}

	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		ext := strings.ToLower(filepath.Ext(header.Filename))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" && ext != ".webp" {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "image must be jpg, png or webp"})
			return
		}
		objectName := fmt.Sprintf("contestants/%d/%d%s", contestant.CampaignID, time.Now().UnixNano(), ext)
		if err := utils.UploadToS3(objectName, file); err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to upload image"})
			return
		}
		if old := contestant.ImageURL; old != nil && *old != "" {
			_ = utils.DeleteFromS3(*old)
		}
		contestant.ImageURL = &objectName
	}

	if err := c.DB.WithContext(r.Context()).Save(&contestant).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to update contestant"})
		return
	}

	signImage(&contestant)
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Contestant updated", Data: contestant})
}

// DELETE /v1/admin/contestants/{id}
func (c *ContestantController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 1 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid contestant id"})
		return
	}

	var contestant models.Contestant
	if err := c.DB.WithContext(r.Context()).First(&contestant, id).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Contestant not found"})
		return
	}

	var voteCount int64
	c.DB.WithContext(r.Context()).Model(&models.Transaction{}).Where("contestant_id = ?", id).Count(&voteCount)
	if voteCount > 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Contestant has transactions and cannot be deleted"})
		return
	}

	if err := c.DB.WithContext(r.Context()).Delete(&contestant).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to delete contestant"})
		return
	}
	if img := contestant.ImageURL; img != nil && *img != "" {
		_ = utils.DeleteFromS3(*img)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Contestant deleted"})
}
