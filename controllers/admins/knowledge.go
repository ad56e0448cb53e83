package admins

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/etiditalex/CMFagency-sub001/middleware"
	"github.com/etiditalex/CMFagency-sub001/models"
	"github.com/etiditalex/CMFagency-sub001/utils"
)

// KnowledgeController maintains the snippets the support bot answers from.
type KnowledgeController struct {
	DB *gorm.DB
}

func NewKnowledgeController(db *gorm.DB) *KnowledgeController {
	return &KnowledgeController{DB: db}
}

type knowledgeRequest struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

// GET /v1/admin/knowledge
func (c *KnowledgeController) List(w http.ResponseWriter, r *http.Request) {
	var snippets []models.KnowledgeSnippet
	if err := c.DB.WithContext(r.Context()).Order("updated_at DESC").Find(&snippets).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to load snippets"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: snippets})
}

// POST /v1/admin/knowledge
func (c *KnowledgeController) Create(w http.ResponseWriter, r *http.Request) {
	var req knowledgeRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	snippet := models.KnowledgeSnippet{Title: strings.TrimSpace(req.Title), Body: strings.TrimSpace(req.Body)}
	if err := c.DB.WithContext(r.Context()).Create(&snippet).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to create snippet"})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Snippet created", Data: snippet})
}

// PUT /v1/admin/knowledge/{id}
func (c *KnowledgeController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 1 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid snippet id"})
		return
	}

	var snippet models.KnowledgeSnippet
	if err := c.DB.WithContext(r.Context()).First(&snippet, id).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Snippet not found"})
		return
	}

	var req knowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid JSON body"})
		return
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		snippet.Title = title
	}
	if body := strings.TrimSpace(req.Body); body != "" {
		snippet.Body = body
	}

	if err := c.DB.WithContext(r.Context()).Save(&snippet).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to update snippet"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Snippet updated", Data: snippet})
}

// DELETE /v1/admin/knowledge/{id}
func (c *KnowledgeController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 1 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid snippet id"})
		return
	}

	res := c.DB.WithContext(r.Context()).Delete(&models.KnowledgeSnippet{}, id)
	if res.Error != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to delete snippet"})
		return
	}
	if res.RowsAffected == 0 {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Snippet not found"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Snippet deleted"})
}
