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

// ConversationController is the agent side of support chat: see the queue, pick up a
// waiting conversation, and reply as the live agent.
type ConversationController struct {
	DB *gorm.DB
}

func NewConversationController(db *gorm.DB) *ConversationController {
	return &ConversationController{DB: db}
}

// GET /v1/admin/conversations?status=waiting_for_agent
func (c *ConversationController) List(w http.ResponseWriter, r *http.Request) {
	query := c.DB.WithContext(r.Context()).Model(&models.Conversation{})
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var conversations []models.Conversation
	if err := query.Order("updated_at DESC").Limit(100).Find(&conversations).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to load conversations"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: conversations})
}

// GET /v1/admin/conversations/{id} returns the conversation with its full transcript.
func (c *ConversationController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 1 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid conversation id"})
		return
	}

	var conv models.Conversation
	if err := c.DB.WithContext(r.Context()).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&conv, id).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Conversation not found"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: conv})
}

// POST /v1/admin/conversations/{id}/pickup moves waiting_for_agent to live_agent, claimed by
// the signed-in admin. Illegal from any other state.
func (c *ConversationController) Pickup(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 1 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid conversation id"})
		return
	}

	var conv models.Conversation
	if err := c.DB.WithContext(r.Context()).First(&conv, id).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Conversation not found"})
		return
	}
	if !conv.Status.CanTransitionTo(models.StatusLiveAgent) {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{
			Success: false,
			Message: "Conversation is not waiting for an agent",
		})
		return
	}

	agentName, _ := r.Context().Value(utils.AdminNameKey).(string)
	if agentName == "" {
		agentName = "Support Agent"
	}

	// Guard on the current status so two agents cannot both claim it.
	res := c.DB.WithContext(r.Context()).Model(&models.Conversation{}).
		Where("id = ? AND status = ?", id, models.StatusWaitingForAgent).
		Updates(map[string]interface{}{"status": models.StatusLiveAgent, "agent_name": agentName})
	if res.Error != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to pick up conversation"})
		return
	}
	if res.RowsAffected == 0 {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Conversation was already picked up"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Conversation picked up"})
}

type replyRequest struct {
	Message string `json:"message"`
}

// POST /v1/admin/conversations/{id}/reply appends a live_agent message.
func (c *ConversationController) Reply(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 1 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid conversation id"})
		return
	}

	var req replyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid JSON body"})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "message is required"})
		return
	}

	var conv models.Conversation
	if err := c.DB.WithContext(r.Context()).First(&conv, id).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Conversation not found"})
		return
	}
	if conv.Status != models.StatusLiveAgent {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{
			Success: false,
			Message: "Pick up the conversation before replying",
		})
		return
	}

	msg := models.ChatMessage{
		ConversationID: conv.ID,
		Role:           models.RoleLiveAgent,
		Content:        message,
	}
	if err := c.DB.WithContext(r.Context()).Create(&msg).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to save reply"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Reply sent", Data: msg})
}
