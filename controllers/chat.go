package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/etiditalex/CMFagency-sub001/config"
	"github.com/etiditalex/CMFagency-sub001/models"
	"github.com/etiditalex/CMFagency-sub001/utils"
)

const (
	maxInboundChars    = 2000
	maxReplyChars      = 4000
	transcriptMessages = 15
	transcriptChars    = 1200
	knowledgeSnippets  = 10
)

// handoffPhrases trigger the bot -> waiting_for_agent transition. Matching is a
// case-insensitive substring scan over the trimmed message.
var handoffPhrases = []string{
	"live agent",
	"human agent",
	"real person",
	"real human",
	"talk to a person",
	"talk to someone",
	"talk to a human",
	"speak to an agent",
	"speak to a human",
	"speak to someone",
	"customer service",
	"customer care",
	"need a human",
	"connect me to an agent",
}

const (
	transferNotice = "Thanks! I'm transferring you to our support team now. A live agent will join this conversation shortly."
	waitingAck     = "Thanks for the message. Your conversation is in the queue and a member of our team will respond shortly."
	liveAgentAck   = "Message received. Our agent will reply here in a moment."

	cannedWithKnowledge = "Thanks for reaching out! I couldn't generate a detailed answer right now, but our team covers event ticketing, voting campaigns, bookings and creative services. Ask for a live agent any time and someone will assist you."
	cannedBare          = "Thanks for reaching out! Our support assistant is temporarily unavailable. Ask for a live agent and a member of our team will assist you shortly."
)

// ConversationStore is the persistence surface the router needs.
type ConversationStore interface {
	FindBySessionKey(ctx context.Context, key string) (*models.Conversation, error)
	Create(ctx context.Context, conv *models.Conversation) error
	SetStatus(ctx context.Context, id uint, status models.ConversationStatus) error
	AppendMessage(ctx context.Context, msg *models.ChatMessage) error
	RecentMessages(ctx context.Context, conversationID uint, limit int) ([]models.ChatMessage, error)
	RecentKnowledge(ctx context.Context, limit int) ([]models.KnowledgeSnippet, error)
}

// Completer produces one assistant reply for one user turn.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Notifier delivers the handoff email. Failures are logged and swallowed; a handoff must
// never fail because the notification did.
type Notifier interface {
	Send(ctx context.Context, to []string, subject, html string) error
}

// ChatController routes one inbound visitor message per request: answer with the bot,
// acknowledge on behalf of a human, or queue the conversation for pickup.
type ChatController struct {
	Store  ConversationStore
	LLM    Completer
	Mailer Notifier
	Cfg    *config.Config
}

func NewChatController(store ConversationStore, llm Completer, mailer Notifier, cfg *config.Config) *ChatController {
	return &ChatController{Store: store, LLM: llm, Mailer: mailer, Cfg: cfg}
}

type chatRequest struct {
	SessionID      string `json:"sessionId"`
	Message        string `json:"message"`
	VisitorName    string `json:"visitorName,omitempty"`
	VisitorEmail   string `json:"visitorEmail,omitempty"`
	VisitorContact string `json:"visitorContact,omitempty"`
	InquiryType    string `json:"inquiryType,omitempty"`
}

type chatResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	Role             string `json:"role"`
	HandoffTriggered bool   `json:"handoffTriggered,omitempty"`
}

// HandleMessage implements POST /v1/chat/message.
func (c *ChatController) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, utils.NewAPIError(utils.KindInvalidRequest, "Invalid JSON body"))
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	message := strings.TrimSpace(req.Message)
	if sessionID == "" || message == "" {
		utils.WriteError(w, utils.NewAPIError(utils.KindInvalidRequest, "sessionId and message are required"))
		return
	}
	// Hard size cap, not a validation error.
	message = truncateRunes(message, maxInboundChars)

	ctx := r.Context()

	conv, err := c.Store.FindBySessionKey(ctx, sessionID)
	if err != nil {
		log.Printf("[Chat] lookup conversation: %v", err)
		utils.WriteError(w, utils.NewAPIError(utils.KindService, "Support chat is unavailable right now"))
		return
	}
	if conv == nil {
		conv = &models.Conversation{
			SessionKey: sessionID,
			Status:     models.StatusBot,
		}
		if v := strings.TrimSpace(req.VisitorName); v != "" {
			conv.VisitorName = &v
		}
		if v := strings.TrimSpace(req.VisitorEmail); v != "" {
			conv.VisitorEmail = &v
		}
		if err := c.Store.Create(ctx, conv); err != nil {
			log.Printf("[Chat] create conversation: %v", err)
			utils.WriteError(w, utils.NewAPIError(utils.KindService, "Support chat is unavailable right now"))
			return
		}
	}

	// Every branch records exactly one inbound user message.
	if err := c.Store.AppendMessage(ctx, &models.ChatMessage{
		ConversationID: conv.ID,
		Role:           models.RoleUser,
		Content:        message,
	}); err != nil {
		log.Printf("[Chat] save user message: %v", err)
		utils.WriteError(w, utils.NewAPIError(utils.KindService, "Failed to save message"))
		return
	}

	switch conv.Status {
	case models.StatusLiveAgent:
		utils.WriteRaw(w, http.StatusOK, chatResponse{Success: true, Message: liveAgentAck, Role: models.RoleLiveAgent})
		return
	case models.StatusWaitingForAgent:
		utils.WriteRaw(w, http.StatusOK, chatResponse{Success: true, Message: waitingAck, Role: models.RoleAssistant})
		return
	}

	if wantsLiveAgent(message) {
		c.handleHandoff(ctx, w, conv, req)
		return
	}

	c.handleBotReply(ctx, w, conv, message)
}

func (c *ChatController) handleHandoff(ctx context.Context, w http.ResponseWriter, conv *models.Conversation, req chatRequest) {
	if err := c.Store.SetStatus(ctx, conv.ID, models.StatusWaitingForAgent); err != nil {
		log.Printf("[Chat] handoff status update: %v", err)
		utils.WriteError(w, utils.NewAPIError(utils.KindService, "Support chat is unavailable right now"))
		return
	}
	if err := c.Store.AppendMessage(ctx, &models.ChatMessage{
		ConversationID: conv.ID,
		Role:           models.RoleAssistant,
		Content:        transferNotice,
	}); err != nil {
		log.Printf("[Chat] save transfer notice: %v", err)
	}

	// Best effort: the caller's handoff succeeds whether or not this lands.
	c.notifyHandoff(ctx, conv, req)

	utils.WriteRaw(w, http.StatusOK, chatResponse{
		Success:          true,
		Message:          transferNotice,
		Role:             models.RoleAssistant,
		HandoffTriggered: true,
	})
}

func (c *ChatController) handleBotReply(ctx context.Context, w http.ResponseWriter, conv *models.Conversation, message string) {
	snippets, err := c.Store.RecentKnowledge(ctx, knowledgeSnippets)
	if err != nil {
		log.Printf("[Chat] load knowledge: %v", err)
		// continue with no grounding context
	}

	reply, err := c.LLM.Complete(ctx, buildSystemPrompt(snippets), message)
	if err == utils.ErrCompletionNotConfigured {
		if len(snippets) > 0 {
			reply = cannedWithKnowledge
		} else {
			reply = cannedBare
		}
	} else if err != nil {
		log.Printf("[Chat] completion: %v", err)
		utils.WriteError(w, utils.NewAPIError(utils.KindService, "Support chat is unavailable right now"))
		return
	}

	reply = truncateRunes(strings.TrimSpace(reply), maxReplyChars)
	if err := c.Store.AppendMessage(ctx, &models.ChatMessage{
		ConversationID: conv.ID,
		Role:           models.RoleAssistant,
		Content:        reply,
	}); err != nil {
		log.Printf("[Chat] save assistant reply: %v", err)
	}

	utils.WriteRaw(w, http.StatusOK, chatResponse{Success: true, Message: reply, Role: models.RoleAssistant})
}

func (c *ChatController) notifyHandoff(ctx context.Context, conv *models.Conversation, req chatRequest) {
	if c.Mailer == nil {
		return
	}

	transcript := ""
	if msgs, err := c.Store.RecentMessages(ctx, conv.ID, transcriptMessages); err == nil {
		var b strings.Builder
		for _, m := range msgs {
			fmt.Fprintf(&b, "[%s] %s\n", m.Role, m.Content)
		}
		transcript = truncateRunes(b.String(), transcriptChars)
	}

	convURL := fmt.Sprintf("%s/dashboard/support/%d", c.Cfg.PublicSiteURL, conv.ID)
	html := fmt.Sprintf(
		"<p>A visitor asked for a live agent.</p>"+
			"<p><b>Name:</b> %s<br><b>Email:</b> %s<br><b>Contact:</b> %s<br><b>Inquiry:</b> %s</p>"+
			"<p><b>Conversation:</b> <a href=%q>%s</a></p>"+
			"<pre>%s</pre>",
		orDash(req.VisitorName), orDash(req.VisitorEmail), orDash(req.VisitorContact), orDash(req.InquiryType),
		convURL, convURL, transcript,
	)

	if err := c.Mailer.Send(ctx, []string{c.Cfg.OpsEmail}, "Live agent requested", html); err != nil {
		log.Printf("[Chat] handoff notification: %v", err)
	}
}

func wantsLiveAgent(message string) bool {
	lower := strings.ToLower(strings.TrimSpace(message))
	for _, phrase := range handoffPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func buildSystemPrompt(snippets []models.KnowledgeSnippet) string {
	var b strings.Builder
	b.WriteString("You are the support assistant for CMF Agency, a marketing agency in Nairobi. ")
	b.WriteString("We run event ticketing and voting campaigns, handle bookings, offer creative and digital services, and post career openings. ")
	b.WriteString("Answer briefly and helpfully. If you do not know the answer, say so and suggest asking for a live agent. ")
	b.WriteString("Never invent prices, dates or campaign details that are not in the reference notes below.\n")

	if len(snippets) > 0 {
		b.WriteString("\nReference notes:\n")
		for _, s := range snippets {
			fmt.Fprintf(&b, "- %s: %s\n", s.Title, s.Body)
		}
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
