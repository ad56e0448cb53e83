package models

import "time"

// ConversationStatus is the visitor-support routing state. Transitions only ever move
// forward: bot -> waiting_for_agent -> live_agent. live_agent is set exclusively by the
// dashboard pickup action, never by the router itself.
type ConversationStatus string

const (
	StatusBot             ConversationStatus = "bot"
	StatusWaitingForAgent ConversationStatus = "waiting_for_agent"
	StatusLiveAgent       ConversationStatus = "live_agent"
)

// CanTransitionTo reports whether moving from s to next is a legal step.
func (s ConversationStatus) CanTransitionTo(next ConversationStatus) bool {
	switch s {
	case StatusBot:
		return next == StatusWaitingForAgent
	case StatusWaitingForAgent:
		return next == StatusLiveAgent
	default:
		return false
	}
}

// Conversation is one visitor support session, keyed by a client-generated session key
// that is stable per browser.
type Conversation struct {
	ID           uint               `gorm:"primaryKey" json:"id"`
	SessionKey   string             `gorm:"column:session_key;size:191;not null;uniqueIndex" json:"session_key"`
	Status       ConversationStatus `gorm:"type:enum('bot','waiting_for_agent','live_agent');default:'bot'" json:"status"`
	AgentName    *string            `gorm:"column:agent_name;size:100" json:"agent_name,omitempty"`
	VisitorName  *string            `gorm:"column:visitor_name;size:100" json:"visitor_name,omitempty"`
	VisitorEmail *string            `gorm:"column:visitor_email;size:191" json:"visitor_email,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`

	Messages []ChatMessage `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// ChatMessage is one utterance in a conversation. Rows are append-only; ordering is by
// creation timestamp ascending.
type ChatMessage struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"column:conversation_id;not null;index" json:"conversation_id"`
	Role           string    `gorm:"type:enum('user','assistant','live_agent');not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleLiveAgent = "live_agent"
)
