// Package store holds the GORM-backed persistence used by the public handlers. Each store
// exposes the narrow surface the handler consumes, so tests can substitute fakes.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/etiditalex/CMFagency-sub001/models"
)

// Conversations persists support conversations, their messages and the knowledge snippets
// the bot grounds its replies on.
type Conversations struct {
	DB *gorm.DB
}

func NewConversations(db *gorm.DB) *Conversations {
	return &Conversations{DB: db}
}

// FindBySessionKey returns the conversation for a session key, or (nil, nil) when no row
// exists yet.
func (s *Conversations) FindBySessionKey(ctx context.Context, key string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.DB.WithContext(ctx).Where("session_key = ?", key).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *Conversations) Create(ctx context.Context, conv *models.Conversation) error {
	return s.DB.WithContext(ctx).Create(conv).Error
}

// SetStatus updates the routing state of one conversation.
func (s *Conversations) SetStatus(ctx context.Context, id uint, status models.ConversationStatus) error {
	return s.DB.WithContext(ctx).Model(&models.Conversation{}).Where("id = ?", id).
		Update("status", status).Error
}

func (s *Conversations) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	return s.DB.WithContext(ctx).Create(msg).Error
}

// RecentMessages returns up to limit messages of a conversation, oldest first.
func (s *Conversations) RecentMessages(ctx context.Context, conversationID uint, limit int) ([]models.ChatMessage, error) {
	var newest []models.ChatMessage
	err := s.DB.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").Limit(limit).
		Find(&newest).Error
	if err != nil {
		return nil, err
	}
	// reverse into chronological order
	for i, j := 0, len(newest)-1; i < j; i, j = i+1, j-1 {
		newest[i], newest[j] = newest[j], newest[i]
	}
	return newest, nil
}

// RecentKnowledge returns up to limit snippets, most recently updated first.
func (s *Conversations) RecentKnowledge(ctx context.Context, limit int) ([]models.KnowledgeSnippet, error) {
	var snippets []models.KnowledgeSnippet
	err := s.DB.WithContext(ctx).Order("updated_at DESC").Limit(limit).Find(&snippets).Error
	if err != nil {
		return nil, err
	}
	return snippets, nil
}
