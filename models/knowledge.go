package models

import "time"

// KnowledgeSnippet is a curated title + body record fed to the support bot as retrieval
// context. The router only reads these; they are maintained from the dashboard.
type KnowledgeSnippet struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

func (KnowledgeSnippet) TableName() string {
	return "knowledge_snippets"
}
