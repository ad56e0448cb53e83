package models

import "time"

// CampaignType distinguishes ticket sales from voting contests.
type CampaignType string

const (
	CampaignTicket CampaignType = "ticket"
	CampaignVote   CampaignType = "vote"
)

// Campaign is a sellable unit identified by a globally unique, URL-safe slug. Amounts are
// integers in the provider's smallest currency unit.
type Campaign struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	Type       CampaignType `gorm:"type:enum('ticket','vote');not null" json:"type"`
	Slug       string       `gorm:"size:100;not null;uniqueIndex" json:"slug"`
	Title      string       `gorm:"size:200;not null" json:"title"`
	Currency   string       `gorm:"size:3;not null" json:"currency"`
	UnitAmount int64        `gorm:"column:unit_amount;not null" json:"unit_amount"`
	MaxPerTxn  int          `gorm:"column:max_per_txn;not null;default:10" json:"max_per_txn"`
	Active     bool         `gorm:"default:true" json:"active"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`

	Contestants []Contestant `gorm:"foreignKey:CampaignID" json:"contestants,omitempty"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

// Contestant is a nominee belonging to exactly one vote-type Campaign.
type Contestant struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CampaignID uint      `gorm:"column:campaign_id;not null;index" json:"campaign_id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	ImageURL   *string   `gorm:"column:image_url;type:text" json:"image_url,omitempty"`
	SortOrder  int       `gorm:"column:sort_order;default:0" json:"sort_order"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Contestant) TableName() string {
	return "contestants"
}
