package models

import (
	"encoding/json"
	"time"
)

// TransactionStatus starts at pending and moves to a terminal value exactly once, and only
// through the provider webhook handlers. Initiation code never sets a terminal status.
type TransactionStatus string

const (
	TxnPending TransactionStatus = "pending"
	TxnSuccess TransactionStatus = "success"
	TxnFailed  TransactionStatus = "failed"
)

func (s TransactionStatus) IsTerminal() bool {
	return s == TxnSuccess || s == TxnFailed
}

// Transaction is one payment attempt. Reference is generated before the gateway call so the
// row can be correlated even if the gateway call fails after the insert.
type Transaction struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	CampaignID   uint              `gorm:"column:campaign_id;not null;index" json:"campaign_id"`
	CampaignType CampaignType      `gorm:"column:campaign_type;type:enum('ticket','vote');not null" json:"campaign_type"`
	Reference    string            `gorm:"size:100;not null;uniqueIndex" json:"reference"`
	Provider     string            `gorm:"size:20;not null" json:"provider"`
	PayerEmail   *string           `gorm:"column:payer_email;size:191" json:"payer_email,omitempty"`
	PayerName    *string           `gorm:"column:payer_name;size:100" json:"payer_name,omitempty"`
	Quantity     int               `gorm:"not null" json:"quantity"`
	Currency     string            `gorm:"size:3;not null" json:"currency"`
	UnitAmount   int64             `gorm:"column:unit_amount;not null" json:"unit_amount"`
	Amount       int64             `gorm:"not null" json:"amount"`
	ContestantID *uint             `gorm:"column:contestant_id;index" json:"contestant_id,omitempty"`
	Status       TransactionStatus `gorm:"type:enum('pending','success','failed');not null;default:'pending'" json:"status"`
	Metadata     string            `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

const (
	ProviderPaystack = "paystack"
	ProviderMpesa    = "mpesa"
)

// DecodeMetadata parses the metadata blob. A missing or malformed blob yields an empty map.
func (t *Transaction) DecodeMetadata() map[string]string {
	m := map[string]string{}
	if t.Metadata != "" {
		_ = json.Unmarshal([]byte(t.Metadata), &m)
	}
	return m
}

// EncodeMetadata replaces the metadata blob with the given map.
func (t *Transaction) EncodeMetadata(m map[string]string) {
	raw, err := json.Marshal(m)
	if err != nil {
		return
	}
	t.Metadata = string(raw)
}
