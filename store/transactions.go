package store

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/etiditalex/CMFagency-sub001/models"
)

// Transactions persists payment attempts. Terminal status updates are guarded so a
// transaction leaves pending exactly once, no matter how often a webhook is redelivered.
type Transactions struct {
	DB *gorm.DB
}

func NewTransactions(db *gorm.DB) *Transactions {
	return &Transactions{DB: db}
}

func (s *Transactions) Create(ctx context.Context, txn *models.Transaction) error {
	return s.DB.WithContext(ctx).Create(txn).Error
}

// UpdateMetadata replaces the metadata blob of one transaction.
func (s *Transactions) UpdateMetadata(ctx context.Context, id uint, metadata map[string]string) error {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Model(&models.Transaction{}).Where("id = ?", id).
		Update("metadata", string(raw)).Error
}

// FindByReference returns the transaction for a reference, or (nil, nil) when absent.
func (s *Transactions) FindByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.DB.WithContext(ctx).Where("reference = ?", reference).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// FindByCheckoutRequestID locates an M-Pesa transaction via the gateway correlation id
// stored in its metadata blob.
func (s *Transactions) FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Transaction, error) {
	if checkoutRequestID == "" {
		return nil, nil
	}
	var txn models.Transaction
	err := s.DB.WithContext(ctx).
		Where("provider = ? AND metadata LIKE ?", models.ProviderMpesa, `%"checkout_request_id":"`+checkoutRequestID+`"%`).
		First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// MarkTerminal moves a pending transaction to success or failed. Returns false when the row
// was already terminal, which callers treat as an acknowledged duplicate.
func (s *Transactions) MarkTerminal(ctx context.Context, id uint, status models.TransactionStatus, metadata map[string]string) (bool, error) {
	if !status.IsTerminal() {
		return false, errors.New("mark terminal called with non-terminal status")
	}
	updates := map[string]interface{}{"status": status}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return false, err
		}
		updates["metadata"] = string(raw)
	}
	res := s.DB.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.TxnPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
