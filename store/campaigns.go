package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/etiditalex/CMFagency-sub001/models"
)

// Campaigns reads campaign and contestant rows for the public payment and lookup paths.
// Writes go through the dashboard controllers directly.
type Campaigns struct {
	DB *gorm.DB
}

func NewCampaigns(db *gorm.DB) *Campaigns {
	return &Campaigns{DB: db}
}

// FindBySlug returns the active campaign with the given slug, or (nil, nil) when absent.
func (s *Campaigns) FindBySlug(ctx context.Context, slug string) (*models.Campaign, error) {
	var c models.Campaign
	err := s.DB.WithContext(ctx).Where("slug = ? AND active = ?", slug, true).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindContestant returns the contestant only when it belongs to the given campaign, or
// (nil, nil) otherwise.
func (s *Campaigns) FindContestant(ctx context.Context, campaignID, contestantID uint) (*models.Contestant, error) {
	var c models.Contestant
	err := s.DB.WithContext(ctx).Where("id = ? AND campaign_id = ?", contestantID, campaignID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Contestants lists the contestants of a campaign in display order.
func (s *Campaigns) Contestants(ctx context.Context, campaignID uint) ([]models.Contestant, error) {
	var list []models.Contestant
	err := s.DB.WithContext(ctx).Where("campaign_id = ?", campaignID).
		Order("sort_order ASC, id ASC").Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
