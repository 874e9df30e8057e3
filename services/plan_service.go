package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mbrth/iasante/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PlanGenerator produces a weekly plan for a profile.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, profile *models.Profile) ([]models.PlanDay, error)
}

// PlanService is the plan cache plus regeneration: one current-plan JSON blob
// per user, read on view mount, overwritten unconditionally on regeneration.
// No expiry and no versioning — a stale plan survives until regenerated.
type PlanService struct {
	db *gorm.DB
	ai PlanGenerator
}

func NewPlanService(db *gorm.DB, ai PlanGenerator) *PlanService {
	return &PlanService{db: db, ai: ai}
}

// Read returns the cached plan, or nil when none has been generated yet.
func (s *PlanService) Read(userID uint) ([]models.PlanDay, error) {
	var row models.PlanCache
	if err := s.db.Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var days []models.PlanDay
	if err := json.Unmarshal(row.Payload, &days); err != nil {
		return nil, fmt.Errorf("cached plan is corrupt: %w", err)
	}
	return days, nil
}

// Write overwrites the cached plan unconditionally.
func (s *PlanService) Write(userID uint, days []models.PlanDay) error {
	payload, err := json.Marshal(days)
	if err != nil {
		return err
	}

	var row models.PlanCache
	err = s.db.Where("user_id = ?", userID).First(&row).Error
	switch {
	case err == nil:
		row.Payload = datatypes.JSON(payload)
		return s.db.Save(&row).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.Create(&models.PlanCache{
			UserID:  userID,
			Payload: datatypes.JSON(payload),
		}).Error
	default:
		return err
	}
}

// Regenerate requests a fresh plan and caches it. A generation failure leaves
// the previous cached plan untouched.
func (s *PlanService) Regenerate(ctx context.Context, userID uint, profile *models.Profile) ([]models.PlanDay, error) {
	days, err := s.ai.GeneratePlan(ctx, profile)
	if err != nil {
		return nil, err
	}
	if err := s.Write(userID, days); err != nil {
		return nil, err
	}
	return days, nil
}
