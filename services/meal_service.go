package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mbrth/iasante/models"
	"github.com/mbrth/iasante/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MealAnalyzer estimates nutrients from a description and optional image.
type MealAnalyzer interface {
	AnalyzeMeal(ctx context.Context, description, imageBase64 string) (*MealAnalysis, error)
}

// MealService analyzes a described or photographed meal and keeps the user's
// meal log. Photo handling is best effort: label detection and storage
// failures never block the analysis itself.
type MealService struct {
	db *gorm.DB
	ai MealAnalyzer
}

func NewMealService(db *gorm.DB, ai MealAnalyzer) *MealService {
	return &MealService{db: db, ai: ai}
}

// Analyze runs one meal capture: enrich the description with image labels,
// request the nutrient estimate, store the photo, persist the log entry.
func (s *MealService) Analyze(ctx context.Context, userID uint, description, imageDataURI string) (*models.MealEntry, error) {
	if description == "" && imageDataURI == "" {
		return nil, fmt.Errorf("a description or a photo is required")
	}
	if description == "" {
		description = "Meal photo provided"
	}

	var imageBase64, photoURL string
	if imageDataURI != "" {
		if labels, err := utils.DetectImageLabels(imageDataURI); err == nil && len(labels) > 0 {
			description = fmt.Sprintf("%s. The photo shows: %s", description, strings.Join(labels, ", "))
		} else if err != nil {
			log.Printf("image label detection failed: %v", err)
		}

		// the provider wants the raw payload, not the data-URI wrapper
		if idx := strings.Index(imageDataURI, ","); idx >= 0 {
			imageBase64 = imageDataURI[idx+1:]
		}

		url, err := utils.UploadBase64ImageToS3(imageDataURI, "meal-photos", fmt.Sprintf("user-%d", userID))
		if err != nil {
			log.Printf("meal photo upload failed: %v", err)
		} else {
			photoURL = url
		}
	}

	analysis, err := s.ai.AnalyzeMeal(ctx, description, imageBase64)
	if err != nil {
		return nil, err
	}

	name := analysis.Name
	if name == "" {
		name = "Custom Meal"
	}

	entry := &models.MealEntry{
		UserID:   userID,
		EntryID:  uuid.NewString(),
		Name:     name,
		Calories: analysis.Calories,
		Protein:  analysis.Protein,
		Carbs:    analysis.Carbs,
		Fat:      analysis.Fat,
		Sodium:   analysis.Sodium,
		Sugar:    analysis.Sugar,
		Summary:  analysis.Summary,
		PhotoURL: photoURL,
		AteAt:    time.Now(),
	}
	if err := s.db.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns the user's most recent meal entries, newest first.
func (s *MealService) List(userID uint, limit int) ([]models.MealEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.MealEntry
	err := s.db.
		Where("user_id = ?", userID).
		Order("ate_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
