package services

import (
	"context"
	"log"

	"github.com/mbrth/iasante/models"
)

// RiskAnalyzer scores a profile against a metric history.
type RiskAnalyzer interface {
	AnalyzeRisk(ctx context.Context, profile *models.Profile, metrics []models.HealthMetrics) (*models.RiskAssessment, error)
}

// SampleMetrics returns the biometric series the dashboard charts. Static
// sample data — real measurements are not collected yet.
func SampleMetrics() []models.HealthMetrics {
	return []models.HealthMetrics{
		{Date: "01/05", Glucose: 95, SystolicBP: 120, Weight: 80, ComplianceScore: 85},
		{Date: "03/05", Glucose: 105, SystolicBP: 125, Weight: 79.5, ComplianceScore: 90},
		{Date: "05/05", Glucose: 88, SystolicBP: 118, Weight: 79.2, ComplianceScore: 95},
		{Date: "07/05", Glucose: 115, SystolicBP: 130, Weight: 79.8, ComplianceScore: 70},
		{Date: "09/05", Glucose: 92, SystolicBP: 121, Weight: 79.0, ComplianceScore: 88},
		{Date: "11/05", Glucose: 94, SystolicBP: 119, Weight: 78.8, ComplianceScore: 92},
		{Date: "13/05", Glucose: 90, SystolicBP: 115, Weight: 78.5, ComplianceScore: 98},
	}
}

// FallbackRisk is what the dashboard shows when the provider is unavailable:
// the fixed score the clients render instead of an error state.
func FallbackRisk() *models.RiskAssessment {
	return &models.RiskAssessment{
		HealthScore:     85,
		RiskLevel:       "Stable",
		Recommendations: []string{},
		AIFeedback:      "Votre corps répond favorablement au protocole actuel. Priorisez les lipides insaturés ce soir.",
	}
}

// RiskService runs the dashboard risk assessment. It never fails the caller:
// provider errors and results superseded by a profile change both degrade to
// the fixed fallback.
type RiskService struct {
	ai       RiskAnalyzer
	profiles *ProfileService
}

func NewRiskService(ai RiskAnalyzer, profiles *ProfileService) *RiskService {
	return &RiskService{ai: ai, profiles: profiles}
}

// Assess scores the profile against the given metrics. The result is tagged
// with the profile generation at request time; if the profile changed while
// the call was outstanding the stale result is discarded.
func (s *RiskService) Assess(ctx context.Context, userID uint, profile *models.Profile, metrics []models.HealthMetrics) *models.RiskAssessment {
	generation := s.profiles.Generation(userID)

	risk, err := s.ai.AnalyzeRisk(ctx, profile, metrics)
	if err != nil {
		log.Printf("risk analysis failed for user %d: %v", userID, err)
		return FallbackRisk()
	}
	if s.profiles.Generation(userID) != generation {
		log.Printf("risk result for user %d superseded by profile change, discarding", userID)
		return FallbackRisk()
	}
	return risk
}
