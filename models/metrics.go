package models

// HealthMetrics is one dated biometric sample. The platform currently serves
// a static sample series; nothing is persisted from real input.
type HealthMetrics struct {
	Date            string  `json:"date"`
	Glucose         float64 `json:"glucose,omitempty"`
	SystolicBP      float64 `json:"systolicBP,omitempty"`
	DiastolicBP     float64 `json:"diastolicBP,omitempty"`
	Weight          float64 `json:"weight"`
	ComplianceScore float64 `json:"complianceScore"`
}

// RiskAssessment is the transient result of a risk-analysis call. Recomputed
// on each dashboard load, never stored.
type RiskAssessment struct {
	HealthScore     float64  `json:"healthScore"`
	RiskLevel       string   `json:"riskLevel"`
	ComplianceScore float64  `json:"complianceScore,omitempty"`
	Recommendations []string `json:"recommendations"`
	AIFeedback      string   `json:"aiFeedback,omitempty"`
}
