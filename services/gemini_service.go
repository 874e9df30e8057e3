package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mbrth/iasante/models"
	"github.com/mbrth/iasante/utils"
)

// GeminiService wraps the generative API behind the four calls the product
// needs: weekly plan, risk score, meal analysis and assistant turns. Every
// call is one-shot and independent; there is no retry policy — a failure is
// the caller's to handle.
type GeminiService struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	proModel   string
	flashModel string
}

func NewGeminiService() *GeminiService {
	base := os.Getenv("GEMINI_BASE_URL")
	if base == "" {
		base = "https://generativelanguage.googleapis.com"
	}
	return &GeminiService{
		client:     &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimRight(base, "/"),
		apiKey:     os.Getenv("GEMINI_API_KEY"),
		proModel:   "gemini-3-pro-preview",
		flashModel: "gemini-3-flash-preview",
	}
}

// ---- wire types ----

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// generate posts one request and returns the first candidate's text.
func (s *GeminiService) generate(ctx context.Context, model string, reqBody geminiRequest) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY not set")
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal gemini payload: %w", err)
	}

	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", s.baseURL, model, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("failed to create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call gemini API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read gemini response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API error %d: %s", resp.StatusCode, string(body))
	}

	var gr geminiResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", fmt.Errorf("failed to parse gemini JSON: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}

// ---- weekly plan ----

var planSchema = map[string]any{
	"type": "ARRAY",
	"items": map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"day": map[string]any{"type": "STRING"},
			"meals": map[string]any{
				"type": "ARRAY",
				"items": map[string]any{
					"type": "OBJECT",
					"properties": map[string]any{
						"id":       map[string]any{"type": "STRING"},
						"type":     map[string]any{"type": "STRING"},
						"name":     map[string]any{"type": "STRING"},
						"calories": map[string]any{"type": "NUMBER"},
						"protein":  map[string]any{"type": "NUMBER"},
						"carbs":    map[string]any{"type": "NUMBER"},
						"fat":      map[string]any{"type": "NUMBER"},
						"sodium":   map[string]any{"type": "NUMBER"},
						"sugar":    map[string]any{"type": "NUMBER"},
						"analysis": map[string]any{"type": "STRING"},
					},
					"required": []string{"id", "type", "name", "calories", "protein", "carbs", "fat"},
				},
			},
			"totalCalories": map[string]any{"type": "NUMBER"},
		},
		"required": []string{"day", "meals", "totalCalories"},
	},
}

// GeneratePlan asks for a 7-day plan constrained to the declared schema and
// validates the shape before handing it to the rest of the app.
func (s *GeminiService) GeneratePlan(ctx context.Context, profile *models.Profile) ([]models.PlanDay, error) {
	restricted := "sugar"
	if profile.HasPathology(models.PathologyHypertension) {
		restricted = "sodium"
	}

	prompt := fmt.Sprintf(`Generate a detailed weekly nutrition plan (7 days) for a patient with the following profile:
Age: %d, Sex: %s, BMI: %s,
Pathologies: %s,
Allergies: %s,
Goals: %s.
Ensure strict limitations on %s and balance macros according to their condition.
Provide a unique 'analysis' string for each meal explaining why it's good for their specific pathology.`,
		profile.Age, profile.Sex, utils.FormatBMI(profile.BMI),
		strings.Join(profile.Pathologies, ", "),
		strings.Join(profile.Allergies, ", "),
		strings.Join(profile.Goals, ", "),
		restricted,
	)

	text, err := s.generate(ctx, s.proModel, geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   planSchema,
		},
	})
	if err != nil {
		return nil, err
	}

	var days []models.PlanDay
	if err := json.Unmarshal([]byte(text), &days); err != nil {
		return nil, fmt.Errorf("plan response is not valid JSON: %w", err)
	}
	if err := ValidatePlan(days); err != nil {
		return nil, err
	}
	return days, nil
}

// ValidatePlan checks the provider output against the plan contract instead
// of trusting its shape downstream.
func ValidatePlan(days []models.PlanDay) error {
	if len(days) != 7 {
		return fmt.Errorf("plan must have 7 day entries, got %d", len(days))
	}
	for i, d := range days {
		if d.Day == "" {
			return fmt.Errorf("plan day %d has no label", i)
		}
		if len(d.Meals) == 0 {
			return fmt.Errorf("plan day %q has no meals", d.Day)
		}
		for _, m := range d.Meals {
			if m.Name == "" {
				return fmt.Errorf("plan day %q has a meal without a name", d.Day)
			}
		}
	}
	return nil
}

// ---- risk analysis ----

var riskSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"healthScore":     map[string]any{"type": "NUMBER"},
		"riskLevel":       map[string]any{"type": "STRING"},
		"complianceScore": map[string]any{"type": "NUMBER"},
		"recommendations": map[string]any{
			"type":  "ARRAY",
			"items": map[string]any{"type": "STRING"},
		},
		"aiFeedback": map[string]any{"type": "STRING"},
	},
	"required": []string{"healthScore", "riskLevel", "recommendations"},
}

func (s *GeminiService) AnalyzeRisk(ctx context.Context, profile *models.Profile, metrics []models.HealthMetrics) (*models.RiskAssessment, error) {
	mj, err := json.Marshal(metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metrics: %w", err)
	}

	prompt := fmt.Sprintf(`Analyze health risk for a patient with %s.
Recent metrics: %s.
Provide a health score (0-100), current risk level, and 3 key recommendations.`,
		strings.Join(profile.Pathologies, ", "), string(mj))

	text, err := s.generate(ctx, s.flashModel, geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   riskSchema,
		},
	})
	if err != nil {
		return nil, err
	}

	var risk models.RiskAssessment
	if err := json.Unmarshal([]byte(text), &risk); err != nil {
		return nil, fmt.Errorf("risk response is not valid JSON: %w", err)
	}
	if risk.RiskLevel == "" {
		return nil, fmt.Errorf("risk response missing risk level")
	}
	if risk.HealthScore < 0 || risk.HealthScore > 100 {
		return nil, fmt.Errorf("risk response health score %v out of range", risk.HealthScore)
	}
	return &risk, nil
}

// ---- meal analysis ----

// MealAnalysis is the nutrient estimate for one described or photographed meal.
type MealAnalysis struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Sodium   float64 `json:"sodium"`
	Sugar    float64 `json:"sugar"`
	Summary  string  `json:"summary"`
}

var mealSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"name":     map[string]any{"type": "STRING"},
		"calories": map[string]any{"type": "NUMBER"},
		"protein":  map[string]any{"type": "NUMBER"},
		"carbs":    map[string]any{"type": "NUMBER"},
		"fat":      map[string]any{"type": "NUMBER"},
		"sodium":   map[string]any{"type": "NUMBER"},
		"sugar":    map[string]any{"type": "NUMBER"},
		"summary":  map[string]any{"type": "STRING"},
	},
}

// AnalyzeMeal estimates nutrients from a free-text description plus an
// optional raw base64 JPEG payload sent as inline data.
func (s *GeminiService) AnalyzeMeal(ctx context.Context, description, imageBase64 string) (*MealAnalysis, error) {
	parts := []geminiPart{{
		Text: fmt.Sprintf("Analyze this meal: %s. Provide calories, protein, carbs, fat, sodium, and sugar. Also provide a health impact summary for a chronic disease patient.", description),
	}}
	if imageBase64 != "" {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: "image/jpeg",
			Data:     imageBase64,
		}})
	}

	text, err := s.generate(ctx, s.flashModel, geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   mealSchema,
		},
	})
	if err != nil {
		return nil, err
	}

	var analysis MealAnalysis
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		return nil, fmt.Errorf("meal response is not valid JSON: %w", err)
	}
	return &analysis, nil
}

// ---- assistant chat ----

// ChatTurn is one prior exchange of an assistant session.
type ChatTurn struct {
	Role string // "user" | "model"
	Text string
}

// AssistantSystemInstruction seeds a session with the safety posture plus the
// serialized patient profile.
func AssistantSystemInstruction(profile *models.Profile) string {
	pj, _ := json.Marshal(profile)
	return fmt.Sprintf(`You are NutriPath AI, a world-class clinical nutrition assistant specializing in chronic diseases.
Patient Profile: %s.
Always provide medically sound, supportive, and actionable advice.
If a user reports dangerous symptoms (e.g., extremely high blood pressure or blood sugar), advise them to seek emergency care immediately.
Be empathetic and professional.`, string(pj))
}

// SendChat sends one user message with the prior turns as context and returns
// the model's reply text.
func (s *GeminiService) SendChat(ctx context.Context, system string, history []ChatTurn, message string) (string, error) {
	contents := make([]geminiContent, 0, len(history)+1)
	for _, t := range history {
		contents = append(contents, geminiContent{
			Role:  t.Role,
			Parts: []geminiPart{{Text: t.Text}},
		})
	}
	contents = append(contents, geminiContent{
		Role:  "user",
		Parts: []geminiPart{{Text: message}},
	})

	return s.generate(ctx, s.flashModel, geminiRequest{
		Contents:          contents,
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: system}}},
	})
}
