package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mbrth/iasante/models"
)

func newTestGemini(baseURL string) *GeminiService {
	return &GeminiService{
		client:     &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		apiKey:     "test-key",
		proModel:   "gemini-3-pro-preview",
		flashModel: "gemini-3-flash-preview",
	}
}

// geminiStub serves a canned candidate text and records the request.
func geminiStub(t *testing.T, payload string, capture *geminiRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in query, got %q", r.URL.RawQuery)
		}
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
		}
		resp := map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{"text": payload}},
				},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func planJSON(days int) string {
	labels := []string{"Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi", "Dimanche"}
	out := make([]models.PlanDay, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, models.PlanDay{
			Day: labels[i%len(labels)],
			Meals: []models.Meal{
				{ID: "m1", Type: "Breakfast", Name: "Flocons d'avoine", Calories: 320, Protein: 12, Carbs: 50, Fat: 6},
			},
			TotalCalories: 1750,
		})
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func TestGeneratePlanParsesWeek(t *testing.T) {
	var captured geminiRequest
	srv := geminiStub(t, planJSON(7), &captured)
	defer srv.Close()

	svc := newTestGemini(srv.URL)
	profile := &models.Profile{
		Age:         52,
		Sex:         "Male",
		BMI:         22.9,
		Pathologies: []string{models.PathologyHypertension},
		Allergies:   []string{"Arachides"},
		Goals:       []string{"Stabiliser la tension"},
	}

	days, err := svc.GeneratePlan(context.Background(), profile)
	if err != nil {
		t.Fatalf("generate plan failed: %v", err)
	}
	if len(days) != 7 {
		t.Fatalf("got %d days, want 7", len(days))
	}

	if captured.GenerationConfig == nil || captured.GenerationConfig.ResponseMIMEType != "application/json" {
		t.Fatal("plan request must constrain the response to JSON")
	}
	prompt := captured.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "sodium") {
		t.Errorf("hypertensive profile must restrict sodium, prompt: %q", prompt)
	}
	if !strings.Contains(prompt, "22.9") {
		t.Errorf("prompt must carry the formatted BMI, got: %q", prompt)
	}
}

func TestGeneratePlanRestrictsSugarByDefault(t *testing.T) {
	var captured geminiRequest
	srv := geminiStub(t, planJSON(7), &captured)
	defer srv.Close()

	svc := newTestGemini(srv.URL)
	profile := &models.Profile{Age: 48, Sex: "Female", BMI: 27.4, Pathologies: []string{models.PathologyDiabetesT2}}

	if _, err := svc.GeneratePlan(context.Background(), profile); err != nil {
		t.Fatalf("generate plan failed: %v", err)
	}
	prompt := captured.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "sugar") {
		t.Errorf("non-hypertensive profile must restrict sugar, prompt: %q", prompt)
	}
}

func TestGeneratePlanRejectsShortWeek(t *testing.T) {
	srv := geminiStub(t, planJSON(6), nil)
	defer srv.Close()

	svc := newTestGemini(srv.URL)
	if _, err := svc.GeneratePlan(context.Background(), &models.Profile{Age: 52}); err == nil {
		t.Fatal("expected error for a 6-day plan")
	}
}

func TestGeneratePlanRejectsMalformedJSON(t *testing.T) {
	srv := geminiStub(t, "Here is your plan: Lundi...", nil)
	defer srv.Close()

	svc := newTestGemini(srv.URL)
	if _, err := svc.GeneratePlan(context.Background(), &models.Profile{Age: 52}); err == nil {
		t.Fatal("expected error for non-JSON plan text")
	}
}

func TestGenerateSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	svc := newTestGemini(srv.URL)
	_, err := svc.GeneratePlan(context.Background(), &models.Profile{Age: 52})
	if err == nil {
		t.Fatal("expected error on non-200 status")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("error should carry the status code, got: %v", err)
	}
}

func TestGenerateRequiresAPIKey(t *testing.T) {
	svc := newTestGemini("http://127.0.0.1:0")
	svc.apiKey = ""
	if _, err := svc.GeneratePlan(context.Background(), &models.Profile{Age: 52}); err == nil {
		t.Fatal("expected error when the api key is unset")
	}
}

func TestAnalyzeRisk(t *testing.T) {
	risk := models.RiskAssessment{
		HealthScore:     78,
		RiskLevel:       "Moderate",
		ComplianceScore: 88,
		Recommendations: []string{"Réduire le sel", "Marcher 30 minutes", "Hydratation"},
		AIFeedback:      "Tension en légère hausse cette semaine.",
	}
	b, _ := json.Marshal(risk)
	srv := geminiStub(t, string(b), nil)
	defer srv.Close()

	svc := newTestGemini(srv.URL)
	got, err := svc.AnalyzeRisk(context.Background(), &models.Profile{
		Pathologies: []string{models.PathologyHypertension},
	}, SampleMetrics())
	if err != nil {
		t.Fatalf("analyze risk failed: %v", err)
	}
	if got.HealthScore != 78 || got.RiskLevel != "Moderate" {
		t.Fatalf("unexpected risk: %+v", got)
	}
	if len(got.Recommendations) != 3 {
		t.Fatalf("got %d recommendations, want 3", len(got.Recommendations))
	}
}

func TestAnalyzeRiskRejectsOutOfRangeScore(t *testing.T) {
	srv := geminiStub(t, `{"healthScore":140,"riskLevel":"Stable","recommendations":[]}`, nil)
	defer srv.Close()

	svc := newTestGemini(srv.URL)
	if _, err := svc.AnalyzeRisk(context.Background(), &models.Profile{}, SampleMetrics()); err == nil {
		t.Fatal("expected error for a score above 100")
	}
}

func TestAnalyzeRiskRejectsMissingLevel(t *testing.T) {
	srv := geminiStub(t, `{"healthScore":80,"riskLevel":"","recommendations":[]}`, nil)
	defer srv.Close()

	svc := newTestGemini(srv.URL)
	if _, err := svc.AnalyzeRisk(context.Background(), &models.Profile{}, SampleMetrics()); err == nil {
		t.Fatal("expected error for an empty risk level")
	}
}

func TestAnalyzeMealWithImage(t *testing.T) {
	var captured geminiRequest
	srv := geminiStub(t, `{"name":"Saumon grillé","calories":520,"protein":42,"carbs":8,"fat":30,"sodium":320,"sugar":2,"summary":"Bon apport en oméga-3."}`, &captured)
	defer srv.Close()

	svc := newTestGemini(srv.URL)
	got, err := svc.AnalyzeMeal(context.Background(), "Saumon avec légumes", "aGVsbG8=")
	if err != nil {
		t.Fatalf("analyze meal failed: %v", err)
	}
	if got.Name != "Saumon grillé" || got.Calories != 520 {
		t.Fatalf("unexpected analysis: %+v", got)
	}

	parts := captured.Contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want text + inline image", len(parts))
	}
	if parts[1].InlineData == nil || parts[1].InlineData.Data != "aGVsbG8=" {
		t.Fatal("image payload must be attached as inline data")
	}
	if parts[1].InlineData.MimeType != "image/jpeg" {
		t.Fatalf("inline mime = %q, want image/jpeg", parts[1].InlineData.MimeType)
	}
}

func TestAnalyzeMealTextOnly(t *testing.T) {
	var captured geminiRequest
	srv := geminiStub(t, `{"name":"Salade César","calories":410}`, &captured)
	defer srv.Close()

	svc := newTestGemini(srv.URL)
	if _, err := svc.AnalyzeMeal(context.Background(), "Salade César", ""); err != nil {
		t.Fatalf("analyze meal failed: %v", err)
	}
	if len(captured.Contents[0].Parts) != 1 {
		t.Fatal("text-only analysis must not attach an image part")
	}
}

func TestSendChatCarriesHistoryAndSystem(t *testing.T) {
	var captured geminiRequest
	srv := geminiStub(t, "Voici ma recommandation.", &captured)
	defer srv.Close()

	svc := newTestGemini(srv.URL)
	system := AssistantSystemInstruction(&models.Profile{Pathologies: []string{models.PathologyDiabetesT2}})
	history := []ChatTurn{
		{Role: "user", Text: "Bonjour"},
		{Role: "model", Text: "Bonjour, comment puis-je aider ?"},
	}

	reply, err := svc.SendChat(context.Background(), system, history, "Que manger ce soir ?")
	if err != nil {
		t.Fatalf("send chat failed: %v", err)
	}
	if reply != "Voici ma recommandation." {
		t.Fatalf("reply = %q", reply)
	}

	if captured.SystemInstruction == nil || !strings.Contains(captured.SystemInstruction.Parts[0].Text, "Diabetes Type 2") {
		t.Fatal("system instruction must embed the patient profile")
	}
	if len(captured.Contents) != 3 {
		t.Fatalf("got %d contents, want 2 history turns + 1 message", len(captured.Contents))
	}
	last := captured.Contents[2]
	if last.Role != "user" || last.Parts[0].Text != "Que manger ce soir ?" {
		t.Fatalf("last content = %+v, want the new user message", last)
	}
}

func TestValidatePlan(t *testing.T) {
	var seven []models.PlanDay
	if err := json.Unmarshal([]byte(planJSON(7)), &seven); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	if err := ValidatePlan(seven); err != nil {
		t.Fatalf("valid week rejected: %v", err)
	}

	noMeals := append([]models.PlanDay(nil), seven...)
	noMeals[3].Meals = nil
	if err := ValidatePlan(noMeals); err == nil {
		t.Fatal("expected error for a day without meals")
	}

	unnamed := append([]models.PlanDay(nil), seven...)
	unnamed[0].Meals = []models.Meal{{ID: "x", Type: "Lunch"}}
	if err := ValidatePlan(unnamed); err == nil {
		t.Fatal("expected error for a nameless meal")
	}
}
