package controllers

import (
	"net/http"

	"github.com/mbrth/iasante/services"

	"github.com/gin-gonic/gin"
)

// GetDashboard serves the dashboard payload: the biometric sample series and
// a fresh risk assessment. The risk call never fails the response — provider
// errors degrade to the fixed fallback score.
func GetDashboard(c *gin.Context) {
	userID := c.GetUint("userID")

	profile := Profiles().Load(userID)
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	metrics := services.SampleMetrics()
	riskSvc := services.NewRiskService(services.NewGeminiService(), Profiles())
	risk := riskSvc.Assess(c.Request.Context(), userID, profile, metrics)

	c.JSON(http.StatusOK, gin.H{
		"metrics": metrics,
		"risk":    risk,
	})
}
