package controllers

import (
	"net/http"

	"github.com/mbrth/iasante/config"
	"github.com/mbrth/iasante/services"

	"github.com/gin-gonic/gin"
)

// GetPlan returns the cached weekly plan. No plan yet is not an error: the
// client triggers a regeneration when it sees an empty body.
func GetPlan(c *gin.Context) {
	userID := c.GetUint("userID")

	planSvc := services.NewPlanService(config.DB, services.NewGeminiService())
	plan, err := planSvc.Read(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if plan == nil {
		c.JSON(http.StatusOK, gin.H{"plan": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// RegeneratePlan asks the model for a fresh 7-day plan and overwrites the
// cache with it.
func RegeneratePlan(c *gin.Context) {
	userID := c.GetUint("userID")

	profile := Profiles().Load(userID)
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	planSvc := services.NewPlanService(config.DB, services.NewGeminiService())
	plan, err := planSvc.Regenerate(c.Request.Context(), userID, profile)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}
