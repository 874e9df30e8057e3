package controllers

import (
	"net/http"

	"github.com/mbrth/iasante/config"
	"github.com/mbrth/iasante/services"

	"github.com/gin-gonic/gin"
)

// AnalyzeMeal runs one meal capture: free-text description, optional photo
// as a data URI. The analyzed entry is persisted to the user's log.
func AnalyzeMeal(c *gin.Context) {
	var body struct {
		Description string `json:"description"`
		Image       string `json:"image"` // data URI, optional
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetUint("userID")
	mealSvc := services.NewMealService(config.DB, services.NewGeminiService())

	entry, err := mealSvc.Analyze(c.Request.Context(), userID, body.Description, body.Image)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ListMeals returns the user's recent meal log, newest first.
func ListMeals(c *gin.Context) {
	userID := c.GetUint("userID")
	mealSvc := services.NewMealService(config.DB, services.NewGeminiService())

	entries, err := mealSvc.List(userID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}
