package controllers

import (
	"net/http"
	"sync"

	"github.com/mbrth/iasante/config"
	"github.com/mbrth/iasante/models"
	"github.com/mbrth/iasante/services"

	"github.com/gin-gonic/gin"
)

// profileSvc is process-wide so the generation counter survives across
// requests; it hangs off the shared DB handle.
var (
	profileOnce sync.Once
	profileSvc  *services.ProfileService
)

// Profiles returns the shared profile store. Exactly one instance exists:
// the generation counters live in it, and concurrent handlers must all see
// the same ones.
func Profiles() *services.ProfileService {
	profileOnce.Do(func() {
		profileSvc = services.NewProfileService(config.DB)
	})
	return profileSvc
}

// GetProfile returns the clinical profile, or 404 when the user has not
// onboarded yet — the client then routes to the onboarding wizard.
func GetProfile(c *gin.Context) {
	userID := c.GetUint("userID")

	profile := Profiles().Load(userID)
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile replaces the whole profile row with the submitted one.
// The stored BMI is carried as-is: edits do not recompute it.
func UpdateProfile(c *gin.Context) {
	userID := c.GetUint("userID")

	var input models.Profile
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := Profiles().Save(userID, &input); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "profile updated successfully"})
}

// CompleteOnboarding creates the profile; BMI is computed here, once.
func CompleteOnboarding(c *gin.Context) {
	userID := c.GetUint("userID")

	var input services.OnboardingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := Profiles().CompleteOnboarding(userID, input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, profile)
}

// RecomputeBMI is the explicit re-derivation step. Kept separate from
// UpdateProfile on purpose so the product can decide when it happens.
func RecomputeBMI(c *gin.Context) {
	userID := c.GetUint("userID")

	profile, err := Profiles().RecomputeBMI(userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, profile)
}
