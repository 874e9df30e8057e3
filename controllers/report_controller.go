package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/mbrth/iasante/config"
	"github.com/mbrth/iasante/services"

	"github.com/gin-gonic/gin"
)

// ExportReport builds the PDF medical report and serves it as a download.
// The plan section is included only when a cached plan exists.
func ExportReport(c *gin.Context) {
	userID := c.GetUint("userID")

	profile := Profiles().Load(userID)
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	planSvc := services.NewPlanService(config.DB, services.NewGeminiService())
	plan, err := planSvc.Read(userID)
	if err != nil {
		// a corrupt cache should not block the report; it just loses its plan section
		plan = nil
	}

	metrics := services.SampleMetrics()
	riskSvc := services.NewRiskService(services.NewGeminiService(), Profiles())
	risk := riskSvc.Assess(c.Request.Context(), userID, profile, metrics)

	var buf bytes.Buffer
	if err := services.GenerateReport(&buf, profile, metrics, plan, risk); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := services.ReportFileName(time.Now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
