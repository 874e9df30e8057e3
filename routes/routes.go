package routes

import (
	"github.com/mbrth/iasante/controllers"
	"github.com/mbrth/iasante/middlewares"

	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	// Public auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
		auth.POST("/mfa/verify", controllers.VerifyMFA)
		auth.POST("/password/forgot", controllers.ForgotPassword)
		auth.POST("/password/reset", controllers.ResetPassword)
	}

	// Protected user routes
	user := r.Group("/user")
	user.Use(middlewares.AuthMiddleware())
	{
		user.GET("/profile", controllers.GetProfile)
		user.PUT("/profile", controllers.UpdateProfile)
		user.POST("/onboarding", controllers.CompleteOnboarding)
		user.POST("/profile/bmi/recompute", controllers.RecomputeBMI)
	}

	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware())
	{
		api.GET("/dashboard", controllers.GetDashboard)
		api.GET("/plan", controllers.GetPlan)
		api.POST("/plan/regenerate", controllers.RegeneratePlan)
		api.GET("/meals", controllers.ListMeals)
		api.POST("/meals/analyze", controllers.AnalyzeMeal)
		api.GET("/report", controllers.ExportReport)
		api.GET("/assistant/ws", controllers.AssistantWS)
	}

	return r
}
