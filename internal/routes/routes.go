package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/veriloan/backend/internal/config"
	"github.com/veriloan/backend/internal/handlers"
	"github.com/veriloan/backend/internal/middleware"
	"github.com/veriloan/backend/internal/services/orchestrator"
)

// RegisterRoutes configures all API routes
func RegisterRoutes(router *gin.Engine, db *gorm.DB, orch *orchestrator.Orchestrator, jwtCfg config.JWTConfig) {
	// 20 requests per second per IP, 5 auth attempts per minute
	rateLimiter := middleware.NewRateLimiter(20, 5, 40, 3)
	router.Use(rateLimiter.IPRateLimiterMiddleware())

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	authenticated := middleware.AuthMiddleware(jwtCfg)
	loanHandler := handlers.NewLoanHandler(db, orch)
	documentHandler := handlers.NewDocumentHandler(db, orch)
	interviewHandler := handlers.NewInterviewHandler(orch)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/api/auth")
	authGroup.Use(rateLimiter.AuthRateLimiterMiddleware())
	{
		authGroup.POST("/login", authHandler.Login)
	}

	loanGroup := router.Group("/api/loan")
	loanGroup.Use(authenticated)
	{
		loanGroup.POST("", loanHandler.CreateLoan)
		loanGroup.GET("", loanHandler.GetLoans)
		loanGroup.GET("/:id", loanHandler.GetLoan)
		loanGroup.PUT("/:id/status", middleware.AdminMiddleware(), loanHandler.UpdateLoanStatus)
	}

	documentGroup := router.Group("/api/document")
	documentGroup.Use(authenticated)
	{
		documentGroup.POST("", documentHandler.UploadDocument)
		documentGroup.GET("", documentHandler.GetDocuments)
		documentGroup.GET("/:id", documentHandler.GetDocument)
		documentGroup.PUT("/:id/verify", middleware.AdminMiddleware(), documentHandler.VerifyDocument)
	}

	sessionGroup := router.Group("/api/video-session")
	sessionGroup.Use(authenticated)
	{
		sessionGroup.POST("", interviewHandler.CreateSession)
		sessionGroup.GET("/:sessionId", interviewHandler.GetSession)
		sessionGroup.GET("/:sessionId/next-question", interviewHandler.NextQuestion)
		sessionGroup.POST("/:sessionId/question/:questionId", interviewHandler.UploadResponse)
		sessionGroup.PUT("/:sessionId/complete", interviewHandler.CompleteSession)
		sessionGroup.PUT("/:sessionId/abandon", interviewHandler.AbandonSession)
	}
}
