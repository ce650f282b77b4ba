package api

import (
	"study-assistant/internal/config"
	"study-assistant/internal/metrics"

	"github.com/gin-gonic/gin"
)

// SetupRouter builds the HTTP engine with every route of the assistant.
func SetupRouter(cfg config.ServerConfig, h *Handler) *gin.Engine {
	gin.SetMode(cfg.Mode)
	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadBytes
	router.Use(Recovery(), RequestLogger(), metrics.Middleware())

	router.GET("/health", HealthCheck)
	router.GET("/metrics", metrics.Handler())

	limited := RateLimiter(cfg.RateLimit, cfg.RateBurst)

	v1 := router.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", h.CreateSession)
			sessions.GET("/:id", h.GetSession)
			sessions.DELETE("/:id", h.DeleteSession)
			sessions.POST("/:id/document", h.UploadDocument)
			sessions.POST("/:id/test/submit", h.SubmitTest)

			// routes below wait on a model
			models := sessions.Group("/:id", limited)
			{
				models.POST("/summary", h.Summarize)
				models.POST("/ask", h.Ask)
				models.POST("/test", h.GenerateTest)
				models.POST("/question-bank", h.GenerateQuestionBank)
				models.POST("/flashcards", h.GenerateFlashcards)
				models.POST("/image", h.AnalyzeImage)
				models.GET("/passages", h.SearchPassages)
			}
		}
	}
	return router
}
