package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine exposing the posture API, a health
// endpoint, and the metrics endpoint.
func NewRouter(handlers *PostureHandlers, metricsHandler http.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/risk-score", handlers.ComputeRiskScore)
		v1.GET("/statistics/:kind/:id", handlers.ComputeStatistics)
		v1.PUT("/assessments/:id/controls/:controlId/status", handlers.ApplyControlStatus)
		v1.PATCH("/register-entries/:id", handlers.UpdateRegisterEntry)
		v1.DELETE("/register-entries/:id", handlers.DeleteRegisterEntry)
		v1.PATCH("/threats/:id", handlers.UpdateThreat)
		v1.PUT("/threats/:id/mitigations/:mitigationId/status", handlers.SetMitigationStatus)
		v1.POST("/reports/:id", handlers.GenerateReport)
	}

	return router
}
