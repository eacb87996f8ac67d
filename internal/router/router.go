package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/glucolog/backend/internal/api"
	"github.com/glucolog/backend/internal/middleware"
)

// Handlers bundles everything the router wires up.
type Handlers struct {
	Auth    *api.AuthHandler
	Reading *api.ReadingHandler
	Analyze *api.AnalyzeHandler
	Chat    *api.ChatHandler
	Export  *api.ExportHandler
}

// SetupRouter configures the application routes.
func SetupRouter(h Handlers, validator middleware.TokenValidator, corsOrigins []string) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
	}

	// Public by contract: the caller supplies the owner id explicitly.
	v1.GET("/readings/latest", h.Reading.Latest)

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(validator))
	{
		readings := protected.Group("/readings")
		{
			readings.GET("", h.Reading.List)
			readings.POST("", h.Reading.Create)
			readings.PUT("", h.Reading.Update)
			readings.DELETE("", h.Reading.Delete)
			readings.GET("/status", h.Reading.Status)
			readings.GET("/analysis", h.Reading.Analysis)
			readings.GET("/export/xlsx", h.Export.ExportXLSX)
			readings.GET("/export/pdf", h.Export.ExportPDF)
		}

		protected.POST("/analyze", h.Analyze.Analyze)
		protected.POST("/chat", h.Chat.Chat)
	}

	return router
}
