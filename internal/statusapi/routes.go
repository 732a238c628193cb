package statusapi

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/jroosing/dnsblast/internal/statusapi/handlers"
	"github.com/jroosing/dnsblast/internal/statusapi/middleware"
)

func registerRoutes(r *gin.Engine, h *handlers.Handler, apiKey string) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	if apiKey != "" {
		api.Use(middleware.RequireAPIKey(apiKey))
	}

	api.GET("/health", h.Health)
	api.GET("/stats", h.Stats)
	api.GET("/runs", h.Runs)
}
