package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/soulhub/soulhub-backend/internal/handlers"
	"github.com/soulhub/soulhub-backend/internal/middleware"
)

type RouterConfig struct {
	UserHandler   *handlers.UserHandler
	PatchHandler  *handlers.PatchHandler
	SPFileHandler *handlers.SPFileHandler
	SearchHandler *handlers.SearchHandler
	RequestLog    *middleware.RequestLogMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	if cfg.RequestLog != nil {
		router.Use(cfg.RequestLog.LogRequests())
	}

	router.GET("/healthcheck", handlers.HealthCheck)

	rest := router.Group("/rest")
	{
		// users
		rest.POST("/users", cfg.UserHandler.Create)
		rest.GET("/users/:id", cfg.UserHandler.Get)

		// patches
		rest.GET("/soulpatches", cfg.PatchHandler.List)
		rest.POST("/soulpatches", cfg.PatchHandler.Create)
		rest.GET("/soulpatches/xml", cfg.PatchHandler.ExportAllXML)
		rest.GET("/soulpatches/filter", cfg.PatchHandler.FilterByPattern)
		rest.GET("/soulpatches/:id", cfg.PatchHandler.Get)
		rest.PUT("/soulpatches/:id", cfg.PatchHandler.Update)
		rest.DELETE("/soulpatches/:id", cfg.PatchHandler.Delete)
		rest.POST("/soulpatches/:id/views", cfg.PatchHandler.IncrementViews)
		rest.POST("/soulpatches/:id/rating", cfg.PatchHandler.Rate)
		rest.GET("/soulpatches/:id/rating", cfg.PatchHandler.AverageRating)
		rest.GET("/soulpatches/:id/xml", cfg.PatchHandler.ExportXML)
		rest.GET("/soulpatches/:id/zip", cfg.PatchHandler.ExportZip)

		// files
		rest.POST("/soulpatches/:id/spfiles", cfg.SPFileHandler.Create)
		rest.GET("/soulpatches/:id/spfiles", cfg.SPFileHandler.ListForPatch)
		rest.GET("/spfiles/:id", cfg.SPFileHandler.Get)
		rest.PUT("/spfiles/:id", cfg.SPFileHandler.Update)
		rest.DELETE("/spfiles/:id", cfg.SPFileHandler.Delete)

		// search
		rest.GET("/search", cfg.SearchHandler.SearchPatches)
		rest.GET("/search/spfiles", cfg.SearchHandler.SearchFiles)
		rest.POST("/admin/reindex", cfg.SearchHandler.TriggerReindex)
	}

	return router
}
