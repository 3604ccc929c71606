package rest

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler) {
	// Health check endpoint (no version prefix)
	router.GET("/health", handler.HealthCheck)

	// Media transport routes used by the uploader and the viewer
	media := router.Group("/media")
	{
		media.GET("/download", handler.Download)
		media.HEAD("/download", handler.ProbeDownload)
		media.OPTIONS("/download", handler.DownloadPreflight)
		media.POST("/compress", handler.Compress)
		media.POST("/upload", handler.Upload)
		media.POST("/sync", handler.Sync)
		media.POST("/sync/stream", handler.SyncStream)
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Catalog endpoints
		v1.GET("/media", handler.ListMedia)
		v1.POST("/media/convert", handler.ConvertMedia)
		v1.GET("/media/:id", handler.GetMedia)
		v1.PATCH("/media/:id", handler.UpdateMedia)
		v1.POST("/media/:id/move", handler.MoveMedia)
		v1.DELETE("/media/:id", handler.DeleteMedia)

		// Storage settings endpoints
		v1.GET("/storage/config", handler.GetStorageConfig)
		v1.PUT("/storage/config", handler.SaveStorageConfig)
	}
}
