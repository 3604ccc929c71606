package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSAllowedHeaders are the request headers accepted from browsers
var CORSAllowedHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "Range", "X-User-ID"}

// CORSExposedHeaders are the response headers readable by browsers
var CORSExposedHeaders = []string{
	"Content-Length",
	"Content-Range",
	"Accept-Ranges",
	"Content-Disposition",
	"X-Original-Size",
	"X-Compressed-Size",
	"X-Compression-Unchanged",
}

// SetupCORS configures CORS middleware. An empty origin list allows every origin.
func SetupCORS(origins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:     []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     CORSAllowedHeaders,
		ExposeHeaders:    CORSExposedHeaders,
		AllowCredentials: false,
		MaxAge:           time.Hour,
	}
	if len(origins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	return cors.New(config)
}
