// Package api assembles the HTTP router for the catalog service.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonesrussell/gocatalog/internal/handlers"
	"github.com/jonesrussell/gocatalog/internal/logger"
)

const (
	corsMaxAgeHours = 12

	// requestIDHeader carries the per-request correlation ID.
	requestIDHeader = "X-Request-ID"
)

// NewRouter builds the API router over the asset endpoints.
func NewRouter(assetHandler *handlers.AssetHandler, log logger.Logger, corsOrigins []string) *gin.Engine {
	router := gin.New()

	// CORS middleware - must be first
	router.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept-Encoding",
			"Authorization", "accept", "origin",
			"Cache-Control", "X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           corsMaxAgeHours * time.Hour,
	}))

	// Middleware
	router.Use(requestID())
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Assets endpoints
	assets := router.Group("/api/assets")
	assets.GET("", assetHandler.List)
	assets.POST("/favorite", assetHandler.Favorite)
	assets.POST("/refresh", assetHandler.Refresh)

	return router
}

// requestID tags every request with a correlation ID, keeping one supplied
// by the client.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func ginLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		log.Info("HTTP request",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status_code", statusCode),
			logger.String("client_ip", c.ClientIP()),
			logger.String("request_id", c.Writer.Header().Get(requestIDHeader)),
			logger.Duration("duration", duration),
		)
	}
}
