// Package api wires the HTTP routes and shared middleware.
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/diet-data/internal/handlers"
	"github.com/jonesrussell/diet-data/internal/logger"
)

const corsMaxAgeHours = 12

// NewRouter builds the gin engine with CORS, request logging, and panic
// recovery, and mounts the dataset and system endpoints. The route names
// match the original service so existing clients keep working.
func NewRouter(dataset *handlers.DatasetHandler, system *handlers.SystemHandler, corsOrigins []string, log logger.Logger) *gin.Engine {
	router := gin.New()

	// CORS middleware - must be first
	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       corsMaxAgeHours * time.Hour,
	}
	if len(corsOrigins) == 1 && corsOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = corsOrigins
	}
	router.Use(cors.New(corsCfg))

	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	router.GET("/health", system.Health)
	router.GET("/GetDataset", system.GetDataset)
	router.POST("/GetDataset", system.GetDataset)

	router.GET("/FetchDataset", dataset.FetchDataset)
	router.GET("/statistics", dataset.Statistics)
	router.GET("/diet-types", dataset.DietTypes)
	router.GET("/cuisine-types", dataset.CuisineTypes)
	router.POST("/clear-cache", dataset.ClearCache)

	return router
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
			logger.Duration("duration", duration),
		)
	}
}
