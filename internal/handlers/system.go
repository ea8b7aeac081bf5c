package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/diet-data/internal/cache"
	"github.com/jonesrussell/diet-data/internal/loader"
)

// SystemHandler serves the liveness and legacy endpoints.
type SystemHandler struct {
	cache  *cache.Cache
	loader *loader.CSVLoader
}

func NewSystemHandler(c *cache.Cache, l *loader.CSVLoader) *SystemHandler {
	return &SystemHandler{cache: c, loader: l}
}

// Health reports cache-backend reachability and source-file existence. It
// always answers 200: a down backend degrades the service, it does not kill
// it.
func (h *SystemHandler) Health(c *gin.Context) {
	redisStatus := "disconnected"
	if h.cache.Connected(c.Request.Context()) {
		redisStatus = "connected"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"redis":           redisStatus,
		"csv_file_exists": h.loader.Exists(),
	})
}

// GetDataset is the legacy greeting endpoint kept for compatibility with the
// original function front end.
func (h *SystemHandler) GetDataset(c *gin.Context) {
	name := c.Query("name")
	if name == "" && c.ContentType() == "application/json" {
		var body struct {
			Name string `json:"name"`
		}
		if err := c.ShouldBindJSON(&body); err == nil {
			name = body.Name
		}
	}

	if name != "" {
		c.JSON(http.StatusOK, gin.H{
			"message": "Hello, " + name + ". This HTTP triggered function executed successfully.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "This HTTP triggered function executed successfully. Pass a name in the query string or in the request body for a personalized response.",
	})
}
