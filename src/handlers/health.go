package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health is a liveness probe.
func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   "filehub-api",
		})
	}
}
