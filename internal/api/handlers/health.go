package handlers

import (
	"net/http"
	"time"

	"github.com/futhaxball/backend/internal/match"
	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthCheck returns server health status
func HealthCheck(mgr *match.Manager, instanceID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"service":  "futhaxball-api",
			"version":  version,
			"instance": instanceID,
			"rooms":    mgr.Count(),
			"uptime":   time.Since(startTime).String(),
		})
	}
}
