package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/hub"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// MonitorHandler handles health and monitoring endpoints
type MonitorHandler interface {
	Live(c *gin.Context)
	Ready(c *gin.Context)
	GetHubStats(c *gin.Context)
}

type monitorHandler struct {
	database *mongo.Database
	hub      *hub.Hub
}

func NewMonitorHandler(database *mongo.Database, h *hub.Hub) MonitorHandler {
	return &monitorHandler{
		database: database,
		hub:      h,
	}
}

func (h *monitorHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "Healthy"})
}

// Ready pings the persistence backend; a failed ping reports the service as
// not ready to take traffic.
func (h *monitorHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.database.Client().Ping(ctx, nil); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "Unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Healthy"})
}

// GetHubStats returns current presence registry statistics
func (h *monitorHandler) GetHubStats(c *gin.Context) {
	stats := h.hub.GetStats()

	c.JSON(http.StatusOK, gin.H{
		"data":    stats,
		"success": true,
	})
}
