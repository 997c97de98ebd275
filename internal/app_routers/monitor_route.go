package approuters

import (
	"github.com/gin-gonic/gin"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/configuration"
)

// MonitorRouters sets up health and monitoring routes. These stay
// unauthenticated so orchestrator probes can reach them.
func MonitorRouters(router *gin.Engine, container *configuration.Container) {
	router.GET("/health/live", container.MonitorHandler.Live)
	router.GET("/health/ready", container.MonitorHandler.Ready)

	monitorGroup := router.Group("/ic/api/monitor")
	{
		monitorGroup.GET("/stats", container.MonitorHandler.GetHubStats)
	}
}
