package handlers

import (
	"net/http"

	"aroti/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthHandler struct {
	monitor  *utils.HealthMonitor
	gatherer prometheus.Gatherer
}

func NewHealthHandler(monitor *utils.HealthMonitor, gatherer prometheus.Gatherer) *HealthHandler {
	return &HealthHandler{monitor: monitor, gatherer: gatherer}
}

// Health handles GET /health. It reports liveness only.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Ready handles GET /ready by probing the store and Redis.
func (h *HealthHandler) Ready(c *gin.Context) {
	status := h.monitor.Check(c.Request.Context())
	if !status.Ready {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Metrics serves the Prometheus exposition format.
func (h *HealthHandler) Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
}
