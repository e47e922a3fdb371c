package handlers

import (
	"context"
	"net/http"

	"aroti/models"
	"aroti/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InsightService interface {
	Today(ctx context.Context) (*models.DailyInsight, error)
}

type InsightHandler struct {
	insights InsightService
	logger   *zap.Logger
}

func NewInsightHandler(insights InsightService, logger *zap.Logger) *InsightHandler {
	return &InsightHandler{insights: insights, logger: logger}
}

// DailyInsights handles GET /api/daily-insights.
func (h *InsightHandler) DailyInsights(c *gin.Context) {
	insight, err := h.insights.Today(c.Request.Context())
	if err != nil {
		utils.JSONError(c, getLogger(c, h.logger), http.StatusInternalServerError, "Failed to load daily insights", err.Error())
		return
	}
	c.JSON(http.StatusOK, insight)
}
