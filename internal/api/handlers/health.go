package handlers

import (
	"context"
	"net/http"

	"github.com/Ayash-Bera/travelbot/internal/health"
	"github.com/Ayash-Bera/travelbot/pkg/utils"
	"github.com/gin-gonic/gin"
)

type HealthReporter interface {
	CheckAll(ctx context.Context) health.OverallHealth
}

type HealthHandler struct {
	checker HealthReporter
}

func NewHealthHandler(checker HealthReporter) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// GetHealth answers 503 only when the service cannot answer questions.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	report := h.checker.CheckAll(c.Request.Context())

	if report.Status == health.StatusUnhealthy {
		c.JSON(http.StatusServiceUnavailable, utils.APIResponse{
			Success:   false,
			Message:   "Service unhealthy",
			Data:      report,
			RequestID: c.GetString("request_id"),
		})
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Service "+report.Status, report)
}
