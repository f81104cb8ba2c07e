package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/humna-mustafa/pakuni-api/internal/models"
	"github.com/humna-mustafa/pakuni-api/pkg/response"
)

type statisticsService interface {
	Get(ctx context.Context) (*models.ModerationStatistics, bool, error)
}

// StatisticsHandler serves pipeline statistics to the admin dashboard.
type StatisticsHandler struct {
	service statisticsService
}

// NewStatisticsHandler constructs the handler.
func NewStatisticsHandler(service statisticsService) *StatisticsHandler {
	return &StatisticsHandler{service: service}
}

// Get godoc
// @Summary Moderation pipeline statistics
// @Tags Statistics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /statistics [get]
func (h *StatisticsHandler) Get(c *gin.Context) {
	stats, cached, err := h.service.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil, map[string]interface{}{"cached": cached})
}
