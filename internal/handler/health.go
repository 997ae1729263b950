package handler

import (
	"net/http"

	"cryptodash/internal/domain"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string   `json:"status"`
	Service   string   `json:"service"`
	Days      []string `json:"days"`
	Timestamp string   `json:"timestamp"`
}

// Health godoc
// @Summary      Health check
// @Description  Reports liveness and the history windows accepted by /api/coindata
// @Tags         health
// @Produce      json
// @Success      200  {object}  handler.HealthResponse
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   "cryptodash",
		Days:      domain.ValidDays,
		Timestamp: h.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}
