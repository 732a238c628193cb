package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/dnsblast/internal/statusapi/models"
)

// Health godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
}
