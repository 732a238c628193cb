package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/dnsblast/internal/statusapi/models"
)

// Runs godoc
// @Summary Recent run history
// @Description Returns the most recent persisted runs, newest first.
// @Tags history
// @Produce json
// @Param limit query int false "maximum rows to return"
// @Success 200 {array} models.RunRecord
// @Security ApiKeyAuth
// @Router /runs [get]
func (h *Handler) Runs(c *gin.Context) {
	store := h.getStore()
	if store == nil {
		c.JSON(http.StatusOK, []models.RunRecord{})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	rows, err := store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]models.RunRecord, len(rows))
	for i, r := range rows {
		out[i] = models.RunRecord{
			ID:             r.ID,
			StartedAt:      r.StartedAt,
			FinishedAt:     r.FinishedAt,
			Server:         r.Server,
			Port:           r.Port,
			Mode:           r.Mode,
			NumSent:        r.NumSent,
			NumCompleted:   r.NumCompleted,
			NumTimedOut:    r.NumTimedOut,
			NumInterrupted: r.NumInterrupted,
			NumUnexpected:  r.NumUnexpected,
			NumShort:       r.NumShort,
			MinLatencyUs:   r.MinLatencyUs,
			AvgLatencyUs:   r.AvgLatencyUs,
			MaxLatencyUs:   r.MaxLatencyUs,
			StdDevUs:       r.StdDevUs,
			RunDurationS:   r.RunDurationS,
		}
	}
	c.JSON(http.StatusOK, out)
}
