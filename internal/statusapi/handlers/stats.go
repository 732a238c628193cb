package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/jroosing/dnsblast/internal/statusapi/models"
)

// Stats godoc
// @Summary Live run statistics
// @Description Returns host CPU and memory usage and a point-in-time snapshot of the in-flight run's counters.
// @Tags system
// @Produce json
// @Success 200 {object} models.RunStatsResponse
// @Security ApiKeyAuth
// @Router /stats [get]
func (h *Handler) Stats(c *gin.Context) {
	uptime := time.Since(h.startTime)

	resp := models.RunStatsResponse{
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     h.startTime,
		CPU:           models.CPUStats{NumCPU: runtime.NumCPU()},
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		resp.Memory = models.MemoryStats{
			TotalMB:     float64(vmStat.Total) / 1024 / 1024,
			FreeMB:      float64(vmStat.Available) / 1024 / 1024,
			UsedMB:      float64(vmStat.Used) / 1024 / 1024,
			UsedPercent: vmStat.UsedPercent,
		}
	}
	if cpuPercent, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		resp.CPU.UsedPercent = cpuPercent[0]
		resp.CPU.IdlePercent = 100.0 - cpuPercent[0]
	}

	if fn := h.getStatsFunc(); fn != nil {
		snap := fn()
		resp.NumSent = snap.NumSent
		resp.NumCompleted = snap.NumCompleted
		resp.NumTimedOut = snap.NumTimedOut
		resp.NumInterrupted = snap.NumInterrupted
		resp.NumUnexpected = snap.NumUnexpected
		resp.NumShort = snap.NumShort
		resp.MinLatencyUs = snap.MinLatencyMicros
		resp.AvgLatencyUs = snap.AvgLatencyMicros
		resp.MaxLatencyUs = snap.MaxLatencyMicros
		resp.StdDevUs = snap.StdDevMicros
		resp.RunDurationSeconds = snap.RunDurationSeconds
	}

	c.JSON(http.StatusOK, resp)
}
