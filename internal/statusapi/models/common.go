// Package models defines the JSON request and response types for the live
// status API.
package models

import "time"

// ErrorResponse is returned for any non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is the /health payload.
type StatusResponse struct {
	Status string `json:"status"`
}

// CPUStats mirrors one gopsutil CPU sample.
type CPUStats struct {
	NumCPU      int     `json:"num_cpu"`
	UsedPercent float64 `json:"used_percent"`
	IdlePercent float64 `json:"idle_percent"`
}

// MemoryStats mirrors one gopsutil virtual-memory sample.
type MemoryStats struct {
	TotalMB     float64 `json:"total_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedMB      float64 `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// RunStatsResponse is the /api/v1/stats payload: host-wide CPU and memory
// usage plus a live snapshot of the in-flight run's counters.
type RunStatsResponse struct {
	Uptime        string    `json:"uptime"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	StartTime     time.Time `json:"start_time"`

	CPU    CPUStats    `json:"cpu"`
	Memory MemoryStats `json:"memory"`

	NumSent        uint64 `json:"num_sent"`
	NumCompleted   uint64 `json:"num_completed"`
	NumTimedOut    uint64 `json:"num_timed_out"`
	NumInterrupted uint64 `json:"num_interrupted"`
	NumUnexpected  uint64 `json:"num_unexpected"`
	NumShort       uint64 `json:"num_short"`

	MinLatencyUs uint64  `json:"min_latency_us"`
	AvgLatencyUs float64 `json:"avg_latency_us"`
	MaxLatencyUs uint64  `json:"max_latency_us"`
	StdDevUs     float64 `json:"stddev_us"`

	RunDurationSeconds float64 `json:"run_duration_s"`
}

// RunRecord is one row of run history, as returned by /api/v1/runs.
type RunRecord struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Server         string    `json:"server"`
	Port           int       `json:"port"`
	Mode           string    `json:"mode"`
	NumSent        int64     `json:"num_sent"`
	NumCompleted   int64     `json:"num_completed"`
	NumTimedOut    int64     `json:"num_timed_out"`
	NumInterrupted int64     `json:"num_interrupted"`
	NumUnexpected  int64     `json:"num_unexpected"`
	NumShort       int64     `json:"num_short"`
	MinLatencyUs   int64     `json:"min_latency_us"`
	AvgLatencyUs   float64   `json:"avg_latency_us"`
	MaxLatencyUs   int64     `json:"max_latency_us"`
	StdDevUs       float64   `json:"stddev_us"`
	RunDurationS   float64   `json:"run_duration_s"`
}
