// Package handlers implements the live status API endpoint handlers: health,
// a point-in-time stats snapshot of the in-flight run, and recent run
// history, grounded on the teacher's internal/api/handlers package.
//
// @title dnsblast status API
// @version 1.0
// @description Live status and run-history API for an in-flight dnsblast run.
//
// @license.name MIT
//
// @host localhost:9191
// @BasePath /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package handlers

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jroosing/dnsblast/internal/engine"
	"github.com/jroosing/dnsblast/internal/history"
)

// Handler holds the dependencies the status endpoints read. statsFunc and
// store are set after construction, once the coordinator and optional
// history store exist, mirroring the teacher's SetPolicyEngine pattern.
type Handler struct {
	logger    *slog.Logger
	startTime time.Time

	mu        sync.RWMutex
	statsFunc func() engine.Summary
	store     *history.Store
}

// New creates a Handler. Call SetStatsFunc and SetStore once the run's
// coordinator and history store (if any) are available.
func New(logger *slog.Logger) *Handler {
	return &Handler{logger: logger, startTime: time.Now()}
}

// SetStatsFunc wires a function returning a live snapshot of the run's
// counters, typically (*engine.Coordinator).Snapshot.
func (h *Handler) SetStatsFunc(fn func() engine.Summary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statsFunc = fn
}

// SetStore wires the run-history store backing /api/v1/runs. A nil store
// makes that endpoint return an empty list.
func (h *Handler) SetStore(s *history.Store) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.store = s
}

func (h *Handler) getStatsFunc() func() engine.Summary {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.statsFunc
}

func (h *Handler) getStore() *history.Store {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.store
}
