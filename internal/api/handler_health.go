package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ryanbastic/rollcall/internal/session"
)

// Pinger is satisfied by storage.Store and *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// cacheStater reports the lifecycle state of the calendar cache.
type cacheStater interface {
	State() session.State
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	store  Pinger
	cache  cacheStater
	logger *slog.Logger
}

func NewHealthHandler(store Pinger, cache cacheStater, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, cache: cache, logger: logger}
}

type backendStatus struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type readyzResponse struct {
	Status string        `json:"status"`
	Store  backendStatus `json:"store"`
	Cache  string        `json:"cache"`
}

// Livez is a simple liveness probe. If the process can serve HTTP, it's alive.
func (h *HealthHandler) Livez(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz pings the store and requires the cache to have loaded.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	start := time.Now()
	err := h.store.Ping(ctx)
	resp := readyzResponse{
		Status: "ok",
		Store:  backendStatus{Status: "ok", LatencyMs: time.Since(start).Milliseconds()},
		Cache:  h.cache.State().String(),
	}
	if err != nil {
		resp.Store.Status = "error"
		resp.Store.Error = err.Error()
	}

	if err != nil || h.cache.State() != session.StateReady {
		resp.Status = "unavailable"
		h.logger.Warn("readiness check failed", "store", resp.Store, "cache", resp.Cache)
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
