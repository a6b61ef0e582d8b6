package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is any store that can report reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type healthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *healthHandler {
	return &healthHandler{store: store}
}

func (h *healthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.PingContext(ctx); err != nil {
		slog.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
