package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"campaign-server/internal/shared/errors"
	"campaign-server/internal/shared/response"
)

const pingTimeout = 2 * time.Second

// Pinger is a storage backend that can report reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type StorageStatus struct {
	Backend string `json:"backend"`
	Status  string `json:"status"`
}

type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Storage   StorageStatus  `json:"storage"`
	Records   map[string]int `json:"records,omitempty"`
}

type HealthHandler struct {
	backend string
	pinger  Pinger
	counts  func() map[string]int
}

// NewHealthHandler reports on backend. A nil pinger means the backend lives in process.
func NewHealthHandler(backend string, pinger Pinger, counts func() map[string]int) *HealthHandler {
	return &HealthHandler{backend: backend, pinger: pinger, counts: counts}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "health")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	storageStatus := "connected"
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		if err := h.pinger.PingContext(ctx); err != nil {
			logger.Warn("Storage ping failed", "backend", h.backend, "error", err)
			storageStatus = "disconnected"
		}
	}

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Storage:   StorageStatus{Backend: h.backend, Status: storageStatus},
	}
	if h.counts != nil {
		resp.Records = h.counts()
	}

	response.Success(w, http.StatusOK, resp)
}
