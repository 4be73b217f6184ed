package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ramonskie/tubearchivarr/internal/clients"
)

// archivePingTimeout bounds the archive check in /health and /api/status
const archivePingTimeout = 5 * time.Second

// ArchivePinger checks that the archive answers
type ArchivePinger interface {
	Ping(ctx context.Context) *clients.ArchivePing
}

// HealthHandler handles health check requests
type HealthHandler struct {
	startTime time.Time
	version   string
	archive   ArchivePinger
}

// NewHealthHandler creates a new HealthHandler. archive may be nil.
func NewHealthHandler(version string, archive ArchivePinger) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		version:   version,
		archive:   archive,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
	Archive string `json:"archive,omitempty"`
}

// Handle handles GET /health. It answers 200 while the archive is down;
// the archive field carries its state.
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:  "ok",
		Uptime:  time.Since(h.startTime).String(),
		Version: h.version,
	}

	if h.archive != nil {
		ctx, cancel := context.WithTimeout(r.Context(), archivePingTimeout)
		defer cancel()

		response.Archive = "unreachable"
		if ping := h.archive.Ping(ctx); ping != nil {
			response.Archive = "ok"
		}
	}

	writeJSON(w, http.StatusOK, response)
}
