package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ramonskie/tubearchivarr/internal/clients"
	"github.com/ramonskie/tubearchivarr/internal/models"
	"github.com/rs/zerolog/log"
)

// MetadataProvider maps archive items to library metadata
type MetadataProvider interface {
	Episode(ctx context.Context, videoID string) (*models.EpisodeMetadata, error)
	Series(ctx context.Context, channelID string) (*models.SeriesMetadata, error)
}

// MetadataHandler serves mapped episode and series metadata
type MetadataHandler struct {
	metadata MetadataProvider
}

// NewMetadataHandler creates a new MetadataHandler
func NewMetadataHandler(metadata MetadataProvider) *MetadataHandler {
	return &MetadataHandler{metadata: metadata}
}

// GetVideo handles GET /api/metadata/videos/{id}
func (h *MetadataHandler) GetVideo(w http.ResponseWriter, r *http.Request) {
	meta, err := h.metadata.Episode(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// GetChannel handles GET /api/metadata/channels/{id}
func (h *MetadataHandler) GetChannel(w http.ResponseWriter, r *http.Request) {
	meta, err := h.metadata.Series(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (h *MetadataHandler) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, clients.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Not found in archive")
		return
	}
	log.Error().Err(err).Msg("Metadata lookup failed")
	writeError(w, http.StatusInternalServerError, "Metadata lookup failed")
}
