package models

import "time"

// EpisodeMetadata is an archive video mapped onto library episode fields
type EpisodeMetadata struct {
	Name              string            `json:"name"`
	Overview          string            `json:"overview"`
	PremiereDate      time.Time         `json:"premiere_date"`
	ProductionYear    int               `json:"production_year"`
	ParentIndexNumber int               `json:"parent_index_number"`
	IndexNumber       *int              `json:"index_number,omitempty"`
	SeriesName        string            `json:"series_name"`
	Tags              []string          `json:"tags"`
	ProviderIds       map[string]string `json:"provider_ids"`
	ImageURL          string            `json:"image_url,omitempty"`
	RuntimeTicks      int64             `json:"runtime_ticks,omitempty"`
}

// SeriesMetadata is an archive channel mapped onto library series fields
type SeriesMetadata struct {
	Name        string            `json:"name"`
	Overview    string            `json:"overview"`
	Tags        []string          `json:"tags"`
	ProviderIds map[string]string `json:"provider_ids"`
	ThumbURL    string            `json:"thumb_url,omitempty"`
	BannerURL   string            `json:"banner_url,omitempty"`
	ArtURL      string            `json:"art_url,omitempty"`
}
