package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range v {
		sb.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// Validate validates the configuration and returns all errors found
func Validate(cfg *Config) error {
	var errors ValidationErrors

	// Validate admin credentials
	if !cfg.Admin.DisableAuth {
		if cfg.Admin.Username == "" {
			errors = append(errors, ValidationError{
				Field:   "admin.username",
				Message: "required unless admin.disable_auth=true",
			})
		}
		if cfg.Admin.Password == "" {
			errors = append(errors, ValidationError{
				Field:   "admin.password",
				Message: "required unless admin.disable_auth=true",
			})
		}
	}

	errors = validateIntegration(errors, "archive", cfg.Archive.BaseIntegrationConfig)
	errors = validateIntegration(errors, "jellyfin", cfg.Jellyfin.BaseIntegrationConfig)

	if cfg.Archive.RateLimit < 0 {
		errors = append(errors, ValidationError{
			Field:   "archive.rate_limit",
			Message: fmt.Sprintf("must not be negative (got %v)", cfg.Archive.RateLimit),
		})
	}
	if cfg.Archive.MaxDescriptionLength < 0 {
		errors = append(errors, ValidationError{
			Field:   "archive.max_description_length",
			Message: fmt.Sprintf("must not be negative (got %d)", cfg.Archive.MaxDescriptionLength),
		})
	}

	// Tasks need their users
	if cfg.Sync.ProgressPush.Enabled && cfg.Sync.ProgressPush.Username == "" {
		errors = append(errors, ValidationError{
			Field:   "sync.progress_push.username",
			Message: "required when progress_push.enabled=true",
		})
	}
	if cfg.Sync.PlaylistsPush.Enabled && cfg.Sync.ProgressPush.Username == "" {
		errors = append(errors, ValidationError{
			Field:   "sync.progress_push.username",
			Message: "required when playlists_push.enabled=true",
		})
	}
	if cfg.Sync.ProgressPull.Enabled && len(cfg.Sync.ProgressPull.UsernameList()) == 0 {
		errors = append(errors, ValidationError{
			Field:   "sync.progress_pull.usernames",
			Message: "required when progress_pull.enabled=true",
		})
	}
	if cfg.Sync.PlaylistsPull.Enabled && len(cfg.Sync.ProgressPull.UsernameList()) == 0 {
		errors = append(errors, ValidationError{
			Field:   "sync.progress_pull.usernames",
			Message: "required when playlists_pull.enabled=true",
		})
	}

	intervals := map[string]int{
		"sync.progress_push.interval":  cfg.Sync.ProgressPush.Interval,
		"sync.progress_pull.interval":  cfg.Sync.ProgressPull.Interval,
		"sync.playlists_push.interval": cfg.Sync.PlaylistsPush.Interval,
		"sync.playlists_pull.interval": cfg.Sync.PlaylistsPull.Interval,
	}
	for field, interval := range intervals {
		if interval < 1 {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("must be at least 1 second (got %d)", interval),
			})
		}
	}

	if cfg.Sync.EventWorkers < 1 {
		errors = append(errors, ValidationError{
			Field:   "sync.event_workers",
			Message: fmt.Sprintf("must be at least 1 (got %d)", cfg.Sync.EventWorkers),
		})
	}

	switch cfg.Metadata.NumberingScheme {
	case NumberingDefault, NumberingYYYYMMDD:
	default:
		errors = append(errors, ValidationError{
			Field:   "metadata.numbering_scheme",
			Message: fmt.Sprintf("must be %q or %q (got %q)", NumberingDefault, NumberingYYYYMMDD, cfg.Metadata.NumberingScheme),
		})
	}

	// Validate port range
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("must be between 1 and 65535 (got %d)", cfg.Server.Port),
		})
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// validateIntegration validates URL, API key and timeout for an integration
func validateIntegration(errors ValidationErrors, prefix string, cfg BaseIntegrationConfig) ValidationErrors {
	if cfg.URL == "" {
		errors = append(errors, ValidationError{
			Field:   fmt.Sprintf("%s.url", prefix),
			Message: "required",
		})
	} else if u, err := url.Parse(cfg.URL); err != nil || u.Host == "" {
		errors = append(errors, ValidationError{
			Field:   fmt.Sprintf("%s.url", prefix),
			Message: fmt.Sprintf("must be a valid URL (got: %q)", cfg.URL),
		})
	}

	if cfg.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   fmt.Sprintf("%s.api_key", prefix),
			Message: "required",
		})
	}

	if cfg.Timeout != "" {
		if _, err := time.ParseDuration(cfg.Timeout); err != nil {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.timeout", prefix),
				Message: fmt.Sprintf("invalid duration %q", cfg.Timeout),
			})
		}
	}

	return errors
}
