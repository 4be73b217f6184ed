package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const exampleHeader = `# tubearchivarr configuration
#
# Every key can be overridden with an environment variable, e.g.
#   TUBEARCHIVARR_ARCHIVE_API_KEY=...
#   TUBEARCHIVARR_SYNC_PROGRESS_PULL_USERNAMES=alice,bob
#
# sync.*.interval values are in seconds.
# metadata.numbering_scheme is Default or YYYYMMDD.
`

// RenderExample returns the default configuration as commented YAML
func RenderExample() ([]byte, error) {
	cfg := DefaultConfig()
	cfg.Admin.Username = "admin"
	cfg.Admin.Password = "changeme"
	cfg.Archive.URL = "http://tubearchivist:8000"
	cfg.Archive.APIKey = "your-archive-token"
	cfg.Jellyfin.URL = "http://jellyfin:8096"
	cfg.Jellyfin.APIKey = "your-jellyfin-api-key"

	var buf bytes.Buffer
	buf.WriteString(exampleHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encoding example config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding example config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteExample writes the example config to path, refusing to overwrite an existing file
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}

	data, err := RenderExample()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
