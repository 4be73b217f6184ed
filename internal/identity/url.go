package identity

import (
	"regexp"
	"strings"
)

var pathRun = regexp.MustCompile(`[/\s]+`)

// SanitizeURL collapses runs of slashes and whitespace in the path, drops the
// leading slash and forces a single trailing slash. A URL carrying a query or
// fragment keeps its path ending as is.
func SanitizeURL(raw string) string {
	if raw == "" {
		return ""
	}

	scheme := ""
	rest := raw
	if idx := strings.Index(raw, "://"); idx >= 0 {
		scheme = raw[:idx+3]
		rest = raw[idx+3:]
	}

	tail := ""
	if idx := strings.IndexAny(rest, "?#"); idx >= 0 {
		tail = rest[idx:]
		rest = rest[:idx]
	}

	path := pathRun.ReplaceAllString(rest, "/")
	path = strings.TrimPrefix(path, "/")

	if tail == "" {
		path = strings.TrimSuffix(path, "/") + "/"
	}

	return scheme + path + tail
}

// NormalizeBaseURL trims whitespace and trailing slashes and defaults the scheme to http.
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	return strings.TrimRight(raw, "/")
}

// JoinURL appends path to base and sanitizes the result.
func JoinURL(base, path string) string {
	return SanitizeURL(base + "/" + path)
}
