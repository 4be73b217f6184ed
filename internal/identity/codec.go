package identity

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedPath is matched by every MalformedPathError.
var ErrMalformedPath = errors.New("malformed path")

// MalformedPathError is returned when a library path has no usable segment
type MalformedPathError struct {
	Path string
}

func (e *MalformedPathError) Error() string {
	return fmt.Sprintf("malformed path %q", e.Path)
}

func (e *MalformedPathError) Unwrap() error {
	return ErrMalformedPath
}

var (
	playlistIDPattern    = regexp.MustCompile(`^(.*)\((.*)\)$`)
	regularTitlePattern  = regexp.MustCompile(`^(.*) - (.*) \((.*)\)$`)
	customTitlePattern   = regexp.MustCompile(`^(.*) \((.*)\)$`)
	displayNameSeparator = " ("
)

// lastSegment splits on whichever separator is more frequent in path.
// Trailing separators are ignored.
func lastSegment(path string) (string, error) {
	sep := "/"
	if strings.Count(path, `\`) > strings.Count(path, "/") {
		sep = `\`
	}

	parts := strings.Split(path, sep)
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i], nil
		}
	}
	return "", &MalformedPathError{Path: path}
}

// VideoIDFromPath returns the archive video id encoded as the file name stem of an episode path
func VideoIDFromPath(path string) (string, error) {
	segment, err := lastSegment(path)
	if err != nil {
		return "", err
	}

	id, _, _ := strings.Cut(segment, ".")
	if id == "" {
		return "", &MalformedPathError{Path: path}
	}
	return id, nil
}

// ChannelIDFromPath returns the archive channel id, which is the last segment of a series path
func ChannelIDFromPath(path string) (string, error) {
	return lastSegment(path)
}

// PlaylistIDFromDisplayName extracts the archive playlist id embedded in a
// library playlist name. Returns "" for unmanaged playlists.
func PlaylistIDFromDisplayName(name string) string {
	m := playlistIDPattern.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return m[2]
}

// PlaylistTitleFromDisplayName returns the archive playlist title, accepting both
// "Title - Channel (id)" and "Title (id)".
func PlaylistTitleFromDisplayName(name string) string {
	if m := regularTitlePattern.FindStringSubmatch(name); m != nil && m[1] != "" {
		return m[1]
	}
	if m := customTitlePattern.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return ""
}

// ComposeUpdatedDisplayName swaps the trailing " (id)" suffix for newID, appending one if absent.
func ComposeUpdatedDisplayName(oldName, newID string) string {
	if idx := strings.LastIndex(oldName, displayNameSeparator); idx >= 0 {
		return oldName[:idx] + displayNameSeparator + newID + ")"
	}
	return oldName + displayNameSeparator + newID + ")"
}

// ComposeDisplayName builds the library-facing name of an archive playlist.
// Regular playlists carry their channel name, custom ones do not.
func ComposeDisplayName(name, channel, id string, regular bool) string {
	if regular {
		return fmt.Sprintf("%s - %s (%s)", name, channel, id)
	}
	return fmt.Sprintf("%s (%s)", name, id)
}
