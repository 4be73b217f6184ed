package identity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoIDFromPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"unix path", "/data/Channel1/video123.mkv", "video123"},
		{"windows path", `C:\media\youtube\UCabc\2023\dQw4w9WgXcQ.mp4`, "dQw4w9WgXcQ"},
		{"no extension", "/data/Channel1/video123", "video123"},
		{"double extension keeps first stem", "/data/ch/abc.info.json", "abc"},
		{"mixed separators prefer majority slash", `/data/ch/sub\vid.mp4`, `sub\vid`},
		{"mixed separators prefer majority backslash", `C:\data\ch/x\vid.mp4`, "vid"},
		{"relative file", "video.mkv", "video"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VideoIDFromPath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("empty path is malformed", func(t *testing.T) {
		_, err := VideoIDFromPath("")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedPath))

		var mpe *MalformedPathError
		require.True(t, errors.As(err, &mpe))
		assert.Equal(t, "", mpe.Path)
	})

	t.Run("separators only is malformed", func(t *testing.T) {
		_, err := VideoIDFromPath("///")
		assert.ErrorIs(t, err, ErrMalformedPath)
	})

	t.Run("dot file has no stem", func(t *testing.T) {
		_, err := VideoIDFromPath("/data/ch/.hidden")
		assert.ErrorIs(t, err, ErrMalformedPath)
	})
}

func TestChannelIDFromPath(t *testing.T) {
	t.Run("returns last segment verbatim", func(t *testing.T) {
		got, err := ChannelIDFromPath("/youtube/UCxyz.channel")
		require.NoError(t, err)
		assert.Equal(t, "UCxyz.channel", got)
	})

	t.Run("ignores trailing separator", func(t *testing.T) {
		got, err := ChannelIDFromPath("/youtube/UCxyz/")
		require.NoError(t, err)
		assert.Equal(t, "UCxyz", got)
	})

	t.Run("windows separators", func(t *testing.T) {
		got, err := ChannelIDFromPath(`D:\youtube\UCxyz`)
		require.NoError(t, err)
		assert.Equal(t, "UCxyz", got)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := ChannelIDFromPath("")
		assert.ErrorIs(t, err, ErrMalformedPath)
	})
}

func TestPlaylistIDFromDisplayName(t *testing.T) {
	assert.Equal(t, "PL123", PlaylistIDFromDisplayName("Music - Channel (PL123)"))
	assert.Equal(t, "abc-def", PlaylistIDFromDisplayName("Favourites (abc-def)"))
	assert.Equal(t, "", PlaylistIDFromDisplayName("Unmanaged playlist"))
	assert.Equal(t, "", PlaylistIDFromDisplayName("Trailing text (id) more"))
}

func TestPlaylistTitleFromDisplayName(t *testing.T) {
	t.Run("regular form", func(t *testing.T) {
		assert.Equal(t, "Music", PlaylistTitleFromDisplayName("Music - Some Channel (PL123)"))
	})

	t.Run("custom form", func(t *testing.T) {
		assert.Equal(t, "Favourites", PlaylistTitleFromDisplayName("Favourites (abc)"))
	})

	t.Run("unmanaged", func(t *testing.T) {
		assert.Equal(t, "", PlaylistTitleFromDisplayName("Favourites"))
	})

	t.Run("parentheses inside the title split at the last group", func(t *testing.T) {
		// Known limitation: the title keeps everything before the final " (".
		assert.Equal(t, "Live (2020)", PlaylistTitleFromDisplayName("Live (2020) (abc)"))
	})
}

func TestComposeUpdatedDisplayName(t *testing.T) {
	t.Run("replaces existing suffix", func(t *testing.T) {
		assert.Equal(t, "Favourites (new)", ComposeUpdatedDisplayName("Favourites (old)", "new"))
	})

	t.Run("appends when no suffix", func(t *testing.T) {
		assert.Equal(t, "Favourites (new)", ComposeUpdatedDisplayName("Favourites", "new"))
	})

	t.Run("round trips through the id decoder", func(t *testing.T) {
		for _, name := range []string{"Favourites", "Road trip", "Mix - Channel (x1)", "a"} {
			assert.Equal(t, "id-42", PlaylistIDFromDisplayName(ComposeUpdatedDisplayName(name, "id-42")), name)
		}
	})
}

func TestComposeDisplayName(t *testing.T) {
	assert.Equal(t, "Uploads - Chan (PL1)", ComposeDisplayName("Uploads", "Chan", "PL1", true))
	assert.Equal(t, "Mine (c1)", ComposeDisplayName("Mine", "", "c1", false))

	assert.Equal(t, "PL1", PlaylistIDFromDisplayName(ComposeDisplayName("Uploads", "Chan", "PL1", true)))
	assert.Equal(t, "Uploads", PlaylistTitleFromDisplayName(ComposeDisplayName("Uploads", "Chan", "PL1", true)))
}
