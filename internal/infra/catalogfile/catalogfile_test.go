package catalogfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/playbar/internal/domain/track"
)

func TestLoadSeed(t *testing.T) {
	d, err := LoadSeed()
	require.NoError(t, err)

	require.Len(t, d.Tracks, 6)
	assert.Equal(t, "Blinding Lights", d.Tracks[0].Title)
	assert.Equal(t, 200*time.Second, d.Tracks[0].Duration)
	assert.Equal(t, "R&B", d.Tracks[5].Genre)

	require.Len(t, d.Albums, 3)
	assert.Equal(t, 2020, d.Albums[0].Year)
	assert.Equal(t, []string{"1"}, track.IDs(d.Albums[0].Tracks))

	require.Len(t, d.Artists, 2)
	assert.Equal(t, 85000000, d.Artists[0].Followers)
	require.Len(t, d.Artists[1].Albums, 1)
	assert.Equal(t, "Fine Line", d.Artists[1].Albums[0].Title)

	require.Len(t, d.Playlists, 2)
	assert.Equal(t, "Today's Top Hits", d.Playlists[0].Title)
	assert.Equal(t, []string{"1", "2", "3", "4"}, d.Playlists[0].TrackIDs())
	assert.Equal(t, []string{"3", "4", "5", "6"}, d.Playlists[1].TrackIDs())
	assert.Equal(t, "Spotify", d.Playlists[1].CreatedBy)
	assert.True(t, d.Playlists[1].IsPublic)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name: "duplicate track",
			doc: `
tracks:
  - {id: "1", title: A}
  - {id: "1", title: B}
`,
			wantErr: ErrDuplicateID,
		},
		{
			name: "album refers to missing track",
			doc: `
tracks:
  - {id: "1", title: A}
albums:
  - {id: "a", title: Album, tracks: ["2"]}
`,
			wantErr: ErrUnknownReference,
		},
		{
			name: "artist refers to missing album",
			doc: `
tracks:
  - {id: "1", title: A}
artists:
  - {id: "x", name: Someone, albums: ["nope"]}
`,
			wantErr: ErrUnknownReference,
		},
		{
			name: "playlist refers to missing track",
			doc: `
tracks:
  - {id: "1", title: A}
playlists:
  - {id: "p", title: Mix, tracks: ["1", "9"]}
`,
			wantErr: ErrUnknownReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "malformed yaml", doc: "tracks: [\n"},
		{name: "missing title", doc: "tracks:\n  - {id: \"1\"}\n"},
		{name: "missing id", doc: "tracks:\n  - {title: A}\n"},
		{name: "negative duration", doc: "tracks:\n  - {id: \"1\", title: A, duration_sec: -3}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_FractionalDuration(t *testing.T) {
	d, err := Parse([]byte("tracks:\n  - {id: \"1\", title: A, duration_sec: 90.5}\n"))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second+500*time.Millisecond, d.Tracks[0].Duration)
}

func TestSaveLoad(t *testing.T) {
	seed, err := LoadSeed()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, Save(path, seed))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, seed, loaded)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
