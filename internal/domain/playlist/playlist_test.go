package playlist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/playbar/internal/domain/track"
)

func TestPlaylist_TrackIDs(t *testing.T) {
	tests := []struct {
		name     string
		tracks   []track.Track
		expected []string
	}{
		{
			name:     "empty playlist",
			tracks:   []track.Track{},
			expected: []string{},
		},
		{
			name:     "single track",
			tracks:   []track.Track{{ID: "1"}},
			expected: []string{"1"},
		},
		{
			name:     "keeps playlist order",
			tracks:   []track.Track{{ID: "3"}, {ID: "1"}, {ID: "2"}},
			expected: []string{"3", "1", "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Playlist{ID: "1", Tracks: tt.tracks}
			assert.Equal(t, tt.expected, p.TrackIDs())
		})
	}
}

func TestPlaylist_TotalDuration(t *testing.T) {
	tests := []struct {
		name     string
		tracks   []track.Track
		expected int64
	}{
		{
			name:     "empty playlist",
			tracks:   []track.Track{},
			expected: 0,
		},
		{
			name: "top hits",
			tracks: []track.Track{
				{ID: "1", Duration: 200 * time.Second},
				{ID: "2", Duration: 174 * time.Second},
				{ID: "3", Duration: 178 * time.Second},
				{ID: "4", Duration: 141 * time.Second},
			},
			expected: 693,
		},
		{
			name: "sub-second remainder truncated",
			tracks: []track.Track{
				{ID: "1", Duration: 90*time.Second + 600*time.Millisecond},
				{ID: "2", Duration: 30*time.Second + 600*time.Millisecond},
			},
			expected: 121,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Playlist{ID: "1", Title: "Test", Tracks: tt.tracks}
			assert.Equal(t, tt.expected, p.TotalDuration())
		})
	}
}
