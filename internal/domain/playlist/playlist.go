// Package playlist provides the Playlist domain entity.
package playlist

import "github.com/osa030/playbar/internal/domain/track"

// Playlist represents a curated, ordered track collection.
type Playlist struct {
	ID          string        // Playlist ID
	Title       string        // Playlist title
	Description string        // Playlist description
	CoverURL    string        // Cover art reference
	CreatedBy   string        // Curator name
	IsPublic    bool          // Visibility flag
	Tracks      []track.Track // Tracks in the playlist
}

// TrackIDs returns all track IDs in the playlist.
func (p *Playlist) TrackIDs() []string {
	return track.IDs(p.Tracks)
}

// TotalDuration returns the total duration of all tracks in seconds.
func (p *Playlist) TotalDuration() int64 {
	return int64(track.TotalDuration(p.Tracks).Seconds())
}
