// Package artist provides the Artist domain entity.
package artist

import (
	"strings"

	"github.com/osa030/playbar/internal/domain/album"
	"github.com/osa030/playbar/internal/domain/track"
)

// Artist represents a performer with their top tracks and discography.
type Artist struct {
	ID        string        // Artist ID
	Name      string        // Display name
	ImageURL  string        // Artist image reference
	Bio       string        // Short biography
	Followers int           // Follower count
	TopTracks []track.Track // Most played tracks
	Albums    []album.Album // Discography
}

// Matches reports whether the artist name contains the query, ignoring case.
func (a *Artist) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	return strings.Contains(strings.ToLower(a.Name), q)
}
