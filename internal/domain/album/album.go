// Package album provides the Album domain entity.
package album

import (
	"strings"
	"time"

	"github.com/osa030/playbar/internal/domain/track"
)

// Album represents a released album and its ordered track list.
type Album struct {
	ID       string        // Album ID
	Title    string        // Album title
	Artist   string        // Artist display name
	CoverURL string        // Cover art reference
	Year     int           // Release year
	Genre    string        // Genre name
	Tracks   []track.Track // Tracks in album order
}

// Matches reports whether the album title or artist contains the query,
// ignoring case.
func (a *Album) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	return strings.Contains(strings.ToLower(a.Title), q) ||
		strings.Contains(strings.ToLower(a.Artist), q)
}

// TotalDuration returns the running time of the album.
func (a *Album) TotalDuration() time.Duration {
	return track.TotalDuration(a.Tracks)
}
