// Package catalog provides read-only queries over the music catalog.
package catalog

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/playbar/internal/domain/album"
	"github.com/osa030/playbar/internal/domain/artist"
	"github.com/osa030/playbar/internal/domain/playlist"
	"github.com/osa030/playbar/internal/domain/track"
)

// ErrNotFound is returned when an entity does not exist in the catalog.
var ErrNotFound = errors.New("not found in catalog")

// Data is the full content of a catalog.
type Data struct {
	Tracks    []track.Track
	Albums    []album.Album
	Artists   []artist.Artist
	Playlists []playlist.Playlist
}

// Results holds the matches of a search.
type Results struct {
	Tracks  []track.Track
	Albums  []album.Album
	Artists []artist.Artist
}

// Empty reports whether nothing matched.
func (r Results) Empty() bool {
	return len(r.Tracks) == 0 && len(r.Albums) == 0 && len(r.Artists) == 0
}

// Store answers catalog queries. It is immutable after construction and
// safe for concurrent use.
type Store struct {
	data Data

	tracks    map[string]int
	albums    map[string]int
	artists   map[string]int
	playlists map[string]int
}

// NewStore indexes the given catalog data.
// On duplicate IDs the first entity wins.
func NewStore(data Data) *Store {
	s := &Store{
		data:      data,
		tracks:    make(map[string]int, len(data.Tracks)),
		albums:    make(map[string]int, len(data.Albums)),
		artists:   make(map[string]int, len(data.Artists)),
		playlists: make(map[string]int, len(data.Playlists)),
	}
	for i, t := range data.Tracks {
		if _, ok := s.tracks[t.ID]; !ok {
			s.tracks[t.ID] = i
		}
	}
	for i, a := range data.Albums {
		if _, ok := s.albums[a.ID]; !ok {
			s.albums[a.ID] = i
		}
	}
	for i, a := range data.Artists {
		if _, ok := s.artists[a.ID]; !ok {
			s.artists[a.ID] = i
		}
	}
	for i, p := range data.Playlists {
		if _, ok := s.playlists[p.ID]; !ok {
			s.playlists[p.ID] = i
		}
	}
	return s
}

// Tracks returns all tracks in catalog order.
func (s *Store) Tracks() []track.Track {
	return append([]track.Track(nil), s.data.Tracks...)
}

// Albums returns all albums in catalog order.
func (s *Store) Albums() []album.Album {
	return cloneAlbums(s.data.Albums)
}

// Artists returns all artists in catalog order.
func (s *Store) Artists() []artist.Artist {
	out := make([]artist.Artist, len(s.data.Artists))
	for i := range s.data.Artists {
		out[i] = cloneArtist(s.data.Artists[i])
	}
	return out
}

// Playlists returns all playlists in catalog order.
func (s *Store) Playlists() []playlist.Playlist {
	out := make([]playlist.Playlist, len(s.data.Playlists))
	for i := range s.data.Playlists {
		out[i] = clonePlaylist(s.data.Playlists[i])
	}
	return out
}

// Track finds a track by ID.
func (s *Store) Track(id string) (track.Track, error) {
	i, ok := s.tracks[id]
	if !ok {
		return track.Track{}, errors.Wrapf(ErrNotFound, "track %s", id)
	}
	return s.data.Tracks[i], nil
}

// Album finds an album by ID.
func (s *Store) Album(id string) (album.Album, error) {
	i, ok := s.albums[id]
	if !ok {
		return album.Album{}, errors.Wrapf(ErrNotFound, "album %s", id)
	}
	return cloneAlbum(s.data.Albums[i]), nil
}

// Artist finds an artist by ID.
func (s *Store) Artist(id string) (artist.Artist, error) {
	i, ok := s.artists[id]
	if !ok {
		return artist.Artist{}, errors.Wrapf(ErrNotFound, "artist %s", id)
	}
	return cloneArtist(s.data.Artists[i]), nil
}

// Playlist finds a playlist by ID.
func (s *Store) Playlist(id string) (playlist.Playlist, error) {
	i, ok := s.playlists[id]
	if !ok {
		return playlist.Playlist{}, errors.Wrapf(ErrNotFound, "playlist %s", id)
	}
	return clonePlaylist(s.data.Playlists[i]), nil
}

// Search matches the query case-insensitively as a substring.
// Tracks match on title, artist or album; albums on title or artist;
// artists on name. A blank query matches nothing.
func (s *Store) Search(query string) Results {
	res := Results{
		Tracks:  make([]track.Track, 0),
		Albums:  make([]album.Album, 0),
		Artists: make([]artist.Artist, 0),
	}
	if strings.TrimSpace(query) == "" {
		return res
	}

	for i := range s.data.Tracks {
		if s.data.Tracks[i].Matches(query) {
			res.Tracks = append(res.Tracks, s.data.Tracks[i])
		}
	}
	for i := range s.data.Albums {
		if s.data.Albums[i].Matches(query) {
			res.Albums = append(res.Albums, cloneAlbum(s.data.Albums[i]))
		}
	}
	for i := range s.data.Artists {
		if s.data.Artists[i].Matches(query) {
			res.Artists = append(res.Artists, cloneArtist(s.data.Artists[i]))
		}
	}
	return res
}

// Entities returned by the store never share slices with its data.

func cloneTracks(ts []track.Track) []track.Track {
	if ts == nil {
		return nil
	}
	return append([]track.Track(nil), ts...)
}

func cloneAlbum(a album.Album) album.Album {
	a.Tracks = cloneTracks(a.Tracks)
	return a
}

func cloneAlbums(as []album.Album) []album.Album {
	if as == nil {
		return nil
	}
	out := make([]album.Album, len(as))
	for i := range as {
		out[i] = cloneAlbum(as[i])
	}
	return out
}

func cloneArtist(a artist.Artist) artist.Artist {
	a.TopTracks = cloneTracks(a.TopTracks)
	a.Albums = cloneAlbums(a.Albums)
	return a
}

func clonePlaylist(p playlist.Playlist) playlist.Playlist {
	p.Tracks = cloneTracks(p.Tracks)
	return p
}
