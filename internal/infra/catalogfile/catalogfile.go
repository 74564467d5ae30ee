// Package catalogfile reads and writes the YAML catalog format.
//
// Tracks are defined once; albums, artists and playlists refer to them by ID.
// Artists refer to albums by ID as well.
package catalogfile

import (
	_ "embed"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/osa030/playbar/internal/app/catalog"
	"github.com/osa030/playbar/internal/domain/album"
	"github.com/osa030/playbar/internal/domain/artist"
	"github.com/osa030/playbar/internal/domain/playlist"
	"github.com/osa030/playbar/internal/domain/track"
)

//go:embed seed.yaml
var seed []byte

// Errors
var (
	ErrDuplicateID      = errors.New("duplicate id")
	ErrUnknownReference = errors.New("unknown reference")
)

// File is the on-disk catalog document.
type File struct {
	Tracks    []TrackEntry    `yaml:"tracks" validate:"dive"`
	Albums    []AlbumEntry    `yaml:"albums,omitempty" validate:"dive"`
	Artists   []ArtistEntry   `yaml:"artists,omitempty" validate:"dive"`
	Playlists []PlaylistEntry `yaml:"playlists,omitempty" validate:"dive"`
}

// TrackEntry represents a track definition.
type TrackEntry struct {
	ID          string  `yaml:"id" validate:"required"`
	Title       string  `yaml:"title" validate:"required"`
	Artist      string  `yaml:"artist"`
	Album       string  `yaml:"album"`
	DurationSec float64 `yaml:"duration_sec" validate:"gte=0"`
	CoverURL    string  `yaml:"cover_url,omitempty"`
	AudioURL    string  `yaml:"audio_url,omitempty"`
	Genre       string  `yaml:"genre,omitempty"`
}

// AlbumEntry represents an album definition.
type AlbumEntry struct {
	ID       string   `yaml:"id" validate:"required"`
	Title    string   `yaml:"title" validate:"required"`
	Artist   string   `yaml:"artist"`
	CoverURL string   `yaml:"cover_url,omitempty"`
	Year     int      `yaml:"year,omitempty" validate:"gte=0"`
	Genre    string   `yaml:"genre,omitempty"`
	Tracks   []string `yaml:"tracks"`
}

// ArtistEntry represents an artist definition.
type ArtistEntry struct {
	ID        string   `yaml:"id" validate:"required"`
	Name      string   `yaml:"name" validate:"required"`
	ImageURL  string   `yaml:"image_url,omitempty"`
	Bio       string   `yaml:"bio,omitempty"`
	Followers int      `yaml:"followers,omitempty" validate:"gte=0"`
	TopTracks []string `yaml:"top_tracks,omitempty"`
	Albums    []string `yaml:"albums,omitempty"`
}

// PlaylistEntry represents a playlist definition.
type PlaylistEntry struct {
	ID          string   `yaml:"id" validate:"required"`
	Title       string   `yaml:"title" validate:"required"`
	Description string   `yaml:"description,omitempty"`
	CoverURL    string   `yaml:"cover_url,omitempty"`
	CreatedBy   string   `yaml:"created_by" default:"playbar"`
	IsPublic    bool     `yaml:"is_public"`
	Tracks      []string `yaml:"tracks"`
}

// Load reads a catalog file.
func Load(path string) (catalog.Data, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return catalog.Data{}, errors.Wrap(err, "failed to read catalog file")
	}

	d, err := Parse(data)
	if err != nil {
		return catalog.Data{}, errors.Wrapf(err, "invalid catalog file %s", path)
	}
	zlog.Info().Msgf("catalogfile: loaded catalog: path=%s tracks=%d albums=%d artists=%d playlists=%d",
		path, len(d.Tracks), len(d.Albums), len(d.Artists), len(d.Playlists))
	return d, nil
}

// LoadSeed returns the built-in catalog.
func LoadSeed() (catalog.Data, error) {
	d, err := Parse(seed)
	if err != nil {
		return catalog.Data{}, errors.Wrap(err, "invalid built-in catalog")
	}
	return d, nil
}

// Parse decodes, validates and resolves a catalog document.
func Parse(data []byte) (catalog.Data, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return catalog.Data{}, errors.Wrap(err, "failed to parse catalog")
	}

	if err := defaults.Set(&f); err != nil {
		return catalog.Data{}, errors.Wrap(err, "failed to set defaults")
	}

	validate := validator.New()
	if err := validate.Struct(f); err != nil {
		return catalog.Data{}, errors.Wrap(err, "catalog validation failed")
	}

	return f.Resolve()
}

// Resolve turns ID references into catalog entities.
func (f *File) Resolve() (catalog.Data, error) {
	tracks := make([]track.Track, 0, len(f.Tracks))
	trackByID := make(map[string]track.Track, len(f.Tracks))
	for _, e := range f.Tracks {
		if _, ok := trackByID[e.ID]; ok {
			return catalog.Data{}, errors.Wrapf(ErrDuplicateID, "track %s", e.ID)
		}
		t := track.Track{
			ID:       e.ID,
			Title:    e.Title,
			Artist:   e.Artist,
			Album:    e.Album,
			Duration: time.Duration(e.DurationSec * float64(time.Second)),
			CoverURL: e.CoverURL,
			AudioURL: e.AudioURL,
			Genre:    e.Genre,
		}
		trackByID[e.ID] = t
		tracks = append(tracks, t)
	}

	lookup := func(owner string, ids []string) ([]track.Track, error) {
		out := make([]track.Track, 0, len(ids))
		for _, id := range ids {
			t, ok := trackByID[id]
			if !ok {
				return nil, errors.Wrapf(ErrUnknownReference, "%s refers to track %s", owner, id)
			}
			out = append(out, t)
		}
		return out, nil
	}

	albums := make([]album.Album, 0, len(f.Albums))
	albumByID := make(map[string]album.Album, len(f.Albums))
	for _, e := range f.Albums {
		if _, ok := albumByID[e.ID]; ok {
			return catalog.Data{}, errors.Wrapf(ErrDuplicateID, "album %s", e.ID)
		}
		ts, err := lookup("album "+e.ID, e.Tracks)
		if err != nil {
			return catalog.Data{}, err
		}
		a := album.Album{
			ID:       e.ID,
			Title:    e.Title,
			Artist:   e.Artist,
			CoverURL: e.CoverURL,
			Year:     e.Year,
			Genre:    e.Genre,
			Tracks:   ts,
		}
		albumByID[e.ID] = a
		albums = append(albums, a)
	}

	artists := make([]artist.Artist, 0, len(f.Artists))
	seenArtists := make(map[string]bool, len(f.Artists))
	for _, e := range f.Artists {
		if seenArtists[e.ID] {
			return catalog.Data{}, errors.Wrapf(ErrDuplicateID, "artist %s", e.ID)
		}
		seenArtists[e.ID] = true

		top, err := lookup("artist "+e.ID, e.TopTracks)
		if err != nil {
			return catalog.Data{}, err
		}
		discography := make([]album.Album, 0, len(e.Albums))
		for _, id := range e.Albums {
			a, ok := albumByID[id]
			if !ok {
				return catalog.Data{}, errors.Wrapf(ErrUnknownReference, "artist %s refers to album %s", e.ID, id)
			}
			discography = append(discography, a)
		}
		artists = append(artists, artist.Artist{
			ID:        e.ID,
			Name:      e.Name,
			ImageURL:  e.ImageURL,
			Bio:       e.Bio,
			Followers: e.Followers,
			TopTracks: top,
			Albums:    discography,
		})
	}

	playlists := make([]playlist.Playlist, 0, len(f.Playlists))
	seenPlaylists := make(map[string]bool, len(f.Playlists))
	for _, e := range f.Playlists {
		if seenPlaylists[e.ID] {
			return catalog.Data{}, errors.Wrapf(ErrDuplicateID, "playlist %s", e.ID)
		}
		seenPlaylists[e.ID] = true

		ts, err := lookup("playlist "+e.ID, e.Tracks)
		if err != nil {
			return catalog.Data{}, err
		}
		playlists = append(playlists, playlist.Playlist{
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			CoverURL:    e.CoverURL,
			CreatedBy:   e.CreatedBy,
			IsPublic:    e.IsPublic,
			Tracks:      ts,
		})
	}

	return catalog.Data{
		Tracks:    tracks,
		Albums:    albums,
		Artists:   artists,
		Playlists: playlists,
	}, nil
}

// FromData converts catalog entities back into a document.
func FromData(d catalog.Data) *File {
	f := &File{
		Tracks:    make([]TrackEntry, 0, len(d.Tracks)),
		Albums:    make([]AlbumEntry, 0, len(d.Albums)),
		Artists:   make([]ArtistEntry, 0, len(d.Artists)),
		Playlists: make([]PlaylistEntry, 0, len(d.Playlists)),
	}
	for _, t := range d.Tracks {
		f.Tracks = append(f.Tracks, TrackEntry{
			ID:          t.ID,
			Title:       t.Title,
			Artist:      t.Artist,
			Album:       t.Album,
			DurationSec: t.Duration.Seconds(),
			CoverURL:    t.CoverURL,
			AudioURL:    t.AudioURL,
			Genre:       t.Genre,
		})
	}
	for _, a := range d.Albums {
		f.Albums = append(f.Albums, AlbumEntry{
			ID:       a.ID,
			Title:    a.Title,
			Artist:   a.Artist,
			CoverURL: a.CoverURL,
			Year:     a.Year,
			Genre:    a.Genre,
			Tracks:   track.IDs(a.Tracks),
		})
	}
	for _, a := range d.Artists {
		albumIDs := make([]string, len(a.Albums))
		for i, al := range a.Albums {
			albumIDs[i] = al.ID
		}
		f.Artists = append(f.Artists, ArtistEntry{
			ID:        a.ID,
			Name:      a.Name,
			ImageURL:  a.ImageURL,
			Bio:       a.Bio,
			Followers: a.Followers,
			TopTracks: track.IDs(a.TopTracks),
			Albums:    albumIDs,
		})
	}
	for _, p := range d.Playlists {
		f.Playlists = append(f.Playlists, PlaylistEntry{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			CoverURL:    p.CoverURL,
			CreatedBy:   p.CreatedBy,
			IsPublic:    p.IsPublic,
			Tracks:      p.TrackIDs(),
		})
	}
	return f
}

// Save writes the catalog to path as YAML.
func Save(path string, d catalog.Data) error {
	out, err := yaml.Marshal(FromData(d))
	if err != nil {
		return errors.Wrap(err, "failed to encode catalog")
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errors.Wrap(err, "failed to write catalog file")
	}
	zlog.Info().Msgf("catalogfile: saved catalog: path=%s tracks=%d", path, len(d.Tracks))
	return nil
}
