package audiotag

import (
	"io/fs"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playbar/internal/app/catalog"
	"github.com/osa030/playbar/internal/domain/album"
	"github.com/osa030/playbar/internal/domain/artist"
	"github.com/osa030/playbar/internal/domain/track"
)

// ErrNoAudioFiles is returned when a directory holds no supported audio files.
var ErrNoAudioFiles = errors.New("no audio files found")

// idSpace namespaces the name-based IDs of imported entities.
var idSpace = uuid.MustParse("6f1c3b52-8f0a-4d1e-9c55-3f4a2e7b9d10")

// Importer scans directories and builds catalog data from audio files.
type Importer struct {
	extractor *Extractor
}

// NewImporter creates a new importer.
func NewImporter() *Importer {
	return &Importer{extractor: NewExtractor()}
}

// Import walks dir and returns one track per audio file, grouped into albums
// and artists. Files whose duration cannot be decoded are skipped. IDs are derived from paths and names, so re-importing the same
// directory yields the same IDs.
func (im *Importer) Import(dir string) (catalog.Data, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if Supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return catalog.Data{}, errors.Wrapf(err, "failed to scan %s", dir)
	}
	if len(paths) == 0 {
		return catalog.Data{}, errors.Wrapf(ErrNoAudioFiles, "%s", dir)
	}

	b := newBuilder()
	for _, path := range paths {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		dur, err := im.extractor.Duration(path)
		if err != nil || dur <= 0 {
			zlog.Warn().Msgf("audiotag: skipped, duration unknown: file=%s duration=%v error=%v", rel, dur, err)
			continue
		}
		md := im.extractor.ExtractFromFile(path)

		audioURL, err := filepath.Abs(path)
		if err != nil {
			audioURL = path
		}

		t := track.Track{
			ID:       nameID("track", filepath.ToSlash(rel)),
			Title:    md.Title,
			Artist:   md.Artist,
			Album:    md.Album,
			Duration: dur,
			AudioURL: audioURL,
			Genre:    md.Genre,
		}
		b.add(t, md.Year)
		zlog.Debug().Msgf("audiotag: imported: file=%s artist=%s title=%s duration=%v", rel, t.Artist, t.Title, dur)
	}

	if len(b.tracks) == 0 {
		return catalog.Data{}, errors.Wrapf(ErrNoAudioFiles, "%s: no file could be decoded", dir)
	}

	data := b.build()
	zlog.Info().Msgf("audiotag: import finished: dir=%s tracks=%d albums=%d artists=%d",
		dir, len(data.Tracks), len(data.Albums), len(data.Artists))
	return data, nil
}

func nameID(kind, name string) string {
	return uuid.NewSHA1(idSpace, []byte(kind+":"+name)).String()
}

// builder groups tracks into albums and artists in first-seen order.
type builder struct {
	tracks []track.Track

	albums     []*album.Album
	albumByKey map[string]*album.Album

	artistNames []string
	artistData  map[string]*artistAcc
}

type artistAcc struct {
	tracks   []track.Track
	albumIDs []string
}

func newBuilder() *builder {
	return &builder{
		albumByKey: make(map[string]*album.Album),
		artistData: make(map[string]*artistAcc),
	}
}

func (b *builder) add(t track.Track, year int) {
	b.tracks = append(b.tracks, t)

	acc, ok := b.artistData[t.Artist]
	if !ok {
		acc = &artistAcc{}
		b.artistData[t.Artist] = acc
		b.artistNames = append(b.artistNames, t.Artist)
	}
	acc.tracks = append(acc.tracks, t)

	if t.Album == "" {
		return
	}
	key := t.Artist + "/" + t.Album
	a, ok := b.albumByKey[key]
	if !ok {
		a = &album.Album{
			ID:     nameID("album", key),
			Title:  t.Album,
			Artist: t.Artist,
			Year:   year,
			Genre:  t.Genre,
		}
		b.albumByKey[key] = a
		b.albums = append(b.albums, a)
		acc.albumIDs = append(acc.albumIDs, a.ID)
	}
	a.Tracks = append(a.Tracks, t)
	if a.Year == 0 {
		a.Year = year
	}
}

func (b *builder) build() catalog.Data {
	albums := make([]album.Album, 0, len(b.albums))
	byID := make(map[string]album.Album, len(b.albums))
	for _, a := range b.albums {
		albums = append(albums, *a)
		byID[a.ID] = *a
	}

	artists := make([]artist.Artist, 0, len(b.artistNames))
	for _, name := range b.artistNames {
		acc := b.artistData[name]
		disc := make([]album.Album, 0, len(acc.albumIDs))
		for _, id := range acc.albumIDs {
			disc = append(disc, byID[id])
		}
		artists = append(artists, artist.Artist{
			ID:        nameID("artist", name),
			Name:      name,
			TopTracks: acc.tracks,
			Albums:    disc,
		})
	}

	return catalog.Data{
		Tracks:  b.tracks,
		Albums:  albums,
		Artists: artists,
	}
}
