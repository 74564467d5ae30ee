// Package audiotag builds catalog entries from local audio files.
package audiotag

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dhowden/tag"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// ErrUnsupportedFormat is returned for files whose duration cannot be measured.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// UnknownArtist is used when neither tags nor the file name name an artist.
const UnknownArtist = "Unknown Artist"

// Metadata holds the descriptive tags of a track.
type Metadata struct {
	Artist string
	Title  string
	Album  string
	Genre  string
	Year   int
}

// Extractor reads metadata and duration from audio files.
type Extractor struct{}

// NewExtractor creates a new metadata extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFromReader reads tags from r. source names the file for the fallback.
func (e *Extractor) ExtractFromReader(r io.ReadSeeker, source string) Metadata {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return e.fallback(source)
	}

	m, err := tag.ReadFrom(r)
	if err != nil {
		return e.fallback(source)
	}

	md := Metadata{
		Artist: strings.TrimSpace(m.Artist()),
		Title:  strings.TrimSpace(m.Title()),
		Album:  strings.TrimSpace(m.Album()),
		Genre:  strings.TrimSpace(m.Genre()),
		Year:   m.Year(),
	}

	// Fill gaps from the file name.
	fb := e.fallback(source)
	if md.Title == "" {
		md.Title = fb.Title
	}
	if md.Artist == "" {
		md.Artist = fb.Artist
	}
	return md
}

// ExtractFromFile reads tags from the file at path.
func (e *Extractor) ExtractFromFile(path string) Metadata {
	f, err := os.Open(path)
	if err != nil {
		return e.fallback(path)
	}
	defer f.Close()

	return e.ExtractFromReader(f, path)
}

// decoders maps a lower-case file extension to the beep decoder for it.
var decoders = map[string]func(f *os.File) (beep.StreamSeekCloser, beep.Format, error){
	".mp3":  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return mp3.Decode(f) },
	".flac": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return flac.Decode(f) },
	".ogg":  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return vorbis.Decode(f) },
	".wav":  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(f) },
}

// Supported reports whether Duration can measure files with the extension of path.
func Supported(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Duration measures the running time of an MP3, FLAC, Ogg Vorbis or WAV file.
func (e *Extractor) Duration(path string) (time.Duration, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		return 0, errors.Wrapf(ErrUnsupportedFormat, "%s", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "failed to open file")
	}
	defer f.Close()

	streamer, format, err := decode(f)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to decode %s", strings.TrimPrefix(ext, "."))
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()), nil
}

// fallback derives metadata from a file name of the form "Artist - Title".
func (e *Extractor) fallback(source string) Metadata {
	name := filepath.Base(source)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	parts := strings.Split(name, " - ")
	if len(parts) >= 2 {
		return Metadata{
			Artist: strings.TrimSpace(parts[0]),
			Title:  strings.TrimSpace(strings.Join(parts[1:], " - ")),
		}
	}

	return Metadata{
		Artist: UnknownArtist,
		Title:  name,
	}
}
