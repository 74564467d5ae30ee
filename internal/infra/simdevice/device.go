// Package simdevice provides a simulated transport device.
// It keeps a virtual playhead that advances with the wall clock while playing
// and reports progress, metadata and end of track the way an audio element would.
package simdevice

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playbar/internal/app/playback"
)

// Errors
var (
	ErrClosed          = errors.New("device closed")
	ErrNoSource        = errors.New("no source loaded")
	ErrUnknownDuration = errors.New("source has no duration")
)

// Settings represents the simulated device configuration.
type Settings struct {
	TickIntervalMs int     `yaml:"tick_interval_ms" mapstructure:"tick_interval_ms" default:"250" validate:"gte=1"`
	LoadLatencyMs  int     `yaml:"load_latency_ms" mapstructure:"load_latency_ms" default:"50" validate:"gte=0"`
	Speed          float64 `yaml:"speed" mapstructure:"speed" default:"1.0" validate:"gt=0"`
	RequireSource  bool    `yaml:"require_source" mapstructure:"require_source"`
}

// ParseSettings decodes a settings map and applies defaults and validation.
func ParseSettings(settings map[string]any) (Settings, error) {
	var s Settings

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return s, errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return s, errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(&s); err != nil {
		return s, errors.Wrap(err, "failed to set defaults")
	}

	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		return s, errors.Wrap(err, "validation failed")
	}
	return s, nil
}

// Device is a simulated playback.Device.
type Device struct {
	settings Settings

	mu       sync.Mutex
	handler  func(playback.DeviceEvent)
	source   *playback.Source
	ready    bool // Metadata reported for the current source
	playing  bool
	position time.Duration
	lastTick time.Time
	volume   float64
	closed   bool

	stop chan struct{}
	wg   sync.WaitGroup
	now  func() time.Time
}

// New creates a simulated device and starts its clock.
func New(settings Settings) *Device {
	if settings.TickIntervalMs <= 0 {
		settings.TickIntervalMs = 250
	}
	if settings.Speed <= 0 {
		settings.Speed = 1.0
	}

	d := &Device{
		settings: settings,
		volume:   1,
		stop:     make(chan struct{}),
		now:      time.Now,
	}

	d.wg.Add(1)
	go d.clock()
	return d
}

// Bind sets the handler that receives device events.
func (d *Device) Bind(handler func(playback.DeviceEvent)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = handler
}

// Load replaces the current source. Playback stops until Play is called,
// also when the new source is rejected.
// Metadata is reported after the configured load latency.
func (d *Device) Load(src playback.Source) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	// The previous source is released even if the new one is rejected.
	d.source = nil
	d.ready = false
	d.playing = false
	d.position = 0

	if d.settings.RequireSource && src.URL == "" {
		return errors.Wrapf(ErrNoSource, "track %s has no audio url", src.TrackID)
	}

	s := src
	d.source = &s

	latency := time.Duration(d.settings.LoadLatencyMs) * time.Millisecond
	zlog.Debug().Msgf("simdevice: loading source: track=%s generation=%d latency=%v", src.TrackID, src.Generation, latency)
	time.AfterFunc(latency, func() { d.finishLoad(src.Generation) })
	return nil
}

// Play starts or continues advancing the playhead.
func (d *Device) Play() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if d.source == nil {
		return ErrNoSource
	}
	if !d.playing {
		d.playing = true
		d.lastTick = d.now()
	}
	return nil
}

// Pause freezes the playhead.
func (d *Device) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if d.playing {
		d.advanceLocked()
		d.playing = false
	}
	return nil
}

// Seek moves the playhead, clamped to the source duration.
func (d *Device) Seek(pos time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if d.source == nil {
		return ErrNoSource
	}
	if pos < 0 {
		pos = 0
	}
	if d.source.Duration > 0 && pos > d.source.Duration {
		pos = d.source.Duration
	}
	d.position = pos
	d.lastTick = d.now()
	return nil
}

// SetVolume records the output level.
func (d *Device) SetVolume(v float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	d.volume = v
	return nil
}

// Volume returns the last volume set.
func (d *Device) Volume() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.volume
}

// Position returns the current playhead.
func (d *Device) Position() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.playing {
		d.advanceLocked()
	}
	return d.position
}

// Close stops the clock. Pending events are dropped.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.playing = false
	d.mu.Unlock()

	close(d.stop)
	d.wg.Wait()
	return nil
}

func (d *Device) finishLoad(generation uint64) {
	d.mu.Lock()
	if d.closed || d.source == nil || d.source.Generation != generation {
		d.mu.Unlock()
		return
	}

	var ev playback.DeviceEvent
	if d.source.Duration <= 0 {
		d.playing = false
		ev = playback.DeviceEvent{
			Type:       playback.DeviceFailed,
			Generation: generation,
			Err:        errors.Wrapf(ErrUnknownDuration, "track %s", d.source.TrackID),
		}
	} else {
		d.ready = true
		d.lastTick = d.now()
		ev = playback.DeviceEvent{
			Type:       playback.DeviceMetadataLoaded,
			Generation: generation,
			Duration:   d.source.Duration,
		}
	}
	h := d.handler
	d.mu.Unlock()

	emit(h, ev)
}

// clock advances the playhead on every tick and reports progress.
func (d *Device) clock() {
	defer d.wg.Done()

	ticker := time.NewTicker(time.Duration(d.settings.TickIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.tick()
		}
	}
}

func (d *Device) tick() {
	d.mu.Lock()
	if !d.playing || !d.ready || d.source == nil {
		d.mu.Unlock()
		return
	}

	d.advanceLocked()
	events := []playback.DeviceEvent{{
		Type:       playback.DeviceTimeUpdate,
		Generation: d.source.Generation,
		Position:   d.position,
	}}
	if d.position >= d.source.Duration {
		d.playing = false
		events = append(events, playback.DeviceEvent{
			Type:       playback.DeviceEnded,
			Generation: d.source.Generation,
		})
		zlog.Debug().Msgf("simdevice: source ended: track=%s generation=%d", d.source.TrackID, d.source.Generation)
	}
	h := d.handler
	d.mu.Unlock()

	for _, ev := range events {
		emit(h, ev)
	}
}

// advanceLocked moves the playhead by the scaled time since the last tick.
func (d *Device) advanceLocked() {
	now := d.now()
	elapsed := now.Sub(d.lastTick)
	d.lastTick = now
	if !d.ready {
		return
	}

	d.position += time.Duration(float64(elapsed) * d.settings.Speed)
	if d.source != nil && d.position > d.source.Duration {
		d.position = d.source.Duration
	}
}

func emit(h func(playback.DeviceEvent), ev playback.DeviceEvent) {
	if h == nil {
		return
	}
	h(ev)
}
