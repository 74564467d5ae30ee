package playback

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playbar/internal/domain/track"
)

// Errors
var (
	ErrClosed          = errors.New("playback session closed")
	ErrInvalidTrack    = errors.New("track has no id")
	ErrQueueEmpty      = errors.New("queue is empty")
	ErrTrackNotInQueue = errors.New("track is not in queue")
	ErrInvalidVolume   = errors.New("volume is not a number")
)

// DefaultVolume is the output level of a new session.
const DefaultVolume = 0.7

// Config holds session configuration.
type Config struct {
	DefaultVolume float64 // Initial volume, clamped to [0,1]
	EventBuffer   int     // Capacity of the Events channel
}

// DefaultConfig returns the configuration of a fresh session.
func DefaultConfig() Config {
	return Config{
		DefaultVolume: DefaultVolume,
		EventBuffer:   64,
	}
}

// Session is the playback session.
// All state is owned by a single loop goroutine; operations and device events
// are queued in one mailbox and applied in arrival order.
type Session struct {
	// Loop-owned state
	current    *track.Track
	queue      []track.Track
	index      int
	transport  State
	volume     float64
	position   time.Duration
	duration   time.Duration
	generation uint64 // Bumped on every load; device events carry it

	device  Device
	config  Config
	inbox   *mailbox
	eventCh chan Event

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error

	final Snapshot // Written by the loop on exit, read after done is closed
}

// NewSession creates a playback session driving the given device and starts its loop.
func NewSession(config Config, device Device) *Session {
	if config.EventBuffer <= 0 {
		config.EventBuffer = 64
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		queue:     make([]track.Track, 0),
		transport: StateStopped,
		volume:    clampVolume(config.DefaultVolume),
		device:    device,
		config:    config,
		inbox:     newMailbox(),
		eventCh:   make(chan Event, config.EventBuffer),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	device.Bind(s.deliver)
	if err := device.SetVolume(s.volume); err != nil {
		zlog.Warn().Msgf("playback: failed to set initial volume: volume=%.2f error=%v", s.volume, err)
	}

	go s.run()
	return s
}

// Events returns the event channel. It is closed by Close.
func (s *Session) Events() <-chan Event {
	return s.eventCh
}

// PlayTrack plays a single track without supplying a new play context.
// A non-empty queue is kept as is, including its current index.
// An empty queue is seeded with the track.
func (s *Session) PlayTrack(t track.Track) error {
	if t.ID == "" {
		return ErrInvalidTrack
	}
	return s.do(func() error {
		if len(s.queue) == 0 {
			s.queue = []track.Track{t}
			s.index = 0
			s.sendEvent(EventQueueChanged, nil)
		}
		s.startLocked(t)
		return nil
	})
}

// PlayTrackFrom replaces the queue with the given play context and plays t from it.
// The call is rejected without changing state if the queue is empty or
// does not contain t.
func (s *Session) PlayTrackFrom(t track.Track, queue []track.Track) error {
	if t.ID == "" {
		return ErrInvalidTrack
	}
	if len(queue) == 0 {
		return ErrQueueEmpty
	}
	idx := track.IndexOf(queue, t.ID)
	if idx < 0 {
		return errors.Wrapf(ErrTrackNotInQueue, "track %s", t.ID)
	}

	q := make([]track.Track, len(queue))
	copy(q, queue)

	return s.do(func() error {
		s.queue = q
		s.index = idx
		s.sendEvent(EventQueueChanged, nil)
		s.startLocked(t)
		return nil
	})
}

// Pause pauses playback. No-op unless playing.
func (s *Session) Pause() error {
	return s.do(func() error {
		if s.transport != StatePlaying {
			return nil
		}
		if err := s.device.Pause(); err != nil {
			zlog.Error().Msgf("playback: device rejected pause: track=%s error=%v", s.current.ID, err)
			return nil
		}
		s.setTransportLocked(StatePaused)
		return nil
	})
}

// Resume resumes paused playback. No-op unless paused with a current track.
func (s *Session) Resume() error {
	return s.do(func() error {
		if s.current == nil || s.transport != StatePaused {
			return nil
		}
		if err := s.device.Play(); err != nil {
			s.failLocked(err)
			return nil
		}
		s.setTransportLocked(StatePlaying)
		return nil
	})
}

// Next moves to the next track in the queue. No-op at the end of the queue.
func (s *Session) Next() error {
	return s.do(func() error {
		s.stepLocked(1)
		return nil
	})
}

// Previous moves to the previous track in the queue. No-op at the start of the queue.
func (s *Session) Previous() error {
	return s.do(func() error {
		s.stepLocked(-1)
		return nil
	})
}

// SetVolume sets the output volume. Values outside [0,1] are clamped.
func (s *Session) SetVolume(v float64) error {
	if math.IsNaN(v) {
		return ErrInvalidVolume
	}
	return s.do(func() error {
		s.volume = clampVolume(v)
		if err := s.device.SetVolume(s.volume); err != nil {
			zlog.Warn().Msgf("playback: device rejected volume: volume=%.2f error=%v", s.volume, err)
		}
		s.sendEvent(EventVolumeChanged, nil)
		return nil
	})
}

// SeekTo jumps to the given position, clamped to [0, duration].
// Until the device reports metadata, the catalog duration is the upper bound.
// No-op without a current track.
func (s *Session) SeekTo(pos time.Duration) error {
	return s.do(func() error {
		if s.current == nil {
			return nil
		}

		limit := s.duration
		if limit <= 0 {
			limit = s.current.Duration
		}
		if pos > limit {
			pos = limit
		}
		if pos < 0 {
			pos = 0
		}

		if err := s.device.Seek(pos); err != nil {
			zlog.Warn().Msgf("playback: device rejected seek: track=%s pos=%v error=%v", s.current.ID, pos, err)
			return nil
		}
		s.position = pos
		s.sendEvent(EventTimeUpdated, nil)
		return nil
	})
}

// Snapshot returns a copy of the current session state.
// After Close it returns the final state.
func (s *Session) Snapshot() Snapshot {
	var snap Snapshot
	if err := s.do(func() error {
		snap = s.snapshotLocked()
		return nil
	}); err != nil {
		<-s.done
		return s.final
	}
	return snap
}

// Close stops the session loop, releases the device and closes the event channel.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.inbox.close()
		s.cancel()
		<-s.done
		if err := s.device.Close(); err != nil {
			s.closeErr = errors.Wrap(err, "failed to close device")
		}
		close(s.eventCh)
	})
	return s.closeErr
}

// do queues op for the loop and waits until it has been applied.
func (s *Session) do(op func() error) error {
	reply := make(chan error, 1)
	if !s.inbox.push(message{op: op, reply: reply}) {
		return ErrClosed
	}

	select {
	case err := <-reply:
		return err
	case <-s.done:
		select {
		case err := <-reply:
			return err
		default:
			return ErrClosed
		}
	}
}

// deliver is the device event handler. Safe to call from any goroutine.
func (s *Session) deliver(ev DeviceEvent) {
	if !s.inbox.push(message{event: &ev}) {
		zlog.Debug().Msgf("playback: device event after close dropped: type=%s", ev.Type)
	}
}

// run is the session loop.
func (s *Session) run() {
	defer close(s.done)
	defer func() { s.final = s.snapshotLocked() }()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.inbox.notify:
		}

		for _, msg := range s.inbox.take() {
			if s.ctx.Err() != nil {
				return
			}
			if msg.event != nil {
				s.handleDeviceEventLocked(*msg.event)
				continue
			}
			msg.reply <- msg.op()
		}
	}
}

// handleDeviceEventLocked applies a device event if it belongs to the current load.
func (s *Session) handleDeviceEventLocked(ev DeviceEvent) {
	if s.current == nil || ev.Generation != s.generation {
		zlog.Debug().Msgf("playback: stale device event discarded: type=%s generation=%d current=%d",
			ev.Type, ev.Generation, s.generation)
		return
	}

	switch ev.Type {
	case DeviceTimeUpdate:
		pos := ev.Position
		if pos < 0 {
			pos = 0
		}
		s.position = pos
		s.sendEvent(EventTimeUpdated, nil)

	case DeviceMetadataLoaded:
		d := ev.Duration
		if d < 0 {
			d = 0
		}
		s.duration = d
		s.sendEvent(EventDurationChanged, nil)

	case DeviceEnded:
		zlog.Debug().Msgf("playback: track ended: track=%s index=%d queue=%d", s.current.ID, s.index, len(s.queue))
		if s.stepLocked(1) {
			return
		}
		s.endQueueLocked()

	case DeviceFailed:
		s.failLocked(ev.Err)
	}
}

// stepLocked moves the queue position by delta and plays that track.
// Returns false if the move would leave the queue.
func (s *Session) stepLocked(delta int) bool {
	next := s.index + delta
	if len(s.queue) == 0 || next < 0 || next >= len(s.queue) {
		return false
	}
	s.index = next
	s.startLocked(s.queue[next])
	return true
}

// endQueueLocked parks the session at the start of the last track after the queue ran out.
func (s *Session) endQueueLocked() {
	if err := s.device.Seek(0); err != nil {
		zlog.Warn().Msgf("playback: failed to rewind after queue end: track=%s error=%v", s.current.ID, err)
	}
	s.position = 0
	s.setTransportLocked(StatePaused)
	s.sendEvent(EventQueueEnded, nil)
}

// startLocked makes t the current track and commands the device to play it from the start.
func (s *Session) startLocked(t track.Track) {
	s.generation++
	cur := t
	s.current = &cur
	s.position = 0
	s.duration = 0
	s.sendEvent(EventTrackChanged, nil)

	src := Source{
		Generation: s.generation,
		TrackID:    t.ID,
		URL:        t.AudioURL,
		Duration:   t.Duration,
	}
	if err := s.device.Load(src); err != nil {
		s.failLocked(err)
		return
	}
	if err := s.device.SetVolume(s.volume); err != nil {
		zlog.Warn().Msgf("playback: device rejected volume: volume=%.2f error=%v", s.volume, err)
	}
	if err := s.device.Play(); err != nil {
		s.failLocked(err)
		return
	}

	zlog.Debug().Msgf("playback: playing track: track=%s title=%s index=%d generation=%d",
		t.ID, t.Title, s.index, s.generation)
	s.setTransportLocked(StatePlaying)
}

// failLocked records a playback failure. The current track stays selected.
func (s *Session) failLocked(err error) {
	trackID := ""
	if s.current != nil {
		trackID = s.current.ID
	}
	zlog.Error().Msgf("playback: playback failed: track=%s error=%v", trackID, err)
	s.setTransportLocked(StateStopped)
	s.sendEvent(EventPlaybackFailed, err)
}

func (s *Session) setTransportLocked(st State) {
	if s.transport == st {
		return
	}
	s.transport = st
	s.sendEvent(EventStateChanged, nil)
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Transport:    s.transport,
		IsPlaying:    s.transport == StatePlaying,
		Volume:       s.volume,
		CurrentTime:  s.position,
		Duration:     s.duration,
		Queue:        make([]track.Track, len(s.queue)),
		CurrentIndex: s.index,
	}
	copy(snap.Queue, s.queue)
	if s.current != nil {
		cur := *s.current
		snap.CurrentTrack = &cur
	}
	return snap
}

// sendEvent sends an event without blocking.
// Must be called from the loop.
func (s *Session) sendEvent(typ EventType, err error) {
	e := Event{Type: typ, Snapshot: s.snapshotLocked(), Err: err}
	select {
	case s.eventCh <- e:
	default:
		zlog.Warn().Msgf("playback: event channel full, dropping event: type=%s", typ)
	}
}

func clampVolume(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return DefaultVolume
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
