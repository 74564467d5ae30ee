package playback

import (
	"time"

	"github.com/osa030/playbar/internal/domain/track"
)

// EventType represents a session event type.
type EventType int

const (
	EventTrackChanged    EventType = iota // Current track (and queue position) changed
	EventStateChanged                     // Transport state changed
	EventTimeUpdated                      // Playback position changed
	EventDurationChanged                  // Track duration reported by the device
	EventVolumeChanged                    // Output volume changed
	EventQueueChanged                     // Queue replaced
	EventQueueEnded                       // Last track of the queue ended
	EventPlaybackFailed                   // Device rejected or aborted playback
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackChanged:
		return "track_changed"
	case EventStateChanged:
		return "state_changed"
	case EventTimeUpdated:
		return "time_updated"
	case EventDurationChanged:
		return "duration_changed"
	case EventVolumeChanged:
		return "volume_changed"
	case EventQueueChanged:
		return "queue_changed"
	case EventQueueEnded:
		return "queue_ended"
	case EventPlaybackFailed:
		return "playback_failed"
	default:
		return "unknown"
	}
}

// Event represents a session event.
type Event struct {
	Type     EventType
	Snapshot Snapshot // Session state after the change
	Err      error    // Set for EventPlaybackFailed
}

// Snapshot is a copy of the session state handed to views.
type Snapshot struct {
	CurrentTrack *track.Track
	Transport    State
	IsPlaying    bool
	Volume       float64
	CurrentTime  time.Duration
	Duration     time.Duration
	Queue        []track.Track
	CurrentIndex int
}

// HasTrack returns true if a track has been selected.
func (s Snapshot) HasTrack() bool {
	return s.CurrentTrack != nil
}

// Progress returns the playback position as a fraction of the duration.
func (s Snapshot) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	p := float64(s.CurrentTime) / float64(s.Duration)
	if p > 1 {
		return 1
	}
	return p
}

// HasNext returns true if Next would move to another track.
func (s Snapshot) HasNext() bool {
	return len(s.Queue) > 0 && s.CurrentIndex < len(s.Queue)-1
}

// HasPrevious returns true if Previous would move to another track.
func (s Snapshot) HasPrevious() bool {
	return len(s.Queue) > 0 && s.CurrentIndex > 0
}
