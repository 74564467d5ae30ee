package playback

import "time"

// Source identifies what the device should load.
// Generation is echoed back on every DeviceEvent produced for this source.
type Source struct {
	Generation uint64
	TrackID    string
	URL        string
	Duration   time.Duration // Catalog duration, a hint for devices without metadata
}

// DeviceEventType represents an inbound device event type.
type DeviceEventType int

const (
	DeviceTimeUpdate     DeviceEventType = iota // Position advanced
	DeviceMetadataLoaded                        // Duration known
	DeviceEnded                                 // Source played to the end
	DeviceFailed                                // Playback aborted asynchronously
)

// String returns the string representation of the device event type.
func (t DeviceEventType) String() string {
	switch t {
	case DeviceTimeUpdate:
		return "time_update"
	case DeviceMetadataLoaded:
		return "metadata_loaded"
	case DeviceEnded:
		return "ended"
	case DeviceFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DeviceEvent is an asynchronous notification from the device.
type DeviceEvent struct {
	Type       DeviceEventType
	Generation uint64        // Source.Generation the event belongs to
	Position   time.Duration // DeviceTimeUpdate
	Duration   time.Duration // DeviceMetadataLoaded
	Err        error         // DeviceFailed
}

// Device is the transport device adapter.
// Commands must not block on playback; completion and failures that happen
// later are reported through the bound handler.
type Device interface {
	// Bind registers the handler receiving device events. Called once before any command.
	Bind(handler func(DeviceEvent))
	// Load prepares the source for playback from the start.
	Load(src Source) error
	// Play starts or resumes playback of the loaded source.
	Play() error
	// Pause pauses playback.
	Pause() error
	// Seek jumps to the given offset.
	Seek(pos time.Duration) error
	// SetVolume sets the output level in [0,1].
	SetVolume(v float64) error
	// Close releases the device.
	Close() error
}
