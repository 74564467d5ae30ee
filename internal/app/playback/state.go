// Package playback provides the playback session: the current track, its
// play queue, transport state, timing and volume.
package playback

// State represents the transport state.
type State int

const (
	StateStopped State = iota // Nothing playing (no track, or playback failed)
	StatePlaying              // Track is playing
	StatePaused               // Track is paused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
