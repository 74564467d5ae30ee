// Package player provides the player manager.
// It wires the catalog, the playback session and the notification broker,
// and turns catalog selections into play contexts.
package player

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playbar/internal/app/catalog"
	"github.com/osa030/playbar/internal/app/filter"
	"github.com/osa030/playbar/internal/app/notification"
	"github.com/osa030/playbar/internal/app/playback"
	"github.com/osa030/playbar/internal/domain/track"
	"github.com/osa030/playbar/internal/infra/config"
)

// Manager manages the player.
type Manager struct {
	mu sync.RWMutex

	// Components
	store        *catalog.Store
	session      *playback.Session
	filterChain  *filter.Chain
	notification *notification.Manager

	// Recently played, most recent first
	history     []track.Track
	historySize int

	done      chan struct{}
	closeOnce sync.Once
}

// NewManager creates a player manager driving the given device.
func NewManager(cfg *config.Config, store *catalog.Store, device playback.Device) *Manager {
	notifier := notification.NewManager()
	notifier.SetSendTimeout(cfg.Player.NotifyTimeout())

	m := &Manager{
		store: store,
		session: playback.NewSession(playback.Config{
			DefaultVolume: cfg.Player.Volume(),
			EventBuffer:   cfg.Player.EventBuffer,
		}, device),
		filterChain:  NewFilterChainFromConfig(cfg),
		notification: notifier,
		history:      make([]track.Track, 0),
		historySize:  cfg.Player.HistorySize,
		done:         make(chan struct{}),
	}

	go m.eventLoop()
	return m
}

// Catalog returns the catalog store.
func (m *Manager) Catalog() *catalog.Store {
	return m.store
}

// Session returns the playback session.
func (m *Manager) Session() *playback.Session {
	return m.session
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// Filters returns the active browse filters.
func (m *Manager) Filters() []filter.Filter {
	return m.filterChain.Filters()
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() playback.Snapshot {
	return m.session.Snapshot()
}

// Tracks returns the catalog track list with browse filters applied.
func (m *Manager) Tracks(ctx context.Context) []track.Track {
	return m.filterChain.Apply(ctx, m.store.Tracks())
}

// Search searches the catalog. Matching tracks pass through the browse filters.
func (m *Manager) Search(ctx context.Context, query string) catalog.Results {
	res := m.store.Search(query)
	res.Tracks = m.filterChain.Apply(ctx, res.Tracks)
	return res
}

// PlayTrack plays a single catalog track, keeping the current queue.
func (m *Manager) PlayTrack(trackID string) error {
	t, err := m.store.Track(trackID)
	if err != nil {
		return err
	}
	return m.session.PlayTrack(t)
}

// QuickPlay plays from the full (filtered) track list.
// An empty trackID starts at the first track.
func (m *Manager) QuickPlay(ctx context.Context, trackID string) error {
	return m.playContext("tracks", m.Tracks(ctx), trackID)
}

// PlayAlbum plays an album from trackID, or from its first track.
func (m *Manager) PlayAlbum(ctx context.Context, albumID, trackID string) error {
	a, err := m.store.Album(albumID)
	if err != nil {
		return err
	}
	return m.playContext("album "+albumID, m.filterChain.Apply(ctx, a.Tracks), trackID)
}

// PlayPlaylist plays a playlist from trackID, or from its first track.
func (m *Manager) PlayPlaylist(ctx context.Context, playlistID, trackID string) error {
	p, err := m.store.Playlist(playlistID)
	if err != nil {
		return err
	}
	return m.playContext("playlist "+playlistID, m.filterChain.Apply(ctx, p.Tracks), trackID)
}

// PlayArtist plays an artist's top tracks from trackID, or from the first one.
func (m *Manager) PlayArtist(ctx context.Context, artistID, trackID string) error {
	a, err := m.store.Artist(artistID)
	if err != nil {
		return err
	}
	return m.playContext("artist "+artistID, m.filterChain.Apply(ctx, a.TopTracks), trackID)
}

// PlaySearch plays the track results of query from trackID, or from the first result.
func (m *Manager) PlaySearch(ctx context.Context, query, trackID string) error {
	res := m.Search(ctx, query)
	return m.playContext("search", res.Tracks, trackID)
}

// playContext replaces the queue with tracks and starts trackID from it.
func (m *Manager) playContext(name string, tracks []track.Track, trackID string) error {
	if len(tracks) == 0 {
		return errors.Wrapf(playback.ErrQueueEmpty, "%s", name)
	}

	start := tracks[0]
	if trackID != "" {
		idx := track.IndexOf(tracks, trackID)
		if idx < 0 {
			return errors.Wrapf(playback.ErrTrackNotInQueue, "track %s in %s", trackID, name)
		}
		start = tracks[idx]
	}

	zlog.Debug().Msgf("player: play context: context=%s track=%s size=%d", name, start.ID, len(tracks))
	return m.session.PlayTrackFrom(start, tracks)
}

// TogglePlayback pauses when playing and resumes when paused.
// A stopped track (after a playback failure) is restarted. No-op without a track.
func (m *Manager) TogglePlayback() error {
	snap := m.session.Snapshot()
	switch {
	case snap.CurrentTrack == nil:
		return nil
	case snap.Transport == playback.StatePlaying:
		return m.session.Pause()
	case snap.Transport == playback.StatePaused:
		return m.session.Resume()
	default:
		return m.session.PlayTrack(*snap.CurrentTrack)
	}
}

// History returns recently played tracks, most recent first.
func (m *Manager) History() []track.Track {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]track.Track(nil), m.history...)
}

// Subscribe registers a stream for session notifications.
func (m *Manager) Subscribe(stream notification.Stream) string {
	return m.notification.Subscribe(stream)
}

// Unsubscribe removes a notification subscription.
func (m *Manager) Unsubscribe(id string) {
	m.notification.Unsubscribe(id)
}

// Close closes the session and waits for the event loop to drain.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		err = m.session.Close()
		<-m.done
		zlog.Info().Msgf("player: closed: notifications=%d", m.notification.LastSequenceNo())
		m.notification.Close()
	})
	return err
}

// eventLoop forwards session events to subscribers until the session closes.
func (m *Manager) eventLoop() {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("player: event loop panicked: %v", r)
			// Restart loop so views keep receiving updates
			zlog.Info().Msg("player: restarting event loop")
			go m.eventLoop()
			return
		}
		close(m.done)
	}()

	for event := range m.session.Events() {
		m.handleEvent(event)
	}
}

// handleEvent handles a session event.
func (m *Manager) handleEvent(event playback.Event) {
	snap := event.Snapshot

	switch event.Type {
	case playback.EventTrackChanged:
		if snap.CurrentTrack != nil {
			zlog.Info().Msgf("player: track changed: track=%s title=%s artist=%s index=%d queue=%d",
				snap.CurrentTrack.ID, snap.CurrentTrack.Title, snap.CurrentTrack.Artist, snap.CurrentIndex, len(snap.Queue))
			m.addHistory(*snap.CurrentTrack)
		}

	case playback.EventStateChanged:
		zlog.Info().Msgf("player: state changed: state=%s", snap.Transport)

	case playback.EventQueueEnded:
		zlog.Info().Msgf("player: queue ended: queue=%d", len(snap.Queue))

	case playback.EventPlaybackFailed:
		zlog.Error().Msgf("player: playback failed: error=%v", event.Err)

	case playback.EventVolumeChanged:
		zlog.Debug().Msgf("player: volume changed: volume=%.2f", snap.Volume)
	}

	m.notification.Broadcast(notification.FromEvent(event))
}

func (m *Manager) addHistory(t track.Track) {
	if m.historySize <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if idx := track.IndexOf(m.history, t.ID); idx >= 0 {
		m.history = append(m.history[:idx], m.history[idx+1:]...)
	}
	m.history = append([]track.Track{t}, m.history...)
	if len(m.history) > m.historySize {
		m.history = m.history[:m.historySize]
	}
}
