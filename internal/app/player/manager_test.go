package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/playbar/internal/app/catalog"
	"github.com/osa030/playbar/internal/app/notification"
	"github.com/osa030/playbar/internal/app/playback"
	"github.com/osa030/playbar/internal/domain/track"
	"github.com/osa030/playbar/internal/infra/config"
)

// stubDevice accepts every command and never emits events on its own.
type stubDevice struct {
	mu      sync.Mutex
	handler func(playback.DeviceEvent)
	loaded  []playback.Source
	playErr error
}

func (d *stubDevice) Bind(h func(playback.DeviceEvent)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = h
}

func (d *stubDevice) Load(src playback.Source) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded = append(d.loaded, src)
	return nil
}

func (d *stubDevice) Play() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playErr
}

func (d *stubDevice) Pause() error             { return nil }
func (d *stubDevice) Seek(time.Duration) error { return nil }
func (d *stubDevice) SetVolume(float64) error  { return nil }
func (d *stubDevice) Close() error             { return nil }

func (d *stubDevice) setPlayErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playErr = err
}

func (d *stubDevice) ended(gen uint64) {
	d.mu.Lock()
	h := d.handler
	d.mu.Unlock()
	h(playback.DeviceEvent{Type: playback.DeviceEnded, Generation: gen})
}

func (d *stubDevice) lastGeneration() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loaded[len(d.loaded)-1].Generation
}

func newTestManager(t *testing.T, mutate func(*config.Config)) (*Manager, *stubDevice) {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	if mutate != nil {
		mutate(cfg)
	}

	store, err := NewStoreFromConfig(cfg)
	require.NoError(t, err)

	dev := &stubDevice{}
	m := NewManager(cfg, store, dev)
	t.Cleanup(func() { _ = m.Close() })
	return m, dev
}

func currentID(t *testing.T, snap playback.Snapshot) string {
	t.Helper()
	require.NotNil(t, snap.CurrentTrack)
	return snap.CurrentTrack.ID
}

func TestManager_QuickPlay(t *testing.T) {
	ctx := context.Background()

	t.Run("first track", func(t *testing.T) {
		m, _ := newTestManager(t, nil)
		require.NoError(t, m.QuickPlay(ctx, ""))

		snap := m.Snapshot()
		assert.Equal(t, "1", currentID(t, snap))
		assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, track.IDs(snap.Queue))
		assert.True(t, snap.IsPlaying)
	})

	t.Run("chosen track", func(t *testing.T) {
		m, _ := newTestManager(t, nil)
		require.NoError(t, m.QuickPlay(ctx, "3"))

		snap := m.Snapshot()
		assert.Equal(t, "3", currentID(t, snap))
		assert.Equal(t, 2, snap.CurrentIndex)
	})
}

func TestManager_PlayContexts(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		play      func(m *Manager) error
		wantTrack string
		wantQueue []string
		wantIndex int
	}{
		{
			name:      "playlist from start",
			play:      func(m *Manager) error { return m.PlayPlaylist(ctx, "2", "") },
			wantTrack: "3",
			wantQueue: []string{"3", "4", "5", "6"},
			wantIndex: 0,
		},
		{
			name:      "playlist from track",
			play:      func(m *Manager) error { return m.PlayPlaylist(ctx, "1", "4") },
			wantTrack: "4",
			wantQueue: []string{"1", "2", "3", "4"},
			wantIndex: 3,
		},
		{
			name:      "album",
			play:      func(m *Manager) error { return m.PlayAlbum(ctx, "3", "") },
			wantTrack: "3",
			wantQueue: []string{"3"},
		},
		{
			name:      "artist top tracks",
			play:      func(m *Manager) error { return m.PlayArtist(ctx, "2", "") },
			wantTrack: "2",
			wantQueue: []string{"2"},
		},
		{
			name:      "search results",
			play:      func(m *Manager) error { return m.PlaySearch(ctx, "bieber", "6") },
			wantTrack: "6",
			wantQueue: []string{"4", "6"},
			wantIndex: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestManager(t, nil)
			require.NoError(t, tt.play(m))

			snap := m.Snapshot()
			assert.Equal(t, tt.wantTrack, currentID(t, snap))
			assert.Equal(t, tt.wantQueue, track.IDs(snap.Queue))
			assert.Equal(t, tt.wantIndex, snap.CurrentIndex)
		})
	}
}

func TestManager_PlayContextErrors(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, nil)

	err := m.PlayPlaylist(ctx, "9", "")
	assert.True(t, errors.Is(err, catalog.ErrNotFound))

	err = m.PlayAlbum(ctx, "9", "")
	assert.True(t, errors.Is(err, catalog.ErrNotFound))

	err = m.PlayArtist(ctx, "9", "")
	assert.True(t, errors.Is(err, catalog.ErrNotFound))

	err = m.PlayPlaylist(ctx, "2", "1")
	assert.True(t, errors.Is(err, playback.ErrTrackNotInQueue))

	err = m.PlaySearch(ctx, "mozart", "")
	assert.True(t, errors.Is(err, playback.ErrQueueEmpty))

	err = m.PlayTrack("42")
	assert.True(t, errors.Is(err, catalog.ErrNotFound))

	assert.False(t, m.Snapshot().HasTrack(), "failed selections must not start playback")
}

func TestManager_PlayTrackKeepsQueue(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, nil)
	require.NoError(t, m.PlayPlaylist(ctx, "1", "2"))

	require.NoError(t, m.PlayTrack("6"))

	snap := m.Snapshot()
	assert.Equal(t, "6", currentID(t, snap))
	assert.Equal(t, []string{"1", "2", "3", "4"}, track.IDs(snap.Queue))
	assert.Equal(t, 1, snap.CurrentIndex)
}

func TestManager_Filters(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, func(cfg *config.Config) {
		cfg.Filters = map[string]config.FilterConfig{
			"genre_filter": {
				Enabled:  true,
				Settings: map[string]any{"exclude": []any{"Hip Hop"}},
			},
			"duration_limit_filter": {
				Enabled:  true,
				Settings: map[string]any{"min_minutes": -1}, // invalid, skipped
			},
			"unknown_filter": {Enabled: true},
		}
	})

	require.Len(t, m.Filters(), 1)
	assert.Equal(t, "genre_filter", m.Filters()[0].Name())

	assert.Equal(t, []string{"1", "2", "3", "6"}, track.IDs(m.Tracks(ctx)))

	res := m.Search(ctx, "bieber")
	assert.Equal(t, []string{"6"}, track.IDs(res.Tracks))

	require.NoError(t, m.PlayPlaylist(ctx, "2", ""))
	assert.Equal(t, []string{"3", "6"}, track.IDs(m.Snapshot().Queue))

	err := m.QuickPlay(ctx, "5")
	assert.True(t, errors.Is(err, playback.ErrTrackNotInQueue))
}

func TestManager_TogglePlayback(t *testing.T) {
	ctx := context.Background()
	m, dev := newTestManager(t, nil)

	require.NoError(t, m.TogglePlayback())
	assert.False(t, m.Snapshot().HasTrack())

	require.NoError(t, m.QuickPlay(ctx, ""))
	require.NoError(t, m.TogglePlayback())
	assert.Equal(t, playback.StatePaused, m.Snapshot().Transport)

	require.NoError(t, m.TogglePlayback())
	assert.Equal(t, playback.StatePlaying, m.Snapshot().Transport)

	// A failed start leaves the track stopped; toggling retries it.
	dev.setPlayErr(errors.New("device busy"))
	require.NoError(t, m.Session().Next())
	assert.Equal(t, playback.StateStopped, m.Snapshot().Transport)

	dev.setPlayErr(nil)
	require.NoError(t, m.TogglePlayback())
	snap := m.Snapshot()
	assert.Equal(t, "2", currentID(t, snap))
	assert.Equal(t, playback.StatePlaying, snap.Transport)
}

func TestManager_History(t *testing.T) {
	ctx := context.Background()
	m, dev := newTestManager(t, func(cfg *config.Config) {
		cfg.Player.HistorySize = 3
	})

	require.NoError(t, m.QuickPlay(ctx, ""))
	for i := 0; i < 3; i++ {
		dev.ended(dev.lastGeneration())
		m.Snapshot() // applied after the event, so the next load is recorded
	}
	require.NoError(t, m.PlayTrack("2"))

	assert.Eventually(t, func() bool {
		h := m.History()
		return len(h) == 3 && h[0].ID == "2"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"2", "4", "3"}, track.IDs(m.History()))
}

func TestManager_HistoryDisabled(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.historySize = 0

	m.addHistory(track.Track{ID: "1"})
	assert.Empty(t, m.History())
}

func TestManager_Notifications(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, nil)

	stream := notification.NewChanStream(32)
	id := m.Subscribe(stream)
	assert.Equal(t, 1, m.GetNotificationManager().SubscriberCount())

	require.NoError(t, m.QuickPlay(ctx, "2"))

	var got []playback.EventType
	var lastSeq uint64
	timeout := time.After(time.Second)
	for len(got) < 3 {
		select {
		case n := <-stream.C():
			assert.Greater(t, n.SequenceNo, lastSeq)
			lastSeq = n.SequenceNo
			got = append(got, n.Type)
		case <-timeout:
			t.Fatalf("timed out waiting for notifications, got %v", got)
		}
	}
	assert.Equal(t, []playback.EventType{
		playback.EventQueueChanged,
		playback.EventTrackChanged,
		playback.EventStateChanged,
	}, got)

	m.Unsubscribe(id)
	assert.Equal(t, 0, m.GetNotificationManager().SubscriberCount())
}

// stuckStream blocks every send until release is closed.
type stuckStream struct {
	release chan struct{}
}

func (s *stuckStream) Send(*notification.Notification) error {
	<-s.release
	return nil
}

func TestManager_NotifyTimeout(t *testing.T) {
	m, _ := newTestManager(t, func(cfg *config.Config) {
		cfg.Player.NotifyTimeoutMs = 20
	})

	stuck := &stuckStream{release: make(chan struct{})}
	defer close(stuck.release)
	m.Subscribe(stuck)

	stream := notification.NewChanStream(8)
	m.Subscribe(stream)

	start := time.Now()
	for _, v := range []float64{0.1, 0.2, 0.3} {
		require.NoError(t, m.Session().SetVolume(v))
	}

	timeout := time.After(2 * time.Second)
	for received := 0; received < 3; {
		select {
		case n := <-stream.C():
			if n.Type == playback.EventVolumeChanged {
				received++
			}
		case <-timeout:
			t.Fatal("timed out waiting for volume notifications")
		}
	}
	// Three broadcasts at the 500ms default would take at least 1.5s.
	assert.Less(t, time.Since(start), time.Second)
	assert.GreaterOrEqual(t, m.GetNotificationManager().LastSequenceNo(), uint64(3))
}

func TestManager_Close(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	store, err := NewStoreFromConfig(cfg)
	require.NoError(t, err)

	m := NewManager(cfg, store, &stubDevice{})
	m.Subscribe(notification.NewChanStream(1))

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	assert.True(t, errors.Is(m.QuickPlay(context.Background(), ""), playback.ErrClosed))
	assert.Equal(t, 0, m.GetNotificationManager().SubscriberCount())
}
