package playback

import (
	"sync"
	"time"
)

// fakeDevice records commands and synthesizes events on demand.
type fakeDevice struct {
	mu      sync.Mutex
	handler func(DeviceEvent)

	loaded  []Source
	plays   int
	pauses  int
	seeks   []time.Duration
	volumes []float64
	closed  bool

	loadErr error
	playErr error
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{}
}

func (d *fakeDevice) Bind(handler func(DeviceEvent)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = handler
}

func (d *fakeDevice) Load(src Source) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loadErr != nil {
		return d.loadErr
	}
	d.loaded = append(d.loaded, src)
	return nil
}

func (d *fakeDevice) Play() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.playErr != nil {
		return d.playErr
	}
	d.plays++
	return nil
}

func (d *fakeDevice) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pauses++
	return nil
}

func (d *fakeDevice) Seek(pos time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seeks = append(d.seeks, pos)
	return nil
}

func (d *fakeDevice) SetVolume(v float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.volumes = append(d.volumes, v)
	return nil
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// generation returns the generation of the most recent load.
func (d *fakeDevice) generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.loaded) == 0 {
		return 0
	}
	return d.loaded[len(d.loaded)-1].Generation
}

func (d *fakeDevice) emit(ev DeviceEvent) {
	d.mu.Lock()
	h := d.handler
	d.mu.Unlock()
	h(ev)
}

func (d *fakeDevice) timeUpdate(gen uint64, pos time.Duration) {
	d.emit(DeviceEvent{Type: DeviceTimeUpdate, Generation: gen, Position: pos})
}

func (d *fakeDevice) metadata(gen uint64, dur time.Duration) {
	d.emit(DeviceEvent{Type: DeviceMetadataLoaded, Generation: gen, Duration: dur})
}

func (d *fakeDevice) ended(gen uint64) {
	d.emit(DeviceEvent{Type: DeviceEnded, Generation: gen})
}

func (d *fakeDevice) lastVolume() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.volumes[len(d.volumes)-1]
}

func (d *fakeDevice) lastSeek() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seeks[len(d.seeks)-1]
}

func (d *fakeDevice) counts() (loads, plays, pauses int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.loaded), d.plays, d.pauses
}
