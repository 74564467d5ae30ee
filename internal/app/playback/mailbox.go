package playback

import "sync"

// message is a unit of work for the session loop: either an operation
// from a caller or an event from the device.
type message struct {
	op    func() error
	reply chan error
	event *DeviceEvent
}

// mailbox is an unbounded FIFO drained by the session loop.
// push never blocks, so device callbacks may run on any goroutine,
// including the loop itself.
type mailbox struct {
	mu     sync.Mutex
	items  []message
	closed bool
	notify chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{
		items:  make([]message, 0),
		notify: make(chan struct{}, 1),
	}
}

// push appends a message. Returns false once the mailbox is closed.
func (m *mailbox) push(msg message) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.items = append(m.items, msg)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return true
}

// take removes and returns all queued messages in arrival order.
func (m *mailbox) take() []message {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.items
	m.items = make([]message, 0)
	return items
}

// close rejects further pushes.
func (m *mailbox) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}
