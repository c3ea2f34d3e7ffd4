// Package notify delivers named events to a user's room, tolerating the
// window during process startup when the socket server is not yet built.
package notify

import "sync"

// Transport is the live delivery surface, satisfied by the socketio package.
type Transport interface {
	Emit(room string, event string, payload ...any)
}

type entry struct {
	userID  string
	event   string
	payload []any
}

// Notifier buffers targeted events while the transport is absent and flushes
// them in FIFO order exactly once when it becomes ready. The queue is
// unbounded and process-lifetime; entries lost on restart are acceptable
// because every notification has a persisted row behind it.
type Notifier struct {
	mu        sync.Mutex
	transport Transport
	queue     []entry
}

func New() *Notifier {
	return &Notifier{}
}

// EmitToUser emits immediately when the transport exists, otherwise queues.
func (n *Notifier) EmitToUser(userID string, event string, payload ...any) {
	n.mu.Lock()
	if n.transport == nil {
		n.queue = append(n.queue, entry{userID: userID, event: event, payload: payload})
		n.mu.Unlock()
		return
	}
	t := n.transport
	n.mu.Unlock()

	t.Emit(userID, event, payload...)
}

// OnTransportReady stores the transport and drains the queue in order.
func (n *Notifier) OnTransportReady(t Transport) {
	n.mu.Lock()
	n.transport = t
	pending := n.queue
	n.queue = nil
	n.mu.Unlock()

	for _, e := range pending {
		t.Emit(e.userID, e.event, e.payload...)
	}
}

// Pending returns the number of queued entries.
func (n *Notifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.queue)
}
