package distribution

import (
	"sync/atomic"

	"github.com/agentstation/modelcast/internal/catalog"
)

// Subscriber is a live push connection.
// Implementations adapt snapshot delivery to a specific transport
// (WebSocket, SSE, ...).
type Subscriber interface {
	// Send queues a snapshot for delivery. It must not block on the
	// network; a full queue or a dead connection is reported as an error.
	Send(*catalog.Snapshot) error

	// Close shuts the connection down. It may be called more than once.
	Close() error

	// Transport names the transport for logs and metrics.
	Transport() string
}

// State is the lifecycle state of a subscription.
type State int32

// Subscription states. Closed is terminal.
const (
	StateConnecting State = iota
	StateConnected
	StateClosing
	StateError
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	case StateError:
		return "error"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Handle identifies one subscription in the service's subscriber set.
type Handle struct {
	id    uint64
	sub   Subscriber
	state atomic.Int32
}

func newHandle(id uint64, sub Subscriber) *Handle {
	h := &Handle{id: id, sub: sub}
	h.state.Store(int32(StateConnecting))
	return h
}

// ID returns the subscription id, unique within a service.
func (h *Handle) ID() uint64 {
	return h.id
}

// Transport returns the subscriber's transport name.
func (h *Handle) Transport() string {
	return h.sub.Transport()
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	return State(h.state.Load())
}

func (h *Handle) setState(s State) {
	h.state.Store(int32(s))
}

// finish moves the handle through via to closed and closes the subscriber.
// It returns false if the handle was already closed.
func (h *Handle) finish(via State) bool {
	for {
		cur := h.state.Load()
		if State(cur) == StateClosed || State(cur) == StateClosing || State(cur) == StateError {
			return false
		}
		if h.state.CompareAndSwap(cur, int32(via)) {
			break
		}
	}
	_ = h.sub.Close()
	h.setState(StateClosed)
	return true
}
