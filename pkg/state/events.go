package state

import (
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

// EventSnapshotRefreshed signals that the full snapshot was replaced.
const EventSnapshotRefreshed = "snapshot.refreshed"

// Event is a republication notice. It carries no state: consumers re-read the
// current snapshot reference instead of patching from events.
type Event struct {
	Type  string    `json:"type"`
	At    time.Time `json:"at"`
	Count int       `json:"count"`
}

// eventHub fans refresh events out to in-process subscribers. Slow consumers
// drop events rather than block a refresh; they catch up on the next read.
type eventHub struct {
	nextID atomic.Uint64
	subs   *xsync.Map[uint64, chan Event]
}

func newEventHub() *eventHub {
	return &eventHub{subs: xsync.NewMap[uint64, chan Event]()}
}

func (h *eventHub) subscribe() (<-chan Event, func()) {
	id := h.nextID.Add(1)
	ch := make(chan Event, 8)
	h.subs.Store(id, ch)
	// The channel is never closed: notify may be sending on it concurrently
	// with cancel, and a send on a closed channel panics. Cancel only
	// unregisters; subscribers leave through their own done signal.
	return ch, func() {
		h.subs.Delete(id)
	}
}

func (h *eventHub) notify(ev Event) {
	h.subs.Range(func(_ uint64, ch chan Event) bool {
		select {
		case ch <- ev:
		default:
		}
		return true
	})
}
