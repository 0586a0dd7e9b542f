package trace

import "sync"

// Ring keeps the most recent tool events in memory for the live event feed.
// Safe for concurrent use.
type Ring struct {
	mu     sync.Mutex
	events []ToolEvent
	cap    int
}

// NewRing creates a ring holding at most capacity events.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 500
	}
	return &Ring{cap: capacity}
}

// Append records one event, evicting the oldest when full.
func (r *Ring) Append(ev ToolEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if len(r.events) > r.cap {
		r.events = r.events[len(r.events)-r.cap:]
	}
}

// Snapshot returns a copy of the buffered events, oldest first.
func (r *Ring) Snapshot() []ToolEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ToolEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Clear empties the buffer.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
