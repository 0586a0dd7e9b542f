package trace

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const maxFieldLen = 500

// Tracer records tool events asynchronously via a buffered channel, writing
// to the store (when configured) and to the in-memory ring. All methods are
// nil-safe (no-op on nil receiver), and a full buffer drops the event rather
// than blocking the session: observability must never stall the conversation.
type Tracer struct {
	store     *Store
	ring      *Ring
	sessionID string
	ch        chan ToolEvent
	done      chan struct{}
}

// NewTracer creates a tracer bound to a session. store and ring may each be
// nil. Must call Close when done.
func NewTracer(store *Store, ring *Ring, sessionID string) *Tracer {
	t := &Tracer{
		store:     store,
		ring:      ring,
		sessionID: sessionID,
		ch:        make(chan ToolEvent, 64),
		done:      make(chan struct{}),
	}
	go t.drain()
	return t
}

func (t *Tracer) drain() {
	defer close(t.done)
	for ev := range t.ch {
		if t.ring != nil {
			t.ring.Append(ev)
		}
		if t.store == nil {
			continue
		}
		if err := t.store.CreateToolEvent(ev); err != nil {
			slog.Warn("tool event write failed", "tool", ev.Tool, "error", err)
		}
	}
}

func (t *Tracer) emit(ev ToolEvent) {
	ev.ID = uuid.NewString()
	ev.SessionID = t.sessionID
	ev.At = time.Now().UTC()
	select {
	case t.ch <- ev:
	default:
	}
}

// ToolStart records the beginning of a tool dispatch.
func (t *Tracer) ToolStart(tool string, params map[string]any) {
	if t == nil {
		return
	}
	t.emit(ToolEvent{
		EventType: EventInvocationStart,
		Tool:      tool,
		Params:    compactJSON(params),
	})
}

// ToolEnd records a finished dispatch with its result status.
func (t *Tracer) ToolEnd(tool string, params map[string]any, status string, result map[string]any) {
	if t == nil {
		return
	}
	t.emit(ToolEvent{
		EventType: EventInvocationEnd,
		Tool:      tool,
		Params:    compactJSON(params),
		Status:    status,
		Response:  compactJSON(result),
	})
}

// Resolution records how a free-text reference resolved.
func (t *Tracer) Resolution(entity, reference, outcome string) {
	if t == nil {
		return
	}
	t.emit(ToolEvent{
		EventType: EventResolution,
		Tool:      entity,
		Params:    truncate(reference, maxFieldLen),
		Status:    outcome,
	})
}

// Close drains pending writes and shuts down the background goroutine.
func (t *Tracer) Close() {
	if t == nil {
		return
	}
	close(t.ch)
	<-t.done
}

func compactJSON(v map[string]any) string {
	if len(v) == 0 {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return truncate(string(data), maxFieldLen)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
