package trace

import "time"

// Session represents one client WebSocket connection.
type Session struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	EventCount int        `json:"event_count,omitempty"`
}

// Event type tags. Every tool dispatch produces a start/end pair; resolution
// events record how a free-text reference was matched.
const (
	EventInvocationStart = "INVOCATION_START"
	EventInvocationEnd   = "INVOCATION_END"
	EventResolution      = "RESOLUTION"
)

// ToolEvent is one observability record emitted during a session.
type ToolEvent struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	EventType string    `json:"event_type"`
	Tool      string    `json:"tool"`
	Params    string    `json:"params,omitempty"`
	Status    string    `json:"status,omitempty"`
	Response  string    `json:"response,omitempty"`
	At        time.Time `json:"at"`
}
