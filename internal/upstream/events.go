// Package upstream is the client for the AI engine's bidirectional streaming
// session. One websocket carries audio and text both ways; the engine streams
// back synthesized audio, live transcriptions, tool-call requests, and
// session-resumption handles.
package upstream

import "errors"

// ErrTimeout reports that no server frame arrived within the Recv wait. It
// is the orchestrator's poll tick, not a failure.
var ErrTimeout = errors.New("upstream: receive timed out")

// ErrClosed reports that the session websocket is gone.
var ErrClosed = errors.New("upstream: session closed")

// EventKind discriminates server events.
type EventKind int

const (
	// EventAudio carries a chunk of synthesized speech.
	EventAudio EventKind = iota
	// EventInterrupted signals the user talked over the model; queued
	// playback should stop.
	EventInterrupted
	// EventInputTranscript carries a fragment of the user's speech
	// transcription.
	EventInputTranscript
	// EventOutputTranscript carries a fragment of the model's spoken reply.
	EventOutputTranscript
	// EventGenerationComplete marks the end of the model's reply text.
	EventGenerationComplete
	// EventTurnComplete marks the end of the whole conversational turn.
	EventTurnComplete
	// EventResumptionUpdate delivers a new session-resumption handle.
	EventResumptionUpdate
	// EventToolCall requests execution of one or more functions.
	EventToolCall
	// EventError carries a fatal error reported by the engine.
	EventError
)

var eventKindNames = map[EventKind]string{
	EventAudio:              "audio",
	EventInterrupted:        "interrupted",
	EventInputTranscript:    "input_transcript",
	EventOutputTranscript:   "output_transcript",
	EventGenerationComplete: "generation_complete",
	EventTurnComplete:       "turn_complete",
	EventResumptionUpdate:   "resumption_update",
	EventToolCall:           "tool_call",
	EventError:              "error",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// FunctionCall is one requested tool invocation inside a tool-call batch.
type FunctionCall struct {
	ID   string
	Name string
	Args map[string]any
}

// FunctionResult answers one FunctionCall; ID must echo the call's ID.
type FunctionResult struct {
	ID       string
	Name     string
	Response map[string]any
}

// Event is a decoded server event. Only the fields relevant to Kind are set.
type Event struct {
	Kind             EventKind
	Audio            []byte
	Text             string
	ResumptionHandle string
	Resumable        bool
	Calls            []FunctionCall
	ErrText          string
}
