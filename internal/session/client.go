// Package session pumps one live voice conversation: client audio and text
// flow up to the AI engine, synthesized audio, transcripts, and tool calls
// flow back down. Both directions poll with a bounded timeout so neither
// loop can wedge on a silent peer.
package session

import (
	"errors"
	"time"
)

// ErrReadTimeout reports that no client frame arrived within the Read wait.
// Like the upstream poll tick, it is flow control rather than a failure.
var ErrReadTimeout = errors.New("session: client read timed out")

// FrameKind discriminates client frames.
type FrameKind int

const (
	// FrameText carries a typed message for the model.
	FrameText FrameKind = iota
	// FrameBinary carries a raw PCM audio chunk.
	FrameBinary
)

// Frame is one message read from the client connection.
type Frame struct {
	Kind FrameKind
	Data []byte
}

// ClientConn is the browser-facing side of a session. Implementations wrap
// a websocket; Read must honor the timeout and return ErrReadTimeout when
// nothing arrived. Writes may be called from a different goroutine than
// Read and must be safe against each other.
type ClientConn interface {
	Read(timeout time.Duration) (Frame, error)
	WriteJSON(v any) error
	WriteBinary(data []byte) error
	Close() error
}
