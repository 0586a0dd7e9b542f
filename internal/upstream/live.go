package upstream

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// pcmMimeType is the only audio format the gateway ships upstream. Client
// audio is forwarded verbatim, so the client must capture at this rate.
const pcmMimeType = "audio/pcm;rate=16000"

// Config carries everything needed to establish a live session.
type Config struct {
	// URL is the engine's websocket endpoint.
	URL string
	// APIKey authenticates the connection, passed as a query parameter.
	APIKey string
	// Model selects the conversational model.
	Model string
	// SystemInstruction primes the model before the first turn.
	SystemInstruction string
	// Tools advertises the callable functions for this session.
	Tools []FunctionDeclaration
	// ResumeHandle, when non-empty, asks the engine to restore a previous
	// session's context.
	ResumeHandle string
	// HandshakeTimeout bounds the dial plus setup acknowledgement.
	HandshakeTimeout time.Duration
}

// Session is one live connection to the engine. Sends are serialized by a
// mutex; Recv must be called from a single goroutine.
type Session struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	// pending holds events already decoded from a frame that carried more
	// than one. Drained before the next read.
	pending []Event

	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the engine, performs the setup exchange, and returns an
// established session.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 15 * time.Second
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("upstream dial: %w", err)
	}
	if cfg.APIKey != "" {
		q := u.Query()
		q.Set("key", cfg.APIKey)
		u.RawQuery = q.Encode()
	}

	dialer := websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("upstream dial: %w", err)
	}

	s := &Session{conn: conn}
	if err := s.setup(cfg); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) setup(cfg Config) error {
	setup := &setupPayload{
		Model:                    cfg.Model,
		GenerationConfig:         &generationConfig{ResponseModalities: []string{"AUDIO"}},
		InputAudioTranscription:  &struct{}{},
		OutputAudioTranscription: &struct{}{},
	}
	if cfg.SystemInstruction != "" {
		setup.SystemInstruction = &content{Parts: []part{{Text: cfg.SystemInstruction}}}
	}
	if len(cfg.Tools) > 0 {
		setup.Tools = []toolDeclarations{{FunctionDeclarations: cfg.Tools}}
	}
	if cfg.ResumeHandle != "" {
		setup.SessionResumption = &sessionResumption{Handle: cfg.ResumeHandle}
	} else {
		setup.SessionResumption = &sessionResumption{}
	}

	if err := s.writeJSON(clientMessage{Setup: setup}); err != nil {
		return fmt.Errorf("upstream setup: %w", err)
	}

	s.conn.SetReadDeadline(time.Now().Add(cfg.HandshakeTimeout))
	defer s.conn.SetReadDeadline(time.Time{})

	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("upstream setup ack: %w", err)
	}
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("upstream setup ack decode: %w", err)
	}
	if msg.Error != nil {
		return fmt.Errorf("upstream setup rejected: %s", msg.Error.Message)
	}
	if msg.SetupComplete == nil {
		return fmt.Errorf("upstream setup: unexpected first frame")
	}
	return nil
}

// Recv returns the next server event, waiting at most timeout for a frame.
// ErrTimeout means nothing arrived; the caller is expected to poll again.
// A single frame can decode into several events; extras are queued and
// returned by subsequent calls before the socket is read again.
func (s *Session) Recv(timeout time.Duration) (Event, error) {
	if len(s.pending) > 0 {
		ev := s.pending[0]
		s.pending = s.pending[1:]
		return ev, nil
	}

	s.conn.SetReadDeadline(time.Now().Add(timeout))
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return Event{}, ErrTimeout
		}
		return Event{}, fmt.Errorf("%w: %v", ErrClosed, err)
	}

	events, err := decodeServerFrame(data)
	if err != nil {
		return Event{}, err
	}
	if len(events) == 0 {
		// Keep-alive or an empty frame; treat like a timeout tick.
		return Event{}, ErrTimeout
	}
	s.pending = events[1:]
	return events[0], nil
}

// decodeServerFrame flattens one server message into ordered events.
// Interruption precedes audio so the client can flush its playback queue
// before new chunks arrive.
func decodeServerFrame(data []byte) ([]Event, error) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("upstream decode: %w", err)
	}

	var events []Event

	if msg.Error != nil {
		return []Event{{Kind: EventError, ErrText: msg.Error.Message}}, nil
	}
	if msg.GoAway != nil {
		return []Event{{Kind: EventError, ErrText: "engine ending session: " + msg.GoAway.TimeLeft}}, nil
	}

	if ru := msg.SessionResumptionUpdate; ru != nil {
		events = append(events, Event{
			Kind:             EventResumptionUpdate,
			ResumptionHandle: ru.NewHandle,
			Resumable:        ru.Resumable,
		})
	}

	if tc := msg.ToolCall; tc != nil && len(tc.FunctionCalls) > 0 {
		calls := make([]FunctionCall, len(tc.FunctionCalls))
		for i, fc := range tc.FunctionCalls {
			calls[i] = FunctionCall{ID: fc.ID, Name: fc.Name, Args: fc.Args}
		}
		events = append(events, Event{Kind: EventToolCall, Calls: calls})
	}

	if sc := msg.ServerContent; sc != nil {
		if sc.Interrupted {
			events = append(events, Event{Kind: EventInterrupted})
		}
		if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
			events = append(events, Event{Kind: EventInputTranscript, Text: sc.InputTranscription.Text})
		}
		if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
			events = append(events, Event{Kind: EventOutputTranscript, Text: sc.OutputTranscription.Text})
		}
		if sc.ModelTurn != nil {
			for _, p := range sc.ModelTurn.Parts {
				if p.InlineData == nil || p.InlineData.Data == "" {
					continue
				}
				audio, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("upstream audio decode: %w", err)
				}
				events = append(events, Event{Kind: EventAudio, Audio: audio})
			}
		}
		if sc.GenerationComplete {
			events = append(events, Event{Kind: EventGenerationComplete})
		}
		if sc.TurnComplete {
			events = append(events, Event{Kind: EventTurnComplete})
		}
	}

	return events, nil
}

// SendText submits a complete typed user turn.
func (s *Session) SendText(text string) error {
	return s.writeJSON(clientMessage{ClientContent: &clientContent{
		Turns:        []content{{Role: "user", Parts: []part{{Text: text}}}},
		TurnComplete: true,
	}})
}

// SendAudio streams one chunk of raw PCM microphone audio.
func (s *Session) SendAudio(pcm []byte) error {
	return s.writeJSON(clientMessage{RealtimeInput: &realtimeInput{
		Audio: &inlineData{
			MimeType: pcmMimeType,
			Data:     base64.StdEncoding.EncodeToString(pcm),
		},
	}})
}

// SendToolResults answers a tool-call batch with one message carrying every
// result.
func (s *Session) SendToolResults(results []FunctionResult) error {
	responses := make([]functionResponse, len(results))
	for i, r := range results {
		responses[i] = functionResponse{ID: r.ID, Name: r.Name, Response: r.Response}
	}
	return s.writeJSON(clientMessage{ToolResponse: &toolResponse{FunctionResponses: responses}})
}

func (s *Session) writeJSON(msg clientMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return nil
}

// Close shuts the session down. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.writeMu.Unlock()
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
