package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voicebank/gateway/internal/metrics"
	"github.com/voicebank/gateway/internal/upstream"
)

// State is the session lifecycle phase.
type State int32

const (
	// StateConnecting covers the window between construction and Run.
	StateConnecting State = iota
	// StateActive means both pump loops are running.
	StateActive
	// StateDraining means one side has ended and the other is winding down.
	StateDraining
	// StateClosed means both connections are torn down.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Upstream is the engine-facing side of a session, satisfied by
// *upstream.Session.
type Upstream interface {
	Recv(timeout time.Duration) (upstream.Event, error)
	SendText(text string) error
	SendAudio(pcm []byte) error
	SendToolResults(results []upstream.FunctionResult) error
	Close() error
}

// Dispatcher executes one tool call. Implementations never return an error;
// failures are encoded in the result map so the conversation continues.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, args map[string]any) map[string]any
}

const defaultPollInterval = 200 * time.Millisecond

// Config wires one session together.
type Config struct {
	Client   ClientConn
	Upstream Upstream
	Tools    Dispatcher
	// PollInterval bounds each blocking read on either connection. It is
	// the only cancellation mechanism the loops have: a shorter interval
	// reacts faster to the other side ending, at the cost of more wakeups.
	PollInterval time.Duration
}

// Orchestrator runs the two pump loops of one conversation. The inbound
// loop forwards client frames upstream; the outbound loop decodes engine
// events into client messages and tool dispatches. The loops share a single
// active flag: whichever side ends the conversation flips it, and the other
// loop notices within one poll interval.
type Orchestrator struct {
	client ClientConn
	up     Upstream
	tools  Dispatcher
	poll   time.Duration

	active atomic.Bool
	state  atomic.Int32
	acc    *Accumulator

	handleMu sync.Mutex
	handle   string

	closeOnce sync.Once
}

func New(cfg Config) *Orchestrator {
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	return &Orchestrator{
		client: cfg.Client,
		up:     cfg.Upstream,
		tools:  cfg.Tools,
		poll:   poll,
		acc:    NewAccumulator(),
	}
}

// State reports the current lifecycle phase.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// ResumptionHandle returns the most recent resumable handle delivered by
// the engine, or empty if none arrived. Valid to call after Run returns;
// a reconnecting client can hand it to the next session's dial.
func (o *Orchestrator) ResumptionHandle() string {
	o.handleMu.Lock()
	defer o.handleMu.Unlock()
	return o.handle
}

// Run drives the session until the client hangs up, the engine ends it, or
// ctx is cancelled. Both connections are closed before it returns.
func (o *Orchestrator) Run(ctx context.Context) {
	o.active.Store(true)
	o.state.Store(int32(StateActive))

	metrics.SessionsActive.Inc()
	metrics.SessionsTotal.Inc()
	started := time.Now()
	defer func() {
		metrics.SessionsActive.Dec()
		metrics.SessionDuration.Observe(time.Since(started).Seconds())
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		o.pumpClient(ctx)
	}()
	go func() {
		defer wg.Done()
		o.pumpUpstream(ctx)
	}()
	wg.Wait()

	o.Close()
}

// Close tears down both connections. Safe to call more than once and
// concurrently with Run.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.active.Store(false)
		o.state.Store(int32(StateClosed))
		if err := o.up.Close(); err != nil {
			slog.Debug("upstream close", "error", err)
		}
		if err := o.client.Close(); err != nil {
			slog.Debug("client close", "error", err)
		}
	})
}

func (o *Orchestrator) running(ctx context.Context) bool {
	return o.active.Load() && ctx.Err() == nil
}

// deactivate flips the shared flag; the other loop exits within one poll.
func (o *Orchestrator) deactivate() {
	o.active.Store(false)
	o.state.CompareAndSwap(int32(StateActive), int32(StateDraining))
}

// pumpClient forwards client frames to the engine: text frames become
// conversation turns, binary frames raw audio.
func (o *Orchestrator) pumpClient(ctx context.Context) {
	for o.running(ctx) {
		frame, err := o.client.Read(o.poll)
		if errors.Is(err, ErrReadTimeout) {
			continue
		}
		if err != nil {
			slog.Info("client connection ended", "error", err)
			o.deactivate()
			return
		}

		switch frame.Kind {
		case FrameText:
			if err := o.up.SendText(string(frame.Data)); err != nil {
				slog.Error("forward text upstream", "error", err)
				o.deactivate()
				return
			}
		case FrameBinary:
			if err := o.up.SendAudio(frame.Data); err != nil {
				slog.Error("forward audio upstream", "error", err)
				o.deactivate()
				return
			}
			metrics.AudioChunksIn.Inc()
		}
	}
}

// pumpUpstream decodes engine events and fans them out to the client and
// the tool dispatcher.
func (o *Orchestrator) pumpUpstream(ctx context.Context) {
	for o.running(ctx) {
		ev, err := o.up.Recv(o.poll)
		if errors.Is(err, upstream.ErrTimeout) {
			continue
		}
		if err != nil {
			if !errors.Is(err, upstream.ErrClosed) {
				slog.Error("upstream receive", "error", err)
				o.notifyError("upstream connection lost")
			}
			o.deactivate()
			return
		}

		metrics.UpstreamEvents.WithLabelValues(ev.Kind.String()).Inc()

		if err := o.handleEvent(ctx, ev); err != nil {
			slog.Error("handle upstream event", "kind", ev.Kind.String(), "error", err)
			o.deactivate()
			return
		}
	}
}

func (o *Orchestrator) handleEvent(ctx context.Context, ev upstream.Event) error {
	switch ev.Kind {
	case upstream.EventResumptionUpdate:
		// Only a resumable handle overwrites; a non-resumable update
		// keeps the last good one.
		if ev.Resumable && ev.ResumptionHandle != "" {
			o.handleMu.Lock()
			o.handle = ev.ResumptionHandle
			o.handleMu.Unlock()
			metrics.SessionResumptions.Inc()
		}

	case upstream.EventInterrupted:
		metrics.Interruptions.Inc()
		return o.client.WriteJSON(map[string]string{"type": "interrupt_playback"})

	case upstream.EventAudio:
		metrics.AudioChunksOut.Inc()
		return o.client.WriteBinary(ev.Audio)

	case upstream.EventInputTranscript:
		if upd, ok := o.acc.Append(SenderUser, ev.Text); ok {
			metrics.TranscriptUpdates.WithLabelValues(SenderUser).Inc()
			return o.client.WriteJSON(upd)
		}

	case upstream.EventOutputTranscript:
		if upd, ok := o.acc.Append(SenderModel, ev.Text); ok {
			metrics.TranscriptUpdates.WithLabelValues(SenderModel).Inc()
			return o.client.WriteJSON(upd)
		}

	case upstream.EventGenerationComplete:
		if upd, ok := o.acc.Finalize(SenderModel); ok {
			metrics.TranscriptUpdates.WithLabelValues(SenderModel).Inc()
			return o.client.WriteJSON(upd)
		}

	case upstream.EventTurnComplete:
		var werr error
		if upd, ok := o.acc.Finalize(SenderUser); ok {
			metrics.TranscriptUpdates.WithLabelValues(SenderUser).Inc()
			werr = o.client.WriteJSON(upd)
		}
		o.acc.ResetTurn()
		return werr

	case upstream.EventToolCall:
		return o.handleToolCall(ctx, ev.Calls)

	case upstream.EventError:
		slog.Error("engine reported error", "message", ev.ErrText)
		o.notifyError(ev.ErrText)
		o.deactivate()
	}
	return nil
}

// handleToolCall answers a tool-call batch. The engine expects exactly one
// response per requested call, delivered as a single message; a partial
// batch would desynchronize the turn, so every call is dispatched and
// answered before anything is sent back.
func (o *Orchestrator) handleToolCall(ctx context.Context, calls []upstream.FunctionCall) error {
	results := make([]upstream.FunctionResult, 0, len(calls))
	for _, fc := range calls {
		resp := o.tools.Dispatch(ctx, fc.Name, fc.Args)
		results = append(results, upstream.FunctionResult{
			ID:       fc.ID,
			Name:     fc.Name,
			Response: resp,
		})
	}
	if len(results) == 0 {
		return nil
	}
	return o.up.SendToolResults(results)
}

// notifyError tells the client the session is going away. Send failures are
// ignored; the session is already tearing down.
func (o *Orchestrator) notifyError(msg string) {
	if msg == "" {
		msg = "session error"
	}
	if err := o.client.WriteJSON(map[string]string{"type": "error", "message": msg}); err != nil {
		slog.Debug("error notice not delivered", "error", err)
	}
}
