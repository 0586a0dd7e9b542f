package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voicebank/gateway/internal/tools"
	"github.com/voicebank/gateway/internal/upstream"
)

type clientWrite struct {
	json any
	bin  []byte
}

// fakeClient serves scripted frames, then either fails with readErr or
// times out forever.
type fakeClient struct {
	mu      sync.Mutex
	frames  []Frame
	readErr error
	writes  []clientWrite
	closed  int
}

func (c *fakeClient) Read(timeout time.Duration) (Frame, error) {
	c.mu.Lock()
	if len(c.frames) > 0 {
		f := c.frames[0]
		c.frames = c.frames[1:]
		c.mu.Unlock()
		return f, nil
	}
	err := c.readErr
	c.mu.Unlock()
	if err != nil {
		return Frame{}, err
	}
	time.Sleep(time.Millisecond)
	return Frame{}, ErrReadTimeout
}

func (c *fakeClient) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, clientWrite{json: v})
	return nil
}

func (c *fakeClient) WriteBinary(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, clientWrite{bin: data})
	return nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *fakeClient) allWrites() []clientWrite {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]clientWrite, len(c.writes))
	copy(out, c.writes)
	return out
}

// fakeUpstream serves scripted events, then either fails with recvErr or
// times out forever.
type fakeUpstream struct {
	mu      sync.Mutex
	events  []upstream.Event
	recvErr error
	texts   []string
	audio   [][]byte
	batches [][]upstream.FunctionResult
	closed  int
}

func (u *fakeUpstream) Recv(timeout time.Duration) (upstream.Event, error) {
	u.mu.Lock()
	if len(u.events) > 0 {
		ev := u.events[0]
		u.events = u.events[1:]
		u.mu.Unlock()
		return ev, nil
	}
	err := u.recvErr
	u.mu.Unlock()
	if err != nil {
		return upstream.Event{}, err
	}
	time.Sleep(time.Millisecond)
	return upstream.Event{}, upstream.ErrTimeout
}

func (u *fakeUpstream) SendText(text string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.texts = append(u.texts, text)
	return nil
}

func (u *fakeUpstream) SendAudio(pcm []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.audio = append(u.audio, pcm)
	return nil
}

func (u *fakeUpstream) SendToolResults(results []upstream.FunctionResult) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.batches = append(u.batches, results)
	return nil
}

func (u *fakeUpstream) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.closed++
	return nil
}

func newTestOrchestrator(client *fakeClient, up *fakeUpstream, d Dispatcher) *Orchestrator {
	return New(Config{
		Client:       client,
		Upstream:     up,
		Tools:        d,
		PollInterval: 5 * time.Millisecond,
	})
}

func TestRunStreamsTranscriptsAndAudio(t *testing.T) {
	client := &fakeClient{readErr: nil}
	up := &fakeUpstream{
		events: []upstream.Event{
			{Kind: upstream.EventInputTranscript, Text: "check "},
			{Kind: upstream.EventInputTranscript, Text: "balance"},
			{Kind: upstream.EventAudio, Audio: []byte{0x01, 0x02}},
			{Kind: upstream.EventOutputTranscript, Text: "Sure."},
			{Kind: upstream.EventGenerationComplete},
			{Kind: upstream.EventTurnComplete},
		},
		recvErr: upstream.ErrClosed,
	}

	o := newTestOrchestrator(client, up, tools.NewRegistry(nil))
	o.Run(context.Background())

	require.Equal(t, StateClosed, o.State())
	require.Equal(t, 1, client.closed)
	require.Equal(t, 1, up.closed)

	writes := client.allWrites()
	require.Len(t, writes, 6)

	first := writes[0].json.(TranscriptUpdate)
	second := writes[1].json.(TranscriptUpdate)
	require.Equal(t, "check ", first.Text)
	require.Equal(t, "check balance", second.Text)
	require.Equal(t, first.ID, second.ID)
	require.False(t, second.IsFinal)

	require.Equal(t, []byte{0x01, 0x02}, writes[2].bin)

	model := writes[3].json.(TranscriptUpdate)
	require.Equal(t, SenderModel, model.Sender)

	modelFinal := writes[4].json.(TranscriptUpdate)
	require.True(t, modelFinal.IsFinal)
	require.Equal(t, model.ID, modelFinal.ID)

	userFinal := writes[5].json.(TranscriptUpdate)
	require.True(t, userFinal.IsFinal)
	require.Equal(t, first.ID, userFinal.ID)
	require.Equal(t, "check balance", userFinal.Text)
}

func TestResumptionHandleOverwrite(t *testing.T) {
	client := &fakeClient{}
	up := &fakeUpstream{
		events: []upstream.Event{
			{Kind: upstream.EventResumptionUpdate, ResumptionHandle: "h1", Resumable: true},
			{Kind: upstream.EventResumptionUpdate, ResumptionHandle: "h2", Resumable: true},
			{Kind: upstream.EventResumptionUpdate, ResumptionHandle: "h3", Resumable: false},
			{Kind: upstream.EventResumptionUpdate, Resumable: true},
		},
		recvErr: upstream.ErrClosed,
	}

	o := newTestOrchestrator(client, up, tools.NewRegistry(nil))
	o.Run(context.Background())

	require.Equal(t, "h2", o.ResumptionHandle())
}

func TestInterruptForwardedBeforeAudio(t *testing.T) {
	client := &fakeClient{}
	up := &fakeUpstream{
		events: []upstream.Event{
			{Kind: upstream.EventInterrupted},
			{Kind: upstream.EventAudio, Audio: []byte{0xAA}},
		},
		recvErr: upstream.ErrClosed,
	}

	o := newTestOrchestrator(client, up, tools.NewRegistry(nil))
	o.Run(context.Background())

	writes := client.allWrites()
	require.Len(t, writes, 2)
	require.Equal(t, map[string]string{"type": "interrupt_playback"}, writes[0].json)
	require.Equal(t, []byte{0xAA}, writes[1].bin)
}

func TestToolCallBatchAnsweredInFull(t *testing.T) {
	reg := tools.NewRegistry(nil)
	reg.Register(upstream.FunctionDeclaration{Name: "get_account_balance"},
		func(ctx context.Context, args map[string]any) map[string]any {
			return map[string]any{"status": "success", "balance": 500.0}
		})

	client := &fakeClient{}
	up := &fakeUpstream{
		events: []upstream.Event{
			{Kind: upstream.EventToolCall, Calls: []upstream.FunctionCall{
				{ID: "call-1", Name: "get_account_balance", Args: map[string]any{"account_ref": "current"}},
				{ID: "call-2", Name: "no_such_tool"},
			}},
		},
		recvErr: upstream.ErrClosed,
	}

	o := newTestOrchestrator(client, up, reg)
	o.Run(context.Background())

	require.Len(t, up.batches, 1, "all results must go back in one batch")
	batch := up.batches[0]
	require.Len(t, batch, 2)

	require.Equal(t, "call-1", batch[0].ID)
	require.Equal(t, "success", batch[0].Response["status"])

	require.Equal(t, "call-2", batch[1].ID)
	require.Equal(t, "error", batch[1].Response["status"])
	require.Equal(t, "tool not implemented", batch[1].Response["message"])
}

func TestClientFramesForwardedUpstream(t *testing.T) {
	client := &fakeClient{
		frames: []Frame{
			{Kind: FrameText, Data: []byte("hello")},
			{Kind: FrameBinary, Data: []byte{0x10, 0x20}},
		},
		readErr: errors.New("websocket: close 1000"), // hang up after the scripted frames
	}
	up := &fakeUpstream{}

	o := newTestOrchestrator(client, up, tools.NewRegistry(nil))
	o.Run(context.Background())

	require.Equal(t, []string{"hello"}, up.texts)
	require.Equal(t, [][]byte{{0x10, 0x20}}, up.audio)
	require.Equal(t, StateClosed, o.State())
}

func TestUpstreamErrorNotifiesClient(t *testing.T) {
	client := &fakeClient{}
	up := &fakeUpstream{
		events: []upstream.Event{
			{Kind: upstream.EventError, ErrText: "quota exceeded"},
		},
		recvErr: upstream.ErrClosed,
	}

	o := newTestOrchestrator(client, up, tools.NewRegistry(nil))
	o.Run(context.Background())

	writes := client.allWrites()
	require.Len(t, writes, 1)
	require.Equal(t, map[string]string{"type": "error", "message": "quota exceeded"}, writes[0].json)
}

func TestCloseIsIdempotent(t *testing.T) {
	client := &fakeClient{}
	up := &fakeUpstream{recvErr: upstream.ErrClosed}

	o := newTestOrchestrator(client, up, tools.NewRegistry(nil))
	o.Run(context.Background())
	o.Close()
	o.Close()

	require.Equal(t, 1, client.closed)
	require.Equal(t, 1, up.closed)
}

func TestContextCancelStopsLoops(t *testing.T) {
	client := &fakeClient{}
	up := &fakeUpstream{}

	ctx, cancel := context.WithCancel(context.Background())
	o := newTestOrchestrator(client, up, tools.NewRegistry(nil))

	done := make(chan struct{})
	go func() {
		o.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("orchestrator did not stop after context cancellation")
	}
	require.Equal(t, StateClosed, o.State())
}
