package upstream

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeResumptionUpdate(t *testing.T) {
	events, err := decodeServerFrame([]byte(`{
		"sessionResumptionUpdate": {"newHandle": "h-123", "resumable": true}
	}`))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, EventResumptionUpdate, events[0].Kind)
	require.Equal(t, "h-123", events[0].ResumptionHandle)
	require.True(t, events[0].Resumable)
}

func TestDecodeInterruptedBeforeAudio(t *testing.T) {
	audio := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
	events, err := decodeServerFrame([]byte(`{
		"serverContent": {
			"interrupted": true,
			"modelTurn": {"parts": [{"inlineData": {"mimeType": "audio/pcm", "data": "` + audio + `"}}]}
		}
	}`))
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, EventInterrupted, events[0].Kind)
	require.Equal(t, EventAudio, events[1].Kind)
	require.Equal(t, []byte{1, 2, 3}, events[1].Audio)
}

func TestDecodeTranscriptions(t *testing.T) {
	events, err := decodeServerFrame([]byte(`{
		"serverContent": {
			"inputTranscription": {"text": "pay my "},
			"outputTranscription": {"text": "Sure, "}
		}
	}`))
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, EventInputTranscript, events[0].Kind)
	require.Equal(t, "pay my ", events[0].Text)
	require.Equal(t, EventOutputTranscript, events[1].Kind)
	require.Equal(t, "Sure, ", events[1].Text)
}

func TestDecodeToolCallBatch(t *testing.T) {
	events, err := decodeServerFrame([]byte(`{
		"toolCall": {"functionCalls": [
			{"id": "c1", "name": "getBalance", "args": {"account_type": "savings"}},
			{"id": "c2", "name": "listRegisteredBillers", "args": {}}
		]}
	}`))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, EventToolCall, events[0].Kind)
	require.Len(t, events[0].Calls, 2)
	require.Equal(t, "c1", events[0].Calls[0].ID)
	require.Equal(t, "getBalance", events[0].Calls[0].Name)
	require.Equal(t, "savings", events[0].Calls[0].Args["account_type"])
}

func TestDecodeTurnBoundaries(t *testing.T) {
	events, err := decodeServerFrame([]byte(`{
		"serverContent": {"generationComplete": true, "turnComplete": true}
	}`))
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, EventGenerationComplete, events[0].Kind)
	require.Equal(t, EventTurnComplete, events[1].Kind)
}

func TestDecodeErrorShortCircuits(t *testing.T) {
	events, err := decodeServerFrame([]byte(`{
		"error": {"code": 8, "message": "quota exhausted"},
		"serverContent": {"turnComplete": true}
	}`))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, EventError, events[0].Kind)
	require.Equal(t, "quota exhausted", events[0].ErrText)
}

func TestDecodeEmptyFrame(t *testing.T) {
	events, err := decodeServerFrame([]byte(`{}`))
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestDecodeMalformedFrame(t *testing.T) {
	_, err := decodeServerFrame([]byte(`not json`))
	require.Error(t, err)
}
