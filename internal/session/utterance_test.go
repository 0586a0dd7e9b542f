package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccumulatorKeepsIDAcrossFragments(t *testing.T) {
	acc := NewAccumulator()

	first, ok := acc.Append(SenderUser, "what is ")
	require.True(t, ok)
	require.NotEmpty(t, first.ID)
	require.Equal(t, "what is ", first.Text)
	require.Equal(t, SenderUser, first.Sender)
	require.Equal(t, "user_transcription_update", first.Type)
	require.False(t, first.IsFinal)

	second, ok := acc.Append(SenderUser, "my balance")
	require.True(t, ok)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "what is my balance", second.Text)
}

func TestAccumulatorSpeakersAreIndependent(t *testing.T) {
	acc := NewAccumulator()

	user, _ := acc.Append(SenderUser, "hello")
	model, _ := acc.Append(SenderModel, "Hi Alex")

	require.NotEqual(t, user.ID, model.ID)
	require.Equal(t, "model_response_update", model.Type)
	require.Equal(t, SenderModel, model.Sender)
}

func TestAccumulatorIgnoresEmptyFragment(t *testing.T) {
	acc := NewAccumulator()

	_, ok := acc.Append(SenderUser, "")
	require.False(t, ok)

	// An empty fragment must not have started an utterance.
	_, ok = acc.Finalize(SenderUser)
	require.False(t, ok)
}

func TestAccumulatorFinalizeEmitsOnceAndResets(t *testing.T) {
	acc := NewAccumulator()

	upd, _ := acc.Append(SenderModel, "Your balance is 500 GBP.")

	final, ok := acc.Finalize(SenderModel)
	require.True(t, ok)
	require.Equal(t, upd.ID, final.ID)
	require.Equal(t, "Your balance is 500 GBP.", final.Text)
	require.True(t, final.IsFinal)

	// A second completion signal with nothing accumulated is silent.
	_, ok = acc.Finalize(SenderModel)
	require.False(t, ok)

	// The next utterance gets a fresh ID.
	next, ok := acc.Append(SenderModel, "Anything else?")
	require.True(t, ok)
	require.NotEqual(t, final.ID, next.ID)
}

func TestAccumulatorResetTurnClearsBothSpeakers(t *testing.T) {
	acc := NewAccumulator()

	acc.Append(SenderUser, "pay my")
	acc.Append(SenderModel, "Sure,")
	acc.ResetTurn()

	_, ok := acc.Finalize(SenderUser)
	require.False(t, ok)
	_, ok = acc.Finalize(SenderModel)
	require.False(t, ok)
}
