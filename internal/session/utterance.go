package session

import "github.com/google/uuid"

// Speaker labels in transcript updates sent to the client.
const (
	SenderUser  = "user"
	SenderModel = "model"
)

const (
	typeUserUpdate  = "user_transcription_update"
	typeModelUpdate = "model_response_update"
)

// TranscriptUpdate is the streaming transcript payload sent to the client.
// Text always carries the full accumulated utterance so far, not the
// fragment, so the client can replace rather than append.
type TranscriptUpdate struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Sender  string `json:"sender"`
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
}

type utterance struct {
	id   string
	text string
}

// Accumulator tracks the in-progress utterance for each speaker. The engine
// streams transcription fragments; the accumulator assigns an utterance ID
// at the first fragment and keeps it stable until the utterance is
// finalized, so the client can correlate successive updates.
type Accumulator struct {
	user  utterance
	model utterance

	newID func() string
}

func NewAccumulator() *Accumulator {
	return &Accumulator{newID: uuid.NewString}
}

// Append folds a transcription fragment into the speaker's utterance and
// returns the non-final update to stream. An empty fragment produces
// nothing and does not start an utterance.
func (a *Accumulator) Append(sender, fragment string) (TranscriptUpdate, bool) {
	if fragment == "" {
		return TranscriptUpdate{}, false
	}
	u := a.speaker(sender)
	if u.id == "" {
		u.id = a.newID()
		u.text = ""
	}
	u.text += fragment
	return a.update(sender, *u, false), true
}

// Finalize closes out the speaker's utterance. It returns the final update
// only when an utterance is actually in flight with accumulated text; a
// bare completion signal with nothing spoken produces no update. The
// speaker's state is reset either way.
func (a *Accumulator) Finalize(sender string) (TranscriptUpdate, bool) {
	u := a.speaker(sender)
	id, text := u.id, u.text
	*u = utterance{}
	if id == "" || text == "" {
		return TranscriptUpdate{}, false
	}
	return a.update(sender, utterance{id: id, text: text}, true), true
}

// ResetTurn drops any in-flight utterance for both speakers. Called at turn
// boundaries so a stale partial cannot leak into the next turn.
func (a *Accumulator) ResetTurn() {
	a.user = utterance{}
	a.model = utterance{}
}

func (a *Accumulator) speaker(sender string) *utterance {
	if sender == SenderModel {
		return &a.model
	}
	return &a.user
}

func (a *Accumulator) update(sender string, u utterance, final bool) TranscriptUpdate {
	typ := typeUserUpdate
	if sender == SenderModel {
		typ = typeModelUpdate
	}
	return TranscriptUpdate{
		ID:      u.id,
		Text:    u.text,
		Sender:  sender,
		Type:    typ,
		IsFinal: final,
	}
}
