// Package chat keeps the caller-side record of a conversation and folds
// streamed reply chunks into it.
package chat

import (
	"sync"
	"time"

	"lmchat/internal/manager"
)

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatTurn is one entry of the transcript. Streaming is set while the reply
// is still arriving.
type ChatTurn struct {
	Role      Role
	Text      string
	Streaming bool
	CreatedAt time.Time
}

// Transcript is the ordered list of turns shown to the user. It is safe for
// concurrent use.
type Transcript struct {
	mu    sync.Mutex
	turns []ChatTurn
	now   func() time.Time
}

func NewTranscript() *Transcript { return &Transcript{now: time.Now} }

// NewTranscriptWithSystem starts a transcript whose first turn is the system
// preamble. An empty prompt yields an empty transcript.
func NewTranscriptWithSystem(prompt string) *Transcript {
	t := NewTranscript()
	if prompt != "" {
		t.AddSystem(prompt)
	}
	return t
}

// AddSystem records a completed system turn.
func (t *Transcript) AddSystem(text string) {
	t.mu.Lock()
	t.turns = append(t.turns, ChatTurn{Role: RoleSystem, Text: text, CreatedAt: t.clock()})
	t.mu.Unlock()
}

// AddUser records a completed user turn.
func (t *Transcript) AddUser(text string) {
	t.mu.Lock()
	t.turns = append(t.turns, ChatTurn{Role: RoleUser, Text: text, CreatedAt: t.clock()})
	t.mu.Unlock()
}

// Begin opens a streaming turn for role. A turn left streaming by an earlier
// Begin is finished first.
func (t *Transcript) Begin(role Role) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.turns); n > 0 {
		t.turns[n-1].Streaming = false
	}
	t.turns = append(t.turns, ChatTurn{Role: role, Streaming: true, CreatedAt: t.clock()})
}

// Apply folds chunk into the open turn: a delta is appended, a snapshot
// replaces the text. It is a no-op when no turn is streaming.
func (t *Transcript) Apply(mode manager.StreamMode, chunk string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.turns)
	if n == 0 || !t.turns[n-1].Streaming {
		return
	}
	if mode == manager.ModeSnapshot {
		t.turns[n-1].Text = chunk
		return
	}
	t.turns[n-1].Text += chunk
}

// Finish closes the open turn. The text is kept exactly as streamed.
func (t *Transcript) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.turns); n > 0 && t.turns[n-1].Streaming {
		t.turns[n-1].Streaming = false
	}
}

// Turns returns a copy of the transcript.
func (t *Transcript) Turns() []ChatTurn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]ChatTurn(nil), t.turns...)
}

// Last returns the most recent turn, if any.
func (t *Transcript) Last() (ChatTurn, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.turns) == 0 {
		return ChatTurn{}, false
	}
	return t.turns[len(t.turns)-1], true
}

func (t *Transcript) clock() time.Time {
	if t.now == nil {
		return time.Now()
	}
	return t.now()
}
