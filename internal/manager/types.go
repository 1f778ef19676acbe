package manager

import "time"

// State represents the lifecycle state of the session.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	// StateSending is Ready with one turn in flight.
	StateSending State = "sending"
	StateClosed  State = "closed"
)

// Backend is a compute target the engine runs on.
type Backend string

const (
	BackendGPU Backend = "gpu"
	BackendCPU Backend = "cpu"
)

// StreamMode describes how an engine emits a response.
type StreamMode string

const (
	// ModeDelta chunks are incremental pieces; the transcript is their concatenation.
	ModeDelta StreamMode = "delta"
	// ModeSnapshot chunks each carry the whole response so far.
	ModeSnapshot StreamMode = "snapshot"
)

// Roles used for conversation turns.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message submitted to or produced by a conversation.
type Turn struct {
	Role string
	Text string
}

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State      State
	Backend    Backend
	ModelPath  string
	SessionID  string
	Turns      int
	ReadySince time.Time
	Err        string
}
