package manager

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Manager owns at most one engine and one conversation. Both are present
// while the session is ready and both are absent otherwise.
type Manager struct {
	mu         sync.RWMutex
	state      State
	err        string
	engine     Engine
	conv       Conversation
	backend    Backend
	modelPath  string
	sessionID  string
	turns      int
	readySince time.Time
	active     *Stream

	// lifeMu serializes Initialize against Cleanup/Close.
	lifeMu    sync.Mutex
	initGroup singleflight.Group

	// genCh has capacity 1: a token in it means a turn is in flight.
	genCh chan struct{}

	adapter      EngineAdapter
	backends     []Backend
	cacheDir     string
	vision       Backend
	audio        Backend
	ctxSize      int
	threads      int
	params       GenerationParams
	systemPrompt string

	publisher EventPublisher
	log       zerolog.Logger
	startTime time.Time
}

// Ready reports whether Send can be called (no turn in flight is not required).
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateReady || m.state == StateSending
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Backends returns the configured preference order.
func (m *Manager) Backends() []Backend {
	return append([]Backend(nil), m.backends...)
}
