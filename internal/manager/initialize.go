package manager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"lmchat/internal/common/fsutil"
)

// Initialize loads the engine for modelPath and opens the conversation.
// It is a no-op when the session is already ready on the same model, and
// fails with a model conflict when it holds a different one. Concurrent
// callers for one path share one construction. Any failure leaves the manager
// uninitialized with nothing held, and is reported as an engine init error
// wrapping the cause.
func (m *Manager) Initialize(ctx context.Context, modelPath string) error {
	modelPath = cleanModelPath(modelPath)
	m.mu.RLock()
	st, loaded := m.state, m.modelPath
	m.mu.RUnlock()
	switch st {
	case StateReady, StateSending:
		return sameModel(loaded, modelPath)
	case StateClosed:
		return ErrClosed
	}
	_, err, _ := m.initGroup.Do(modelPath, func() (any, error) {
		return nil, m.initialize(ctx, modelPath)
	})
	return err
}

func cleanModelPath(p string) string {
	if strings.TrimSpace(p) == "" {
		return ""
	}
	return filepath.Clean(p)
}

func sameModel(loaded, requested string) error {
	if loaded != requested {
		return modelConflictError{loaded: loaded, requested: requested}
	}
	return nil
}

func (m *Manager) initialize(ctx context.Context, modelPath string) error {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	m.mu.Lock()
	switch m.state {
	case StateReady, StateSending:
		loaded := m.modelPath
		m.mu.Unlock()
		return sameModel(loaded, modelPath)
	case StateClosed:
		m.mu.Unlock()
		return ErrClosed
	}
	m.state = StateInitializing
	m.err = ""
	m.mu.Unlock()

	start := time.Now()
	m.publisher.Publish(Event{Name: "initialize_start", Model: modelPath})
	m.log.Info().Str("model", modelPath).Msg("initializing session")

	eng, conv, backend, err := m.build(ctx, modelPath)
	if err != nil {
		m.mu.Lock()
		m.state = StateUninitialized
		m.err = err.Error()
		m.mu.Unlock()
		m.log.Error().Err(err).Str("model", modelPath).Msg("initialize failed")
		m.publisher.Publish(Event{Name: "initialize_error", Model: modelPath, Fields: map[string]any{"error": err.Error()}})
		return err
	}

	id := uuid.NewString()
	m.mu.Lock()
	m.engine = eng
	m.conv = conv
	m.backend = backend
	m.modelPath = modelPath
	m.sessionID = id
	m.turns = 0
	m.readySince = time.Now()
	m.state = StateReady
	m.mu.Unlock()

	m.log.Info().Str("model", modelPath).Str("backend", string(backend)).Str("session_id", id).Dur("dur", time.Since(start)).Msg("session ready")
	m.publisher.Publish(Event{Name: "initialize_ready", Model: modelPath, Fields: map[string]any{"backend": string(backend), "session_id": id, "dur_ms": time.Since(start).Milliseconds()}})
	return nil
}

// build performs every construction step, releasing partial results on failure.
func (m *Manager) build(ctx context.Context, modelPath string) (Engine, Conversation, Backend, error) {
	if strings.TrimSpace(modelPath) == "" {
		return nil, nil, "", engineInitError{step: "model", err: fmt.Errorf("model path is empty")}
	}
	if !fsutil.FileExists(modelPath) {
		return nil, nil, "", engineInitError{step: "model", err: fmt.Errorf("model file not found: %s", modelPath)}
	}
	if m.cacheDir != "" {
		if err := os.MkdirAll(m.cacheDir, 0o755); err != nil {
			return nil, nil, "", engineInitError{step: "cache", err: err}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, "", engineInitError{step: "start", err: err}
	}
	eng, backend, err := m.startEngine(EngineConfig{
		ModelPath:     modelPath,
		CacheDir:      m.cacheDir,
		VisionBackend: m.vision,
		AudioBackend:  m.audio,
		ContextSize:   m.ctxSize,
		Threads:       m.threads,
	})
	if err != nil {
		return nil, nil, "", engineInitError{step: "engine", err: err}
	}
	conv, err := eng.NewConversation(ConversationConfig{SystemPrompt: m.systemPrompt, Params: m.params})
	if err != nil {
		if cerr := eng.Close(); cerr != nil {
			m.log.Warn().Err(cerr).Msg("engine close after failed conversation")
		}
		return nil, nil, "", engineInitError{step: "conversation", err: err}
	}
	return eng, conv, backend, nil
}
