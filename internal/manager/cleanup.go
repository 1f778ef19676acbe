package manager

import (
	"fmt"
	"time"
)

// Cleanup stops any live stream and releases the conversation and then the
// engine. Either may already be absent. Release failures are logged and
// published, never returned. The manager always ends uninitialized (or stays
// closed). Calling Cleanup repeatedly is a no-op.
func (m *Manager) Cleanup() {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()
	m.cleanupLocked()
}

// Close cleans up and moves the manager to its terminal state.
func (m *Manager) Close() error {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()
	m.cleanupLocked()
	m.mu.Lock()
	m.state = StateClosed
	m.mu.Unlock()
	return nil
}

func (m *Manager) cleanupLocked() {
	m.mu.Lock()
	active, conv, eng, model := m.active, m.conv, m.engine, m.modelPath
	m.active, m.conv, m.engine = nil, nil, nil
	had := conv != nil || eng != nil
	if m.state != StateClosed {
		m.state = StateUninitialized
	}
	m.backend = ""
	m.sessionID = ""
	m.readySince = time.Time{}
	m.mu.Unlock()

	if active != nil {
		_ = active.Close()
	}
	if conv != nil {
		m.release("conversation", model, conv.Close)
	}
	if eng != nil {
		m.release("engine", model, eng.Close)
	}
	if had {
		m.log.Info().Str("model", model).Msg("session cleaned up")
		m.publisher.Publish(Event{Name: "cleanup", Model: model})
	}
}

func (m *Manager) release(what, model string, closeFn func() error) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return closeFn()
	}()
	if err != nil {
		m.log.Warn().Err(err).Str("resource", what).Msg("release failed")
		m.publisher.Publish(Event{Name: "cleanup_error", Model: model, Fields: map[string]any{"resource": what, "error": err.Error()}})
	}
}
