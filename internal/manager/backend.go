package manager

import (
	"errors"
	"fmt"
	"strings"
)

// ParseBackends converts configured names into a preference list,
// dropping duplicates and rejecting unknown names.
func ParseBackends(names []string) ([]Backend, error) {
	out := make([]Backend, 0, len(names))
	seen := make(map[Backend]bool, len(names))
	for _, n := range names {
		b := Backend(strings.ToLower(strings.TrimSpace(n)))
		if b == "" {
			continue
		}
		switch b {
		case BackendGPU, BackendCPU:
		default:
			return nil, fmt.Errorf("unknown backend %q (want gpu or cpu)", n)
		}
		if seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out, nil
}

// startEngine tries each preferred backend in order and returns the first
// engine that starts. The chosen backend stays fixed until Cleanup.
func (m *Manager) startEngine(cfg EngineConfig) (Engine, Backend, error) {
	var errs []error
	for i, b := range m.backends {
		cfg.Backend = b
		eng, err := m.adapter.Start(cfg)
		if err == nil {
			return eng, b, nil
		}
		if IsDependencyUnavailable(err) {
			return nil, "", err
		}
		errs = append(errs, fmt.Errorf("%s: %w", b, err))
		if i < len(m.backends)-1 {
			next := m.backends[i+1]
			m.log.Warn().Err(err).Str("backend", string(b)).Str("next", string(next)).Msg("backend unavailable, falling back")
			m.publisher.Publish(Event{Name: "backend_fallback", Model: cfg.ModelPath, Fields: map[string]any{"backend": string(b), "next": string(next), "error": err.Error()}})
		}
	}
	if len(errs) == 0 {
		return nil, "", errors.New("no backends configured")
	}
	return nil, "", errors.Join(errs...)
}
