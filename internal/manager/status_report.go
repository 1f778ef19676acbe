package manager

import (
	"time"

	"lmchat/pkg/types"
)

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		State:      m.state,
		Backend:    m.backend,
		ModelPath:  m.modelPath,
		SessionID:  m.sessionID,
		Turns:      m.turns,
		ReadySince: m.readySince,
		Err:        m.err,
	}
}

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	s := m.Snapshot()
	now := time.Now()
	resp := types.StatusResponse{
		State:          string(s.State),
		Backend:        string(s.Backend),
		ModelPath:      s.ModelPath,
		SessionID:      s.SessionID,
		Turns:          s.Turns,
		Busy:           m.Busy(),
		EngineBuilt:    llamaBuilt,
		LastError:      s.Err,
		UptimeSeconds:  int64(now.Sub(m.startTime).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
	if !s.ReadySince.IsZero() {
		resp.ReadySinceUnix = s.ReadySince.Unix()
	}
	return resp
}
