package manager

// tryAcquireGen takes the single generation slot without blocking.
func (m *Manager) tryAcquireGen() bool {
	select {
	case m.genCh <- struct{}{}:
		return true
	default:
		return false
	}
}

func (m *Manager) releaseGen() {
	select {
	case <-m.genCh:
	default:
	}
}

// Busy reports whether a turn is currently in flight.
func (m *Manager) Busy() bool { return len(m.genCh) > 0 }
