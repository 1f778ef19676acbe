package manager

import (
	"context"
	"errors"
	"time"
)

// Send submits text as a user turn and returns the stream of reply chunks.
// It fails synchronously when the session is not ready or a previous stream
// is still live; the returned stream is nil in both cases.
func (m *Manager) Send(ctx context.Context, text string) (*Stream, error) {
	m.mu.Lock()
	if m.state != StateReady && m.state != StateSending {
		st := m.state
		m.mu.Unlock()
		return nil, notInitializedError{state: st}
	}
	if !m.tryAcquireGen() {
		m.mu.Unlock()
		return nil, tooBusyError{}
	}
	conv := m.conv
	model := m.modelPath
	s, sctx := newStream(ctx, conv.Mode())
	m.active = s
	m.state = StateSending
	m.mu.Unlock()

	m.publisher.Publish(Event{Name: "send_start", Model: model})
	go m.produce(sctx, s, conv, model, Turn{Role: RoleUser, Text: text})
	return s, nil
}

func (m *Manager) produce(ctx context.Context, s *Stream, conv Conversation, model string, turn Turn) {
	start := time.Now()
	chunks := 0
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.New("engine panic during generation")
				m.log.Error().Interface("panic", r).Msg("generate panicked")
			}
		}()
		return conv.Generate(ctx, turn, func(c string) error {
			chunks++
			return s.emit(ctx, c)
		})
	}()
	if err == nil {
		err = ctx.Err()
	}
	m.finishTurn(s)
	defer s.finish(err)

	switch {
	case err == nil:
		m.log.Debug().Int("chunks", chunks).Dur("dur", time.Since(start)).Msg("turn complete")
		m.publisher.Publish(Event{Name: "send_done", Model: model, Fields: map[string]any{"chunks": chunks, "dur_ms": time.Since(start).Milliseconds()}})
	case errors.Is(err, context.Canceled):
		m.log.Debug().Int("chunks", chunks).Msg("turn canceled")
		m.publisher.Publish(Event{Name: "send_canceled", Model: model, Fields: map[string]any{"chunks": chunks}})
	default:
		m.log.Warn().Err(err).Int("chunks", chunks).Msg("turn failed")
		m.publisher.Publish(Event{Name: "send_error", Model: model, Fields: map[string]any{"error": err.Error()}})
	}
}

// finishTurn returns the manager to ready and frees the generation slot.
func (m *Manager) finishTurn(s *Stream) {
	m.mu.Lock()
	if m.active == s {
		m.active = nil
		if m.state == StateSending {
			m.state = StateReady
		}
		m.turns++
	}
	m.mu.Unlock()
	m.releaseGen()
}

// Chat sends text and forwards each chunk to onChunk until the reply ends.
// An error from onChunk stops generation and is returned.
func (m *Manager) Chat(ctx context.Context, text string, onChunk func(string) error) (StreamMode, error) {
	s, err := m.Send(ctx, text)
	if err != nil {
		return "", err
	}
	defer s.Close()
	for c := range s.Chunks() {
		if onChunk == nil {
			continue
		}
		if err := onChunk(c); err != nil {
			_ = s.Close()
			return s.Mode(), err
		}
	}
	return s.Mode(), s.Err()
}
