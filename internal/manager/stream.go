package manager

import (
	"context"
	"iter"
	"sync"
)

// Stream delivers the chunks of one reply in the order the engine produced
// them. The channel is unbuffered, so the engine waits for the consumer.
type Stream struct {
	ch     chan string
	mode   StreamMode
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func newStream(ctx context.Context, mode StreamMode) (*Stream, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	return &Stream{
		ch:     make(chan string),
		mode:   mode,
		cancel: cancel,
		done:   make(chan struct{}),
	}, ctx
}

// Chunks returns the receive side. It is closed when the reply ends, fails
// or the stream is closed.
func (s *Stream) Chunks() <-chan string { return s.ch }

// Mode reports whether chunks are deltas or snapshots.
func (s *Stream) Mode() StreamMode { return s.mode }

// Done is closed once the producer has exited.
func (s *Stream) Done() <-chan struct{} { return s.done }

// Err returns the generation error, if any, once the channel is closed.
// A stream stopped by Close reports context.Canceled.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close cancels the engine call and waits for the producer to exit.
// Safe to call more than once.
func (s *Stream) Close() error {
	s.cancel()
	<-s.done
	return nil
}

// All ranges over the chunks. Breaking early closes the stream.
func (s *Stream) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for c := range s.ch {
			if !yield(c) {
				_ = s.Close()
				return
			}
		}
	}
}

// emit hands one chunk to the consumer or gives up when ctx ends.
func (s *Stream) emit(ctx context.Context, chunk string) error {
	select {
	case s.ch <- chunk:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Stream) finish(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	close(s.ch)
	s.cancel()
	close(s.done)
}
