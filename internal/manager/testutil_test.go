package manager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// createModelFile writes a small placeholder model and returns its path.
func createModelFile(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "model.gguf")
	if err := os.WriteFile(p, []byte("GGUF"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return p
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// fakeAdapter is a lightweight in-memory adapter used for tests.
type fakeAdapter struct {
	mu        sync.Mutex
	starts    atomic.Int32
	failOn    map[Backend]error
	convErr   error
	chunks    []string
	mode      StreamMode
	genErr    error
	hold      chan struct{} // when set, Generate waits on it after the first chunk
	delay     time.Duration // when set, Start sleeps before returning
	panicOnGo bool
	closeErr  error

	lastCfg  EngineConfig
	engines  []*fakeEngine
	releases []string // "conv" and "engine", in Close order
}

func (f *fakeAdapter) recordRelease(what string) {
	f.mu.Lock()
	f.releases = append(f.releases, what)
	f.mu.Unlock()
}

func (f *fakeAdapter) releaseLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.releases...)
}

func (f *fakeAdapter) Start(cfg EngineConfig) (Engine, error) {
	f.starts.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCfg = cfg
	if err := f.failOn[cfg.Backend]; err != nil {
		return nil, err
	}
	e := &fakeEngine{a: f, backend: cfg.Backend}
	f.engines = append(f.engines, e)
	return e, nil
}

func (f *fakeAdapter) engine(i int) *fakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.engines[i]
}

type fakeEngine struct {
	a       *fakeAdapter
	backend Backend
	closed  atomic.Int32
	convs   []*fakeConversation
	convCfg ConversationConfig
}

func (e *fakeEngine) NewConversation(cfg ConversationConfig) (Conversation, error) {
	if e.a.convErr != nil {
		return nil, e.a.convErr
	}
	e.convCfg = cfg
	c := &fakeConversation{a: e.a}
	e.convs = append(e.convs, c)
	return c, nil
}

func (e *fakeEngine) Close() error {
	e.closed.Add(1)
	e.a.recordRelease("engine")
	return e.a.closeErr
}

type fakeConversation struct {
	a      *fakeAdapter
	closed atomic.Int32
	turns  []Turn
}

func (c *fakeConversation) Mode() StreamMode {
	if c.a.mode == "" {
		return ModeDelta
	}
	return c.a.mode
}

func (c *fakeConversation) Generate(ctx context.Context, turn Turn, onChunk func(string) error) error {
	c.turns = append(c.turns, turn)
	if c.a.panicOnGo {
		panic("boom")
	}
	for i, ch := range c.a.chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := onChunk(ch); err != nil {
			return err
		}
		if i == 0 && c.a.hold != nil {
			select {
			case <-c.a.hold:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return c.a.genErr
}

func (c *fakeConversation) Close() error {
	c.closed.Add(1)
	c.a.recordRelease("conv")
	if c.a.closeErr != nil {
		panic(c.a.closeErr)
	}
	return nil
}

var errBackend = errors.New("backend unavailable")

// newTestManager builds a manager over a fake adapter emitting chunks.
func newTestManager(t *testing.T, a *fakeAdapter) (*Manager, *MemoryPublisher) {
	t.Helper()
	pub := NewMemoryPublisher()
	m := New(ManagerConfig{Adapter: a, CacheDir: filepath.Join(t.TempDir(), "cache"), Publisher: pub})
	t.Cleanup(func() { _ = m.Close() })
	return m, pub
}

// collectStream drains s and returns the chunks.
func collectStream(t *testing.T, s *Stream) []string {
	t.Helper()
	var out []string
	for c := range s.Chunks() {
		out = append(out, c)
	}
	return out
}
