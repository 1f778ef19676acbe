package manager

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func readyManager(t *testing.T, a *fakeAdapter) (*Manager, *MemoryPublisher) {
	t.Helper()
	m, pub := newTestManager(t, a)
	if err := m.Initialize(testCtx(t), createModelFile(t)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return m, pub
}

func TestSendBeforeInitialize(t *testing.T) {
	m, _ := newTestManager(t, &fakeAdapter{})
	s, err := m.Send(testCtx(t), "hello")
	if !IsNotInitialized(err) {
		t.Fatalf("expected not initialized, got %v", err)
	}
	if s != nil {
		t.Fatalf("expected nil stream")
	}
}

func TestSendStreamsChunksInOrder(t *testing.T) {
	a := &fakeAdapter{chunks: []string{"Hi", "there", "!"}}
	m, pub := readyManager(t, a)
	s, err := m.Send(testCtx(t), "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	got := collectStream(t, s)
	if diff := cmp.Diff([]string{"Hi", "there", "!"}, got); diff != "" {
		t.Fatalf("chunks mismatch (-want +got):\n%s", diff)
	}
	if s.Mode() != ModeDelta {
		t.Fatalf("mode = %s", s.Mode())
	}
	if joined := strings.Join(got, ""); joined != "Hithere!" {
		t.Fatalf("transcript = %q", joined)
	}
	if err := s.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	conv := a.engine(0).convs[0]
	if len(conv.turns) != 1 || conv.turns[0] != (Turn{Role: RoleUser, Text: "hello"}) {
		t.Fatalf("unexpected submitted turns: %+v", conv.turns)
	}
	<-s.Done()
	if st := m.State(); st != StateReady {
		t.Fatalf("state = %s, want ready", st)
	}
	if n := m.Snapshot().Turns; n != 1 {
		t.Fatalf("turns = %d", n)
	}
	names := pub.Names()
	if names[len(names)-1] != "send_done" {
		t.Fatalf("last event = %s", names[len(names)-1])
	}
}

func TestSendWhileStreamingIsBusy(t *testing.T) {
	a := &fakeAdapter{chunks: []string{"a", "b"}, hold: make(chan struct{})}
	m, _ := readyManager(t, a)
	s, err := m.Send(testCtx(t), "one")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if c := <-s.Chunks(); c != "a" {
		t.Fatalf("first chunk = %q", c)
	}
	if m.State() != StateSending || !m.Busy() {
		t.Fatalf("expected sending state, got %s", m.State())
	}
	s2, err := m.Send(testCtx(t), "two")
	if !IsTooBusy(err) || s2 != nil {
		t.Fatalf("expected busy error and nil stream, got %v", err)
	}
	close(a.hold)
	if rest := collectStream(t, s); len(rest) != 1 || rest[0] != "b" {
		t.Fatalf("remaining chunks = %v", rest)
	}
	s3, err := m.Send(testCtx(t), "three")
	if err != nil {
		t.Fatalf("Send after completion: %v", err)
	}
	collectStream(t, s3)
}

func TestStreamCloseStopsProducer(t *testing.T) {
	defer goleak.VerifyNone(t)
	a := &fakeAdapter{chunks: []string{"a", "b"}, hold: make(chan struct{})}
	m, _ := readyManager(t, a)
	s, err := m.Send(testCtx(t), "hi")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	<-s.Chunks()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, ok := <-s.Chunks(); ok {
		t.Fatalf("expected closed channel")
	}
	if !errors.Is(s.Err(), context.Canceled) {
		t.Fatalf("Err = %v, want canceled", s.Err())
	}
	if m.State() != StateReady || m.Busy() {
		t.Fatalf("manager should be ready and idle, state %s", m.State())
	}
}

func TestStreamAllBreakCloses(t *testing.T) {
	defer goleak.VerifyNone(t)
	a := &fakeAdapter{chunks: []string{"x", "y", "z"}}
	m, _ := readyManager(t, a)
	s, err := m.Send(testCtx(t), "hi")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	var got []string
	for c := range s.All() {
		got = append(got, c)
		break
	}
	if len(got) != 1 || got[0] != "x" {
		t.Fatalf("got %v", got)
	}
	select {
	case <-s.Done():
	default:
		t.Fatalf("producer still running after break")
	}
}

func TestSendGenerationError(t *testing.T) {
	boom := errors.New("decode failed")
	a := &fakeAdapter{chunks: []string{"partial"}, genErr: boom}
	m, pub := readyManager(t, a)
	s, err := m.Send(testCtx(t), "hi")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := collectStream(t, s); len(got) != 1 {
		t.Fatalf("chunks = %v", got)
	}
	if !errors.Is(s.Err(), boom) {
		t.Fatalf("Err = %v", s.Err())
	}
	names := pub.Names()
	if names[len(names)-1] != "send_error" {
		t.Fatalf("events = %v", names)
	}
	if !m.Ready() {
		t.Fatalf("session should stay ready after a failed turn")
	}
}

func TestSendEnginePanicBecomesError(t *testing.T) {
	a := &fakeAdapter{panicOnGo: true}
	m, _ := readyManager(t, a)
	s, err := m.Send(testCtx(t), "hi")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	collectStream(t, s)
	if s.Err() == nil {
		t.Fatalf("expected error from panicking engine")
	}
	if m.Busy() {
		t.Fatalf("generation slot not released")
	}
}

func TestSendContextCancel(t *testing.T) {
	a := &fakeAdapter{chunks: []string{"a", "b"}, hold: make(chan struct{})}
	m, _ := readyManager(t, a)
	ctx, cancel := context.WithCancel(testCtx(t))
	s, err := m.Send(ctx, "hi")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	<-s.Chunks()
	cancel()
	collectStream(t, s)
	if !errors.Is(s.Err(), context.Canceled) {
		t.Fatalf("Err = %v", s.Err())
	}
}

func TestChatAccumulatesDeltas(t *testing.T) {
	a := &fakeAdapter{chunks: []string{"Hi", "there", "!"}}
	m, _ := readyManager(t, a)
	var b strings.Builder
	mode, err := m.Chat(testCtx(t), "hello", func(c string) error {
		b.WriteString(c)
		return nil
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if mode != ModeDelta || b.String() != "Hithere!" {
		t.Fatalf("mode %s, text %q", mode, b.String())
	}
}

func TestChatCallbackErrorStops(t *testing.T) {
	defer goleak.VerifyNone(t)
	a := &fakeAdapter{chunks: []string{"a", "b", "c"}}
	m, _ := readyManager(t, a)
	stop := errors.New("client gone")
	n := 0
	_, err := m.Chat(testCtx(t), "hello", func(string) error {
		n++
		return stop
	})
	if !errors.Is(err, stop) || n != 1 {
		t.Fatalf("err %v after %d chunks", err, n)
	}
	if m.Busy() {
		t.Fatalf("generation slot not released")
	}
}

func TestChatNotInitialized(t *testing.T) {
	m, _ := newTestManager(t, &fakeAdapter{})
	if _, err := m.Chat(testCtx(t), "hi", nil); !IsNotInitialized(err) {
		t.Fatalf("expected not initialized, got %v", err)
	}
}
