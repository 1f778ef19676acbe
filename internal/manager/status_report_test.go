package manager

import "testing"

func TestStatusReflectsSession(t *testing.T) {
	a := &fakeAdapter{chunks: []string{"x"}}
	m, _ := newTestManager(t, a)
	st := m.Status()
	if st.State != string(StateUninitialized) || st.SessionID != "" || st.ReadySinceUnix != 0 {
		t.Fatalf("unexpected initial status: %+v", st)
	}
	if st.EngineBuilt != llamaBuilt {
		t.Fatalf("engine_built = %v", st.EngineBuilt)
	}
	mp := createModelFile(t)
	if err := m.Initialize(testCtx(t), mp); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	s, err := m.Send(testCtx(t), "hi")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	collectStream(t, s)
	st = m.Status()
	if st.State != string(StateReady) || st.Backend != "gpu" || st.ModelPath != mp || st.Turns != 1 || st.Busy {
		t.Fatalf("unexpected status: %+v", st)
	}
	if st.ReadySinceUnix == 0 || st.ServerTimeUnix == 0 {
		t.Fatalf("expected timestamps: %+v", st)
	}
}
