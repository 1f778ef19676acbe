package app

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"lmchat/internal/config"
	"lmchat/internal/fetch"
	"lmchat/internal/httpapi"
	"lmchat/internal/manager"
	"lmchat/pkg/types"
)

var _ httpapi.Service = (*App)(nil)

// scriptedAdapter replies to every turn with the same chunks.
type scriptedAdapter struct{ chunks []string }

func (a scriptedAdapter) Start(manager.EngineConfig) (manager.Engine, error) {
	return scriptedEngine(a), nil
}

type scriptedEngine scriptedAdapter

func (e scriptedEngine) NewConversation(manager.ConversationConfig) (manager.Conversation, error) {
	return scriptedConv(e), nil
}
func (scriptedEngine) Close() error { return nil }

type scriptedConv scriptedEngine

func (c scriptedConv) Generate(ctx context.Context, _ manager.Turn, onChunk func(string) error) error {
	for _, s := range c.chunks {
		if err := onChunk(s); err != nil {
			return err
		}
	}
	return nil
}
func (scriptedConv) Mode() manager.StreamMode { return manager.ModeDelta }
func (scriptedConv) Close() error             { return nil }

func newTestApp(t *testing.T, modelURL string) *App {
	t.Helper()
	home := t.TempDir()
	cfg, err := config.Config{
		ModelURL:  modelURL,
		ModelsDir: filepath.Join(home, "models"),
		CacheDir:  filepath.Join(home, "cache"),
	}.WithDefaults()
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	a, err := New(cfg, Options{Adapter: scriptedAdapter{chunks: []string{"Hi", "there", "!"}}, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func modelServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg, _ := config.Config{ModelsDir: t.TempDir(), CacheDir: t.TempDir(), Backends: []string{"npu"}}.WithDefaults()
	if _, err := New(cfg, Options{}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	cfg.Backends = nil
	cfg.VisionBackend = "quantum"
	if _, err := New(cfg, Options{}); err == nil {
		t.Fatalf("expected error for unknown vision backend")
	}
}

func TestDownloadInitializeAndChat(t *testing.T) {
	srv := modelServer(t, "GGUF-model-bytes")
	a := newTestApp(t, srv.URL+"/files/tiny.Q4_0.gguf")
	ctx := context.Background()

	if a.ModelPresent() {
		t.Fatalf("model should not exist yet")
	}
	var last fetch.Progress
	if err := a.Download(ctx, "", "", func(p fetch.Progress) { last = p }); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if c, ok := last.(fetch.Complete); !ok || c.Path != a.Config().ModelPath {
		t.Fatalf("last event = %#v", last)
	}
	models, err := a.ListModels()
	if err != nil || len(models) != 1 || models[0].Quant != "Q4_0" {
		t.Fatalf("ListModels = %+v, %v", models, err)
	}

	if err := a.Initialize(ctx, ""); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	var b strings.Builder
	mode, err := a.Chat(ctx, "hello", func(s string) error { b.WriteString(s); return nil })
	if err != nil || mode != manager.ModeDelta || b.String() != "Hithere!" {
		t.Fatalf("Chat = %q, %s, %v", b.String(), mode, err)
	}
	a.Cleanup()
	if a.Ready() {
		t.Fatalf("expected not ready after cleanup")
	}
}

func TestInitializeMissingModel(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1/m.gguf")
	err := a.Initialize(context.Background(), "")
	if !manager.IsEngineInit(err) {
		t.Fatalf("expected engine init error, got %v", err)
	}
}

func TestModelPathConfinedToModelsDir(t *testing.T) {
	srv := modelServer(t, "GGUF")
	a := newTestApp(t, srv.URL+"/m.gguf")
	ctx := context.Background()
	outside := filepath.Join(t.TempDir(), "victim.txt")
	for _, p := range []string{outside, "../escape.gguf", "sub/../../escape.gguf", "."} {
		if err := a.Download(ctx, "", p, nil); !IsPathRejected(err) {
			t.Fatalf("Download(%q) = %v, want path rejection", p, err)
		}
		if err := a.Initialize(ctx, p); !IsPathRejected(err) {
			t.Fatalf("Initialize(%q) = %v, want path rejection", p, err)
		}
	}
	if _, err := os.Stat(outside); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("file written outside models dir: %v", err)
	}

	if err := a.Download(ctx, "", "sub/other.gguf", nil); err != nil {
		t.Fatalf("Download inside models dir: %v", err)
	}
	inside := filepath.Join(a.Config().ModelsDir, "sub", "other.gguf")
	if _, err := os.Stat(inside); err != nil {
		t.Fatalf("expected %s: %v", inside, err)
	}
	if err := a.Initialize(ctx, inside); err != nil {
		t.Fatalf("Initialize absolute path inside models dir: %v", err)
	}
}

func TestHTTPRejectsPathOutsideModelsDir(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1/m.gguf")
	api := httptest.NewServer(httpapi.NewMux(a))
	defer api.Close()
	target := filepath.Join(t.TempDir(), "owned")
	body, _ := json.Marshal(types.DownloadRequest{Path: target})
	resp := postJSON(t, api.URL+"/download", string(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("download outside: status %d", resp.StatusCode)
	}
	resp = postJSON(t, api.URL+"/session", `{"model_path":"/etc/hosts"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("session outside: status %d", resp.StatusCode)
	}
	if _, err := os.Stat(target); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("file created outside models dir: %v", err)
	}
}

func TestHTTPEndToEnd(t *testing.T) {
	srv := modelServer(t, strings.Repeat("x", 4096))
	a := newTestApp(t, srv.URL+"/m.gguf")
	api := httptest.NewServer(httpapi.NewMux(a))
	defer api.Close()

	// chat before the session exists
	resp := postJSON(t, api.URL+"/chat", `{"text":"hi"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("chat before session: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, api.URL+"/download", `{}`)
	events := readLines[types.ProgressEvent](t, resp)
	if len(events) < 3 || events[0].Type != "started" || events[len(events)-1].Type != "complete" {
		t.Fatalf("download events = %+v", events)
	}

	resp = postJSON(t, api.URL+"/session", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("open session: status %d", resp.StatusCode)
	}
	var st types.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil || st.State != "ready" {
		t.Fatalf("status after open = %+v, %v", st, err)
	}
	resp.Body.Close()

	resp = postJSON(t, api.URL+"/chat", `{"text":"hello"}`)
	chunks := readLines[types.ChunkEvent](t, resp)
	var text strings.Builder
	for _, c := range chunks[:len(chunks)-1] {
		text.WriteString(c.Chunk)
	}
	final := chunks[len(chunks)-1]
	if text.String() != "Hithere!" || !final.Done || final.Mode != "delta" || final.Error != "" {
		t.Fatalf("chat lines = %+v", chunks)
	}

	req, _ := http.NewRequest(http.MethodDelete, api.URL+"/session", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete session: %v", err)
	}
	resp.Body.Close()
	if a.Ready() {
		t.Fatalf("session should be closed")
	}
}

func TestHTTPDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()
	a := newTestApp(t, srv.URL+"/m.gguf")
	api := httptest.NewServer(httpapi.NewMux(a))
	defer api.Close()
	events := readLines[types.ProgressEvent](t, postJSON(t, api.URL+"/download", ""))
	if len(events) != 1 || events[0].Type != "failed" || events[0].Error == "" {
		t.Fatalf("events = %+v", events)
	}
	if _, err := os.Stat(a.Config().ModelPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("model should not exist: %v", err)
	}
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func readLines[T any](t *testing.T, resp *http.Response) []T {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var out []T
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		var v T
		if err := json.Unmarshal(sc.Bytes(), &v); err != nil {
			t.Fatalf("decode %q: %v", sc.Text(), err)
		}
		out = append(out, v)
	}
	return out
}
