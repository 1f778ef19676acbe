// Package app wires configuration, the model fetcher, the session manager and
// the model registry into the service the CLI and HTTP layer drive.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"lmchat/internal/common/fsutil"
	"lmchat/internal/config"
	"lmchat/internal/fetch"
	"lmchat/internal/manager"
	"lmchat/internal/registry"
	"lmchat/pkg/types"
)

// Options carries the collaborators that tests or callers may replace.
type Options struct {
	// Adapter overrides the engine adapter (default: llama.cpp).
	Adapter    manager.EngineAdapter
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// App is the single process-wide handle over one chat session.
type App struct {
	cfg     config.Config
	fetcher *fetch.Fetcher
	mgr     *manager.Manager
	log     zerolog.Logger
}

// New builds an App from cfg, which must already have defaults applied.
func New(cfg config.Config, opts Options) (*App, error) {
	backends, err := manager.ParseBackends(cfg.Backends)
	if err != nil {
		return nil, err
	}
	vision, err := optionalBackend(cfg.VisionBackend)
	if err != nil {
		return nil, fmt.Errorf("vision backend: %w", err)
	}
	audio, err := optionalBackend(cfg.AudioBackend)
	if err != nil {
		return nil, fmt.Errorf("audio backend: %w", err)
	}
	log := opts.Logger
	f := fetch.New(fetch.Config{
		Client:    opts.HTTPClient,
		ChunkSize: cfg.ChunkSizeKB * 1024,
		SHA256:    cfg.ModelSHA256,
		Logger:    &log,
	})
	m := manager.New(manager.ManagerConfig{
		Adapter:       opts.Adapter,
		Backends:      backends,
		CacheDir:      cfg.CacheDir,
		VisionBackend: vision,
		AudioBackend:  audio,
		ContextSize:   cfg.ContextSize,
		Threads:       cfg.Threads,
		Params: manager.GenerationParams{
			TopK:        cfg.TopK,
			TopP:        float32(cfg.TopP),
			Temperature: float32(cfg.Temperature),
			MaxTokens:   cfg.MaxTokens,
		},
		SystemPrompt: cfg.SystemPrompt,
		Publisher:    logPublisher{log: log},
		Logger:       &log,
	})
	return &App{cfg: cfg, fetcher: f, mgr: m, log: log}, nil
}

func optionalBackend(name string) (manager.Backend, error) {
	if name == "" {
		return "", nil
	}
	bs, err := manager.ParseBackends([]string{name})
	if err != nil || len(bs) == 0 {
		return "", err
	}
	return bs[0], nil
}

// Config returns the effective configuration.
func (a *App) Config() config.Config { return a.cfg }

// Manager exposes the session manager for callers that stream directly.
func (a *App) Manager() *manager.Manager { return a.mgr }

// ModelPresent reports whether the configured model is on disk.
func (a *App) ModelPresent() bool { return a.fetcher.Exists(a.cfg.ModelPath) }

// Download fetches url into path; empty arguments select the configured model.
// An explicit path must resolve inside the models directory.
func (a *App) Download(ctx context.Context, url, path string, onProgress func(fetch.Progress)) error {
	if url == "" {
		url = a.cfg.ModelURL
	}
	path, err := a.resolveModelPath(path)
	if err != nil {
		return err
	}
	return a.fetcher.Download(ctx, url, path, onProgress)
}

// Initialize opens the session on modelPath, or on the configured model.
// An explicit path must resolve inside the models directory.
func (a *App) Initialize(ctx context.Context, modelPath string) error {
	modelPath, err := a.resolveModelPath(modelPath)
	if err != nil {
		return err
	}
	return a.mgr.Initialize(ctx, modelPath)
}

// resolveModelPath maps a caller-supplied path into the models directory.
// Relative paths are taken relative to it; anything resolving outside it is
// rejected.
func (a *App) resolveModelPath(p string) (string, error) {
	if p == "" {
		return a.cfg.ModelPath, nil
	}
	expanded, err := fsutil.ExpandHome(p)
	if err != nil {
		return "", err
	}
	root, err := filepath.Abs(a.cfg.ModelsDir)
	if err != nil {
		return "", fmt.Errorf("models dir: %w", err)
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(root, expanded)
	}
	expanded = filepath.Clean(expanded)
	rel, err := filepath.Rel(root, expanded)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", pathError{path: p, root: root}
	}
	return expanded, nil
}

// pathError rejects a model path outside the models directory.
type pathError struct{ path, root string }

func (e pathError) Error() string {
	return fmt.Sprintf("model path %q is outside the models directory %s", e.path, e.root)
}

// StatusCode maps the rejection to 400 Bad Request.
func (pathError) StatusCode() int { return http.StatusBadRequest }

// IsPathRejected reports whether err came from a model path outside the models directory.
func IsPathRejected(err error) bool {
	var e pathError
	return errors.As(err, &e)
}

func (a *App) Cleanup() { a.mgr.Cleanup() }

func (a *App) Ready() bool { return a.mgr.Ready() }

func (a *App) Status() types.StatusResponse { return a.mgr.Status() }

func (a *App) Chat(ctx context.Context, text string, onChunk func(string) error) (manager.StreamMode, error) {
	return a.mgr.Chat(ctx, text, onChunk)
}

// ListModels returns the GGUF files in the models directory.
func (a *App) ListModels() ([]types.Model, error) {
	return registry.LoadDir(a.cfg.ModelsDir)
}

// Close releases the session for good.
func (a *App) Close() error { return a.mgr.Close() }

// logPublisher forwards manager lifecycle events to the debug log.
type logPublisher struct{ log zerolog.Logger }

func (p logPublisher) Publish(e manager.Event) {
	ev := p.log.Debug().Str("event", e.Name).Str("model", e.Model)
	if len(e.Fields) > 0 {
		ev = ev.Fields(e.Fields)
	}
	ev.Msg("session event")
}
