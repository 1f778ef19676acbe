package manager

import (
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultTopK         = 40
	defaultTopP         = 0.95
	defaultTemperature  = 0.8
	defaultMaxTokens    = 512
	defaultContextSize  = 2048
	defaultSystemPrompt = "You are a helpful assistant."
)

// defaultBackends is the preference order used when none is configured:
// accelerated first, general-purpose compute as the fallback.
var defaultBackends = []Backend{BackendGPU, BackendCPU}

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Adapter constructs engines. Nil selects the llama.cpp adapter.
	Adapter       EngineAdapter
	Backends      []Backend
	CacheDir      string
	VisionBackend Backend
	AudioBackend  Backend
	ContextSize   int
	Threads       int
	Params        GenerationParams
	SystemPrompt  string
	Publisher     EventPublisher
	Logger        *zerolog.Logger
}

// New constructs a Manager from ManagerConfig.
func New(cfg ManagerConfig) *Manager {
	m := &Manager{
		state:        StateUninitialized,
		adapter:      cfg.Adapter,
		cacheDir:     cfg.CacheDir,
		vision:       cfg.VisionBackend,
		audio:        cfg.AudioBackend,
		ctxSize:      cfg.ContextSize,
		threads:      cfg.Threads,
		params:       cfg.Params,
		systemPrompt: cfg.SystemPrompt,
		publisher:    cfg.Publisher,
		genCh:        make(chan struct{}, 1),
		startTime:    time.Now(),
	}
	if m.adapter == nil {
		m.adapter = NewLlamaAdapter()
	}
	if len(cfg.Backends) == 0 {
		m.backends = append([]Backend(nil), defaultBackends...)
	} else {
		m.backends = append([]Backend(nil), cfg.Backends...)
	}
	if m.ctxSize <= 0 {
		m.ctxSize = defaultContextSize
	}
	if m.params.TopK <= 0 {
		m.params.TopK = defaultTopK
	}
	if m.params.TopP <= 0 {
		m.params.TopP = defaultTopP
	}
	if m.params.Temperature <= 0 {
		m.params.Temperature = defaultTemperature
	}
	if m.params.MaxTokens <= 0 {
		m.params.MaxTokens = defaultMaxTokens
	}
	if m.systemPrompt == "" {
		m.systemPrompt = defaultSystemPrompt
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "manager").Logger()
	} else {
		m.log = zerolog.Nop()
	}
	return m
}
