//go:build llama

package manager

import (
	"context"
	"errors"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = true

// gpuOffloadLayers asks llama.cpp to place every layer on the accelerator.
const gpuOffloadLayers = 999

// llamaAdapter starts go-llama.cpp engines.
type llamaAdapter struct{}

func NewLlamaAdapter() EngineAdapter { return llamaAdapter{} }

func (llamaAdapter) Start(cfg EngineConfig) (Engine, error) {
	if strings.TrimSpace(cfg.ModelPath) == "" {
		return nil, errors.New("model path is empty")
	}
	if cfg.VisionBackend != "" || cfg.AudioBackend != "" {
		return nil, errors.New("llama engine has no vision or audio support")
	}
	mo := []llama.ModelOption{llama.SetContext(cfg.ContextSize)}
	if cfg.Backend == BackendGPU {
		if !llamaGPUBuilt {
			return nil, errors.New("gpu offload not built (needs cublas or metal tag)")
		}
		mo = append(mo, llama.SetGPULayers(gpuOffloadLayers))
	}
	model, err := llama.New(cfg.ModelPath, mo...)
	if err != nil {
		return nil, err
	}
	return &llamaEngine{model: model, threads: cfg.Threads}, nil
}

// llamaEngine owns the loaded model.
type llamaEngine struct {
	model   *llama.LLama
	threads int
}

func (e *llamaEngine) NewConversation(cfg ConversationConfig) (Conversation, error) {
	if e.model == nil {
		return nil, errors.New("llama model not initialized")
	}
	return &llamaConversation{engine: e, system: cfg.SystemPrompt, params: cfg.Params}, nil
}

func (e *llamaEngine) Close() error {
	if e.model != nil {
		e.model.Free()
		e.model = nil
	}
	return nil
}

// llamaConversation keeps the turn history and re-renders it for every reply.
type llamaConversation struct {
	mu      sync.Mutex
	engine  *llamaEngine
	system  string
	params  GenerationParams
	history []Turn
}

// Mode is delta: the token callback delivers each new piece once.
func (c *llamaConversation) Mode() StreamMode { return ModeDelta }

func (c *llamaConversation) Generate(ctx context.Context, turn Turn, onChunk func(string) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	model := c.engine.model
	if model == nil {
		return errors.New("llama model not initialized")
	}
	prompt := formatChatML(c.system, append(c.history, turn))

	var cbErr error
	model.SetTokenCallback(func(tok string) bool {
		if ctx.Err() != nil {
			return false
		}
		if err := onChunk(tok); err != nil {
			cbErr = err
			return false
		}
		return true
	})
	defer model.SetTokenCallback(nil)

	text, err := model.Predict(prompt, predictOptions(c.params, c.engine.threads)...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if cbErr != nil {
		return cbErr
	}
	if err != nil {
		return err
	}
	c.history = append(c.history, turn, Turn{Role: RoleAssistant, Text: strings.TrimSpace(text)})
	return nil
}

func (c *llamaConversation) Close() error {
	c.mu.Lock()
	c.history = nil
	c.mu.Unlock()
	return nil
}

// predictOptions converts generation params into go-llama.cpp options.
func predictOptions(p GenerationParams, threads int) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(max(1, p.MaxTokens)),
		llama.SetThreads(max(1, threads)),
		llama.SetTopK(p.TopK),
		llama.SetTopP(p.TopP),
		llama.SetTemperature(p.Temperature),
		llama.SetPenalty(llama.DefaultOptions.Penalty),
		llama.SetStopWords(mergeStop(p.Stop)...),
	}
	if p.Seed != 0 {
		po = append(po, llama.SetSeed(p.Seed))
	}
	return po
}
