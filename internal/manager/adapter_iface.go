package manager

import "context"

// EngineAdapter constructs engine instances. Concrete implementations
// (e.g., llama.cpp) satisfy this interface; tests use in-memory fakes.
type EngineAdapter interface {
	// Start loads the model described by cfg on cfg.Backend. A failure for
	// one backend lets the manager fall back to the next preference.
	Start(cfg EngineConfig) (Engine, error)
}

// EngineConfig is everything an adapter needs to construct an engine.
type EngineConfig struct {
	ModelPath string
	Backend   Backend
	// CacheDir is a private directory the engine may use for its own state.
	CacheDir string
	// Optional multimodal sub-backends; empty disables them.
	VisionBackend Backend
	AudioBackend  Backend
	ContextSize   int
	Threads       int
}

// Engine is a loaded model.
type Engine interface {
	// NewConversation starts a conversation seeded with cfg.SystemPrompt.
	NewConversation(cfg ConversationConfig) (Conversation, error)
	// Close releases the model.
	Close() error
}

// ConversationConfig fixes the preamble and sampling for a conversation.
type ConversationConfig struct {
	SystemPrompt string
	Params       GenerationParams
}

// GenerationParams captures sampling parameters passed to the engine.
type GenerationParams struct {
	TopK        int
	TopP        float32
	Temperature float32
	MaxTokens   int
	Stop        []string
	Seed        int
}

// Conversation is a stateful exchange of turns. It handles one turn at a time.
type Conversation interface {
	// Generate submits turn and invokes onChunk for every chunk of the reply,
	// in order. It returns when the reply is complete, onChunk fails, or ctx
	// is canceled.
	Generate(ctx context.Context, turn Turn, onChunk func(string) error) error
	// Mode reports whether chunks are deltas or cumulative snapshots.
	Mode() StreamMode
	// Close releases conversation resources.
	Close() error
}
