package config

import (
	"path/filepath"

	"lmchat/internal/common/fsutil"
)

// Defaults applied by WithDefaults when the corresponding field is unset.
const (
	DefaultAddr         = ":8080"
	DefaultHome         = "~/.lmchat"
	DefaultModelURL     = "https://huggingface.co/TheBloke/TinyLlama-1.1B-Chat-v1.0-GGUF/resolve/main/tinyllama-1.1b-chat-v1.0.Q4_K_M.gguf"
	DefaultChunkSizeKB  = 256
	DefaultContextSize  = 2048
	DefaultTopK         = 40
	DefaultTopP         = 0.95
	DefaultTemperature  = 0.8
	DefaultMaxTokens    = 512
	DefaultLogLevel     = "info"
	DefaultMaxBodyBytes = 1 << 20
	DefaultSystemPrompt = "You are a helpful assistant running entirely on this device. Answer concisely."
)

// DefaultBackends is the engine backend preference order.
var DefaultBackends = []string{"gpu", "cpu"}

// WithDefaults returns a copy of c with unset fields filled in and leading
// '~' expanded in every path.
func (c Config) WithDefaults() (Config, error) {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ModelURL == "" {
		c.ModelURL = DefaultModelURL
	}
	if c.ModelsDir == "" {
		c.ModelsDir = filepath.Join(DefaultHome, "models")
	}
	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(DefaultHome, "cache")
	}
	if c.ChunkSizeKB <= 0 {
		c.ChunkSizeKB = DefaultChunkSizeKB
	}
	if len(c.Backends) == 0 {
		c.Backends = append([]string(nil), DefaultBackends...)
	}
	if c.ContextSize <= 0 {
		c.ContextSize = DefaultContextSize
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.TopP <= 0 {
		c.TopP = DefaultTopP
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}

	var err error
	if c.ModelsDir, err = fsutil.ExpandHome(c.ModelsDir); err != nil {
		return c, err
	}
	if c.CacheDir, err = fsutil.ExpandHome(c.CacheDir); err != nil {
		return c, err
	}
	if c.ModelPath == "" {
		c.ModelPath = filepath.Join(c.ModelsDir, modelFileName(c.ModelURL))
	} else if c.ModelPath, err = fsutil.ExpandHome(c.ModelPath); err != nil {
		return c, err
	}
	return c, nil
}
