package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the chat tool and its HTTP service.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`

	// Model acquisition
	ModelURL    string `json:"model_url" yaml:"model_url" toml:"model_url"`
	ModelPath   string `json:"model_path" yaml:"model_path" toml:"model_path"`
	ModelSHA256 string `json:"model_sha256" yaml:"model_sha256" toml:"model_sha256"`
	ModelsDir   string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	ChunkSizeKB int    `json:"chunk_size_kb" yaml:"chunk_size_kb" toml:"chunk_size_kb"`

	// Engine
	CacheDir      string   `json:"cache_dir" yaml:"cache_dir" toml:"cache_dir"`
	Backends      []string `json:"backends" yaml:"backends" toml:"backends"`
	VisionBackend string   `json:"vision_backend" yaml:"vision_backend" toml:"vision_backend"`
	AudioBackend  string   `json:"audio_backend" yaml:"audio_backend" toml:"audio_backend"`
	ContextSize   int      `json:"context_size" yaml:"context_size" toml:"context_size"`
	Threads       int      `json:"threads" yaml:"threads" toml:"threads"`

	// Conversation defaults
	TopK         int     `json:"top_k" yaml:"top_k" toml:"top_k"`
	TopP         float64 `json:"top_p" yaml:"top_p" toml:"top_p"`
	Temperature  float64 `json:"temperature" yaml:"temperature" toml:"temperature"`
	MaxTokens    int     `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	SystemPrompt string  `json:"system_prompt" yaml:"system_prompt" toml:"system_prompt"`

	// Service
	LogLevel     string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	CORSOrigins  []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	MaxBodyBytes int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse json: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse toml: %w", err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// modelFileName derives the local file name from a download URL.
func modelFileName(rawURL string) string {
	u := rawURL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	name := path.Base(u)
	if name == "" || name == "." || name == "/" {
		return "model.gguf"
	}
	return name
}
