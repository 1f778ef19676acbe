package types

// Model represents a GGUF model file found on disk.
type Model struct {
	// Stable identifier for the model (file name without extension).
	// example: tinyllama-1.1b-chat-v1.0.Q4_K_M
	ID string `json:"id" example:"tinyllama-1.1b-chat-v1.0.Q4_K_M"`
	// Human-friendly name.
	// example: Tinyllama 1.1b Chat V1.0 (Q4_K_M)
	Name string `json:"name" example:"Tinyllama 1.1b Chat V1.0 (Q4_K_M)"`
	// Absolute path to the model file on disk.
	// example: /home/user/.lmchat/models/tinyllama-1.1b-chat-v1.0.Q4_K_M.gguf
	Path string `json:"path" example:"/home/user/.lmchat/models/tinyllama-1.1b-chat-v1.0.Q4_K_M.gguf"`
	// Quantization level or variant string.
	// example: Q4_K_M
	Quant string `json:"quant" example:"Q4_K_M"`
	// Optional family (e.g., llama, mistral, phi).
	// example: llama
	Family string `json:"family,omitempty" example:"llama"`
	// File size in bytes.
	// example: 668788096
	SizeBytes int64 `json:"size_bytes" example:"668788096"`
}
