package types

// ChatRequest is the payload for POST /chat.
type ChatRequest struct {
	// User message text.
	// example: Tell me a joke.
	Text string `json:"text" example:"Tell me a joke."`
}

// ChunkEvent is one NDJSON line of a /chat response.
type ChunkEvent struct {
	// Chunk text; a delta or a full snapshot depending on Mode.
	Chunk string `json:"chunk,omitempty"`
	// Set on the final line.
	Done bool `json:"done,omitempty"`
	// Streaming mode of the chunks: delta or snapshot. Sent on the final line.
	// example: delta
	Mode string `json:"mode,omitempty" example:"delta"`
	// Generation error, on the final line only.
	Error string `json:"error,omitempty"`
}

// SessionRequest is the payload for POST /session.
type SessionRequest struct {
	// Optional model path inside the models directory; the configured path is
	// used when empty.
	ModelPath string `json:"model_path,omitempty"`
}

// DownloadRequest is the payload for POST /download.
type DownloadRequest struct {
	// Optional source URL; the configured model URL is used when empty.
	URL string `json:"url,omitempty"`
	// Optional target path inside the models directory (relative paths resolve
	// against it); the configured model path is used when empty.
	Path string `json:"path,omitempty"`
}

// ProgressEvent is one NDJSON line of a /download response.
type ProgressEvent struct {
	// started, progress, complete or failed.
	// example: progress
	Type string `json:"type" example:"progress"`
	// Percent complete; omitted when the total size is unknown.
	Percent         *float64 `json:"percent,omitempty"`
	ChunkBytes      int64    `json:"chunk_bytes,omitempty"`
	BytesDownloaded int64    `json:"bytes_downloaded,omitempty"`
	TotalBytes      int64    `json:"total_bytes,omitempty"`
	// Local path, on complete.
	Path string `json:"path,omitempty"`
	// Failure message, on failed.
	Error string `json:"error,omitempty"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// List of available models.
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Session state: uninitialized, initializing, ready, sending or closed.
	// example: ready
	State string `json:"state" example:"ready"`
	// Compute backend the engine runs on.
	// example: cpu
	Backend string `json:"backend,omitempty" example:"cpu"`
	// Model file backing the session.
	ModelPath string `json:"model_path,omitempty"`
	// Identifier of the current session; changes after every Initialize.
	SessionID string `json:"session_id,omitempty"`
	// Completed turns in the current session.
	// example: 3
	Turns int `json:"turns" example:"3"`
	// Whether a turn is in flight.
	Busy bool `json:"busy"`
	// Whether this binary was built with the llama engine.
	EngineBuilt bool `json:"engine_built"`
	// Unix seconds when the session became ready.
	ReadySinceUnix int64 `json:"ready_since_unix,omitempty"`
	// Last error observed by the manager (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
