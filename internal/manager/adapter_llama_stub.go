//go:build !llama

package manager

// This file provides a no-CGO stub for the llama adapter. It is compiled when
// the 'llama' build tag is NOT set, keeping default builds and CI CGO-free.

var llamaBuilt = false

type llamaAdapter struct{}

func NewLlamaAdapter() EngineAdapter { return llamaAdapter{} }

// Start fails fast: the llama runtime is not available in this build.
func (llamaAdapter) Start(EngineConfig) (Engine, error) {
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
