// Package manager owns the lifecycle of the on-device inference engine and
// its single conversation. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; New applies defaults.
//   - types.go: state and value types (State, Backend, StreamMode, Snapshot).
//   - errors.go: error types and helpers (IsTooBusy, IsNotInitialized, IsEngineInit).
//   - adapter_iface.go: the engine boundary (EngineAdapter, Engine, Conversation).
//   - backend.go: backend preference parsing and fallback on engine start.
//   - initialize.go: Initialize; builds engine and conversation exactly once.
//   - admission.go: single in-flight turn guard.
//   - stream.go, send.go: Send and the chunk Stream it returns.
//   - cleanup.go: Cleanup/Close; release errors are logged, never returned.
//   - status_report.go: Snapshot/Status reporting helpers.
//   - events.go: lifecycle events for observers.
//
// Build tags and runtimes:
//
//   - In-process llama (standard):
//     Uses the go-llama.cpp adapter. Enabled with `-tags=llama`.
//     Files: adapter_llama.go, llama_cgo.go (linker rpath hints).
//     GPU offload additionally needs `-tags=cublas` or `-tags=metal`;
//     otherwise the gpu backend fails to start and the cpu backend is used.
//     A no-CGO stub exists when the tag is not set: adapter_llama_stub.go.
//
// One Manager is constructed at process start and handed to whoever drives
// the conversation; it is not a package-level singleton.
package manager
