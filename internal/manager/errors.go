package manager

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by Initialize after Close.
var ErrClosed = errors.New("session manager closed")

// tooBusyError signals an overlapping Send while a stream is still live.
type tooBusyError struct{}

func (tooBusyError) Error() string { return "too busy: a response is still streaming" }

// IsTooBusy reports whether err indicates an overlapping turn (return 429).
func IsTooBusy(err error) bool {
	var e tooBusyError
	return errors.As(err, &e)
}

// notInitializedError signals Send before a successful Initialize.
type notInitializedError struct{ state State }

func (e notInitializedError) Error() string {
	return fmt.Sprintf("session not initialized (state %s)", e.state)
}

// IsNotInitialized reports whether err indicates Send on a session that is not ready.
func IsNotInitialized(err error) bool {
	var e notInitializedError
	return errors.As(err, &e)
}

// modelConflictError signals Initialize for a model other than the one the
// session holds or is loading.
type modelConflictError struct{ loaded, requested string }

func (e modelConflictError) Error() string {
	return fmt.Sprintf("session holds model %s; cleanup before initializing %s", e.loaded, e.requested)
}

// IsModelConflict reports whether err came from Initialize with a different model (return 409).
func IsModelConflict(err error) bool {
	var e modelConflictError
	return errors.As(err, &e)
}

// engineInitError wraps the cause of a failed Initialize.
type engineInitError struct {
	step string
	err  error
}

func (e engineInitError) Error() string { return "engine init: " + e.step + ": " + e.err.Error() }
func (e engineInitError) Unwrap() error { return e.err }

// IsEngineInit reports whether err came from a failed Initialize.
func IsEngineInit(err error) bool {
	var e engineInitError
	return errors.As(err, &e)
}

// dependencyUnavailableError signals a missing external dependency (e.g., llama.cpp)
// so the HTTP layer can return 503 Service Unavailable instead of 500.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}
