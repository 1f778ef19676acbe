package fetch

import (
	"errors"
	"fmt"
)

// ErrChecksumMismatch is wrapped by the filesystem error returned when the
// downloaded bytes do not hash to the configured SHA-256.
var ErrChecksumMismatch = errors.New("checksum mismatch")

var errFetchInFlight = errors.New("download already in progress")

// networkError covers connection failures, non-2xx answers and interrupted
// transfers.
type networkError struct {
	op  string
	err error
}

func (e networkError) Error() string { return fmt.Sprintf("network: %s: %v", e.op, e.err) }
func (e networkError) Unwrap() error { return e.err }

// IsNetwork reports whether err is a download network failure.
func IsNetwork(err error) bool {
	var ne networkError
	return errors.As(err, &ne)
}

// filesystemError covers failures creating, writing or renaming local files.
type filesystemError struct {
	op   string
	path string
	err  error
}

func (e filesystemError) Error() string {
	return fmt.Sprintf("filesystem: %s %s: %v", e.op, e.path, e.err)
}
func (e filesystemError) Unwrap() error { return e.err }

// IsFilesystem reports whether err is a local storage failure.
func IsFilesystem(err error) bool {
	var fe filesystemError
	return errors.As(err, &fe)
}
