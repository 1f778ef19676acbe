package fetch

// Progress is one event of a download attempt. Concrete values are Started,
// InProgress, Complete and Failed; consumers are expected to type-switch over
// all four. Every attempt ends with exactly one Complete or Failed.
type Progress interface {
	isProgress()
}

// Started is emitted once the remote server accepted the request.
type Started struct{}

// InProgress is emitted after every chunk written to disk.
type InProgress struct {
	// Percent is only meaningful when PercentKnown reports true.
	Percent         float64
	ChunkBytes      int64
	BytesDownloaded int64
	// TotalBytes is -1 when the server did not announce a length.
	TotalBytes int64
}

// PercentKnown reports whether the server announced the total size.
func (p InProgress) PercentKnown() bool { return p.TotalBytes > 0 }

// Complete carries the local path of the finished asset.
type Complete struct {
	Path string
}

// Failed terminates an attempt. Err is a NetworkError or FilesystemError
// (see IsNetwork / IsFilesystem); Message is its human-readable form.
type Failed struct {
	Message string
	Err     error
}

func (Started) isProgress()    {}
func (InProgress) isProgress() {}
func (Complete) isProgress()   {}
func (Failed) isProgress()     {}

// IsTerminal reports whether p ends a download attempt.
func IsTerminal(p Progress) bool {
	switch p.(type) {
	case Complete, Failed:
		return true
	default:
		return false
	}
}
