// Package fetch downloads the model asset to local storage and reports
// progress as a lazy sequence of events.
//
// A Fetch sequence is single-pass: it performs the HTTP request when the
// caller starts ranging over it and releases the connection and file handle
// as soon as the caller stops, whether that is after the terminal event or
// earlier.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"iter"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lmchat/internal/common/fsutil"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultChunkSize = 256 * 1024
	defaultUserAgent = "lmchat/1.0"
	partSuffix       = ".part"
)

// Config holds Fetcher tunables. Zero values select defaults.
type Config struct {
	Client    *http.Client
	ChunkSize int
	// SHA256 is the expected hex digest of the asset. Empty disables verification.
	SHA256    string
	UserAgent string
	Logger    *zerolog.Logger
}

// Fetcher downloads remote assets. It is safe for concurrent use; concurrent
// attempts against the same target path are rejected.
type Fetcher struct {
	client    *http.Client
	chunkSize int
	sha256    string
	userAgent string
	log       zerolog.Logger

	mu     sync.Mutex
	active map[string]struct{}
}

// New constructs a Fetcher from cfg.
func New(cfg Config) *Fetcher {
	f := &Fetcher{
		client:    cfg.Client,
		chunkSize: cfg.ChunkSize,
		sha256:    strings.ToLower(strings.TrimSpace(cfg.SHA256)),
		userAgent: cfg.UserAgent,
		active:    make(map[string]struct{}),
	}
	if f.client == nil {
		f.client = &http.Client{}
	}
	if f.chunkSize <= 0 {
		f.chunkSize = defaultChunkSize
	}
	if f.userAgent == "" {
		f.userAgent = defaultUserAgent
	}
	if cfg.Logger != nil {
		f.log = *cfg.Logger
	} else {
		f.log = zerolog.Nop()
	}
	return f
}

// Exists reports whether targetPath is already present locally. It never
// touches the network and does not validate the content.
func (f *Fetcher) Exists(targetPath string) bool {
	return fsutil.FileExists(targetPath)
}

// Fetch returns the progress sequence for downloading sourceURL into
// targetPath. Nothing happens until the sequence is ranged over, and it can
// be ranged over only once; later iterations yield nothing.
func (f *Fetcher) Fetch(ctx context.Context, sourceURL, targetPath string) iter.Seq[Progress] {
	var consumed atomic.Bool
	return func(yield func(Progress) bool) {
		if !consumed.CompareAndSwap(false, true) {
			return
		}
		f.run(ctx, sourceURL, targetPath, yield)
	}
}

// Download drives Fetch to completion, forwarding every event to onProgress
// (which may be nil). It returns the error carried by Failed, or nil.
func (f *Fetcher) Download(ctx context.Context, sourceURL, targetPath string, onProgress func(Progress)) error {
	for p := range f.Fetch(ctx, sourceURL, targetPath) {
		if onProgress != nil {
			onProgress(p)
		}
		if failed, ok := p.(Failed); ok {
			return failed.Err
		}
	}
	return nil
}

func (f *Fetcher) run(ctx context.Context, sourceURL, targetPath string, yield func(Progress) bool) {
	if f.Exists(targetPath) {
		f.log.Debug().Str("path", targetPath).Msg("fetch skipped, asset present")
		yield(Complete{Path: targetPath})
		return
	}
	log := f.log.With().Str("download_id", uuid.NewString()).Str("path", targetPath).Logger()
	fail := func(err error) {
		log.Warn().Err(err).Msg("fetch failed")
		yield(Failed{Message: err.Error(), Err: err})
	}

	if !f.acquire(targetPath) {
		fail(filesystemError{op: "lock", path: targetPath, err: errFetchInFlight})
		return
	}
	defer f.release(targetPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		fail(networkError{op: "request", err: err})
		return
	}
	req.Header.Set("User-Agent", f.userAgent)
	resp, err := f.client.Do(req)
	if err != nil {
		fail(networkError{op: "connect", err: err})
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		fail(networkError{op: "get", err: fmt.Errorf("unexpected status %d", resp.StatusCode)})
		return
	}

	total := resp.ContentLength
	start := time.Now()
	log.Info().Str("url", sourceURL).Int64("total_bytes", total).Msg("fetch started")
	if !yield(Started{}) {
		return
	}

	if err := fsutil.EnsureParentDir(targetPath); err != nil {
		fail(filesystemError{op: "mkdir", path: targetPath, err: err})
		return
	}
	partPath := targetPath + partSuffix
	file, err := os.Create(partPath)
	if err != nil {
		fail(filesystemError{op: "create", path: partPath, err: err})
		return
	}
	closed := false
	defer func() {
		if !closed {
			_ = file.Close()
		}
	}()

	var digest hash.Hash
	if f.sha256 != "" {
		digest = sha256.New()
	}
	buf := make([]byte, f.chunkSize)
	var downloaded int64
	for {
		n, rerr := fill(resp.Body, buf)
		if n > 0 {
			if _, err := file.Write(buf[:n]); err != nil {
				fail(filesystemError{op: "write", path: partPath, err: err})
				return
			}
			if digest != nil {
				digest.Write(buf[:n])
			}
			downloaded += int64(n)
			ev := InProgress{ChunkBytes: int64(n), BytesDownloaded: downloaded, TotalBytes: total}
			if total > 0 {
				ev.Percent = float64(downloaded) * 100 / float64(total)
			}
			if !yield(ev) {
				log.Debug().Int64("bytes", downloaded).Msg("fetch abandoned by consumer")
				return
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			fail(networkError{op: "read", err: rerr})
			return
		}
	}
	if total >= 0 && downloaded != total {
		fail(networkError{op: "read", err: fmt.Errorf("transfer interrupted after %d of %d bytes", downloaded, total)})
		return
	}

	closed = true
	if err := file.Close(); err != nil {
		fail(filesystemError{op: "close", path: partPath, err: err})
		return
	}
	if digest != nil {
		if got := hex.EncodeToString(digest.Sum(nil)); got != f.sha256 {
			fail(filesystemError{op: "verify", path: partPath, err: fmt.Errorf("%w: got %s", ErrChecksumMismatch, got)})
			return
		}
	}
	if err := os.Rename(partPath, targetPath); err != nil {
		fail(filesystemError{op: "rename", path: targetPath, err: err})
		return
	}
	log.Info().Int64("bytes", downloaded).Dur("dur", time.Since(start)).Msg("fetch complete")
	yield(Complete{Path: targetPath})
}

// fill reads until buf is full or r reports an error.
func fill(r io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (f *Fetcher) acquire(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.active[path]; busy {
		return false
	}
	f.active[path] = struct{}{}
	return true
}

func (f *Fetcher) release(path string) {
	f.mu.Lock()
	delete(f.active, path)
	f.mu.Unlock()
}
