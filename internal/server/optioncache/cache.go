// Package optioncache keeps a local copy of the service-option snapshot
// published to object storage. Concurrent cold-start callers share one
// download; later callers read the local file without locking.
package optioncache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/logm8/logmate/internal/logging"
	"github.com/logm8/logmate/internal/server/repositories/serviceoptions"
)

type state int32

const (
	stateAbsent state = iota
	stateDownloading
	statePresent
)

func (s state) String() string {
	switch s {
	case stateAbsent:
		return "absent"
	case stateDownloading:
		return "downloading"
	case statePresent:
		return "present"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Downloader fetches an object from a bucket.
type Downloader interface {
	Download(ctx context.Context, bucket, key string, w io.Writer) (int64, error)
}

// Cache guards the local snapshot file.
//
// The state field is only written with mu held; the atomic copy lets the
// present case skip the lock.
type Cache struct {
	mu    sync.Mutex
	cond  *sync.Cond
	state state
	fast  atomic.Int32

	dl     Downloader
	bucket string
	key    string
	path   string
	logger logging.Logger
}

// New returns a Cache that stores bucket/key under dir. A key ending in
// ".zst" is decompressed and stored without the suffix.
func New(dl Downloader, bucket, key, dir string, logger logging.Logger) *Cache {
	c := &Cache{
		dl:     dl,
		bucket: bucket,
		key:    key,
		path:   filepath.Join(dir, strings.TrimSuffix(filepath.Base(key), ".zst")),
		logger: logger.With("module", "optioncache"),
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Path is the local snapshot location.
func (c *Cache) Path() string { return c.path }

func (c *Cache) setState(s state) {
	c.state = s
	c.fast.Store(int32(s))
}

// Ensure makes sure the snapshot is on disk, downloading it at most once
// across concurrent callers. A file left by a previous process is reused.
func (c *Cache) Ensure(ctx context.Context) error {
	if state(c.fast.Load()) == statePresent {
		return nil
	}

	c.mu.Lock()
	for c.state == stateDownloading {
		c.cond.Wait()
	}
	if c.state == statePresent {
		c.mu.Unlock()
		return nil
	}
	if _, err := os.Stat(c.path); err == nil {
		c.setState(statePresent)
		c.mu.Unlock()
		return nil
	}
	c.setState(stateDownloading)
	c.mu.Unlock()

	return c.fetch(ctx)
}

// Refresh downloads the snapshot again, replacing the local copy. Readers
// that already opened the old file keep reading it.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	for c.state == stateDownloading {
		c.cond.Wait()
	}
	prev := c.state
	c.setState(stateDownloading)
	c.mu.Unlock()

	err := c.fetch(ctx)
	if err != nil && prev == statePresent {
		// the old file is still in place
		c.mu.Lock()
		c.setState(statePresent)
		c.mu.Unlock()
	}
	return err
}

// fetch runs with state == downloading and always leaves another state
// behind, waking any waiters.
func (c *Cache) fetch(ctx context.Context) (err error) {
	defer func() {
		c.mu.Lock()
		if err != nil {
			c.setState(stateAbsent)
		} else {
			c.setState(statePresent)
		}
		c.cond.Broadcast()
		c.mu.Unlock()
	}()

	c.logger.Info(ctx, "downloading service options snapshot", "bucket", c.bucket, "key", c.key)

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("error creating cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	var w io.Writer = tmp
	var dec *zstd.Decoder
	var pw *io.PipeWriter
	done := make(chan error, 1)

	if strings.HasSuffix(c.key, ".zst") {
		var pr *io.PipeReader
		pr, pw = io.Pipe()
		dec, err = zstd.NewReader(pr)
		if err != nil {
			_ = tmp.Close()
			return fmt.Errorf("error creating zstd decoder: %w", err)
		}
		defer dec.Close()
		go func() {
			_, cerr := io.Copy(tmp, dec)
			_ = pr.CloseWithError(cerr)
			done <- cerr
		}()
		w = pw
	}

	n, err := c.dl.Download(ctx, c.bucket, c.key, w)
	if pw != nil {
		_ = pw.CloseWithError(err)
		if derr := <-done; err == nil && derr != nil {
			err = fmt.Errorf("error decompressing snapshot: %w", derr)
		}
	}
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		c.logger.Error(ctx, "snapshot download failed", "error", err)
		return err
	}

	if err := os.Rename(tmpName, c.path); err != nil {
		return fmt.Errorf("error installing snapshot: %w", err)
	}

	c.logger.Info(ctx, "service options snapshot ready", "path", c.path, "bytes", n)
	return nil
}

// ErrNotReady is returned by WithReader when the snapshot could not be
// fetched.
var ErrNotReady = errors.New("service options snapshot not available")

// WithReader ensures the snapshot and calls fn with a read-only reader over
// it. The database handle is closed when fn returns.
func (c *Cache) WithReader(ctx context.Context, fn func(serviceoptions.Reader) error) error {
	if err := c.Ensure(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}

	db, err := sql.Open("sqlite", "file:"+c.path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("error opening snapshot: %w", err)
	}
	defer db.Close()

	return fn(serviceoptions.NewSQLReader(db))
}
