package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// Dir is the lock directory inside the data directory
const Dir = "locks"

// RetryDelay is how often a contended lock is polled
const RetryDelay = 20 * time.Millisecond

// With runs fn while holding an advisory lock on path. Shared locks admit
// other shared holders; an exclusive lock waits for every holder to leave.
// The wait ends early when ctx is done.
func With(ctx context.Context, path string, shared bool, fn func() error) error {
	unlock, err := acquire(ctx, path, shared)
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

func acquire(ctx context.Context, path string, shared bool) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(path)
	try := fl.TryLockContext
	if shared {
		try = fl.TryRLockContext
	}
	ok, err := try(ctx, RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", filepath.Base(path), err)
	}
	if !ok {
		return nil, fmt.Errorf("failed to lock %s", filepath.Base(path))
	}
	return func() { _ = fl.Unlock() }, nil
}

// FileLocker hands out one lock file per key under a directory, so
// processes sharing a data directory take turns on the same challenge
type FileLocker struct {
	dir string
}

// NewFileLocker creates a locker rooted at dir
func NewFileLocker(dir string) *FileLocker {
	return &FileLocker{dir: dir}
}

// Lock blocks until key is exclusively held and returns its release func
func (l *FileLocker) Lock(ctx context.Context, key string) (func(), error) {
	return acquire(ctx, filepath.Join(l.dir, key+".lock"), false)
}

var _ usecase.ProcessLock = (*FileLocker)(nil)
