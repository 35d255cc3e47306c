package simplesearch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// writeLock serializes writers of one index across processes. A nil
// writeLock is a no-op.
type writeLock struct {
	path  string
	flock *flock.Flock
}

func newWriteLock(path string) *writeLock {
	if path == "" {
		return nil
	}
	return &writeLock{path: path, flock: flock.New(path)}
}

// acquire blocks until the lock is held or ctx is done and returns the
// release function.
func (l *writeLock) acquire(ctx context.Context) (func(), error) {
	if l == nil {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, Wrap(ErrIO, "create lock directory", err)
	}
	locked, err := l.flock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, Wrap(ErrIO, "acquire write lock", err)
	}
	if !locked {
		return nil, Wrap(ErrIO, "acquire write lock", fmt.Errorf("lock %s not acquired", l.path))
	}
	return func() { _ = l.flock.Unlock() }, nil
}

// lockWriter takes the in-process mutex and then the file lock. The order
// matters: a *flock.Flock reports success when it is already held, so two
// writers sharing it must not both reach acquire.
func (ix *Index) lockWriter(ctx context.Context) (func(), error) {
	ix.mu.Lock()
	release, err := ix.lock.acquire(ctx)
	if err != nil {
		ix.mu.Unlock()
		return nil, err
	}
	return func() {
		release()
		ix.mu.Unlock()
	}, nil
}
