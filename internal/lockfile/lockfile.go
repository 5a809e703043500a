// Package lockfile provides advisory cross-process mutual exclusion around
// the KuzuMemory database file.
//
// A zero timeout is used by hook invocations that must never block: on
// contention they get ErrBusy immediately and treat it as normal flow
// control (skip, don't fail). Foreground callers pass a bounded timeout and
// poll until the lock frees up or the deadline passes.
package lockfile

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// ErrBusy indicates the lock is held elsewhere and could not be acquired
// within the requested timeout (possibly zero).
var ErrBusy = errors.New("lockfile: busy")

// pollInterval is how often TryAcquire retries while waiting for a
// contended lock to free up.
const pollInterval = 25 * time.Millisecond

// Lock guards a single database file's lock sidecar.
type Lock struct {
	path string
}

// New returns a Lock for the given database file path. It does not open or
// create the lock file; that happens lazily on first TryAcquire.
func New(dbPath string) *Lock {
	dir := filepath.Dir(dbPath)
	base := filepath.Base(dbPath)
	return &Lock{path: filepath.Join(dir, "."+base+".lock")}
}

// Handle is a scoped lock acquisition. Release is idempotent and safe to
// call from a defer, including after a panic unwinds the call stack — the
// canonical example of the scoped-resource-acquisition pattern.
type Handle struct {
	fl       *flock.Flock
	released bool
	mu       sync.Mutex
}

// TryAcquire attempts to acquire the lock.
//
//   - timeout == 0: a single non-blocking attempt; returns ErrBusy
//     immediately on contention. Used by hook paths.
//   - timeout > 0: polls every pollInterval until acquired, until timeout
//     elapses, or until ctx is done, whichever comes first.
func (l *Lock) TryAcquire(ctx context.Context, timeout time.Duration) (*Handle, error) {
	fl := flock.New(l.path)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lockfile: %s: %w", l.path, err)
	}
	if locked {
		return &Handle{fl: fl}, nil
	}
	if timeout <= 0 {
		return nil, ErrBusy
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lockfile: %s: %w", l.path, ctx.Err())
		case <-ticker.C:
			locked, err := fl.TryLock()
			if err != nil {
				return nil, fmt.Errorf("lockfile: %s: %w", l.path, err)
			}
			if locked {
				return &Handle{fl: fl}, nil
			}
			if time.Now().After(deadline) {
				return nil, ErrBusy
			}
		}
	}
}

// Release unlocks the handle. Safe to call more than once and safe to defer
// unconditionally, including from a deferred recover().
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}
	h.released = true
	return h.fl.Unlock()
}
