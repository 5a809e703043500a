package lockfile_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuzu-memory/kuzu-memory/internal/lockfile"
)

func TestTryAcquireZeroTimeoutBusy(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "memories.db")
	l := lockfile.New(dbPath)

	h1, err := l.TryAcquire(context.Background(), 0)
	require.NoError(t, err)
	defer h1.Release()

	_, err = l.TryAcquire(context.Background(), 0)
	assert.ErrorIs(t, err, lockfile.ErrBusy)
}

func TestTryAcquireWithTimeoutSucceedsAfterRelease(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "memories.db")
	l := lockfile.New(dbPath)

	h1, err := l.TryAcquire(context.Background(), 0)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		h1.Release()
	}()

	start := time.Now()
	h2, err := l.TryAcquire(context.Background(), time.Second)
	require.NoError(t, err)
	defer h2.Release()
	assert.Less(t, time.Since(start), time.Second)
}

func TestTryAcquireTimesOut(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "memories.db")
	l := lockfile.New(dbPath)

	h1, err := l.TryAcquire(context.Background(), 0)
	require.NoError(t, err)
	defer h1.Release()

	_, err = l.TryAcquire(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, lockfile.ErrBusy)
}

func TestReleaseIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "memories.db")
	l := lockfile.New(dbPath)

	h, err := l.TryAcquire(context.Background(), 0)
	require.NoError(t, err)
	assert.NoError(t, h.Release())
	assert.NoError(t, h.Release())
}

func TestHookPathReturnsWithin50ms(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "memories.db")
	l := lockfile.New(dbPath)

	h1, err := l.TryAcquire(context.Background(), 0)
	require.NoError(t, err)
	defer h1.Release()

	start := time.Now()
	_, err = l.TryAcquire(context.Background(), 0)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, lockfile.ErrBusy)
	assert.Less(t, elapsed, 50*time.Millisecond)
}
