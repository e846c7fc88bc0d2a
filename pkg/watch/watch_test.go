package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchRunsCallbackOnStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, t.TempDir(), DefaultDebounce, func(context.Context) {
			calls.Add(1)
			cancel()
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return after cancellation")
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatchDebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	revalidated := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, 50*time.Millisecond, func(context.Context) {
			if calls.Add(1) > 1 {
				revalidated <- struct{}{}
			}
		})
	}()

	// Give the watcher time to register before generating events.
	time.Sleep(200 * time.Millisecond)

	// A burst of writes collapses into one re-validation.
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte("body\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-revalidated:
	case <-time.After(5 * time.Second):
		t.Fatal("watch never re-validated after file changes")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatchMissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope"), DefaultDebounce, func(context.Context) {})
	assert.Error(t, err)
}
