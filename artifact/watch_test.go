package artifact

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/delaycast/pkg/log"
)

func TestWatch_FiresOnAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trained_model.gob")
	logger, _ := log.NewTestLogger(log.LevelDebug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, logger, func() { calls.Add(1) })
	}()

	require.Eventually(t, func() bool {
		return logger.ContainsMessage("watching model artifact")
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644))

	store := NewFileStore(path, logger)
	require.NoError(t, store.Save(fittedModel(t)))

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_CreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "trained_model.gob")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, Watch(ctx, path, nil, func() {}))
	assert.DirExists(t, filepath.Dir(path))
}
