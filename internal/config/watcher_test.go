package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newWatcherTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeWatcherConfig(t *testing.T, path string, captureType string) {
	t.Helper()
	content := `{ "capture": { "type": "` + captureType + `" } }`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.conf")
	writeWatcherConfig(t, path, "display")

	received := make(chan Loaded, 1)
	w := NewWatcher(path, newWatcherTestLogger(), WithDebounce(50*time.Millisecond))
	defer w.OnReload(func(loaded Loaded) { received <- loaded })()

	require.NoError(t, w.Start())
	defer func() { require.NoError(t, w.Stop()) }()

	time.Sleep(100 * time.Millisecond)
	writeWatcherConfig(t, path, "window")

	select {
	case loaded := <-received:
		require.Equal(t, "window", loaded.Config.Capture.Type)
		require.True(t, loaded.Exists)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for config reload")
	}
}

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.conf")
	writeWatcherConfig(t, path, "display")

	var reloads atomic.Int32
	w := NewWatcher(path, newWatcherTestLogger(), WithDebounce(200*time.Millisecond))
	defer w.OnReload(func(Loaded) { reloads.Add(1) })()

	require.NoError(t, w.Start())
	defer func() { require.NoError(t, w.Stop()) }()

	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 5; i++ {
		writeWatcherConfig(t, path, "window")
		time.Sleep(40 * time.Millisecond)
	}

	time.Sleep(600 * time.Millisecond)
	require.Equal(t, int32(1), reloads.Load())
}

func TestWatcherReportsLoadErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.conf")
	writeWatcherConfig(t, path, "display")

	errs := make(chan error, 1)
	reloaded := make(chan Loaded, 1)
	w := NewWatcher(
		path,
		newWatcherTestLogger(),
		WithDebounce(50*time.Millisecond),
		WithErrorHandler(func(err error) { errs <- err }),
	)
	defer w.OnReload(func(loaded Loaded) { reloaded <- loaded })()

	require.NoError(t, w.Start())
	defer func() { require.NoError(t, w.Stop()) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`{ "capture": { "type": "hologram" } }`), 0o644))

	select {
	case err := <-errs:
		require.ErrorContains(t, err, "capture.type")
	case <-reloaded:
		t.Fatal("reload handler should not fire for invalid config")
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for reload error")
	}
}

func TestWatcherStopSuppressesHandlers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.conf")
	writeWatcherConfig(t, path, "display")

	var reloads atomic.Int32
	w := NewWatcher(path, newWatcherTestLogger(), WithDebounce(50*time.Millisecond))
	defer w.OnReload(func(Loaded) { reloads.Add(1) })()

	require.NoError(t, w.Start())
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, w.Stop())

	writeWatcherConfig(t, path, "window")
	time.Sleep(300 * time.Millisecond)
	require.Equal(t, int32(0), reloads.Load())
}
