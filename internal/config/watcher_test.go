package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startRigWatcher(t *testing.T, path string, opts ...WatcherOption[RigConfig]) *Watcher[RigConfig] {
	t.Helper()
	opts = append([]WatcherOption[RigConfig]{WithDebounce[RigConfig](50 * time.Millisecond)}, opts...)
	w := NewConfigWatcher(path, LoadRig, newTestLogger(), opts...)
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Errorf("watcher.Stop failed: %v", err)
		}
	})
	// Wait for watcher to initialize
	time.Sleep(100 * time.Millisecond)
	return w
}

func TestConfigWatcher_ReloadsAfterApply(t *testing.T) {
	path := writeRig(t, treeRig)

	received := make(chan RigConfig, 1)
	w := startRigWatcher(t, path)
	w.OnReload(func(cfg RigConfig) {
		select {
		case received <- cfg:
		default:
		}
	})

	if _, err := NewStore(path).Apply("brightness_high", "0.9"); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-received:
		if cfg.Tree.BrightnessHigh != 0.9 {
			t.Errorf("BrightnessHigh = %v, want 0.9", cfg.Tree.BrightnessHigh)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for config reload")
	}
}

func TestConfigWatcher_IgnoresSiblingFiles(t *testing.T) {
	path := writeRig(t, treeRig)

	var calls atomic.Int32
	w := startRigWatcher(t, path)
	w.OnReload(func(RigConfig) { calls.Add(1) })

	sibling := filepath.Join(filepath.Dir(path), "other.toml")
	if err := os.WriteFile(sibling, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("handler called %d times for an unrelated file", n)
	}
}

func TestConfigWatcher_Debounce(t *testing.T) {
	path := writeRig(t, treeRig)

	var calls atomic.Int32
	w := startRigWatcher(t, path, WithDebounce[RigConfig](200*time.Millisecond))
	w.OnReload(func(RigConfig) { calls.Add(1) })

	for range 5 {
		if err := os.WriteFile(path, []byte(treeRig), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	time.Sleep(600 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("handler called %d times, want 1", n)
	}
}

func TestConfigWatcher_ErrorHandler(t *testing.T) {
	path := writeRig(t, treeRig)

	errs := make(chan error, 1)
	var calls atomic.Int32
	w := startRigWatcher(t, path, WithErrorHandler[RigConfig](func(err error) {
		select {
		case errs <- err:
		default:
		}
	}))
	w.OnReload(func(RigConfig) { calls.Add(1) })

	if err := os.WriteFile(path, []byte("kind = \"tree\"\n[pixels]\ncount = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errs:
		if !errors.Is(err, ErrInvalidRig) {
			t.Errorf("error = %v, want ErrInvalidRig", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error callback")
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("handler called %d times for an invalid file", n)
	}
}

func TestConfigWatcher_Unsubscribe(t *testing.T) {
	path := writeRig(t, treeRig)
	w := NewConfigWatcher(path, LoadRig, newTestLogger())

	var first, second atomic.Int32
	unsub := w.OnReload(func(RigConfig) { first.Add(1) })
	w.OnReload(func(RigConfig) { second.Add(1) })

	w.Reload()
	unsub()
	w.Reload()

	if first.Load() != 1 {
		t.Errorf("unsubscribed handler called %d times, want 1", first.Load())
	}
	if second.Load() != 2 {
		t.Errorf("handler called %d times, want 2", second.Load())
	}
}

func TestConfigWatcher_StopWithoutStart(t *testing.T) {
	w := NewConfigWatcher("missing.toml", LoadRig, newTestLogger())
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() = %v", err)
	}
}

func TestConfigWatcher_StartMissingDirectory(t *testing.T) {
	w := NewConfigWatcher(filepath.Join(t.TempDir(), "nope", "rig.toml"), LoadRig, newTestLogger())
	if err := w.Start(); err == nil {
		w.Stop()
		t.Fatal("Start() should fail when the directory does not exist")
	}
}
