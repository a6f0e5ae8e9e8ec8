package rig

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smazurov/lightnode/internal/config"
	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/pixels"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSleeper records sleeps and returns at once unless hold is set.
type fakeSleeper struct {
	mu    sync.Mutex
	calls []time.Duration
	hold  chan struct{}
}

func (f *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	f.calls = append(f.calls, d)
	hold := f.hold
	f.mu.Unlock()

	if hold == nil {
		return nil
	}
	select {
	case <-hold:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeSleeper) Calls() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.calls...)
}

type fakeWAN struct {
	down atomic.Bool
}

func (f *fakeWAN) Active(context.Context) bool {
	return !f.down.Load()
}

type fakeStore struct {
	mu      sync.Mutex
	applied [][2]string
}

func (f *fakeStore) Apply(key, value string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, [2]string{key, value})
	return "tree." + key, nil
}

func (f *fakeStore) Applied() [][2]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]string(nil), f.applied...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// runRig starts r and returns a stop function that cancels it and waits for
// Run to return.
func runRig(t *testing.T, r Runner) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	return func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run returned %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	}
}

func newTestBus(t *testing.T) *events.Bus {
	t.Helper()
	bus := events.New()
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func newTestStrip() *pixels.Memory {
	return pixels.NewMemory(10, discardLogger())
}

func testRig() config.RigConfig {
	cfg := config.DefaultRig()
	cfg.Tree.BrightnessHigh = 0.8
	cfg.Tree.BrightnessLow = 0.1
	return cfg
}
