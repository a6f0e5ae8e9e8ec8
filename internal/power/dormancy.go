// Package power emulates the board's timed deep sleep on a Linux host.
package power

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/lightnode/internal/metrics"
	"github.com/smazurov/lightnode/internal/palette"
	"github.com/smazurov/lightnode/internal/pixels"
)

// Sleeper blanks the lights and blocks for a duration.
type Sleeper interface {
	// Sleep returns nil when the duration elapsed or the sleep was cut short by
	// Wake, and ctx.Err() when ctx is cancelled.
	Sleep(ctx context.Context, d time.Duration) error
}

// Dormancy turns a strip dark for a timed sleep. Callers reset their own
// state after Sleep returns, as a board does after waking from deep sleep.
type Dormancy struct {
	rig    string
	strip  pixels.Strip
	logger *slog.Logger
	wake   chan struct{}

	mu    sync.Mutex
	until time.Time
}

// NewDormancy creates a sleeper for the named rig.
func NewDormancy(rig string, strip pixels.Strip, logger *slog.Logger) *Dormancy {
	return &Dormancy{
		rig:    rig,
		strip:  strip,
		logger: logger,
		wake:   make(chan struct{}, 1),
	}
}

// Sleep implements Sleeper.
func (d *Dormancy) Sleep(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return nil
	}

	d.strip.Fill(palette.Off)
	if err := d.strip.Show(); err != nil {
		d.logger.Warn("Failed to blank strip before sleep", "error", err)
	}

	// Drop a stale wake request from before this sleep.
	select {
	case <-d.wake:
	default:
	}

	d.mu.Lock()
	d.until = time.Now().Add(dur)
	d.mu.Unlock()

	metrics.SetDormant(d.rig, true)
	metrics.AddDormancy(d.rig, dur.Seconds())
	d.logger.Info("Going dormant", "duration", dur, "until", d.Until().Format(time.TimeOnly))

	defer func() {
		d.mu.Lock()
		d.until = time.Time{}
		d.mu.Unlock()
		metrics.SetDormant(d.rig, false)
	}()

	timer := time.NewTimer(dur)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.wake:
		d.logger.Info("Woken early")
		return nil
	case <-timer.C:
		d.logger.Info("Waking from dormancy")
		return nil
	}
}

// Wake cuts the current sleep short. It is a no-op when not sleeping.
func (d *Dormancy) Wake() {
	if d.Until().IsZero() {
		return
	}
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Until returns when the current sleep ends, or the zero time when awake.
func (d *Dormancy) Until() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.until
}
