// Package animation provides frame-stepped LED animations that never block.
//
// Every animation keeps its own speed. Animate is cheap to call far more often
// than the animation's speed; it only draws and shows a frame once the speed
// interval has elapsed, so a single loop can drive animations while doing
// other periodic work.
package animation

import (
	"time"

	"github.com/smazurov/lightnode/internal/pixels"
)

// Animation is a single non-blocking effect bound to a strip.
type Animation interface {
	Name() string
	// Animate draws the next frame if one is due and reports whether it did.
	Animate(now time.Time) bool
	// Reset restarts the animation from its first frame.
	Reset()
}

// frameFunc draws one frame. elapsed is the time since the animation started.
type frameFunc func(frame int, elapsed time.Duration)

// ticker implements the shared pacing for every animation kind.
type ticker struct {
	name  string
	strip pixels.Strip
	speed time.Duration
	draw  frameFunc

	started time.Time
	next    time.Time
	frame   int
}

func newTicker(name string, strip pixels.Strip, speed time.Duration) *ticker {
	if speed <= 0 {
		speed = 10 * time.Millisecond
	}
	return &ticker{name: name, strip: strip, speed: speed}
}

func (t *ticker) Name() string {
	return t.name
}

func (t *ticker) Animate(now time.Time) bool {
	if t.started.IsZero() {
		t.started = now
		t.next = now
	}
	if now.Before(t.next) {
		return false
	}

	t.draw(t.frame, now.Sub(t.started))
	_ = t.strip.Show()
	t.frame++

	// Skip missed frames instead of replaying them in a burst.
	t.next = t.next.Add(t.speed)
	if !t.next.After(now) {
		t.next = now.Add(t.speed)
	}
	return true
}

func (t *ticker) Reset() {
	t.started = time.Time{}
	t.frame = 0
}
