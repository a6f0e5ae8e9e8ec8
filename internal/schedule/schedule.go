// Package schedule decides when the rigs illuminate and how long they sleep.
// Everything here is pure: callers supply the readings and clock offsets.
package schedule

import (
	"time"

	"github.com/smazurov/lightnode/internal/daytime"
)

// Decision is the outcome of a scheduling check.
type Decision struct {
	// Sleep is how long to go dormant with the lights off. Zero means keep running.
	Sleep  time.Duration
	Reason string
}

// Sleeping reports whether the decision turns the lights off.
func (d Decision) Sleeping() bool {
	return d.Sleep > 0
}

var run = Decision{Reason: "run"}

// Tree schedules the tree rig against a clock and sunset broadcast.
// All times are offsets from local midnight.
type Tree struct {
	BeforeSunset time.Duration
	// StopTime is when the lights go out for the night. Zero never stops.
	StopTime       time.Duration
	SleepTime      time.Duration
	IgnoreSunset   bool
	BrightnessLow  float64
	BrightnessHigh float64
}

// Start returns when the lights come on for a given sunset.
func (t Tree) Start(sunset time.Duration) time.Duration {
	return daytime.Wrap(sunset - t.BeforeSunset)
}

// InWindow reports whether now falls between the start time and the stop
// time. The window may wrap past midnight.
func (t Tree) InWindow(now, sunset time.Duration) bool {
	start := t.Start(sunset)
	now = daytime.Wrap(now)
	switch {
	case t.StopTime == 0:
		return now >= start
	case start <= t.StopTime:
		return now >= start && now < t.StopTime
	default:
		return now >= start || now < t.StopTime
	}
}

// BeforeSetTime is checked once when the rig first learns the clock and
// sunset. Outside the run window the lights stay off until the start time.
func (t Tree) BeforeSetTime(now, sunset time.Duration) Decision {
	if t.IgnoreSunset || t.InWindow(now, sunset) {
		return run
	}
	return Decision{
		Sleep:  daytime.Wrap(t.Start(sunset) - daytime.Wrap(now)),
		Reason: "waiting for sunset",
	}
}

// Shutdown is checked on every later clock or sunset update. Once the stop
// time passes the lights go off for SleepTime, or until the next start time
// when SleepTime is unset. With IgnoreSunset the run window is midnight to
// StopTime and the next start is midnight.
func (t Tree) Shutdown(now, sunset time.Duration) Decision {
	if t.StopTime == 0 {
		return run
	}
	if t.IgnoreSunset {
		if daytime.Wrap(now) < t.StopTime {
			return run
		}
	} else if t.InWindow(now, sunset) {
		return run
	}
	sleep := t.SleepTime
	if sleep <= 0 {
		start := t.Start(sunset)
		if t.IgnoreSunset {
			start = 0
		}
		sleep = daytime.Wrap(start - daytime.Wrap(now))
	}
	return Decision{Sleep: sleep, Reason: "past stop time"}
}

// Brightness returns the strip level: low during the lead-in before sunset,
// high once the sun is down.
func (t Tree) Brightness(now, sunset time.Duration) float64 {
	start := t.Start(sunset)
	now = daytime.Wrap(now)
	sunset = daytime.Wrap(sunset)

	var dusk bool
	if start <= sunset {
		dusk = now >= start && now < sunset
	} else {
		dusk = now >= start || now < sunset
	}
	if dusk {
		return t.BrightnessLow
	}
	return t.BrightnessHigh
}

// Star schedules the star rig against a light sensor and elapsed run time.
type Star struct {
	// Threshold is the reading at or below which it is dark enough.
	// Zero runs all the time.
	Threshold   int
	StopAfter   time.Duration
	MiddaySleep time.Duration
	NightSleep  time.Duration
}

// ShouldStart reports whether the lights should come on.
func (s Star) ShouldStart(reading int) bool {
	return s.Threshold == 0 || reading <= s.Threshold
}

// Check decides whether running lights should go dormant. Brightness is
// checked before elapsed time.
func (s Star) Check(reading int, elapsed time.Duration) Decision {
	if s.Threshold == 0 {
		return run
	}
	if reading > s.Threshold {
		return Decision{Sleep: s.MiddaySleep, Reason: "too bright"}
	}
	if elapsed >= s.StopAfter {
		return Decision{Sleep: s.NightSleep, Reason: "run time elapsed"}
	}
	return run
}
