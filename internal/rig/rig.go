// Package rig runs the tree and star light installations.
//
// A runner owns its strip for the lifetime of Run. The tree runner animates
// every frame and handles broker events on a slower poll interval; the star
// runner ticks against its light sensor and plays the scripted show.
package rig

import (
	"context"
	"time"

	"github.com/smazurov/lightnode/internal/config"
	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/metrics"
	"github.com/smazurov/lightnode/internal/power"
)

// Runner is a rig main loop.
type Runner interface {
	Name() string
	// Run blocks until ctx is cancelled or a fatal strip error occurs.
	Run(ctx context.Context) error
	Status() Status
	// Reload applies a changed rig file.
	Reload(cfg config.RigConfig)
	// Wake cuts a dormant period short.
	Wake()
}

// Status is a point-in-time snapshot of a runner.
type Status struct {
	Rig          string    `json:"rig" example:"tree" doc:"Rig kind"`
	LightsOn     bool      `json:"lights_on" doc:"Whether the lights are on"`
	Dormant      bool      `json:"dormant" doc:"Whether the rig is sleeping"`
	DormantUntil time.Time `json:"dormant_until,omitzero" doc:"When the current sleep ends"`
	Reason       string    `json:"reason,omitempty" example:"past stop time" doc:"Last scheduling decision"`
	Brightness   float64   `json:"brightness" example:"0.5" doc:"Strip brightness"`
	Frames       uint64    `json:"frames" doc:"Frames shown since start"`

	// Tree
	Running        bool   `json:"running,omitempty" doc:"Clock and sunset known and the first schedule check done"`
	Animation      string `json:"animation,omitempty" example:"rainbow" doc:"Current animation"`
	AnimationIndex int    `json:"animation_index,omitempty" doc:"Position in the animation sequence"`
	Clock          string `json:"clock,omitempty" example:"17:45:10" doc:"Last clock broadcast"`
	Sunset         string `json:"sunset,omitempty" example:"16:52:00" doc:"Sunset in use"`
	SunsetSource   string `json:"sunset_source,omitempty" example:"broadcast" doc:"broadcast or computed"`
	WANActive      bool   `json:"wan_active,omitempty" doc:"Result of the last connectivity probe"`

	// Star
	LightLevel int       `json:"light_level,omitempty" doc:"Last light sensor reading"`
	Cycle      int       `json:"cycle,omitempty" doc:"Light show cycle counter"`
	StartedAt  time.Time `json:"started_at,omitzero" doc:"When the lights last came on"`
}

// ConfigApplier persists a single rig setting.
type ConfigApplier interface {
	Apply(key, value string) (string, error)
}

// WANChecker reports internet reachability.
type WANChecker interface {
	Active(ctx context.Context) bool
}

type alwaysOnline struct{}

func (alwaysOnline) Active(context.Context) bool { return true }

// seconds converts a config value in seconds.
func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func wake(s power.Sleeper) {
	if w, ok := s.(interface{ Wake() }); ok {
		w.Wake()
	}
}

// announce publishes a lights state change and mirrors it into metrics.
func announce(bus *events.Bus, rig string, on, dormant bool, reason string) {
	metrics.SetLightsOn(rig, on)
	if bus == nil {
		return
	}
	bus.Publish(events.LightsStateChangedEvent{
		Rig:       rig,
		LightsOn:  on,
		Dormant:   dormant,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
