package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/lightnode/internal/animation"
	"github.com/smazurov/lightnode/internal/daytime"
	"github.com/smazurov/lightnode/internal/palette"
	"github.com/smazurov/lightnode/internal/pixels"
	"github.com/smazurov/lightnode/internal/sensor"
)

// Rig kinds.
const (
	KindTree = "tree"
	KindStar = "star"
)

// ErrInvalidRig is wrapped by every rig validation failure.
var ErrInvalidRig = errors.New("invalid rig config")

// RigConfig is the static configuration of one installation.
type RigConfig struct {
	Kind   string         `toml:"kind" json:"kind"`
	Tree   TreeConfig     `toml:"tree" json:"tree"`
	Star   StarConfig     `toml:"star" json:"star"`
	Pixels pixels.Options `toml:"pixels" json:"pixels"`
	Sensor sensor.Options `toml:"sensor" json:"sensor"`
}

// TreeConfig drives the sunset-scheduled strip.
type TreeConfig struct {
	BrightnessHigh      float64  `toml:"brightness_high" json:"brightness_high"`
	BrightnessLow       float64  `toml:"brightness_low" json:"brightness_low"`
	SecondsBeforeSunset int      `toml:"seconds_before_sunset" json:"seconds_before_sunset"`
	SleepTime           int      `toml:"sleep_time" json:"sleep_time"`
	StopTime            string   `toml:"stop_time" json:"stop_time"` // "HH:MM[:SS]", "0" runs all night
	IgnoreSunset        bool     `toml:"ignore_sunset" json:"ignore_sunset"`
	Animations          []string `toml:"animations" json:"animations"`
	Color               string   `toml:"color" json:"color"`
	Catalog             string   `toml:"catalog,omitempty" json:"catalog,omitempty"` // alternate animations.json

	// Used to compute sunset locally until a broadcast arrives.
	Latitude  float64 `toml:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude float64 `toml:"longitude,omitempty" json:"longitude,omitempty"`

	Overrides animation.Overrides `toml:"overrides" json:"overrides"`
}

// StarConfig drives the light-sensor-scheduled show.
type StarConfig struct {
	LightThreshold      int     `toml:"light_threshold" json:"light_threshold"`
	PixelBrightness     float64 `toml:"pixel_brightness" json:"pixel_brightness"`
	LLPrintIterationOff int     `toml:"ll_print_iteration_off" json:"ll_print_iteration_off"`
	LLPrintIterationOn  int     `toml:"ll_print_iteration_on" json:"ll_print_iteration_on"`
	MiddaySleepTime     int     `toml:"midday_sleep_time" json:"midday_sleep_time"`
	StopTime            int     `toml:"stop_time" json:"stop_time"` // seconds after lights on
	NightSleepTime      int     `toml:"night_sleep_time" json:"night_sleep_time"`
}

// DefaultRig returns the configuration used for keys missing from the rig file.
func DefaultRig() RigConfig {
	return RigConfig{
		Kind: KindTree,
		Tree: TreeConfig{
			BrightnessHigh:      0.5,
			BrightnessLow:       0.1,
			SecondsBeforeSunset: 1800,
			SleepTime:           0,
			StopTime:            "23:00",
			Animations:          []string{"rainbow"},
			Color:               "red",
		},
		Star: StarConfig{
			LightThreshold:      600,
			PixelBrightness:     0.2,
			LLPrintIterationOff: 150000,
			LLPrintIterationOn:  2,
			MiddaySleepTime:     32400,
			StopTime:            18000,
			NightSleepTime:      25200,
		},
		Pixels: pixels.Options{
			Driver:     "memory",
			Count:      50,
			GPIOPin:    18,
			Brightness: 0.5,
		},
		Sensor: sensor.Options{
			Driver: "fixed",
		},
	}
}

// LoadRig reads a rig file over DefaultRig and validates it.
func LoadRig(path string) (RigConfig, error) {
	cfg := DefaultRig()

	data, err := os.ReadFile(path)
	if err != nil {
		return RigConfig{}, fmt.Errorf("failed to read rig config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return RigConfig{}, fmt.Errorf("failed to parse rig config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return RigConfig{}, err
	}
	return cfg, nil
}

// Validate checks value ranges. Animation names are checked against a catalog by the caller.
func (c RigConfig) Validate() error {
	if c.Kind != KindTree && c.Kind != KindStar {
		return fmt.Errorf("%w: kind must be %q or %q, got %q", ErrInvalidRig, KindTree, KindStar, c.Kind)
	}
	if c.Pixels.Count <= 0 {
		return fmt.Errorf("%w: pixels.count must be positive", ErrInvalidRig)
	}
	if !validBrightness(c.Pixels.Brightness) {
		return fmt.Errorf("%w: pixels.brightness must be within [0, 1]", ErrInvalidRig)
	}

	switch c.Kind {
	case KindTree:
		t := c.Tree
		if !validBrightness(t.BrightnessHigh) || !validBrightness(t.BrightnessLow) {
			return fmt.Errorf("%w: tree brightness must be within [0, 1]", ErrInvalidRig)
		}
		if t.SecondsBeforeSunset < 0 || t.SleepTime < 0 {
			return fmt.Errorf("%w: tree durations must not be negative", ErrInvalidRig)
		}
		if _, err := daytime.StopTime(t.StopTime); err != nil {
			return fmt.Errorf("%w: tree.stop_time: %w", ErrInvalidRig, err)
		}
		if len(t.Animations) == 0 {
			return fmt.Errorf("%w: tree.animations must name at least one animation", ErrInvalidRig)
		}
		if slices.Contains(t.Animations, "") {
			return fmt.Errorf("%w: tree.animations contains an empty name", ErrInvalidRig)
		}
		if _, err := palette.Parse(t.Color); err != nil {
			return fmt.Errorf("%w: tree.color: %w", ErrInvalidRig, err)
		}
	case KindStar:
		s := c.Star
		if s.LightThreshold < 0 {
			return fmt.Errorf("%w: star.light_threshold must not be negative", ErrInvalidRig)
		}
		if !validBrightness(s.PixelBrightness) {
			return fmt.Errorf("%w: star.pixel_brightness must be within [0, 1]", ErrInvalidRig)
		}
		if s.MiddaySleepTime < 0 || s.StopTime < 0 || s.NightSleepTime < 0 {
			return fmt.Errorf("%w: star durations must not be negative", ErrInvalidRig)
		}
	}
	return nil
}

func validBrightness(b float64) bool {
	return b >= 0 && b <= 1
}
