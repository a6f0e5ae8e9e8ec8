// Package sensor reads ambient light levels from board hardware.
package sensor

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// LightSensor returns a raw light reading. Larger values mean brighter light.
type LightSensor interface {
	Read(ctx context.Context) (int, error)
	Close() error
}

// Options selects and configures a light sensor.
type Options struct {
	Driver  string `toml:"driver"`  // "sysfs", "ads1115" or "fixed"
	Path    string `toml:"path"`    // sysfs raw value file
	I2CBus  string `toml:"i2c_bus"` // ads1115 bus name, empty for the first bus
	Channel int    `toml:"channel"` // ads1115 single-ended channel 0-3
	Value   int    `toml:"value"`   // fixed reading
}

// New creates a light sensor for the configured driver.
func New(opts Options, logger *slog.Logger) (LightSensor, error) {
	var (
		s   LightSensor
		err error
	)
	switch opts.Driver {
	case "sysfs":
		s, err = NewSysfs(opts.Path)
	case "ads1115":
		s, err = NewADS1115(opts.I2CBus, opts.Channel)
	case "", "fixed":
		s = NewFixed(opts.Value)
	default:
		return nil, fmt.Errorf("unknown light sensor driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("Light sensor ready", "driver", opts.Driver)
	}
	return s, nil
}

// Fixed always reports the same reading until Set is called.
type Fixed struct {
	value atomic.Int64
}

// NewFixed creates a fixed sensor.
func NewFixed(v int) *Fixed {
	f := &Fixed{}
	f.value.Store(int64(v))
	return f
}

// Set changes the reported value.
func (f *Fixed) Set(v int) {
	f.value.Store(int64(v))
}

// Read implements LightSensor.
func (f *Fixed) Read(_ context.Context) (int, error) {
	return int(f.value.Load()), nil
}

// Close implements LightSensor.
func (f *Fixed) Close() error {
	return nil
}
