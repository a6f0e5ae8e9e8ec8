// Package pixels abstracts addressable LED strips behind a small buffered interface.
package pixels

import (
	"fmt"
	"log/slog"

	"github.com/smazurov/lightnode/internal/palette"
)

// Strip is a buffered addressable LED strip. Set and Fill only touch the
// buffer; Show pushes it to the hardware.
type Strip interface {
	Len() int
	Set(i int, c palette.Color)
	Fill(c palette.Color)
	Show() error
	// SetBrightness sets the global output scale in [0, 1].
	SetBrightness(b float64)
	Brightness() float64
	Close() error
}

// Options selects and configures a strip driver.
type Options struct {
	Driver     string  `toml:"driver"` // "ws281x" or "memory"
	Count      int     `toml:"count"`
	GPIOPin    int     `toml:"gpio_pin"`
	Brightness float64 `toml:"brightness"`
}

// New creates a strip for the configured driver.
func New(opts Options, logger *slog.Logger) (Strip, error) {
	if opts.Count <= 0 {
		return nil, fmt.Errorf("pixel count must be positive, got %d", opts.Count)
	}

	var (
		strip Strip
		err   error
	)
	switch opts.Driver {
	case "", "memory":
		strip = NewMemory(opts.Count, logger)
	case "ws281x":
		strip, err = newWS281x(opts)
	default:
		return nil, fmt.Errorf("unknown pixel driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	strip.SetBrightness(opts.Brightness)
	if logger != nil {
		logger.Info("Pixel strip ready", "driver", opts.Driver, "count", opts.Count, "brightness", strip.Brightness())
	}
	return strip, nil
}

func clampBrightness(b float64) float64 {
	switch {
	case b < 0:
		return 0
	case b > 1:
		return 1
	}
	return b
}
