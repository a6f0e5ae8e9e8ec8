//go:build ws281x

package pixels

import (
	"fmt"
	"sync"

	ws2811 "github.com/rpi-ws281x/rpi-ws281x-go"
	"github.com/smazurov/lightnode/internal/palette"
)

// ws281x drives a WS2811/WS2812 strip on channel 0 through the rpi_ws281x library.
// Build with: go build -tags ws281x (requires libws2811 and root).
type ws281x struct {
	mu         sync.Mutex
	dev        *ws2811.WS2811
	buf        []palette.Color
	brightness float64
}

func newWS281x(opts Options) (Strip, error) {
	opt := ws2811.DefaultOptions
	opt.Channels[0].LedCount = opts.Count
	opt.Channels[0].Brightness = 255
	if opts.GPIOPin != 0 {
		opt.Channels[0].GpioPin = opts.GPIOPin
	}

	dev, err := ws2811.MakeWS2811(&opt)
	if err != nil {
		return nil, fmt.Errorf("failed to create ws281x device: %w", err)
	}
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize ws281x device: %w", err)
	}

	return &ws281x{
		dev:        dev,
		buf:        make([]palette.Color, opts.Count),
		brightness: 1,
	}, nil
}

func (w *ws281x) Len() int {
	return len(w.buf)
}

func (w *ws281x) Set(i int, c palette.Color) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= len(w.buf) {
		return
	}
	w.buf[i] = c
}

func (w *ws281x) Fill(c palette.Color) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.buf {
		w.buf[i] = c
	}
}

func (w *ws281x) Show() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	leds := w.dev.Leds(0)
	for i, c := range w.buf {
		if i >= len(leds) {
			break
		}
		leds[i] = uint32(c.Scale(w.brightness))
	}
	if err := w.dev.Render(); err != nil {
		return fmt.Errorf("failed to render ws281x frame: %w", err)
	}
	return w.dev.Wait()
}

func (w *ws281x) SetBrightness(b float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.brightness = clampBrightness(b)
}

func (w *ws281x) Brightness() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.brightness
}

func (w *ws281x) Close() error {
	w.Fill(palette.Off)
	err := w.Show()
	w.dev.Fini()
	return err
}
