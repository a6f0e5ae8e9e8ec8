package animation

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/smazurov/lightnode/internal/palette"
	"github.com/smazurov/lightnode/internal/pixels"
)

// Solid fills the strip with one color.
func Solid(name string, strip pixels.Strip, color palette.Color) Animation {
	t := newTicker(name, strip, time.Second)
	t.draw = func(int, time.Duration) {
		strip.Fill(color)
	}
	return t
}

// Blink alternates between color and off every speed interval.
func Blink(name string, strip pixels.Strip, speed time.Duration, color palette.Color) Animation {
	t := newTicker(name, strip, speed)
	t.draw = func(frame int, _ time.Duration) {
		if frame%2 == 0 {
			strip.Fill(color)
		} else {
			strip.Fill(palette.Off)
		}
	}
	return t
}

// ColorCycle fills the strip with each color in turn.
func ColorCycle(name string, strip pixels.Strip, speed time.Duration, colors []palette.Color) Animation {
	if len(colors) == 0 {
		colors = palette.Base
	}
	t := newTicker(name, strip, speed)
	t.draw = func(frame int, _ time.Duration) {
		strip.Fill(colors[frame%len(colors)])
	}
	return t
}

// Chase moves groups of size lit pixels separated by spacing dark pixels.
// A nil hue draws every group in color.
func Chase(name string, strip pixels.Strip, speed time.Duration, color palette.Color, size, spacing int, reverse bool, hue func(frame, group int) palette.Color) Animation {
	if size <= 0 {
		size = 2
	}
	if spacing <= 0 {
		spacing = 3
	}
	span := size + spacing
	t := newTicker(name, strip, speed)
	t.draw = func(frame int, _ time.Duration) {
		offset := frame % span
		if reverse {
			offset = span - offset
		}
		for i := range strip.Len() {
			pos := i + offset
			if pos%span >= size {
				strip.Set(i, palette.Off)
				continue
			}
			c := color
			if hue != nil {
				c = hue(frame, pos/span)
			}
			strip.Set(i, c)
		}
	}
	return t
}

// Comet runs a head with a fading tail along the strip. With bounce it turns
// around at each end; otherwise it wraps. A nil tint fades color.
func Comet(name string, strip pixels.Strip, speed time.Duration, color palette.Color, tail int, bounce, reverse bool, tint func(frame, k, tail int) palette.Color) Animation {
	n := strip.Len()
	if tail <= 0 {
		tail = max(1, n/4)
	}
	t := newTicker(name, strip, speed)
	t.draw = func(frame int, _ time.Duration) {
		head, dir := cometHead(frame, n, tail, bounce)
		if reverse {
			head = n - 1 - head
			dir = -dir
		}
		strip.Fill(palette.Off)
		for k := range tail {
			c := color.Scale(float64(tail-k) / float64(tail))
			if tint != nil {
				c = tint(frame, k, tail)
			}
			strip.Set(head-k*dir, c)
		}
	}
	return t
}

// cometHead returns the head index and travel direction for a frame.
func cometHead(frame, n, tail int, bounce bool) (int, int) {
	if n <= 1 {
		return 0, 1
	}
	if !bounce {
		return frame % (n + tail), 1
	}
	period := 2 * (n - 1)
	p := frame % period
	if p < n-1 {
		return p, 1
	}
	return period - p, -1
}

// Pulse breathes color from off to full and back once per period.
func Pulse(name string, strip pixels.Strip, speed, period time.Duration, color palette.Color) Animation {
	if period <= 0 {
		period = 5 * time.Second
	}
	t := newTicker(name, strip, speed)
	t.draw = func(_ int, elapsed time.Duration) {
		phase := float64(elapsed%period) / float64(period)
		level := (1 - math.Cos(2*math.Pi*phase)) / 2
		strip.Fill(color.Scale(level))
	}
	return t
}

// Sparkle lights count random pixels each frame over a background dimmed to
// rate of color. A nil background uses the dimmed color.
func Sparkle(name string, strip pixels.Strip, speed time.Duration, color palette.Color, count int, rate float64, background func(i int, elapsed time.Duration) palette.Color) Animation {
	if count <= 0 {
		count = 1
	}
	t := newTicker(name, strip, speed)
	t.draw = func(_ int, elapsed time.Duration) {
		n := strip.Len()
		for i := range n {
			if background != nil {
				strip.Set(i, background(i, elapsed).Scale(rate))
			} else {
				strip.Set(i, color.Scale(rate))
			}
		}
		for range count {
			i := rand.IntN(n)
			if background != nil {
				strip.Set(i, background(i, elapsed))
			} else {
				strip.Set(i, color)
			}
		}
	}
	return t
}

// Rainbow spreads the color wheel along the strip and rotates it once per period.
func Rainbow(name string, strip pixels.Strip, speed, period time.Duration) Animation {
	t := newTicker(name, strip, speed)
	wheel := rainbowAt(strip.Len(), period)
	t.draw = func(_ int, elapsed time.Duration) {
		for i := range strip.Len() {
			strip.Set(i, wheel(i, elapsed))
		}
	}
	return t
}

// rainbowAt returns the rainbow color of pixel i after elapsed.
func rainbowAt(n int, period time.Duration) func(i int, elapsed time.Duration) palette.Color {
	if period <= 0 {
		period = 5 * time.Second
	}
	if n <= 0 {
		n = 1
	}
	return func(i int, elapsed time.Duration) palette.Color {
		offset := int(256 * float64(elapsed%period) / float64(period))
		return palette.Wheel(uint8((i*256/n + offset) & 255))
	}
}
