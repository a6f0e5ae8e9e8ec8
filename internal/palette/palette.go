// Package palette holds the rig colors, the rainbow wheel and the working color pool.
package palette

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a 24-bit 0xRRGGBB value.
type Color uint32

// Named colors used by the light shows.
const (
	Red    Color = 0xF00000
	Green  Color = 0x0FF000
	Blue   Color = 0x000F0F
	Pink   Color = 0xFF0F0F
	Yellow Color = 0xF0F000
	Orange Color = 0xF00F00
	Purple Color = 0xF00FF0
	White  Color = 0xF0F0F0
	Off    Color = 0x000000
)

// Base is the set of colors the pool draws from.
var Base = []Color{Red, Green, Blue, Pink, Yellow, Orange, Purple}

var names = map[string]Color{
	"red":    Red,
	"green":  Green,
	"blue":   Blue,
	"pink":   Pink,
	"yellow": Yellow,
	"orange": Orange,
	"purple": Purple,
	"white":  White,
	"off":    Off,
	"black":  Off,
}

// RGB splits the color into its channels.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// FromRGB builds a color from channels.
func FromRGB(r, g, b uint8) Color {
	return Color(r)<<16 | Color(g)<<8 | Color(b)
}

// Scale multiplies every channel by f, clamped to [0, 1].
func (c Color) Scale(f float64) Color {
	switch {
	case f <= 0:
		return Off
	case f >= 1:
		return c
	}
	r, g, b := c.RGB()
	return FromRGB(uint8(float64(r)*f), uint8(float64(g)*f), uint8(float64(b)*f))
}

// String renders the color as #rrggbb.
func (c Color) String() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xFFFFFF)
}

// Parse accepts a color name, "#rrggbb" or "0xrrggbb".
func Parse(s string) (Color, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if c, ok := names[key]; ok {
		return c, nil
	}

	hex := strings.TrimPrefix(strings.TrimPrefix(key, "#"), "0x")
	if len(hex) != 6 {
		return Off, fmt.Errorf("unknown color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Off, fmt.Errorf("unknown color %q: %w", s, err)
	}
	return Color(v), nil
}

// Wheel maps 0-255 onto a red-green-blue-red rainbow.
func Wheel(pos uint8) Color {
	switch {
	case pos < 85:
		return FromRGB(255-pos*3, pos*3, 0)
	case pos < 170:
		pos -= 85
		return FromRGB(0, 255-pos*3, pos*3)
	default:
		pos -= 170
		return FromRGB(pos*3, 0, 255-pos*3)
	}
}
