package animation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/smazurov/lightnode/internal/palette"
	"github.com/smazurov/lightnode/internal/pixels"
)

//go:embed animations.json
var defaultCatalog []byte

// ErrUnknownAnimation is returned when a chosen name is missing from the catalog.
var ErrUnknownAnimation = errors.New("unknown animation")

// Definition is one catalog entry. Durations are in seconds.
type Definition struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Color      string  `json:"color,omitempty"`
	Speed      float64 `json:"speed,omitempty"`
	Period     float64 `json:"period,omitempty"`
	TailLength int     `json:"tail_length,omitempty"`
	Bounce     bool    `json:"bounce,omitempty"`
	Reverse    bool    `json:"reverse,omitempty"`
	Size       int     `json:"size,omitempty"`
	Spacing    int     `json:"spacing,omitempty"`
	Step       int     `json:"step,omitempty"`
	Sparkles   int     `json:"sparkles,omitempty"`
	// Rate is the background level of sparkle kinds.
	Rate float64 `json:"rate,omitempty"`
	// Count limits how many palette colors colorcycle walks through.
	Count int `json:"count,omitempty"`
}

// Overrides replaces catalog defaults for every chosen animation. Nil fields
// keep the catalog value.
type Overrides struct {
	Sparkles   *int     `toml:"sparkles,omitempty" json:"sparkles,omitempty"`
	Speed      *float64 `toml:"speed,omitempty" json:"speed,omitempty"`
	Rate       *float64 `toml:"rate,omitempty" json:"rate,omitempty"`
	Count      *int     `toml:"count,omitempty" json:"count,omitempty"`
	Period     *float64 `toml:"period,omitempty" json:"period,omitempty"`
	TailLength *int     `toml:"tail_length,omitempty" json:"tail_length,omitempty"`
	Step       *int     `toml:"step,omitempty" json:"step,omitempty"`
	Reverse    *bool    `toml:"reverse,omitempty" json:"reverse,omitempty"`
	Spacing    *int     `toml:"spacing,omitempty" json:"spacing,omitempty"`
	Size       *int     `toml:"size,omitempty" json:"size,omitempty"`
	Bounce     *bool    `toml:"bounce,omitempty" json:"bounce,omitempty"`
}

// Apply returns a copy of def with every set override written over it.
func (o Overrides) Apply(def Definition) Definition {
	if o.Sparkles != nil {
		def.Sparkles = *o.Sparkles
	}
	if o.Speed != nil {
		def.Speed = *o.Speed
	}
	if o.Rate != nil {
		def.Rate = *o.Rate
	}
	if o.Count != nil {
		def.Count = *o.Count
	}
	if o.Period != nil {
		def.Period = *o.Period
	}
	if o.TailLength != nil {
		def.TailLength = *o.TailLength
	}
	if o.Step != nil {
		def.Step = *o.Step
	}
	if o.Reverse != nil {
		def.Reverse = *o.Reverse
	}
	if o.Spacing != nil {
		def.Spacing = *o.Spacing
	}
	if o.Size != nil {
		def.Size = *o.Size
	}
	if o.Bounce != nil {
		def.Bounce = *o.Bounce
	}
	return def
}

// Catalog is an ordered set of animation definitions.
type Catalog struct {
	Animations []Definition `json:"animations"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic(fmt.Sprintf("embedded animation catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalog decodes a JSON catalog.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode animation catalog: %w", err)
	}
	for _, def := range c.Animations {
		if def.Name == "" {
			return nil, errors.New("animation catalog entry without a name")
		}
		if !slices.Contains(Kinds(), def.Type) {
			return nil, fmt.Errorf("animation %q has unknown type %q", def.Name, def.Type)
		}
	}
	return &c, nil
}

// CatalogFor returns the catalog at path, or the embedded one when path is empty.
func CatalogFor(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open animation catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// Names lists the catalog entries in order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Animations))
	for _, def := range c.Animations {
		names = append(names, def.Name)
	}
	return names
}

// Validate checks that every chosen name exists.
func (c *Catalog) Validate(chosen []string) error {
	names := c.Names()
	for _, name := range chosen {
		if !slices.Contains(names, name) {
			return fmt.Errorf("%w: %q", ErrUnknownAnimation, name)
		}
	}
	return nil
}

// Kinds lists the supported animation types.
func Kinds() []string {
	return []string{
		"solid", "blink", "colorcycle", "chase", "comet", "pulse", "sparkle",
		"rainbow", "rainbowchase", "rainbowcomet", "rainbowsparkle",
	}
}

// Build creates the chosen animations in catalog order. Overrides apply to
// every animation, and a non-empty color replaces each catalog color.
func Build(strip pixels.Strip, catalog *Catalog, chosen []string, overrides Overrides, color string) ([]Animation, error) {
	if err := catalog.Validate(chosen); err != nil {
		return nil, err
	}

	var built []Animation
	for _, def := range catalog.Animations {
		if !slices.Contains(chosen, def.Name) {
			continue
		}
		def = overrides.Apply(def)
		if color != "" {
			def.Color = color
		}
		a, err := New(strip, def)
		if err != nil {
			return nil, err
		}
		built = append(built, a)
	}
	return built, nil
}

// New creates a single animation from a definition.
func New(strip pixels.Strip, def Definition) (Animation, error) {
	color := palette.White
	if def.Color != "" {
		c, err := palette.Parse(def.Color)
		if err != nil {
			return nil, fmt.Errorf("animation %q: %w", def.Name, err)
		}
		color = c
	}

	speed := seconds(def.Speed)
	period := seconds(def.Period)

	switch def.Type {
	case "solid":
		return Solid(def.Name, strip, color), nil
	case "blink":
		return Blink(def.Name, strip, speed, color), nil
	case "colorcycle":
		colors := palette.Base
		if def.Count > 0 && def.Count < len(colors) {
			colors = colors[:def.Count]
		}
		return ColorCycle(def.Name, strip, speed, colors), nil
	case "chase":
		return Chase(def.Name, strip, speed, color, def.Size, def.Spacing, def.Reverse, nil), nil
	case "comet":
		return Comet(def.Name, strip, speed, color, def.TailLength, def.Bounce, def.Reverse, nil), nil
	case "pulse":
		return Pulse(def.Name, strip, speed, period, color), nil
	case "sparkle":
		return Sparkle(def.Name, strip, speed, color, def.Sparkles, def.Rate, nil), nil
	case "rainbow":
		return Rainbow(def.Name, strip, speed, period), nil
	case "rainbowchase":
		step := max(def.Step, 1)
		hue := func(frame, group int) palette.Color {
			return palette.Wheel(uint8((frame + group) * step & 255))
		}
		return Chase(def.Name, strip, speed, color, def.Size, def.Spacing, def.Reverse, hue), nil
	case "rainbowcomet":
		tint := func(_, k, tail int) palette.Color {
			level := float64(tail-k) / float64(tail)
			return palette.Wheel(uint8(k * 256 / tail & 255)).Scale(level)
		}
		return Comet(def.Name, strip, speed, color, def.TailLength, def.Bounce, def.Reverse, tint), nil
	case "rainbowsparkle":
		return Sparkle(def.Name, strip, speed, color, def.Sparkles, def.Rate, rainbowAt(strip.Len(), period)), nil
	default:
		return nil, fmt.Errorf("animation %q has unknown type %q", def.Name, def.Type)
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
