// Package show plays the star rig's scripted light show.
//
// Routines block for their whole duration but return early with the
// context's error when it is cancelled.
package show

import (
	"context"
	"log/slog"
	"time"

	"github.com/smazurov/lightnode/internal/palette"
	"github.com/smazurov/lightnode/internal/pixels"
)

// Timing between steps of the show.
const (
	StepDelay    = 100 * time.Millisecond
	BlinkOn      = time.Second
	BlinkOff     = 500 * time.Millisecond
	Intermission = time.Second
	RainbowWait  = 100 * time.Millisecond
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real-time SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Show drives one strip with colors drawn from a pool.
type Show struct {
	strip  pixels.Strip
	pool   *palette.Pool
	sleep  SleepFunc
	logger *slog.Logger
}

// Option configures a Show.
type Option func(*Show)

// WithSleep replaces the real-time wait, mainly for tests.
func WithSleep(fn SleepFunc) Option {
	return func(s *Show) { s.sleep = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Show) { s.logger = logger }
}

// New creates a show on strip. A nil pool draws from palette.Base.
func New(strip pixels.Strip, pool *palette.Pool, opts ...Option) *Show {
	if pool == nil {
		pool = palette.NewPool(palette.Base, nil)
	}
	s := &Show{
		strip:  strip,
		pool:   pool,
		sleep:  Sleep,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Show) set(i int, c palette.Color) error {
	s.strip.Set(i, c)
	return s.strip.Show()
}

func (s *Show) fill(c palette.Color) error {
	s.strip.Fill(c)
	return s.strip.Show()
}

// Blank turns every pixel off.
func (s *Show) Blank() error {
	return s.fill(palette.Off)
}

// ColorCycles paints odd pixels c1 and even pixels c2 one at a time, three
// times over. With random set each pass draws both colors from the pool.
func (s *Show) ColorCycles(ctx context.Context, c1, c2 palette.Color, random bool) error {
	for range 3 {
		if random {
			c1, c2 = s.pool.Next(), s.pool.Next()
			s.pool.Reset()
		}
		for i := range s.strip.Len() {
			c := c2
			if i%2 != 0 {
				c = c1
			}
			if err := s.set(i, c); err != nil {
				return err
			}
			if err := s.sleep(ctx, StepDelay); err != nil {
				return err
			}
		}
		if err := s.sleep(ctx, StepDelay); err != nil {
			return err
		}
		if err := s.Blank(); err != nil {
			return err
		}
	}
	return nil
}

// ColorBlink flashes the whole strip c1, c2, c3 in turn, twice.
func (s *Show) ColorBlink(ctx context.Context, c1, c2, c3 palette.Color, random bool) error {
	for range 2 {
		if random {
			c1, c2, c3 = s.pool.Next(), s.pool.Next(), s.pool.Next()
			s.pool.Reset()
		}
		for _, c := range []palette.Color{c1, c2, c3} {
			if err := s.fill(c); err != nil {
				return err
			}
			if err := s.sleep(ctx, BlinkOn); err != nil {
				return err
			}
			if err := s.Blank(); err != nil {
				return err
			}
			if err := s.sleep(ctx, BlinkOff); err != nil {
				return err
			}
		}
	}
	return nil
}

// Twinkle lights random pixels in random colors for loops+1 passes over
// the strip, then blanks it.
func (s *Show) Twinkle(ctx context.Context, loops int) error {
	n := s.strip.Len()
	for range loops + 1 {
		for range n {
			if err := s.set(s.pool.Intn(n), s.pool.Next()); err != nil {
				return err
			}
			if err := s.sleep(ctx, StepDelay); err != nil {
				return err
			}
		}
	}
	if err := s.Blank(); err != nil {
		return err
	}
	s.pool.Reset()
	return s.sleep(ctx, Intermission)
}

// Rainbow shifts the color wheel along the strip one step per frame.
func (s *Show) Rainbow(ctx context.Context, wait time.Duration) error {
	return s.wheel(ctx, wait, func(i, j, _ int) int { return i + j })
}

// RainbowCycle spreads the whole wheel across the strip and rotates it.
func (s *Show) RainbowCycle(ctx context.Context, wait time.Duration) error {
	return s.wheel(ctx, wait, func(i, j, n int) int { return i*256/n + j*5 })
}

func (s *Show) wheel(ctx context.Context, wait time.Duration, index func(i, j, n int) int) error {
	n := s.strip.Len()
	for j := range 255 {
		for i := range n {
			s.strip.Set(i, palette.Wheel(uint8(index(i, j, n)&255)))
		}
		if err := s.strip.Show(); err != nil {
			return err
		}
		if err := s.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return nil
}

// Play runs the full programme. Odd cycles use random colors, even cycles
// the fixed red/green, red/green/yellow and blue/purple combinations.
func (s *Show) Play(ctx context.Context, cycle int) error {
	random := cycle%2 != 0
	s.logger.Info("Starting light show", "cycle", cycle, "random", random)

	cycles := [2][2]palette.Color{{palette.Red, palette.Green}, {palette.Blue, palette.Purple}}
	blink := [3]palette.Color{palette.Red, palette.Green, palette.Yellow}

	steps := []func() error{
		func() error { return s.Twinkle(ctx, 10) },
		func() error { return s.RainbowCycle(ctx, RainbowWait) },
		func() error { return s.Twinkle(ctx, 5) },
		func() error { return s.ColorCycles(ctx, cycles[0][0], cycles[0][1], random) },
		func() error { return s.Twinkle(ctx, 5) },
		func() error { return s.ColorBlink(ctx, blink[0], blink[1], blink[2], random) },
		func() error { return s.Twinkle(ctx, 5) },
		func() error { return s.ColorCycles(ctx, cycles[1][0], cycles[1][1], random) },
		func() error { return s.Twinkle(ctx, 5) },
	}

	for i, step := range steps {
		if i > 0 {
			if err := s.sleep(ctx, Intermission); err != nil {
				return err
			}
		}
		if err := step(); err != nil {
			return err
		}
	}

	s.logger.Info("Light show finished", "cycle", cycle)
	return nil
}
