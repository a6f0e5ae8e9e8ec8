package rig

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/lightnode/internal/config"
	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/metrics"
	"github.com/smazurov/lightnode/internal/pixels"
	"github.com/smazurov/lightnode/internal/power"
	"github.com/smazurov/lightnode/internal/schedule"
	"github.com/smazurov/lightnode/internal/sensor"
	"github.com/smazurov/lightnode/internal/show"
)

// DefaultTick is the star rig's sensor polling interval.
const DefaultTick = 100 * time.Millisecond

// StarOptions wires a star runner.
type StarOptions struct {
	Config  config.RigConfig
	Strip   pixels.Strip
	Sensor  sensor.LightSensor
	Show    *show.Show
	Bus     *events.Bus
	Store   ConfigApplier
	Sleeper power.Sleeper
	Logger  *slog.Logger

	Tick time.Duration
	Now  func() time.Time
}

// Star plays the light show while its sensor reports darkness.
type Star struct {
	strip   pixels.Strip
	sensor  sensor.LightSensor
	show    *show.Show
	bus     *events.Bus
	store   ConfigApplier
	sleeper power.Sleeper
	logger  *slog.Logger
	tick    time.Duration
	now     func() time.Time

	reload chan config.RigConfig

	// loop state, owned by Run
	cfg       config.StarConfig
	sched     schedule.Star
	lightsOn  bool
	cycle     int
	startedAt time.Time
	iteration int

	mu     sync.RWMutex
	status Status
}

// NewStar creates a star runner.
func NewStar(opts StarOptions) (*Star, error) {
	if opts.Strip == nil {
		return nil, fmt.Errorf("star rig needs a strip")
	}
	if opts.Sensor == nil {
		return nil, fmt.Errorf("star rig needs a light sensor")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Show == nil {
		opts.Show = show.New(opts.Strip, nil, show.WithLogger(opts.Logger))
	}
	if opts.Sleeper == nil {
		opts.Sleeper = power.NewDormancy(config.KindStar, opts.Strip, opts.Logger)
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Star{
		strip:   opts.Strip,
		sensor:  opts.Sensor,
		show:    opts.Show,
		bus:     opts.Bus,
		store:   opts.Store,
		sleeper: opts.Sleeper,
		logger:  opts.Logger,
		tick:    opts.Tick,
		now:     opts.Now,
		reload:  make(chan config.RigConfig, 1),
		status:  Status{Rig: config.KindStar},
	}
	s.configure(opts.Config.Star)
	return s, nil
}

// StarSchedule converts the rig file's star table.
func StarSchedule(cfg config.StarConfig) schedule.Star {
	return schedule.Star{
		Threshold:   cfg.LightThreshold,
		StopAfter:   seconds(cfg.StopTime),
		MiddaySleep: seconds(cfg.MiddaySleepTime),
		NightSleep:  seconds(cfg.NightSleepTime),
	}
}

func (s *Star) configure(cfg config.StarConfig) {
	s.cfg = cfg
	s.sched = StarSchedule(cfg)
	s.strip.SetBrightness(cfg.PixelBrightness)
	metrics.SetBrightness(config.KindStar, s.strip.Brightness())
	s.updateStatus(func(st *Status) { st.Brightness = s.strip.Brightness() })
}

// Name implements Runner.
func (s *Star) Name() string {
	return config.KindStar
}

// Status implements Runner.
func (s *Star) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Star) updateStatus(fn func(*Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.status)
}

// Reload implements Runner.
func (s *Star) Reload(cfg config.RigConfig) {
	for {
		select {
		case s.reload <- cfg:
			return
		default:
		}
		select {
		case <-s.reload:
		default:
		}
	}
}

// Wake implements Runner.
func (s *Star) Wake() {
	wake(s.sleeper)
}

// subscribe applies broker config updates as they arrive. The star has no
// network gate, so there is nothing to queue them behind.
func (s *Star) subscribe() func() {
	if s.bus == nil || s.store == nil {
		return func() {}
	}
	return s.bus.Subscribe(func(e events.ConfigUpdateEvent) {
		if e.Source != "mqtt" {
			return
		}
		path, err := s.store.Apply(e.Key, e.Value)
		if err != nil {
			s.logger.Error("Config update failed", "key", e.Key, "value", e.Value, "error", err)
			return
		}
		s.logger.Info("Config updated", "key", path, "value", e.Value)
	})
}

// Run implements Runner.
func (s *Star) Run(ctx context.Context) error {
	unsubscribe := s.subscribe()
	defer unsubscribe()

	s.logger.Info("Star starting up", "threshold", s.cfg.LightThreshold, "tick", s.tick)
	if reading, err := s.sensor.Read(ctx); err == nil {
		s.logger.Info("Light sensor value", "value", reading)
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.stop()
			return nil
		case cfg := <-s.reload:
			s.configure(cfg.Star)
			s.logger.Info("Star config reloaded", "threshold", s.cfg.LightThreshold)
			continue
		case <-ticker.C:
		}

		if err := s.step(ctx); err != nil {
			if ctx.Err() != nil {
				s.stop()
				return nil
			}
			return err
		}
		ticker.Reset(s.tick)
	}
}

// step is one pass of the sensor loop.
func (s *Star) step(ctx context.Context) error {
	reading, err := s.sensor.Read(ctx)
	if err != nil {
		s.logger.Warn("Light sensor read failed", "error", err)
		return nil
	}
	metrics.SetLightLevel(reading)
	s.updateStatus(func(st *Status) { st.LightLevel = reading })
	s.logReading(reading)

	if !s.lightsOn {
		if !s.sched.ShouldStart(reading) {
			return nil
		}
		s.logger.Info("Light sensor value meets threshold", "value", reading, "threshold", s.cfg.LightThreshold)
		s.lightsOn = true
		s.startedAt = s.now()
		announce(s.bus, config.KindStar, true, false, "dark enough")
		s.updateStatus(func(st *Status) {
			st.LightsOn = true
			st.StartedAt = s.startedAt
			st.Reason = "dark enough"
		})
		return s.play(ctx)
	}

	// The show plays once per dark period; its last frame stays lit.
	d := s.sched.Check(reading, s.now().Sub(s.startedAt))
	if d.Sleeping() {
		return s.sleep(ctx, d, reading)
	}
	return nil
}

func (s *Star) play(ctx context.Context) error {
	cycle := s.cycle
	s.cycle++
	s.updateStatus(func(st *Status) { st.Cycle = s.cycle })
	if err := s.show.Play(ctx, cycle); err != nil {
		return fmt.Errorf("light show: %w", err)
	}
	metrics.AddFrames(config.KindStar, 1)
	s.updateStatus(func(st *Status) { st.Frames++ })
	return nil
}

func (s *Star) sleep(ctx context.Context, d schedule.Decision, reading int) error {
	s.logger.Info("Lights off", "reason", d.Reason, "value", reading, "sleep", d.Sleep)
	s.cycle = 0
	s.lightsOn = false
	announce(s.bus, config.KindStar, false, true, d.Reason)
	s.updateStatus(func(st *Status) {
		st.LightsOn = false
		st.Dormant = true
		st.DormantUntil = s.now().Add(d.Sleep)
		st.Reason = d.Reason
		st.Cycle = 0
	})

	if err := s.sleeper.Sleep(ctx, d.Sleep); err != nil {
		return err
	}

	s.iteration = 0
	s.startedAt = time.Time{}
	s.updateStatus(func(st *Status) {
		st.Dormant = false
		st.DormantUntil = time.Time{}
		st.StartedAt = time.Time{}
	})
	announce(s.bus, config.KindStar, false, false, "woke")
	return nil
}

// logReading logs the sensor value every ll_print_iteration_on iterations
// while lit and every ll_print_iteration_off iterations while dark.
func (s *Star) logReading(reading int) {
	s.iteration++
	every := s.cfg.LLPrintIterationOff
	if s.lightsOn {
		every = s.cfg.LLPrintIterationOn
	}
	if every > 0 && s.iteration%every == 0 {
		s.logger.Info("Light sensor value", "value", reading, "lights_on", s.lightsOn)
	}
}

func (s *Star) stop() {
	if err := s.show.Blank(); err != nil {
		s.logger.Warn("Failed to blank strip", "error", err)
	}
	s.lightsOn = false
	announce(s.bus, config.KindStar, false, false, "stopped")
	s.updateStatus(func(st *Status) { st.LightsOn = false })
}
