package rig

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/lightnode/internal/animation"
	"github.com/smazurov/lightnode/internal/config"
	"github.com/smazurov/lightnode/internal/daytime"
	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/metrics"
	"github.com/smazurov/lightnode/internal/palette"
	"github.com/smazurov/lightnode/internal/pixels"
	"github.com/smazurov/lightnode/internal/power"
	"github.com/smazurov/lightnode/internal/schedule"
)

// Tree loop timing.
const (
	DefaultFrameDelay = 10 * time.Millisecond
	DefaultPollEvery  = 100
	inboxSize         = 64
)

// TreeOptions wires a tree runner.
type TreeOptions struct {
	Config  config.RigConfig
	Strip   pixels.Strip
	Bus     *events.Bus
	Store   ConfigApplier
	WAN     WANChecker
	Sleeper power.Sleeper
	Logger  *slog.Logger

	FrameDelay time.Duration
	PollEvery  int
	Now        func() time.Time
}

// Tree animates a strip and schedules it against clock and sunset broadcasts.
type Tree struct {
	strip      pixels.Strip
	bus        *events.Bus
	store      ConfigApplier
	wan        WANChecker
	sleeper    power.Sleeper
	logger     *slog.Logger
	frameDelay time.Duration
	pollEvery  int
	now        func() time.Time

	inbox  chan events.Event
	reload chan config.RigConfig

	// loop state, owned by Run
	cfg         config.TreeConfig
	sched       schedule.Tree
	seq         *animation.Sequence
	clock       time.Duration
	clockKnown  bool
	sunset      time.Duration
	sunsetKnown bool
	// sunsetDay is set while the sunset comes from the local fallback.
	sunsetDay time.Time
	running   bool

	mu     sync.RWMutex
	status Status
}

// NewTree builds the animations and schedule from opts.Config.
func NewTree(opts TreeOptions) (*Tree, error) {
	if opts.Strip == nil {
		return nil, fmt.Errorf("tree rig needs a strip")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.WAN == nil {
		opts.WAN = alwaysOnline{}
	}
	if opts.Sleeper == nil {
		opts.Sleeper = power.NewDormancy(config.KindTree, opts.Strip, opts.Logger)
	}
	if opts.FrameDelay <= 0 {
		opts.FrameDelay = DefaultFrameDelay
	}
	if opts.PollEvery <= 0 {
		opts.PollEvery = DefaultPollEvery
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	t := &Tree{
		strip:      opts.Strip,
		bus:        opts.Bus,
		store:      opts.Store,
		wan:        opts.WAN,
		sleeper:    opts.Sleeper,
		logger:     opts.Logger,
		frameDelay: opts.FrameDelay,
		pollEvery:  opts.PollEvery,
		now:        opts.Now,
		inbox:      make(chan events.Event, inboxSize),
		reload:     make(chan config.RigConfig, 1),
		status:     Status{Rig: config.KindTree},
	}
	if err := t.configure(opts.Config); err != nil {
		return nil, err
	}
	t.strip.SetBrightness(opts.Config.Pixels.Brightness)
	return t, nil
}

// TreeSchedule converts the rig file's tree table.
func TreeSchedule(cfg config.TreeConfig) (schedule.Tree, error) {
	stop, err := daytime.StopTime(cfg.StopTime)
	if err != nil {
		return schedule.Tree{}, fmt.Errorf("stop_time: %w", err)
	}
	return schedule.Tree{
		BeforeSunset:   seconds(cfg.SecondsBeforeSunset),
		StopTime:       stop,
		SleepTime:      seconds(cfg.SleepTime),
		IgnoreSunset:   cfg.IgnoreSunset,
		BrightnessLow:  cfg.BrightnessLow,
		BrightnessHigh: cfg.BrightnessHigh,
	}, nil
}

// configure rebuilds schedule and animations, leaving the old ones in
// place when anything fails.
func (t *Tree) configure(rig config.RigConfig) error {
	cfg := rig.Tree
	sched, err := TreeSchedule(cfg)
	if err != nil {
		return err
	}
	catalog, err := animation.CatalogFor(cfg.Catalog)
	if err != nil {
		return err
	}
	built, err := animation.Build(t.strip, catalog, cfg.Animations, cfg.Overrides, cfg.Color)
	if err != nil {
		return err
	}

	t.cfg = cfg
	t.sched = sched
	t.seq = animation.SequenceFor(built)
	t.logger.Info("Animations built", "animations", cfg.Animations, "advance", len(built) > 1)
	return nil
}

// Name implements Runner.
func (t *Tree) Name() string {
	return config.KindTree
}

// Status implements Runner.
func (t *Tree) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

func (t *Tree) updateStatus(fn func(*Status)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.status)
}

// Reload implements Runner. The newest config wins if several arrive
// between polls.
func (t *Tree) Reload(cfg config.RigConfig) {
	for {
		select {
		case t.reload <- cfg:
			return
		default:
		}
		select {
		case <-t.reload:
		default:
		}
	}
}

// Wake implements Runner.
func (t *Tree) Wake() {
	wake(t.sleeper)
}

// enqueue hands a bus event to the loop without blocking the dispatcher.
func (t *Tree) enqueue(ev events.Event) {
	select {
	case t.inbox <- ev:
	default:
		t.logger.Warn("Tree inbox full, dropping event", "type", fmt.Sprintf("%T", ev))
	}
}

func (t *Tree) subscribe() func() {
	if t.bus == nil {
		return func() {}
	}
	unsubs := []func(){
		t.bus.Subscribe(func(e events.ClockEvent) { t.enqueue(e) }),
		t.bus.Subscribe(func(e events.SunsetEvent) { t.enqueue(e) }),
		t.bus.Subscribe(func(e events.ConfigUpdateEvent) {
			if e.Source == "mqtt" {
				t.enqueue(e)
			}
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Run implements Runner.
func (t *Tree) Run(ctx context.Context) error {
	unsubscribe := t.subscribe()
	defer unsubscribe()

	t.logger.Info("Tree lights starting up", "frame_delay", t.frameDelay, "poll_every", t.pollEvery)
	t.lightsOn("starting")

	ticker := time.NewTicker(t.frameDelay)
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-ctx.Done():
			t.blank()
			return nil
		case <-ticker.C:
		}

		if t.seq.Animate(t.now()) {
			metrics.AddFrames(config.KindTree, 1)
			idx := t.seq.Index()
			t.updateStatus(func(s *Status) {
				s.Frames++
				if s.AnimationIndex != idx || s.Animation == "" {
					metrics.SetAnimation(config.KindTree, idx)
				}
				s.Animation = t.seq.Name()
				s.AnimationIndex = idx
			})
		}

		frame++
		if frame < t.pollEvery {
			continue
		}
		frame = 0

		if err := t.poll(ctx); err != nil {
			if ctx.Err() != nil {
				t.blank()
				return nil
			}
			return err
		}
		// Time spent polling or dormant must not count as missed frames.
		ticker.Reset(t.frameDelay)
	}
}

// poll runs between frames: apply reloads, check the network, then handle
// everything the broker delivered since the last poll.
func (t *Tree) poll(ctx context.Context) error {
	select {
	case cfg := <-t.reload:
		if err := t.configure(cfg); err != nil {
			t.logger.Error("Ignoring reloaded rig config", "error", err)
		} else {
			metrics.SetAnimation(config.KindTree, 0)
			if t.clockKnown && t.sunsetKnown {
				t.applyBrightness()
			}
		}
	default:
	}

	active := t.wan.Active(ctx)
	metrics.SetWANActive(active)
	t.updateStatus(func(s *Status) { s.WANActive = active })
	if !active {
		t.logger.Debug("WAN inactive, skipping broker events")
		return nil
	}

	for {
		select {
		case ev := <-t.inbox:
			if err := t.handle(ctx, ev); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (t *Tree) handle(ctx context.Context, ev events.Event) error {
	switch e := ev.(type) {
	case events.ConfigUpdateEvent:
		t.applyUpdate(e)
		return nil
	case events.ClockEvent:
		t.clock = seconds(e.Seconds)
		t.clockKnown = true
		t.updateStatus(func(s *Status) { s.Clock = daytime.Format(t.clock) })
	case events.SunsetEvent:
		t.sunsetDay = time.Time{}
		t.setSunset(seconds(e.Seconds), "broadcast")
	default:
		return nil
	}
	return t.evaluate(ctx)
}

func (t *Tree) applyUpdate(e events.ConfigUpdateEvent) {
	if t.store == nil {
		t.logger.Warn("No rig store, ignoring config update", "key", e.Key)
		return
	}
	path, err := t.store.Apply(e.Key, e.Value)
	if err != nil {
		t.logger.Error("Config update failed", "key", e.Key, "value", e.Value, "error", err)
		return
	}
	t.logger.Info("Config updated", "key", path, "value", e.Value)
}

func (t *Tree) setSunset(d time.Duration, source string) {
	t.sunset = d
	t.sunsetKnown = true
	t.updateStatus(func(s *Status) {
		s.Sunset = daytime.Format(d)
		s.SunsetSource = source
	})
}

// evaluate runs the schedule once both clock and sunset are known.
func (t *Tree) evaluate(ctx context.Context) error {
	if t.clockKnown {
		t.computeSunset()
	}
	if !t.clockKnown || !t.sunsetKnown {
		return nil
	}

	var d schedule.Decision
	if !t.running {
		d = t.sched.BeforeSetTime(t.clock, t.sunset)
		t.running = true
		t.updateStatus(func(s *Status) { s.Running = true })
	} else {
		d = t.sched.Shutdown(t.clock, t.sunset)
	}
	t.updateStatus(func(s *Status) { s.Reason = d.Reason })

	if !d.Sleeping() {
		t.applyBrightness()
		return nil
	}
	return t.sleep(ctx, d)
}

// computeSunset fills in the sunset from the configured coordinates when no
// broadcast has arrived, and refreshes a computed one when the date changes.
func (t *Tree) computeSunset() {
	if t.cfg.Latitude == 0 && t.cfg.Longitude == 0 {
		return
	}
	now := t.now()
	if t.sunsetKnown && (t.sunsetDay.IsZero() || sameDay(t.sunsetDay, now)) {
		return
	}
	sunset, ok := daytime.SunsetFor(t.cfg.Latitude, t.cfg.Longitude, now)
	if !ok {
		return
	}
	t.logger.Info("Using computed sunset", "sunset", daytime.Format(sunset), "date", now.Format(time.DateOnly))
	t.sunsetDay = now
	t.setSunset(sunset, "computed")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

func (t *Tree) applyBrightness() {
	b := t.sched.Brightness(t.clock, t.sunset)
	if b == t.strip.Brightness() {
		return
	}
	t.strip.SetBrightness(b)
	metrics.SetBrightness(config.KindTree, b)
	t.updateStatus(func(s *Status) { s.Brightness = b })
	t.logger.Info("Brightness changed", "brightness", b)
}

// sleep goes dormant, then resets as a rebooted board would: the run flag
// and clock are forgotten, the last sunset is kept. A computed sunset is
// refreshed on the next evaluation if the date has moved on.
func (t *Tree) sleep(ctx context.Context, d schedule.Decision) error {
	t.logger.Info("Lights off", "reason", d.Reason, "sleep", d.Sleep)
	announce(t.bus, config.KindTree, false, true, d.Reason)
	t.updateStatus(func(s *Status) {
		s.LightsOn = false
		s.Dormant = true
		s.DormantUntil = t.now().Add(d.Sleep)
	})

	if err := t.sleeper.Sleep(ctx, d.Sleep); err != nil {
		return err
	}

	t.running = false
	t.clockKnown = false
	t.seq.Reset()
	t.discardStale()
	t.updateStatus(func(s *Status) {
		s.Dormant = false
		s.DormantUntil = time.Time{}
		s.Running = false
		s.Clock = ""
	})
	t.lightsOn("woke")
	return nil
}

// discardStale drops clock broadcasts queued while dormant and keeps the rest.
func (t *Tree) discardStale() {
	var keep []events.Event
drain:
	for {
		select {
		case ev := <-t.inbox:
			if _, ok := ev.(events.ClockEvent); !ok {
				keep = append(keep, ev)
			}
		default:
			break drain
		}
	}
	for _, ev := range keep {
		t.enqueue(ev)
	}
}

func (t *Tree) lightsOn(reason string) {
	announce(t.bus, config.KindTree, true, false, reason)
	b := t.strip.Brightness()
	metrics.SetBrightness(config.KindTree, b)
	t.updateStatus(func(s *Status) {
		s.LightsOn = true
		s.Brightness = b
		s.Animation = t.seq.Name()
	})
}

func (t *Tree) blank() {
	t.strip.Fill(palette.Off)
	if err := t.strip.Show(); err != nil {
		t.logger.Warn("Failed to blank strip", "error", err)
	}
	announce(t.bus, config.KindTree, false, false, "stopped")
	t.updateStatus(func(s *Status) { s.LightsOn = false })
}
