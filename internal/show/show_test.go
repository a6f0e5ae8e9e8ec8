package show

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/smazurov/lightnode/internal/palette"
	"github.com/smazurov/lightnode/internal/pixels"
)

// recorder is a SleepFunc that records each wait and the frame on screen.
type recorder struct {
	strip  *pixels.Memory
	waits  []time.Duration
	frames [][]palette.Color
	limit  int // cancel after this many waits when > 0
}

func (r *recorder) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.waits = append(r.waits, d)
	r.frames = append(r.frames, r.strip.Frame())
	if r.limit > 0 && len(r.waits) >= r.limit {
		return context.Canceled
	}
	return nil
}

func (r *recorder) total() time.Duration {
	var sum time.Duration
	for _, d := range r.waits {
		sum += d
	}
	return sum
}

func newTestShow(n int) (*Show, *recorder, *palette.Pool) {
	strip := pixels.NewMemory(n, nil)
	rec := &recorder{strip: strip}
	pool := palette.NewPool(palette.Base, rand.New(rand.NewPCG(1, 2)))
	return New(strip, pool, WithSleep(rec.sleep)), rec, pool
}

func allOff(frame []palette.Color) bool {
	for _, c := range frame {
		if c != palette.Off {
			return false
		}
	}
	return true
}

func TestColorCyclesFixed(t *testing.T) {
	s, rec, _ := newTestShow(6)

	if err := s.ColorCycles(context.Background(), palette.Red, palette.Green, false); err != nil {
		t.Fatal(err)
	}

	if len(rec.waits) != 3*(6+1) {
		t.Errorf("waits = %d, want %d", len(rec.waits), 3*7)
	}
	// Frame after the sixth pixel of the first pass
	full := rec.frames[5]
	for i, c := range full {
		want := palette.Green
		if i%2 != 0 {
			want = palette.Red
		}
		if c != want {
			t.Errorf("pixel %d = %v, want %v", i, c, want)
		}
	}
	if !allOff(rec.strip.Frame()) {
		t.Error("strip should be blank afterwards")
	}
}

func TestColorCyclesRandomRefillsPool(t *testing.T) {
	s, rec, pool := newTestShow(4)

	if err := s.ColorCycles(context.Background(), palette.Off, palette.Off, true); err != nil {
		t.Fatal(err)
	}
	if pool.Len() != len(palette.Base) {
		t.Errorf("pool len = %d, want full", pool.Len())
	}
	for _, c := range rec.frames[3] {
		if !slices.Contains(palette.Base, c) {
			t.Errorf("random color %v not from the base set", c)
		}
	}
}

func TestColorBlink(t *testing.T) {
	s, rec, _ := newTestShow(3)

	if err := s.ColorBlink(context.Background(), palette.Red, palette.Green, palette.Yellow, false); err != nil {
		t.Fatal(err)
	}

	if len(rec.waits) != 12 {
		t.Fatalf("waits = %d, want 12", len(rec.waits))
	}
	if rec.total() != 9*time.Second {
		t.Errorf("total = %v, want 9s", rec.total())
	}
	want := []palette.Color{palette.Red, palette.Off, palette.Green, palette.Off, palette.Yellow, palette.Off}
	for i, c := range want {
		if rec.frames[i][0] != c {
			t.Errorf("frame %d = %v, want %v", i, rec.frames[i][0], c)
		}
	}
}

func TestTwinkle(t *testing.T) {
	s, rec, pool := newTestShow(5)

	if err := s.Twinkle(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	// two passes of five pixels plus the trailing pause
	if len(rec.waits) != 11 {
		t.Errorf("waits = %d, want 11", len(rec.waits))
	}
	if rec.waits[10] != Intermission {
		t.Errorf("last wait = %v, want %v", rec.waits[10], Intermission)
	}
	if allOff(rec.frames[0]) {
		t.Error("first step should light a pixel")
	}
	if !allOff(rec.strip.Frame()) {
		t.Error("strip should be blank afterwards")
	}
	if pool.Len() != len(palette.Base) {
		t.Errorf("pool len = %d, want full after twinkle", pool.Len())
	}
}

func TestRainbows(t *testing.T) {
	tests := []struct {
		name string
		run  func(*Show) error
	}{
		{"rainbow", func(s *Show) error { return s.Rainbow(context.Background(), time.Millisecond) }},
		{"rainbow cycle", func(s *Show) error { return s.RainbowCycle(context.Background(), time.Millisecond) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, rec, _ := newTestShow(10)
			if err := tt.run(s); err != nil {
				t.Fatal(err)
			}
			if rec.strip.Shows() != 255 {
				t.Errorf("shows = %d, want 255", rec.strip.Shows())
			}
			if rec.frames[0][0] != palette.Wheel(0) {
				t.Errorf("pixel 0 = %v, want %v", rec.frames[0][0], palette.Wheel(0))
			}
		})
	}
}

func TestRainbowCycleSpreadsWheel(t *testing.T) {
	s, rec, _ := newTestShow(4)
	if err := s.RainbowCycle(context.Background(), time.Millisecond); err != nil {
		t.Fatal(err)
	}
	first := rec.frames[0]
	for i, c := range first {
		if want := palette.Wheel(uint8(i * 64)); c != want {
			t.Errorf("pixel %d = %v, want %v", i, c, want)
		}
	}
}

func TestPlayFixedProgramme(t *testing.T) {
	s, rec, _ := newTestShow(4)

	if err := s.Play(context.Background(), 0); err != nil {
		t.Fatal(err)
	}

	yellow := false
	for _, f := range rec.frames {
		if f[0] == palette.Yellow && f[3] == palette.Yellow {
			yellow = true
			break
		}
	}
	if !yellow {
		t.Error("even cycle should blink the fixed yellow")
	}
	if !allOff(rec.strip.Frame()) {
		t.Error("strip should be blank after the show")
	}
}

func TestPlayDurationMatchesBetweenCycles(t *testing.T) {
	even, evenRec, _ := newTestShow(4)
	odd, oddRec, _ := newTestShow(4)

	if err := even.Play(context.Background(), 2); err != nil {
		t.Fatal(err)
	}
	if err := odd.Play(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	if evenRec.total() != oddRec.total() || evenRec.total() == 0 {
		t.Errorf("even %v vs odd %v", evenRec.total(), oddRec.total())
	}
}

func TestPlayCancelled(t *testing.T) {
	s, rec, _ := newTestShow(4)
	rec.limit = 20

	err := s.Play(context.Background(), 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Play() = %v, want context.Canceled", err)
	}
	if len(rec.waits) != 20 {
		t.Errorf("waits = %d, want show to stop at 20", len(rec.waits))
	}
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Sleep() ignored cancellation")
	}
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Sleep() = %v", err)
	}
}
