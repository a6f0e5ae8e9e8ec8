package animation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/lightnode/internal/palette"
	"github.com/smazurov/lightnode/internal/pixels"
)

var epoch = time.Date(2024, time.December, 24, 17, 0, 0, 0, time.UTC)

func litCount(strip *pixels.Memory) int {
	n := 0
	for i := range strip.Len() {
		if strip.Pixel(i) != palette.Off {
			n++
		}
	}
	return n
}

func TestTicker_RespectsSpeed(t *testing.T) {
	strip := pixels.NewMemory(5, nil)
	a := Blink("blink", strip, 100*time.Millisecond, palette.Red)

	if !a.Animate(epoch) {
		t.Fatal("first Animate should draw")
	}
	if strip.Pixel(0) != palette.Red {
		t.Errorf("frame 0 pixel = %v, want red", strip.Pixel(0))
	}

	if a.Animate(epoch.Add(50 * time.Millisecond)) {
		t.Error("Animate before speed elapsed should not draw")
	}

	if !a.Animate(epoch.Add(100 * time.Millisecond)) {
		t.Fatal("Animate after speed elapsed should draw")
	}
	if strip.Pixel(0) != palette.Off {
		t.Errorf("frame 1 pixel = %v, want off", strip.Pixel(0))
	}
	if strip.Shows() != 2 {
		t.Errorf("Shows() = %d, want 2", strip.Shows())
	}
}

func TestTicker_Reset(t *testing.T) {
	strip := pixels.NewMemory(3, nil)
	a := Blink("blink", strip, time.Second, palette.Green)
	a.Animate(epoch)
	a.Animate(epoch.Add(time.Second))
	a.Reset()

	a.Animate(epoch.Add(2 * time.Second))
	if strip.Pixel(0) != palette.Green {
		t.Errorf("after Reset first frame should be lit, got %v", strip.Pixel(0))
	}
}

func TestChase_Pattern(t *testing.T) {
	strip := pixels.NewMemory(10, nil)
	a := Chase("chase", strip, time.Millisecond, palette.White, 2, 3, false, nil)
	a.Animate(epoch)

	// size 2, spacing 3: on on off off off on on off off off
	want := []bool{true, true, false, false, false, true, true, false, false, false}
	for i, on := range want {
		if (strip.Pixel(i) != palette.Off) != on {
			t.Errorf("pixel %d lit = %v, want %v", i, !on, on)
		}
	}
}

func TestComet_TailFades(t *testing.T) {
	strip := pixels.NewMemory(20, nil)
	a := Comet("comet", strip, time.Millisecond, palette.FromRGB(200, 0, 0), 4, false, false, nil)
	for i := range 6 {
		a.Animate(epoch.Add(time.Duration(i) * time.Millisecond))
	}

	// head at frame 5 is pixel 5; tail goes backwards.
	head, _, _ := strip.Pixel(5).RGB()
	behind, _, _ := strip.Pixel(4).RGB()
	if head != 200 {
		t.Errorf("head red = %d, want 200", head)
	}
	if behind >= head || behind == 0 {
		t.Errorf("tail red = %d, want dimmer than head", behind)
	}
	if strip.Pixel(6) != palette.Off {
		t.Error("pixel ahead of the head should be off")
	}
}

func TestCometHead_Bounce(t *testing.T) {
	n := 5
	var heads []int
	for frame := range 10 {
		h, _ := cometHead(frame, n, 2, true)
		heads = append(heads, h)
	}
	want := []int{0, 1, 2, 3, 4, 3, 2, 1, 0, 1}
	for i := range want {
		if heads[i] != want[i] {
			t.Fatalf("heads = %v, want %v", heads, want)
		}
	}
}

func TestSparkle_LightsCount(t *testing.T) {
	strip := pixels.NewMemory(50, nil)
	a := Sparkle("sparkle", strip, time.Millisecond, palette.White, 5, 0, nil)
	a.Animate(epoch)

	if got := litCount(strip); got < 1 || got > 5 {
		t.Errorf("lit pixels = %d, want between 1 and 5", got)
	}
}

func TestPulse_Breathes(t *testing.T) {
	strip := pixels.NewMemory(1, nil)
	a := Pulse("pulse", strip, time.Millisecond, 2*time.Second, palette.FromRGB(255, 255, 255))

	a.Animate(epoch)
	if strip.Pixel(0) != palette.Off {
		t.Errorf("pulse start = %v, want off", strip.Pixel(0))
	}

	a.Animate(epoch.Add(time.Second))
	if r, _, _ := strip.Pixel(0).RGB(); r < 250 {
		t.Errorf("pulse midpoint red = %d, want near full", r)
	}
}

func TestSequence_Advances(t *testing.T) {
	strip := pixels.NewMemory(3, nil)
	seq := NewSequence(5*time.Second,
		Solid("red", strip, palette.Red),
		Solid("green", strip, palette.Green),
	)

	seq.Animate(epoch)
	if seq.Name() != "red" {
		t.Fatalf("Name() = %q, want red", seq.Name())
	}

	seq.Animate(epoch.Add(5 * time.Second))
	if seq.Name() != "green" || seq.Index() != 1 {
		t.Fatalf("after advance Name() = %q, want green", seq.Name())
	}
	if strip.Pixel(0) != palette.Green {
		t.Errorf("pixel = %v, want green", strip.Pixel(0))
	}

	seq.Animate(epoch.Add(10 * time.Second))
	if seq.Name() != "red" {
		t.Errorf("sequence should wrap, got %q", seq.Name())
	}
}

func TestSequenceFor_SingleNeverAdvances(t *testing.T) {
	strip := pixels.NewMemory(3, nil)
	seq := SequenceFor([]Animation{Solid("only", strip, palette.Blue)})
	seq.Animate(epoch)
	seq.Animate(epoch.Add(time.Hour))
	if seq.Index() != 0 {
		t.Errorf("Index() = %d, want 0", seq.Index())
	}

	empty := SequenceFor(nil)
	if empty.Animate(epoch) {
		t.Error("empty sequence should not draw")
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	if len(c.Animations) != len(Kinds()) {
		t.Errorf("catalog has %d entries, want one per kind (%d)", len(c.Animations), len(Kinds()))
	}

	strip := pixels.NewMemory(30, nil)
	for _, def := range c.Animations {
		if _, err := New(strip, def); err != nil {
			t.Errorf("New(%q) failed: %v", def.Name, err)
		}
	}
}

func TestLoadCatalog_Invalid(t *testing.T) {
	if _, err := LoadCatalog(strings.NewReader(`{"animations":[{"name":"x","type":"laser"}]}`)); err == nil {
		t.Error("expected error for unknown type")
	}
	if _, err := LoadCatalog(strings.NewReader(`{"animations":[{"type":"solid"}]}`)); err == nil {
		t.Error("expected error for missing name")
	}
	if _, err := LoadCatalog(strings.NewReader(`not json`)); err == nil {
		t.Error("expected decode error")
	}
}

func TestCatalogFor(t *testing.T) {
	c, err := CatalogFor("")
	if err != nil || len(c.Animations) == 0 {
		t.Fatalf("CatalogFor(\"\") = %v, %v", c, err)
	}

	path := filepath.Join(t.TempDir(), "animations.json")
	content := `{"animations":[{"name":"glow","type":"pulse","speed":0.1,"period":3}]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = CatalogFor(path)
	if err != nil {
		t.Fatalf("CatalogFor(file) error = %v", err)
	}
	if names := c.Names(); len(names) != 1 || names[0] != "glow" {
		t.Errorf("Names() = %v", names)
	}

	if _, err := CatalogFor(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing catalog file")
	}
}

func TestBuild(t *testing.T) {
	strip := pixels.NewMemory(30, nil)
	speed := 0.5
	built, err := Build(strip, DefaultCatalog(), []string{"rainbow", "comet"}, Overrides{Speed: &speed}, "green")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(built) != 2 {
		t.Fatalf("built %d animations, want 2", len(built))
	}
	// Catalog order, not chosen order.
	if built[0].Name() != "comet" || built[1].Name() != "rainbow" {
		t.Errorf("order = %s, %s; want comet, rainbow", built[0].Name(), built[1].Name())
	}

	_, err = Build(strip, DefaultCatalog(), []string{"fireworks"}, Overrides{}, "")
	if !errors.Is(err, ErrUnknownAnimation) {
		t.Errorf("Build unknown error = %v, want ErrUnknownAnimation", err)
	}

	_, err = Build(strip, DefaultCatalog(), []string{"solid"}, Overrides{}, "not-a-color")
	if err == nil {
		t.Error("expected error for bad color")
	}
}

func TestOverrides_Apply(t *testing.T) {
	tail := 3
	bounce := false
	def := Definition{Name: "comet", Type: "comet", TailLength: 10, Bounce: true, Speed: 0.1}
	got := Overrides{TailLength: &tail, Bounce: &bounce}.Apply(def)

	if got.TailLength != 3 || got.Bounce {
		t.Errorf("Apply = %+v, want tail 3 and no bounce", got)
	}
	if got.Speed != 0.1 {
		t.Errorf("unset override changed speed to %v", got.Speed)
	}
}
