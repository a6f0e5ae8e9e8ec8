package daytime

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"hours and minutes", "17:45", 17*time.Hour + 45*time.Minute, false},
		{"with seconds", "17:45:10", 17*time.Hour + 45*time.Minute + 10*time.Second, false},
		{"midnight", "00:00", 0, false},
		{"quoted", `"06:30"`, 6*time.Hour + 30*time.Minute, false},
		{"datetime", "2024-12-01 17:45:10", 17*time.Hour + 45*time.Minute + 10*time.Second, false},
		{"iso without zone", "2024-12-01T08:00:00", 8 * time.Hour, false},
		{"rfc3339", "2024-12-01T08:00:00-05:00", 8 * time.Hour, false},
		{"empty", "", 0, true},
		{"garbage", "sunset-ish", 0, true},
		{"out of range", "25:00", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTime) {
					t.Fatalf("Parse(%q) error = %v, want ErrInvalidTime", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStopTime(t *testing.T) {
	for _, s := range []string{"", "0", " 0 "} {
		got, err := StopTime(s)
		if err != nil || got != 0 {
			t.Errorf("StopTime(%q) = %v, %v; want 0, nil", s, got, err)
		}
	}

	got, err := StopTime("23:00")
	if err != nil {
		t.Fatalf("StopTime failed: %v", err)
	}
	if got != 23*time.Hour {
		t.Errorf("StopTime(23:00) = %v, want 23h", got)
	}
}

func TestWrapAndFormat(t *testing.T) {
	if got := Wrap(-time.Hour); got != 23*time.Hour {
		t.Errorf("Wrap(-1h) = %v, want 23h", got)
	}
	if got := Wrap(25 * time.Hour); got != time.Hour {
		t.Errorf("Wrap(25h) = %v, want 1h", got)
	}
	if got := Format(17*time.Hour + 5*time.Minute + 9*time.Second); got != "17:05:09" {
		t.Errorf("Format = %q, want 17:05:09", got)
	}
}

func TestSunsetFor(t *testing.T) {
	// Greenwich around the winter solstice sets a little before 16:00 UTC.
	day := time.Date(2024, time.December, 21, 12, 0, 0, 0, time.UTC)
	got, ok := SunsetFor(51.48, 0.0, day)
	if !ok {
		t.Fatal("expected a sunset")
	}
	if got < 15*time.Hour+30*time.Minute || got > 16*time.Hour+15*time.Minute {
		t.Errorf("sunset = %s, want roughly 15:50", Format(got))
	}
}
