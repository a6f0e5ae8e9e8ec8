// Package daytime converts clock strings and sunset times into offsets from local midnight.
package daytime

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// Day is the length of one day as an offset.
const Day = 24 * time.Hour

// ErrInvalidTime is returned when a string is not a recognised time of day.
var ErrInvalidTime = errors.New("invalid time of day")

// layouts are tried in order. Date-bearing layouts keep only the clock part.
var layouts = []string{
	"15:04:05",
	"15:04",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// Parse returns the offset from midnight for a clock string such as "17:45",
// "17:45:10" or a full timestamp like "2024-12-01 17:45:10".
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"`))
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidTime)
	}

	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return OfTime(t), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
}

// StopTime parses a configured stop time. "0" or an empty string means the
// lights never stop and yields 0.
func StopTime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	return Parse(s)
}

// OfTime returns the offset of t from its own midnight.
func OfTime(t time.Time) time.Duration {
	h, m, sec := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
}

// Format renders an offset as HH:MM:SS.
func Format(d time.Duration) string {
	d = Wrap(d)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	return fmt.Sprintf("%02d:%02d:%02d", h, m, d/time.Second)
}

// Wrap folds an offset into [0, Day).
func Wrap(d time.Duration) time.Duration {
	d %= Day
	if d < 0 {
		d += Day
	}
	return d
}

// SunsetFor computes the local sunset offset for the given coordinates on the
// date of t. The second return is false when the sun does not set that day.
func SunsetFor(lat, lon float64, t time.Time) (time.Duration, bool) {
	_, set := sunrise.SunriseSunset(lat, lon, t.Year(), t.Month(), t.Day())
	if set.IsZero() {
		return 0, false
	}
	return OfTime(set.In(t.Location())), true
}
