package broker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Feed names used for routing and metrics.
const (
	FeedControl = "control"
	FeedClock   = "clock"
	FeedSunset  = "sunset"
	FeedUnknown = "unknown"
)

// ErrInvalidUpdate is returned for config update payloads that cannot be applied.
var ErrInvalidUpdate = errors.New("invalid config update")

// Feeds holds the topics the rig listens on. Empty topics are not subscribed.
type Feeds struct {
	Control string // JSON config updates for the rig
	Clock   string // local date/time broadcasts
	Sunset  string // today's sunset time
}

// Topics returns the configured topics in subscription order.
func (f Feeds) Topics() []string {
	var topics []string
	for _, t := range []string{f.Control, f.Clock, f.Sunset} {
		if t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

// Feed reports which feed a topic belongs to.
func (f Feeds) Feed(topic string) string {
	switch {
	case topic == "":
		return FeedUnknown
	case topic == f.Control:
		return FeedControl
	case topic == f.Clock:
		return FeedClock
	case topic == f.Sunset:
		return FeedSunset
	default:
		return FeedUnknown
	}
}

// ConfigUpdate names one rig setting and its new value.
type ConfigUpdate struct {
	Key   string `json:"search_string"`
	Value string `json:"replace_string"`
}

// ParseConfigUpdate decodes {"search_string": key, "replace_string": value}.
// Non-string values (numbers, booleans, lists) are kept as their JSON text.
func ParseConfigUpdate(payload []byte) (ConfigUpdate, error) {
	var raw struct {
		Key   string          `json:"search_string"`
		Value json.RawMessage `json:"replace_string"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return ConfigUpdate{}, fmt.Errorf("%w: %w", ErrInvalidUpdate, err)
	}

	key := strings.TrimSpace(raw.Key)
	if key == "" {
		return ConfigUpdate{}, fmt.Errorf("%w: missing search_string", ErrInvalidUpdate)
	}
	if len(raw.Value) == 0 || bytes.Equal(raw.Value, []byte("null")) {
		return ConfigUpdate{}, fmt.Errorf("%w: missing replace_string for %q", ErrInvalidUpdate, key)
	}

	value := string(raw.Value)
	if raw.Value[0] == '"' {
		if err := json.Unmarshal(raw.Value, &value); err != nil {
			return ConfigUpdate{}, fmt.Errorf("%w: %w", ErrInvalidUpdate, err)
		}
	}
	return ConfigUpdate{Key: key, Value: value}, nil
}

// Marshal serializes the update in the wire format.
func (u ConfigUpdate) Marshal() ([]byte, error) {
	return json.Marshal(u)
}
