package broker

import (
	"log/slog"
	"strings"
	"time"

	"github.com/smazurov/lightnode/internal/daytime"
	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/metrics"
)

// Bridge turns inbound feed messages into bus events.
type Bridge struct {
	feeds    Feeds
	eventBus *events.Bus
	logger   *slog.Logger
	now      func() time.Time
}

// NewBridge creates a bridge publishing to eventBus.
func NewBridge(feeds Feeds, eventBus *events.Bus, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		feeds:    feeds,
		eventBus: eventBus,
		logger:   logger.With("component", "mqtt-bridge"),
		now:      time.Now,
	}
}

// Handle routes one message. It is safe to call from the MQTT client's goroutines.
func (b *Bridge) Handle(topic string, payload []byte) {
	feed := b.feeds.Feed(topic)
	metrics.IncBrokerMessage(feed)
	b.logger.Info("New message", "topic", topic, "feed", feed, "payload", string(payload))

	ts := b.now().UTC().Format(time.RFC3339)

	switch feed {
	case FeedControl:
		update, err := ParseConfigUpdate(payload)
		if err != nil {
			b.logger.Warn("Dropping config update", "topic", topic, "error", err)
			return
		}
		b.eventBus.Publish(events.ConfigUpdateEvent{
			Key:       update.Key,
			Value:     update.Value,
			Source:    "mqtt",
			Timestamp: ts,
		})

	case FeedClock:
		raw := strings.TrimSpace(string(payload))
		secs, err := daytime.Parse(raw)
		if err != nil {
			b.logger.Warn("Dropping clock message", "payload", raw, "error", err)
			return
		}
		b.eventBus.Publish(events.ClockEvent{
			Raw:       raw,
			Seconds:   int(secs / time.Second),
			Timestamp: ts,
		})

	case FeedSunset:
		raw := strings.TrimSpace(string(payload))
		secs, err := daytime.Parse(raw)
		if err != nil {
			b.logger.Warn("Dropping sunset message", "payload", raw, "error", err)
			return
		}
		b.eventBus.Publish(events.SunsetEvent{
			Raw:       raw,
			Seconds:   int(secs / time.Second),
			Timestamp: ts,
		})

	default:
		b.logger.Warn("Message on unexpected topic", "topic", topic)
	}
}
