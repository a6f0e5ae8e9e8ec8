// Package metrics provides Prometheus metrics for the light rigs and broker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rigLightsOn = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "lightnode",
		Subsystem: "rig",
		Name:      "lights_on",
		Help:      "Whether the rig lights are on (1) or off (0)",
	}, []string{"rig"})

	rigDormant = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "lightnode",
		Subsystem: "rig",
		Name:      "dormant",
		Help:      "Whether the rig is sleeping (1) or awake (0)",
	}, []string{"rig"})

	rigDormancySeconds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lightnode",
		Subsystem: "rig",
		Name:      "dormancy_seconds_total",
		Help:      "Total seconds of requested dormancy",
	}, []string{"rig"})

	rigFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lightnode",
		Subsystem: "rig",
		Name:      "frames_total",
		Help:      "Total main loop frames",
	}, []string{"rig"})

	rigBrightness = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "lightnode",
		Subsystem: "rig",
		Name:      "brightness",
		Help:      "Current strip brightness scale",
	}, []string{"rig"})

	rigAnimation = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "lightnode",
		Subsystem: "rig",
		Name:      "animation_index",
		Help:      "Index of the animation currently playing",
	}, []string{"rig"})

	lightLevel = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lightnode",
		Subsystem: "sensor",
		Name:      "light_level",
		Help:      "Last raw light sensor reading",
	})

	brokerMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lightnode",
		Subsystem: "broker",
		Name:      "messages_total",
		Help:      "Messages received per feed",
	}, []string{"feed"})

	brokerReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lightnode",
		Subsystem: "broker",
		Name:      "reconnect_attempts_total",
		Help:      "Broker reconnect attempts",
	})

	brokerConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lightnode",
		Subsystem: "broker",
		Name:      "connected",
		Help:      "Whether the broker connection is up",
	})

	eventDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lightnode",
		Subsystem: "events",
		Name:      "dropped_total",
		Help:      "Events dropped because a channel subscriber was full",
	}, []string{"type"})

	wanActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lightnode",
		Subsystem: "network",
		Name:      "wan_active",
		Help:      "Result of the last WAN connectivity check",
	})
)

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// SetLightsOn records the rig light state.
func SetLightsOn(rig string, on bool) {
	rigLightsOn.WithLabelValues(rig).Set(boolValue(on))
}

// SetDormant records whether the rig is sleeping.
func SetDormant(rig string, dormant bool) {
	rigDormant.WithLabelValues(rig).Set(boolValue(dormant))
}

// AddDormancy adds requested sleep time.
func AddDormancy(rig string, seconds float64) {
	rigDormancySeconds.WithLabelValues(rig).Add(seconds)
}

// AddFrames counts main loop frames.
func AddFrames(rig string, n int) {
	rigFrames.WithLabelValues(rig).Add(float64(n))
}

// SetBrightness records the strip brightness.
func SetBrightness(rig string, b float64) {
	rigBrightness.WithLabelValues(rig).Set(b)
}

// SetAnimation records the playing animation index.
func SetAnimation(rig string, index int) {
	rigAnimation.WithLabelValues(rig).Set(float64(index))
}

// SetLightLevel records a light sensor reading.
func SetLightLevel(v int) {
	lightLevel.Set(float64(v))
}

// IncBrokerMessage counts a received message.
func IncBrokerMessage(feed string) {
	brokerMessages.WithLabelValues(feed).Inc()
}

// IncBrokerReconnect counts a reconnect attempt.
func IncBrokerReconnect() {
	brokerReconnects.Inc()
}

// SetBrokerConnected records the broker connection state.
func SetBrokerConnected(connected bool) {
	brokerConnected.Set(boolValue(connected))
}

// SetWANActive records the WAN check result.
func SetWANActive(active bool) {
	wanActive.Set(boolValue(active))
}

// IncEventDropped counts an event a slow subscriber missed.
func IncEventDropped(kind string) {
	eventDrops.WithLabelValues(kind).Inc()
}
