package led

import (
	"log/slog"
	"sync"

	"github.com/smazurov/lightnode/internal/events"
)

// Manager subscribes to lights state events and mirrors them on the board LED:
// solid while the strip is lit, heartbeat while dormant, off otherwise.
type Manager struct {
	controller  Controller
	eventBus    *events.Bus
	ledType     string
	unsubscribe func()
	logger      *slog.Logger

	mu    sync.Mutex
	state events.LightsStateChangedEvent
	seen  bool
}

// NewManager creates a manager driving ledType. An empty ledType picks one
// with StatusLED.
func NewManager(controller Controller, eventBus *events.Bus, ledType string, logger *slog.Logger) *Manager {
	if ledType == "" {
		ledType = StatusLED(controller)
	}
	return &Manager{
		controller: controller,
		eventBus:   eventBus,
		ledType:    ledType,
		logger:     logger,
	}
}

// Start begins listening for lights state change events
func (m *Manager) Start() {
	if m.ledType == "" {
		m.logger.Info("No status LED on this board, LED manager idle")
		return
	}
	m.unsubscribe = m.eventBus.Subscribe(func(e events.LightsStateChangedEvent) {
		m.handleEvent(e)
	})
	m.logger.Info("LED manager started", "led", m.ledType)
}

// Stop unsubscribes and turns the LED off
func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
		if err := m.controller.Set(m.ledType, false, "solid"); err != nil {
			m.logger.Warn("Failed to turn off status LED", "error", err)
		}
	}
	m.logger.Info("LED manager stopped")
}

func (m *Manager) handleEvent(e events.LightsStateChangedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = e
	m.seen = true

	enabled, pattern := Pattern(e)
	if err := m.controller.Set(m.ledType, enabled, pattern); err != nil {
		m.logger.Warn("Failed to set status LED", "led", m.ledType, "pattern", pattern, "error", err)
		return
	}
	m.logger.Debug("Status LED updated",
		"rig", e.Rig,
		"lights_on", e.LightsOn,
		"dormant", e.Dormant,
		"pattern", pattern)
}

// Pattern maps a lights state to the LED setting.
func Pattern(e events.LightsStateChangedEvent) (enabled bool, pattern string) {
	switch {
	case e.LightsOn:
		return true, "solid"
	case e.Dormant:
		return true, "heartbeat"
	default:
		return false, "solid"
	}
}

// State returns the last lights state seen and whether there was one.
func (m *Manager) State() (events.LightsStateChangedEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.seen
}

// LEDType returns the LED this manager drives.
func (m *Manager) LEDType() string {
	return m.ledType
}

// GetController returns the underlying LED controller for direct API access
func (m *Manager) GetController() Controller {
	return m.controller
}
