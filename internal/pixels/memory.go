package pixels

import (
	"log/slog"
	"sync"

	"github.com/smazurov/lightnode/internal/palette"
)

// Memory is an in-process strip for hosts without LED hardware.
// It keeps the last shown frame for inspection.
type Memory struct {
	mu         sync.RWMutex
	buf        []palette.Color
	shown      []palette.Color
	brightness float64
	shows      int
	logger     *slog.Logger
}

// NewMemory creates a memory strip of n pixels at full brightness.
func NewMemory(n int, logger *slog.Logger) *Memory {
	return &Memory{
		buf:        make([]palette.Color, n),
		shown:      make([]palette.Color, n),
		brightness: 1,
		logger:     logger,
	}
}

// Len returns the pixel count.
func (m *Memory) Len() int {
	return len(m.buf)
}

// Set writes one pixel; out-of-range indexes are ignored.
func (m *Memory) Set(i int, c palette.Color) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.buf) {
		return
	}
	m.buf[i] = c
}

// Fill writes every pixel.
func (m *Memory) Fill(c palette.Color) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.buf {
		m.buf[i] = c
	}
}

// Show copies the buffer to the shown frame with brightness applied.
func (m *Memory) Show() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.buf {
		m.shown[i] = c.Scale(m.brightness)
	}
	m.shows++
	if m.logger != nil {
		m.logger.Debug("Memory strip frame", "show", m.shows)
	}
	return nil
}

// SetBrightness sets the output scale.
func (m *Memory) SetBrightness(b float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.brightness = clampBrightness(b)
}

// Brightness returns the output scale.
func (m *Memory) Brightness() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.brightness
}

// Pixel returns the buffered (unscaled) color at i.
func (m *Memory) Pixel(i int) palette.Color {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i < 0 || i >= len(m.buf) {
		return palette.Off
	}
	return m.buf[i]
}

// Frame returns a copy of the last shown frame.
func (m *Memory) Frame() []palette.Color {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]palette.Color(nil), m.shown...)
}

// Shows returns how many times Show was called.
func (m *Memory) Shows() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.shows
}

// Close implements Strip.
func (m *Memory) Close() error {
	return nil
}
