package events

// Event type constants for kelindar/event.
const (
	TypeClock uint32 = iota + 1
	TypeSunset
	TypeConfigUpdate
	TypeLightsStateChanged
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ClockEvent carries the current local time of day from the time broadcast.
type ClockEvent struct {
	Raw       string `json:"raw" example:"2024-12-01 17:45:10" doc:"Message payload as received"`
	Seconds   int    `json:"seconds" example:"63910" doc:"Seconds since local midnight"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Receive timestamp"`
}

// Type returns the event type identifier for ClockEvent.
func (e ClockEvent) Type() uint32 { return TypeClock }

// SunsetEvent carries today's sunset time from the sunset broadcast.
type SunsetEvent struct {
	Raw       string `json:"raw" example:"16:52" doc:"Message payload as received"`
	Seconds   int    `json:"seconds" example:"60720" doc:"Sunset in seconds since local midnight"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Receive timestamp"`
}

// Type returns the event type identifier for SunsetEvent.
func (e SunsetEvent) Type() uint32 { return TypeSunset }

// ConfigUpdateEvent requests that one rig configuration key change.
type ConfigUpdateEvent struct {
	Key       string `json:"key" example:"brightness_high" doc:"Rig configuration key"`
	Value     string `json:"value" example:"0.4" doc:"New value"`
	Source    string `json:"source" example:"mqtt" doc:"Where the update came from"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Receive timestamp"`
}

// Type returns the event type identifier for ConfigUpdateEvent.
func (e ConfigUpdateEvent) Type() uint32 { return TypeConfigUpdate }

// LightsStateChangedEvent is published when a rig turns its lights on or off.
type LightsStateChangedEvent struct {
	Rig       string `json:"rig" example:"tree" doc:"Rig name"`
	LightsOn  bool   `json:"lights_on" example:"true" doc:"Whether the lights are on"`
	Dormant   bool   `json:"dormant" example:"false" doc:"Whether the rig is sleeping"`
	Reason    string `json:"reason" example:"too bright" doc:"Why the state changed"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for LightsStateChangedEvent.
func (e LightsStateChangedEvent) Type() uint32 { return TypeLightsStateChanged }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"api" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
