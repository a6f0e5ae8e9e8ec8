package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/logging"
)

// LogStreamInput lets a reconnecting client skip entries it already has.
// EventSource resends the last event id on reconnect by itself.
type LogStreamInput struct {
	Since       uint64 `query:"since" doc:"Only send entries with a sequence number above this"`
	LastEventID uint64 `header:"Last-Event-ID" doc:"Sequence number of the last entry received"`
}

// sendEntry tags the event with its sequence number as the SSE id.
func sendEntry(send sse.Sender, entry events.LogEntryEvent) error {
	return send(sse.Message{ID: int(entry.Seq), Data: entry})
}

func logEntryEvent(entry logging.LogEntry) events.LogEntryEvent {
	return events.LogEntryEvent{
		Seq:        entry.Seq,
		Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
		Level:      entry.Level,
		Module:     entry.Module,
		Message:    entry.Message,
		Attributes: entry.Attributes,
	}
}

// LogPublisher returns a logging callback that puts every entry on the bus
// for the log stream.
func LogPublisher(bus *events.Bus) logging.LogCallback {
	return func(entry logging.LogEntry) {
		bus.Publish(logEntryEvent(entry))
	}
}

// registerLogRoutes registers the log streaming SSE endpoint.
func (s *Server) registerLogRoutes() {
	if s.eventBus == nil {
		return
	}

	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Real-time log streaming via Server-Sent Events. Sends buffered logs first, then streams new logs.",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"message": events.LogEntryEvent{},
	}, func(ctx context.Context, input *LogStreamInput, send sse.Sender) {
		// Subscribe before reading history so nothing falls between the two.
		eventCh := make(chan any, 100)
		unsubscribe := events.SubscribeToChannel[events.LogEntryEvent](s.eventBus, eventCh)
		defer unsubscribe()

		last := max(input.Since, input.LastEventID)
		if buffer := logging.GetBuffer(); buffer != nil {
			for _, entry := range buffer.Since(last) {
				if err := sendEntry(send, logEntryEvent(entry)); err != nil {
					return
				}
				last = entry.Seq
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-eventCh:
				entry, ok := ev.(events.LogEntryEvent)
				if !ok || (entry.Seq != 0 && entry.Seq <= last) {
					continue
				}
				if err := sendEntry(send, entry); err != nil {
					return
				}
				if entry.Seq != 0 {
					last = entry.Seq
				}
			}
		}
	})
}
