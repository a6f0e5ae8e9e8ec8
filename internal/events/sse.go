package events

import (
	"fmt"

	"github.com/smazurov/lightnode/internal/metrics"
)

// SubscribeToChannel forwards events of type T into ch for select loops such
// as the SSE log stream. A full channel drops the event and counts it; log
// stream clients recover dropped entries from the ring buffer.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	var zero T
	kind := fmt.Sprintf("%T", zero)
	return bus.Subscribe(func(e T) {
		select {
		case ch <- e:
		default:
			metrics.IncEventDropped(kind)
		}
	})
}
