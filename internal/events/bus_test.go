package events

import (
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan SunsetEvent, 1)

	unsub := bus.Subscribe(func(e SunsetEvent) {
		received <- e
	})
	defer unsub()

	event := SunsetEvent{
		Raw:       "16:52",
		Seconds:   60720,
		Timestamp: "2025-01-27T10:30:00Z",
	}
	bus.Publish(event)

	got := <-received
	if got.Seconds != event.Seconds {
		t.Errorf("Expected seconds %d, got %d", event.Seconds, got.Seconds)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan LightsStateChangedEvent, 1)
	received2 := make(chan LightsStateChangedEvent, 1)

	unsub1 := bus.Subscribe(func(e LightsStateChangedEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e LightsStateChangedEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(LightsStateChangedEvent{Rig: "tree", LightsOn: true})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan ClockEvent, 1)

	unsub := bus.Subscribe(func(e ClockEvent) {
		received <- e
	})

	bus.Publish(ClockEvent{Raw: "17:00"})
	<-received

	unsub()

	bus.Publish(ClockEvent{Raw: "17:01"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
		// Expected - no event
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	clockReceived := make(chan bool, 1)
	configReceived := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ ClockEvent) {
		clockReceived <- true
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(_ ConfigUpdateEvent) {
		configReceived <- true
	})
	defer unsub2()

	bus.Publish(ClockEvent{Raw: "17:00"})
	<-clockReceived

	select {
	case <-configReceived:
		t.Fatal("Config subscriber should NOT have received ClockEvent")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}

	bus.Publish(ConfigUpdateEvent{Key: "color", Value: "red"})
	<-configReceived

	select {
	case <-clockReceived:
		t.Fatal("Clock subscriber should NOT have received ConfigUpdateEvent")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)

	unsub := bus.Subscribe(func(_ ClockEvent) {
		receivedCh <- true
	})
	defer unsub()

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range eventsPerGoroutine {
				bus.Publish(ClockEvent{
					Raw:       "17:00",
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}()
	}

	wg.Wait()

	for range expected {
		<-receivedCh
	}
}

func TestBus_UnknownHandler(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	if unsub == nil {
		t.Fatal("Subscribe should return a no-op unsubscribe for unknown handlers")
	}
	unsub()
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 1)
	unsub := SubscribeToChannel[LogEntryEvent](bus, ch)
	defer unsub()

	bus.Publish(LogEntryEvent{Message: "hello"})

	select {
	case e := <-ch:
		if e.(LogEntryEvent).Message != "hello" {
			t.Errorf("got %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel event")
	}
}

func TestSubscribeToChannelDropsWhenFull(t *testing.T) {
	bus := New()
	defer bus.Close()
	ch := make(chan any, 1)
	unsub := SubscribeToChannel[LogEntryEvent](bus, ch)
	defer unsub()

	for i := 0; i < 3; i++ {
		bus.Publish(LogEntryEvent{Message: "entry"})
	}
	time.Sleep(50 * time.Millisecond)

	if n := len(ch); n != 1 {
		t.Errorf("buffered %d events, want 1", n)
	}
}
