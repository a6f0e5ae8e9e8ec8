// Package broker connects a rig to its MQTT feeds.
//
// Three topics are consumed, each configured by name:
//
//	control  JSON config updates: {"search_string": "color", "replace_string": "blue"}
//	clock    local time broadcasts: "17:45:10" or "2024-12-01 17:45:10"
//	sunset   today's sunset: "16:52"
//
// [Client] owns the paho session. It subscribes to every configured topic on
// each (re)connect and, when the connection drops, retries with a linear
// [Backoff] (1s, 2s, 3s ... up to 10 attempts). Failing to reach the broker
// is never fatal; the rig keeps animating offline.
//
// [Bridge] receives every message and republishes it on the event bus as a
// ClockEvent, SunsetEvent or ConfigUpdateEvent. Malformed payloads are
// logged and dropped.
//
// Typical wiring:
//
//	bridge := broker.NewBridge(feeds, bus, logger)
//	client := broker.NewClient(opts, bridge.Handle, logger)
//	client.Start()
//	defer client.Close()
package broker
