// Package websocket streams recorded solver runs to WebSocket clients.
//
// A central Hub owns every connection. Clients subscribe to a topic with
// the ?topic= query parameter: a profile name receives the runs solved
// with that profile, and "*" (the default) receives every run.
//
// Outgoing messages are JSON:
//
//	{"topic": "quick", "event": "run_recorded", "run": {...}}
//
// Incoming messages are read only to keep the connection alive.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	solver.OnRun(hub.BroadcastRun)
//
// BroadcastRun never blocks the caller. Runs are dropped when the hub
// queue is full.
package websocket
