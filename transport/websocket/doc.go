// Package websocket streams office snapshots to browser renderers.
//
// A Hub keeps the WebSocket clients of each office and fans out frames to
// them. Clients subscribe with /ws?office=<id>; the first frame is the
// current snapshot and every tick of the office frame loop follows as an
// EventSnapshot message. Agent and layout edits are announced with
// BroadcastEvent.
//
// Publish never blocks: it is called from the office frame loops, so frames
// are dropped when the hub is saturated and clients that cannot keep up are
// disconnected.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	manager := session.NewManager(session.WithPublisher(hub))
package websocket
