// Package engine aggregates an office: the layout grid, the furniture
// catalog and every character, behind the event API external sources use.
//
// The engine exposes:
//   - agent events: AddAgent, RemoveAgent, SetAgentActive, SetAgentTool
//   - layout edits: PlaceFurniture, MoveFurniture, RemoveFurniture, RebuildFromLayout
//   - simulation: Update advances one tick, Snapshot reads out render state
//
// Core Types:
//
// The Engine interface defines the contract, implemented by OfficeEngine.
// Snapshot is a deep copy safe to hand to another goroutine. Settings tune
// walking speed, the stall limit and the animation tables.
//
// Usage:
//
//	office, err := engine.NewEngine(doc, cat, engine.DefaultSettings())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	office.AddAgent(1, "")
//	office.SetAgentActive(1, true)
//	office.SetAgentTool(1, "Edit")
//
//	for i := 0; i < 60; i++ {
//		office.Update(1.0 / 60)
//	}
//	snap := office.Snapshot()
//
// Rules:
//
// Setters mutate state immediately and the next Update observes them;
// nothing is buffered. Unknown agent ids are ignored. Characters are
// processed in ascending id order each tick and claim their next tile at
// once, so when two characters want the same tile the lower id moves and
// the other retries on the next tick. The engine performs no I/O and never
// blocks; it is not safe for concurrent use.
package engine
