// Package session manages the lifecycle of running offices.
//
// Manager keeps every office in memory keyed by a case-insensitive ID,
// builds its engine from a layout document and wires the office frame loop
// to an optional Publisher. With a run context the loop of each office
// starts as soon as the office is created or loaded.
//
// Persistence:
//
// An OfficePersistence stores OfficeRecord values: the office layout plus
// its agent roster. FilePersistence writes one JSON file per office;
// SQLPersistence keeps one row per office in SQLite or PostgreSQL. Restored
// agents are re-added in id order and walk back to their desks.
//
// Usage:
//
//	store, _ := session.NewSQLitePersistence("offices.db")
//	manager := session.NewManager(
//		session.WithPersistence(store),
//		session.WithPublisher(hub),
//		session.WithRunContext(ctx),
//	)
//	if err := manager.LoadPersistedOffices(); err != nil {
//		log.Fatal(err)
//	}
//
//	office, err := manager.Create("", "default", layout.DefaultDocument())
package session
