// Package runs keeps the history of solve runs.
//
// Manager is a thread-safe in-memory index of service.Run records with an
// optional Persistence behind it. Two persistence layers are provided:
// FilePersistence writes one JSON file per run and SQLitePersistence stores
// runs in a SQLite database (pure Go driver, embedded migrations).
//
// Run Identifiers:
//
// Runs get a random UUID when created without an ID. Persistence layers
// reject IDs that are not UUIDs, so an ID can never escape the data
// directory.
//
// Usage:
//
//	store, err := runs.OpenSQLite("data/runs.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	manager := runs.NewManagerWithPersistence(store)
//	if err := manager.LoadPersistedRuns(); err != nil {
//		log.Printf("Warning: %v", err)
//	}
//
//	run, err := manager.Create(&service.Run{Profile: "default"})
//
// Cleanup:
//
// CleanupExpiredRuns removes runs older than a maximum age from memory and
// from persistence.
package runs
