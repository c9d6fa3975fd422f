// Package kvstore provides the synchronous key/value persistence the
// reconciler stores a visitor's selection in.
//
// Two backends exist: Memory, for tests and database-less deployments, and
// GormStore, which keeps entries in a single table on MySQL or SQLite.
// Scoped wraps any Store so that each subscriber session gets its own key
// space inside the shared backend.
//
// # Usage
//
//	store := kvstore.NewGormStore(db)
//	if err := store.Migrate(); err != nil { ... }
//	session := kvstore.Scoped(store, "subscriber-42")
//	_ = session.Set("selected_category", "emergencies")
package kvstore
