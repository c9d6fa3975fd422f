// Package database handles database connections.
//
// It wraps GORM to configure MySQL or SQLite connections from the
// application's configuration. The database only backs the key/value store
// holding visitor selections, so the connection is optional: the start
// command falls back to in-memory storage when Connect fails.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    logg.Warn("Optional database connection failed", zap.Error(err))
//	}
package database
