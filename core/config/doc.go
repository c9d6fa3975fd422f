// Package config provides configuration management for the Push Manager.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file loaded through godotenv.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key, timeouts)
//   - Database: MySQL or SQLite connection used for persisted selections
//   - Storage: S3/MinIO credentials, bucket and catalog object
//   - Log: Logging level and format
//   - Provider: OneSignal app id, REST API key and base URL
//   - Reconcile: retry policies for identifier polling and tag writes
//   - Session: session token secret and lifetime
//
// Defaults live in `default` struct tags next to each field. Environment
// variables map to nested keys by replacing dots with underscores, e.g.
// RECONCILE_WRITE_MAX_ATTEMPTS sets reconcile.write_max_attempts.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
