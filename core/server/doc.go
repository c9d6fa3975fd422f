// Package server holds the HTTP server configuration.
//
// While the main application entry point handles the server startup, this package
// defines the listen address, the API key protecting the routes and the
// read/write timeouts handed to Fiber.
//
// # Usage
//
// This package is primarily used by the core/config package to embed server settings
// and by cmd/start.go to configure the Fiber application.
package server
