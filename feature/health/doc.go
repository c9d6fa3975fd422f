// Package health provides infrastructure checks for the push manager.
//
// # Checks Provided
//
//   - Storage: the bucket holding the catalog override exists. A missing
//     bucket is reported but not fatal, the built-in catalog is used instead.
//   - Database: the key/value database answers a ping (disabled when the
//     service runs on the in-memory store).
//   - Catalog: the catalog loads and lists its category ids.
//   - Sessions: number of open reconciler sessions.
//
// # HTTP Endpoints
//
//   - GET /health : Runs all checks, 503 when one fails.
//   - GET /health/storage : Runs the storage check (supports ?fix=true to
//     create the bucket and publish the built-in catalog).
package health
