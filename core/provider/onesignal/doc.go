// Package onesignal implements provider.Provider on top of the OneSignal
// REST API.
//
// A Client holds the shared HTTP connection pool and credentials. Session
// binds the client to one external id, the visitor identifier the browser
// registered with OneSignal's web SDK. Permission and opt-in changes happen
// in the browser, so the HTTP layer forwards them to ReportPermission and
// ReportSubscription, which fan out to the registered callbacks.
//
// Tags are edited with a single PATCH where an empty string value deletes a
// tag, which makes the switch between categories atomic.
package onesignal
