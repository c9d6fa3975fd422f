// Package subscription exposes push category reconciliation over HTTP.
//
// A visitor's browser opens a session with POST /sessions/{externalId} and
// receives a token for the remaining session routes. The service keeps one
// reconcile.Reconciler per external id, fed by a provider session and a
// per-visitor scope of the shared key/value store.
//
// The browser forwards what the push SDK reports (opt-in and permission
// changes) to the events routes. Visitor actions go to the category,
// subscribe and unsubscribe routes. A tag update that could not be
// confirmed yet is answered with 202 and a "pending" status, and the
// matching notice shows up under /notices.
package subscription
