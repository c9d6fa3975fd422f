// Package provider defines the push-provider collaborator the reconciler
// drives.
//
// A Provider is bound to one subscriber session. It reports permission,
// opt-in and the provider-assigned identifier, writes tags, toggles the push
// subscription and delivers change events through registered callbacks.
// Providers able to add and remove tags in one request also implement
// TagEditor, which the reconciler prefers so that the switch from one
// category to another is atomic.
//
// Emitter is a small helper implementations embed to fan out events.
package provider
