// Package reconcile keeps a subscriber's remote push tags in agreement with
// the category they selected locally.
//
// A Reconciler owns one subscriber. It combines three inputs:
//   - the persisted selection in a key/value store (selected category,
//     external id and the last category confirmed remotely)
//   - the remote subscription state reported by the push provider
//     (permission, opt-in flag and the provider's user id)
//   - explicit visitor actions (select, subscribe, unsubscribe)
//
// # Lifecycle
//
//	uninitialized -> initializing -> ready | unsubscribed | failed
//	ready <-> applying
//	ready <-> unsubscribed
//	unsubscribed -> applying
//	applying -> applying | unsubscribed
//
// A failed reconciler stays failed. Subscribe, Unsubscribe and
// ApplyCategory return ErrDisabled from then on.
//
// # Applying a category
//
// ApplyCategory polls the provider for the remote user id, which may not
// exist right after opt-in, then removes every other catalog tag and adds
// the selected one. Both steps run under Retry with their own RetryPolicy.
// The persisted record is only written after the provider confirmed the
// change. When several applications overlap, the newest one wins and the
// older ones return ErrSuperseded without touching the store.
//
// # Usage
//
//	rec := reconcile.New(session, store, cat, externalID,
//	    reconcile.WithLogger(log),
//	    reconcile.WithConfig(cfg.Reconcile),
//	)
//	if err := rec.Start(ctx); err != nil {
//	    return err
//	}
//	err := rec.SelectCategory(ctx, "events")
package reconcile
