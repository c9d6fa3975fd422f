// Package catalog holds the fixed list of notification categories a visitor
// can choose from.
//
// The catalog is read-only input for the reconciler. A built-in default ships
// with the binary; deployments may override it with a JSON object stored in
// the asset bucket. The server loads it once at start and keeps it for the
// process lifetime, so a published override takes effect on restart.
//
// # Usage
//
//	cat := catalog.Default()
//	others := cat.Others("emergencies") // tags to remove before tagging "emergencies"
//
//	cache := catalog.NewCache(client, "assets", catalog.DefaultObjectName, 0)
//	cat, err := cache.Get(ctx)
package catalog
