// Package loader drives the asynchronous load of one remote image.
//
// A Controller binds a URL to a shared cache.Cache and moves through five
// states:
//
//	Idle    --Load, no URL-->    NoURL
//	Idle    --Load, cache hit--> Loaded
//	Idle    --Load, cache miss-> Loading
//	Loading --fetch+decode ok--> Loaded   (cache populated)
//	Loading --fetch or decode--> Failed
//	Failed  --Load-------------> Loaded | Loading  (cache re-checked first)
//	Loaded  --Load-------------> Loaded | Loading  (re-fetch after eviction)
//
// Load is ignored while Loading, so at most one fetch per controller is in
// flight. Failures are never cached and are reported only through the
// Failed state; their causes are classified with KindOf.
//
// Subscribers are called on a Dispatcher, one notification at a time, in
// transition order. Close cancels an in-flight fetch and discards its
// result.
package loader
