// Package contstore defines the interface of the continuations store: the
// registry that creates, looks up, invalidates and expires web continuations.
//
// # Why the Store Exists
//
// A multi-step browser interaction is suspended by the scripting layer at
// every page it sends. The suspended state (an opaque payload to this
// package) is parked in the store under an unguessable ID that is embedded in
// the page. When the browser posts back, the request layer looks the ID up
// and hands the payload back to the scripting engine to resume.
//
// Continuations form a forest: a continuation created while resuming another
// one becomes its child, so that a whole interaction (and every branch the
// user opened with the back button) can be invalidated at once.
//
// # Lifecycle
//
//  1. **Created** with a payload, an optional parent, a TTL and an optional disposer
//  2. **Looked up** zero or more times; every successful lookup extends its life
//  3. **Terminated** by explicit invalidation or by the expiry reaper, together
//     with its whole subtree; the disposer runs exactly once
//
// A terminated ID is never reissued and every later lookup reports not-found.
//
// # Error Taxonomy
//
//   - Not found is a normal outcome of Lookup and is reported as (nil, false).
//   - A create that names an unknown, expired or invalidated parent fails with
//     ErrInvalidParent; nothing is stored.
//   - A failing disposer is wrapped in a *DisposerError. It never prevents
//     removal. Invalidate returns it to the caller after cleanup completes; the
//     reaper logs it and moves on.
//
// # Typical Implementation
//
// See internal/inmemorycontstore for the arena-backed in-memory store.
package contstore
