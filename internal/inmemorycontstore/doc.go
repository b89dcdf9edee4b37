// Package inmemorycontstore provides a thread-safe, in-memory implementation
// of the contstore.Store interface.
//
// # Layout
//
// All continuations live in a single ID-keyed map (the arena). Parent and
// child links are stored as IDs, never as pointers between nodes, so a
// removed subtree is unreachable as soon as its IDs leave the map.
//
// # Concurrency Model
//
// One sync.RWMutex guards the arena, the root set and the expiry index.
//   - **Lookup** holds the read lock and moves the access time forward with an
//     atomic compare-and-swap, so lookups of different IDs never serialize.
//   - **Create, Invalidate and each reaper step** hold the write lock for one
//     structural change only: linking one node or unlinking one subtree.
//   - **Disposers and observers** run after the lock is released. Removed nodes
//     are queued while locked and drained afterwards, which lets a disposer
//     call back into the store.
//
// # Expiry Index
//
// Expiring continuations have one entry in a min-heap ordered by deadline.
// Lookups do not touch the heap. The reaper pops due entries one at a time
// and re-checks the node: a refreshed node is pushed back with its new
// deadline, a removed node is dropped, an expired node is unlinked.
package inmemorycontstore
