package contstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vk/webcont/internal/continuation"
)

// Store is the interface of a continuations registry.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use by request goroutines and
// the reaper. A Lookup racing an Invalidate of the same ID observes either
// the live continuation or not-found, never a partially removed node.
// Disposers and observers MUST be invoked without holding internal locks so
// that they may call back into the store.
type Store interface {
	continuation.Resolver

	// Create stores a new continuation holding payload and returns its
	// handle. The handle is visible to concurrent lookups once Create returns.
	//
	// Returns ErrNilPayload for a nil payload, ErrInvalidParent when
	// opts.ParentID does not name a live continuation, ErrScopeMismatch when
	// opts.Scope contradicts the parent's scope and ErrClosed after Close.
	Create(ctx context.Context, payload any, opts CreateOptions) (*continuation.Continuation, error)

	// Lookup returns the live continuation with the given ID and refreshes
	// its access time. Unknown, invalidated and expired IDs yield false.
	Lookup(ctx context.Context, id string) (*continuation.Continuation, bool)

	// LookupInScope is Lookup restricted to continuations bound to scope.
	LookupInScope(ctx context.Context, scope, id string) (*continuation.Continuation, bool)

	// Invalidate removes the continuation and its whole subtree. Disposers
	// run after the removal, children before parents. Unknown IDs are a
	// no-op. Disposer failures are returned after every disposer has run.
	Invalidate(ctx context.Context, id string) error

	// InvalidateScope invalidates every tree whose root is bound to scope.
	InvalidateScope(ctx context.Context, scope string) error

	// DisplayAll renders the whole forest for operators. It does not touch
	// access times.
	DisplayAll(ctx context.Context) string

	// Forest returns snapshots of every tree, roots in creation order.
	Forest(ctx context.Context) []Tree

	// Stats reports the current size of the store.
	Stats(ctx context.Context) Stats

	// Close invalidates everything and rejects further creates.
	Close(ctx context.Context) error
}

// Expirer is the part of a store driven by the reaper.
type Expirer interface {
	// ReapExpired removes every continuation that is due at the time of the
	// call. Disposer failures are collected, never abort the pass, and are
	// returned joined.
	ReapExpired(ctx context.Context) (ReapResult, error)
}

// CreateOptions holds the optional inputs of Store.Create.
type CreateOptions struct {
	// ParentID links the new continuation under an existing live one.
	ParentID string
	// TTL is the lifespan after the last access. Zero selects the store
	// default, a negative value disables expiry.
	TTL time.Duration
	// Disposer runs once when the continuation is removed.
	Disposer continuation.Disposer
	// Scope binds the continuation to an owner. Children inherit the
	// parent's scope when left empty.
	Scope string
}

// Stats summarizes the content of a store.
type Stats struct {
	Continuations int
	Trees         int
	Pending       int // entries waiting in the expiry index
}

// ReapResult summarizes one expiry pass.
type ReapResult struct {
	Examined int
	Expired  int
	Retained int
}

// Tree is a snapshot of one continuation and its descendants.
type Tree struct {
	*continuation.Continuation
	Children []Tree
}

// Size counts the continuations in t.
func (t Tree) Size() int {
	n := 1
	for _, c := range t.Children {
		n += c.Size()
	}
	return n
}

// ExpiryPolicy selects how the reaper treats expired continuations that
// still have children.
type ExpiryPolicy string

const (
	// PolicyCascade invalidates an expired continuation with its subtree.
	PolicyCascade ExpiryPolicy = "cascade"
	// PolicyRetain keeps an expired continuation while it has children and
	// removes it once the last child is gone.
	PolicyRetain ExpiryPolicy = "retain"
)

// ParseExpiryPolicy converts a configuration string into a policy. The empty
// string selects PolicyCascade.
func ParseExpiryPolicy(s string) (ExpiryPolicy, error) {
	switch ExpiryPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyCascade:
		return PolicyCascade, nil
	case PolicyRetain:
		return PolicyRetain, nil
	default:
		return "", fmt.Errorf("unknown expiry policy %q: must be %q or %q", s, PolicyCascade, PolicyRetain)
	}
}
