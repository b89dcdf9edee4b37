package continuation

import (
	"time"
)

// NoExpiry is the TTL of a continuation that is never reaped. Any negative
// TTL passed to a store is normalized to it.
const NoExpiry time.Duration = -1

// Disposer is invoked exactly once when a continuation is permanently
// removed, by explicit invalidation or by expiry. It receives the payload the
// continuation was created with. A returned error or a panic is reported but
// never stops the removal.
type Disposer func(payload any) error

// Resolver looks up continuations without refreshing their access time.
type Resolver interface {
	Peek(id string) (*Continuation, bool)
}

// Continuation is a read-only snapshot of one node of the forest.
type Continuation struct {
	// ID is the external, unguessable handle.
	ID string
	// Payload is the caller's resumable state. It is never inspected.
	Payload any
	// ParentID is empty for tree roots.
	ParentID string
	// ChildIDs lists the direct children in creation order.
	ChildIDs []string
	// Scope names the owner the continuation is bound to (an interpreter
	// or a session). Empty means unscoped.
	Scope string
	// CreatedAt is when the continuation entered the store.
	CreatedAt time.Time
	// LastAccess is the last successful lookup, or CreatedAt.
	LastAccess time.Time
	// TTL is the lifespan measured from LastAccess. NoExpiry disables it.
	TTL time.Duration

	resolver Resolver
}

// Bind attaches the resolver used by Parent and Children and returns c.
func (c *Continuation) Bind(r Resolver) *Continuation {
	c.resolver = r
	return c
}

// IsRoot reports whether c has no parent.
func (c *Continuation) IsRoot() bool {
	return c.ParentID == ""
}

// Expires reports whether c is subject to expiry at all.
func (c *Continuation) Expires() bool {
	return c.TTL > 0
}

// ExpiresAt is the instant after which c counts as expired. It is the zero
// time for continuations that never expire.
func (c *Continuation) ExpiresAt() time.Time {
	if !c.Expires() {
		return time.Time{}
	}
	return c.LastAccess.Add(c.TTL)
}

// Expired reports whether more than TTL has elapsed since LastAccess.
func (c *Continuation) Expired(now time.Time) bool {
	return Expired(c.LastAccess, c.TTL, now)
}

// Parent resolves the parent continuation. It returns false for roots and
// for parents that are no longer in the store.
func (c *Continuation) Parent() (*Continuation, bool) {
	if c.IsRoot() || c.resolver == nil {
		return nil, false
	}
	return c.resolver.Peek(c.ParentID)
}

// Children resolves the children that are still in the store, in creation
// order.
func (c *Continuation) Children() []*Continuation {
	if c.resolver == nil {
		return nil
	}
	children := make([]*Continuation, 0, len(c.ChildIDs))
	for _, id := range c.ChildIDs {
		if child, ok := c.resolver.Peek(id); ok {
			children = append(children, child)
		}
	}
	return children
}

// Expired is the single expiry rule shared by handles and stores: a
// continuation with a positive ttl is expired once strictly more than ttl
// has passed since lastAccess.
func Expired(lastAccess time.Time, ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(lastAccess) > ttl
}
