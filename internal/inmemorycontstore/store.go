package inmemorycontstore

import (
	"container/heap"
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"github.com/jonboulle/clockwork"

	"github.com/vk/webcont/internal/contid"
	"github.com/vk/webcont/internal/continuation"
	"github.com/vk/webcont/internal/contstore"
	"github.com/vk/webcont/internal/ctxlog"
)

// DefaultTTL is used when Options.DefaultTTL is zero.
const DefaultTTL = time.Hour

// Options configures a Store. The zero value is usable.
type Options struct {
	// Clock drives access times and expiry. Defaults to the real clock.
	Clock clockwork.Clock
	// IDs mints continuation IDs. Defaults to a contid.RandomGenerator
	// sharing Clock.
	IDs contid.Generator
	// ValidID filters IDs before they reach the arena. Defaults to
	// contid.Valid when IDs is nil, otherwise every ID is accepted.
	ValidID func(id string) bool
	// DefaultTTL applies to creates with a zero TTL. Negative disables
	// expiry for them.
	DefaultTTL time.Duration
	// Policy selects how the reaper handles expired parents.
	Policy contstore.ExpiryPolicy
	// Observer receives lifecycle events. Optional.
	Observer contstore.Observer
}

// node is one arena slot.
type node struct {
	id       string
	parent   string
	scope    string
	payload  any
	children []string
	disposer continuation.Disposer
	created  time.Time
	ttl      time.Duration
	seq      uint64

	// lastAccess holds unix nanoseconds and only moves forward.
	lastAccess atomic.Int64
}

func (n *node) lastAccessTime() time.Time {
	return time.Unix(0, n.lastAccess.Load()).In(n.created.Location())
}

// touch moves the access time forward to now. Concurrent lookups may race
// here; the later instant always wins.
func (n *node) touch(now time.Time) {
	ns := now.UnixNano()
	for {
		cur := n.lastAccess.Load()
		if ns <= cur || n.lastAccess.CompareAndSwap(cur, ns) {
			return
		}
	}
}

func (n *node) expired(now time.Time) bool {
	return continuation.Expired(n.lastAccessTime(), n.ttl, now)
}

// Store is the arena-backed implementation of contstore.Store.
type Store struct {
	mu     sync.RWMutex
	nodes  map[string]*node
	roots  map[string]struct{}
	expiry expiryIndex
	seq    uint64
	closed bool

	clock      clockwork.Clock
	ids        contid.Generator
	validID    func(string) bool
	defaultTTL time.Duration
	policy     contstore.ExpiryPolicy
	observer   contstore.Observer
}

var (
	_ contstore.Store   = (*Store)(nil)
	_ contstore.Expirer = (*Store)(nil)
)

// New creates an empty store.
func New(opts Options) *Store {
	s := &Store{
		nodes:      make(map[string]*node),
		roots:      make(map[string]struct{}),
		clock:      opts.Clock,
		ids:        opts.IDs,
		validID:    opts.ValidID,
		defaultTTL: opts.DefaultTTL,
		policy:     opts.Policy,
		observer:   opts.Observer,
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.ids == nil {
		s.ids = contid.New(contid.Options{Clock: s.clock})
		if s.validID == nil {
			s.validID = contid.Valid
		}
	}
	if s.validID == nil {
		s.validID = func(string) bool { return true }
	}
	if s.defaultTTL == 0 {
		s.defaultTTL = DefaultTTL
	}
	if s.policy == "" {
		s.policy = contstore.PolicyCascade
	}
	return s
}

// Create implements contstore.Store.
func (s *Store) Create(ctx context.Context, payload any, opts contstore.CreateOptions) (*continuation.Continuation, error) {
	logger := ctxlog.FromContext(ctx)
	if payload == nil {
		return nil, contstore.ErrNilPayload
	}

	id, err := s.ids.NextID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate continuation id: %w", err)
	}
	ttl := s.effectiveTTL(opts.TTL)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, contstore.ErrClosed
	}
	now := s.clock.Now()

	scope := opts.Scope
	var parent *node
	if opts.ParentID != "" {
		p, ok := s.nodes[opts.ParentID]
		if !ok || p.expired(now) {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", contstore.ErrInvalidParent, opts.ParentID)
		}
		if scope == "" {
			scope = p.scope
		} else if scope != p.scope {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: parent %s is bound to %q, requested %q", contstore.ErrScopeMismatch, p.id, p.scope, scope)
		}
		parent = p
	}
	if _, dup := s.nodes[id]; dup {
		s.mu.Unlock()
		return nil, fmt.Errorf("continuation id generator returned a duplicate id %s", id)
	}

	s.seq++
	n := &node{
		id:       id,
		scope:    scope,
		payload:  payload,
		disposer: opts.Disposer,
		created:  now,
		ttl:      ttl,
		seq:      s.seq,
	}
	n.lastAccess.Store(now.UnixNano())
	s.nodes[id] = n
	if parent != nil {
		n.parent = parent.id
		parent.children = append(parent.children, id)
	} else {
		s.roots[id] = struct{}{}
	}
	if ttl > 0 {
		heap.Push(&s.expiry, expiryEntry{id: id, deadline: now.Add(ttl)})
	}
	snap := s.snapshotLocked(n)
	s.mu.Unlock()

	logger.Debug("Continuation created.", "continuation_id", id, "parent_id", n.parent, "ttl", ttl, "scope", scope)
	s.notify(ctx, contstore.Event{Kind: contstore.Created, ID: id, ParentID: n.parent, Scope: scope, At: now})
	return snap, nil
}

// effectiveTTL applies the TTL policy: positive as given, zero the store
// default, negative never expires.
func (s *Store) effectiveTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		ttl = s.defaultTTL
	}
	if ttl < 0 {
		return continuation.NoExpiry
	}
	return ttl
}

// Lookup implements contstore.Store.
func (s *Store) Lookup(ctx context.Context, id string) (*continuation.Continuation, bool) {
	return s.lookup(ctx, id, func(*node) bool { return true })
}

// LookupInScope implements contstore.Store.
func (s *Store) LookupInScope(ctx context.Context, scope, id string) (*continuation.Continuation, bool) {
	return s.lookup(ctx, id, func(n *node) bool {
		if n.scope != scope {
			ctxlog.FromContext(ctx).Warn("Continuation requested from a foreign scope.", "continuation_id", id, "scope", scope)
			return false
		}
		return true
	})
}

func (s *Store) lookup(ctx context.Context, id string, accept func(*node) bool) (*continuation.Continuation, bool) {
	logger := ctxlog.FromContext(ctx)
	if !s.validID(id) {
		logger.Debug("Continuation lookup rejected malformed id.", "continuation_id", id)
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		logger.Debug("Continuation lookup missed.", "continuation_id", id)
		return nil, false
	}
	now := s.clock.Now()
	if n.expired(now) {
		logger.Debug("Continuation lookup hit an expired continuation.", "continuation_id", id)
		return nil, false
	}
	if !accept(n) {
		return nil, false
	}
	n.touch(now)
	return s.snapshotLocked(n), true
}

// Peek implements continuation.Resolver. It returns nodes that are still in
// the arena, including expired ones the reaper has not removed yet, and does
// not refresh them.
func (s *Store) Peek(id string) (*continuation.Continuation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, false
	}
	return s.snapshotLocked(n), true
}

// Invalidate implements contstore.Store.
func (s *Store) Invalidate(ctx context.Context, id string) error {
	s.mu.Lock()
	n, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		ctxlog.FromContext(ctx).Debug("Invalidate of unknown continuation ignored.", "continuation_id", id)
		return nil
	}
	removed := queue.New()
	s.unlinkLocked(n, removed)
	s.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Continuation subtree invalidated.", "continuation_id", id, "removed", removed.Length())
	return s.dispose(ctx, removed, contstore.Invalidated)
}

// InvalidateScope implements contstore.Store.
func (s *Store) InvalidateScope(ctx context.Context, scope string) error {
	s.mu.Lock()
	removed := queue.New()
	for _, root := range s.sortedRootsLocked() {
		if root.scope == scope {
			s.unlinkLocked(root, removed)
		}
	}
	s.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Continuation scope invalidated.", "scope", scope, "removed", removed.Length())
	return s.dispose(ctx, removed, contstore.Invalidated)
}

// Close implements contstore.Store. It is idempotent.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	removed := queue.New()
	for _, root := range s.sortedRootsLocked() {
		s.unlinkLocked(root, removed)
	}
	s.expiry = nil
	s.mu.Unlock()

	ctxlog.FromContext(ctx).Info("Continuation store closed.", "removed", removed.Length())
	return s.dispose(ctx, removed, contstore.Invalidated)
}

// Stats implements contstore.Store.
func (s *Store) Stats(ctx context.Context) contstore.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return contstore.Stats{
		Continuations: len(s.nodes),
		Trees:         len(s.roots),
		Pending:       s.expiry.Len(),
	}
}

// unlinkLocked detaches n from its parent (or the root set) and moves the
// whole subtree out of the arena into removed, children before parents.
func (s *Store) unlinkLocked(n *node, removed *queue.Queue) {
	if n.parent == "" {
		delete(s.roots, n.id)
	} else if p, ok := s.nodes[n.parent]; ok {
		if i := slices.Index(p.children, n.id); i >= 0 {
			p.children = slices.Delete(p.children, i, i+1)
		}
	}
	s.collectLocked(n, removed)
}

func (s *Store) collectLocked(n *node, removed *queue.Queue) {
	for _, cid := range n.children {
		if c, ok := s.nodes[cid]; ok {
			s.collectLocked(c, removed)
		}
	}
	delete(s.nodes, n.id)
	removed.Add(n)
}

func (s *Store) snapshotLocked(n *node) *continuation.Continuation {
	c := &continuation.Continuation{
		ID:         n.id,
		Payload:    n.payload,
		ParentID:   n.parent,
		ChildIDs:   slices.Clone(n.children),
		Scope:      n.scope,
		CreatedAt:  n.created,
		LastAccess: n.lastAccessTime(),
		TTL:        n.ttl,
	}
	return c.Bind(s)
}

func (s *Store) sortedRootsLocked() []*node {
	roots := make([]*node, 0, len(s.roots))
	for id := range s.roots {
		roots = append(roots, s.nodes[id])
	}
	slices.SortFunc(roots, func(a, b *node) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	return roots
}
