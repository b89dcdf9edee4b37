package inmemorycontstore

import (
	"container/heap"
	"context"
	"errors"
	"time"

	"github.com/eapache/queue"

	"github.com/vk/webcont/internal/contstore"
	"github.com/vk/webcont/internal/ctxlog"
)

// expiryEntry records when a continuation becomes due for a check. The
// deadline may be stale: lookups refresh nodes without touching the heap.
type expiryEntry struct {
	id       string
	deadline time.Time
}

// expiryIndex is a min-heap of entries ordered by deadline.
type expiryIndex []expiryEntry

func (x expiryIndex) Len() int           { return len(x) }
func (x expiryIndex) Less(i, j int) bool { return x[i].deadline.Before(x[j].deadline) }
func (x expiryIndex) Swap(i, j int)      { x[i], x[j] = x[j], x[i] }

func (x *expiryIndex) Push(v any) { *x = append(*x, v.(expiryEntry)) }

func (x *expiryIndex) Pop() any {
	old := *x
	last := old[len(old)-1]
	*x = old[:len(old)-1]
	return last
}

// ReapExpired implements contstore.Expirer. The write lock is taken once per
// heap entry, so a pass never blocks lookups for longer than one subtree
// removal.
func (s *Store) ReapExpired(ctx context.Context) (contstore.ReapResult, error) {
	logger := ctxlog.FromContext(ctx)
	now := s.clock.Now()

	var (
		res  contstore.ReapResult
		errs []error
	)
	for ctx.Err() == nil {
		removed, more := s.reapStep(now, &res)
		if !more {
			break
		}
		if removed == nil {
			continue
		}
		if err := s.dispose(ctx, removed, contstore.Expired); err != nil {
			logger.Error("Disposer failed during expiry, continuing.", "error", err)
			errs = append(errs, err)
		}
	}
	return res, errors.Join(errs...)
}

// reapStep handles the earliest due entry. It returns false once nothing is
// due at now. An entry is due strictly after its deadline, matching
// continuation.Expired; a node sitting exactly on its deadline is still live.
func (s *Store) reapStep(now time.Time, res *contstore.ReapResult) (*queue.Queue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expiry.Len() == 0 || !s.expiry[0].deadline.Before(now) {
		return nil, false
	}
	entry := heap.Pop(&s.expiry).(expiryEntry)
	n, ok := s.nodes[entry.id]
	if !ok {
		return nil, true
	}
	res.Examined++

	if !n.expired(now) {
		heap.Push(&s.expiry, expiryEntry{id: n.id, deadline: n.lastAccessTime().Add(n.ttl)})
		return nil, true
	}
	if s.policy == contstore.PolicyRetain && len(n.children) > 0 {
		res.Retained++
		heap.Push(&s.expiry, expiryEntry{id: n.id, deadline: now.Add(n.ttl)})
		return nil, true
	}

	removed := queue.New()
	parentID := n.parent
	s.unlinkLocked(n, removed)
	if s.policy == contstore.PolicyRetain {
		s.releaseAncestorsLocked(parentID, now, removed)
	}
	res.Expired += removed.Length()
	return removed, true
}

// releaseAncestorsLocked removes expired ancestors that were only retained
// for the subtree that just went away.
func (s *Store) releaseAncestorsLocked(id string, now time.Time, removed *queue.Queue) {
	for id != "" {
		p, ok := s.nodes[id]
		if !ok || len(p.children) > 0 || !p.expired(now) {
			return
		}
		id = p.parent
		s.unlinkLocked(p, removed)
	}
}
