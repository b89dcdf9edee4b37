package inmemorycontstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vk/webcont/internal/contstore"
)

// Forest implements contstore.Store.
func (s *Store) Forest(ctx context.Context) []contstore.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roots := s.sortedRootsLocked()
	forest := make([]contstore.Tree, 0, len(roots))
	for _, root := range roots {
		forest = append(forest, s.treeLocked(root))
	}
	return forest
}

func (s *Store) treeLocked(n *node) contstore.Tree {
	t := contstore.Tree{Continuation: s.snapshotLocked(n)}
	for _, cid := range n.children {
		if c, ok := s.nodes[cid]; ok {
			t.Children = append(t.Children, s.treeLocked(c))
		}
	}
	return t
}

// DisplayAll implements contstore.Store.
func (s *Store) DisplayAll(ctx context.Context) string {
	forest := s.Forest(ctx)
	now := s.clock.Now()

	total := 0
	for _, t := range forest {
		total += t.Size()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "continuations: %d in %d tree(s)\n", total, len(forest))
	for _, t := range forest {
		writeTree(&b, t, 0, now)
	}
	return b.String()
}

func writeTree(b *strings.Builder, t contstore.Tree, depth int, now time.Time) {
	c := t.Continuation
	fmt.Fprintf(b, "%s+ %s payload=%T", strings.Repeat("  ", depth), c.ID, c.Payload)
	if c.Scope != "" {
		fmt.Fprintf(b, " scope=%s", c.Scope)
	}
	if c.Expires() {
		left := c.ExpiresAt().Sub(now).Truncate(time.Second)
		if c.Expired(now) {
			fmt.Fprintf(b, " ttl=%s expired", c.TTL)
		} else {
			fmt.Fprintf(b, " ttl=%s expires-in=%s", c.TTL, left)
		}
	} else {
		b.WriteString(" ttl=never")
	}
	b.WriteByte('\n')
	for _, child := range t.Children {
		writeTree(b, child, depth+1, now)
	}
}
