package inmemorycontstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/eapache/queue"

	"github.com/vk/webcont/internal/contstore"
	"github.com/vk/webcont/internal/ctxlog"
)

// dispose drains removed nodes in queue order, running each disposer once
// and emitting one event per node. It must be called without s.mu held.
func (s *Store) dispose(ctx context.Context, removed *queue.Queue, kind contstore.EventKind) error {
	logger := ctxlog.FromContext(ctx)
	now := s.clock.Now()

	var errs []error
	for removed.Length() > 0 {
		n := removed.Remove().(*node)
		if err := runDisposer(n); err != nil {
			logger.Warn("Continuation disposer failed.", "continuation_id", n.id, "error", err)
			errs = append(errs, err)
		}
		s.notify(ctx, contstore.Event{Kind: kind, ID: n.id, ParentID: n.parent, Scope: n.scope, At: now})
	}
	return errors.Join(errs...)
}

func runDisposer(n *node) (err error) {
	if n.disposer == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = &contstore.DisposerError{ID: n.id, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if derr := n.disposer(n.payload); derr != nil {
		return &contstore.DisposerError{ID: n.id, Err: derr}
	}
	return nil
}

func (s *Store) notify(ctx context.Context, ev contstore.Event) {
	if s.observer != nil {
		s.observer.Observe(ctx, ev)
	}
}
