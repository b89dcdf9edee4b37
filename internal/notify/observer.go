package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/vk/webcont/internal/contstore"
	"github.com/vk/webcont/internal/ctxlog"
)

// Multi fans an event out to every observer in order.
type Multi []contstore.Observer

// Observe implements contstore.Observer.
func (m Multi) Observe(ctx context.Context, ev contstore.Event) {
	for _, o := range m {
		if o != nil {
			o.Observe(ctx, ev)
		}
	}
}

// LogObserver writes every event to the logger found in the context.
type LogObserver struct {
	Level slog.Level
}

// Observe implements contstore.Observer.
func (l LogObserver) Observe(ctx context.Context, ev contstore.Event) {
	ctxlog.FromContext(ctx).Log(ctx, l.Level, "Continuation lifecycle event.",
		"event", ev.Kind.String(),
		"continuation_id", ev.ID,
		"parent_id", ev.ParentID,
		"scope", ev.Scope,
	)
}

// eventData is the wire form of an event.
func eventData(ev contstore.Event) map[string]any {
	data := map[string]any{
		"kind": ev.Kind.String(),
		"id":   ev.ID,
		"at":   ev.At.UTC().Format(time.RFC3339Nano),
	}
	if ev.ParentID != "" {
		data["parent_id"] = ev.ParentID
	}
	if ev.Scope != "" {
		data["scope"] = ev.Scope
	}
	return data
}
