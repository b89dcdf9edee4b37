package contstore

import (
	"context"
	"time"
)

// EventKind names a lifecycle transition of a continuation.
type EventKind int

const (
	// Created is emitted after a continuation became visible.
	Created EventKind = iota
	// Invalidated is emitted for every node removed by an explicit
	// invalidation, children first.
	Invalidated
	// Expired is emitted for every node removed by the reaper.
	Expired
)

// String returns the lowercase name used in logs and published events.
func (k EventKind) String() string {
	switch k {
	case Created:
		return "created"
	case Invalidated:
		return "invalidated"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Event describes one lifecycle transition. It carries no payload: payloads
// are opaque and stay inside the process.
type Event struct {
	Kind     EventKind
	ID       string
	ParentID string
	Scope    string
	At       time.Time
}

// Observer is notified of lifecycle events. Stores call it outside their
// locks, from the goroutine that caused the event.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, ev Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(ctx context.Context, ev Event) {
	f(ctx, ev)
}
