package inmemorycontstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/vk/webcont/internal/continuation"
	"github.com/vk/webcont/internal/contstore"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts Options) (*Store, clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(epoch)
	opts.Clock = clock
	return New(opts), clock
}

func mustCreate(t *testing.T, s *Store, payload any, opts contstore.CreateOptions) *continuation.Continuation {
	t.Helper()
	c, err := s.Create(context.Background(), payload, opts)
	require.NoError(t, err)
	return c
}

// disposals counts disposer invocations per payload and keeps their order.
type disposals struct {
	mu    sync.Mutex
	count map[any]int
	order []any
}

func newDisposals() *disposals {
	return &disposals{count: make(map[any]int)}
}

func (d *disposals) disposer() continuation.Disposer {
	return func(payload any) error {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.count[payload]++
		d.order = append(d.order, payload)
		return nil
	}
}

func (d *disposals) snapshot() (map[any]int, []any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	count := make(map[any]int, len(d.count))
	for k, v := range d.count {
		count[k] = v
	}
	return count, append([]any(nil), d.order...)
}

// recorder collects observer events.
type recorder struct {
	mu     sync.Mutex
	events []contstore.Event
}

func (r *recorder) Observe(_ context.Context, ev contstore.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind.String()+":"+ev.ID)
	}
	return out
}
