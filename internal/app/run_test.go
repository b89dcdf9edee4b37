package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/webcont/internal/contstore"
)

func TestRun_ShutdownDisposesEverything(t *testing.T) {
	var (
		mu       sync.Mutex
		events   []contstore.EventKind
		disposed []string
	)
	observer := contstore.ObserverFunc(func(_ context.Context, ev contstore.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev.Kind)
	})
	a, logs := setupApp(t, Config{}, WithClock(clockwork.NewFakeClock()), WithObserver(observer))

	dispose := func(p any) error {
		mu.Lock()
		defer mu.Unlock()
		disposed = append(disposed, p.(string))
		return nil
	}
	ctx := context.Background()
	root, err := a.Store().Create(ctx, "root", contstore.CreateOptions{Disposer: dispose})
	require.NoError(t, err)
	_, err = a.Store().Create(ctx, "child", contstore.CreateOptions{ParentID: root.ID, Disposer: dispose})
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- a.Run(runCtx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "Continuations service running")
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"child", "root"}, disposed)
	assert.Equal(t, []contstore.EventKind{contstore.Created, contstore.Created, contstore.Invalidated, contstore.Invalidated}, events)

	_, err = a.Store().Create(ctx, "late", contstore.CreateOptions{})
	assert.ErrorIs(t, err, contstore.ErrClosed)
}

func TestRun_ReportsDisposerFailures(t *testing.T) {
	a, _ := setupApp(t, Config{}, WithClock(clockwork.NewFakeClock()))
	boom := errors.New("boom")
	_, err := a.Store().Create(context.Background(), "p", contstore.CreateOptions{
		Disposer: func(any) error { return boom },
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = a.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var de *contstore.DisposerError
	assert.ErrorAs(t, err, &de)
}

func TestRun_ZeroOffsetReapsAtStartup(t *testing.T) {
	path := writeConfig(t, "service.hcl", `reaper { offset = "0s" }`)
	clock := clockwork.NewFakeClock()

	var (
		mu      sync.Mutex
		expired []string
	)
	observer := contstore.ObserverFunc(func(_ context.Context, ev contstore.Event) {
		if ev.Kind != contstore.Expired {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		expired = append(expired, ev.ID)
	})
	a, _ := setupApp(t, Config{ConfigPath: path}, WithClock(clock), WithObserver(observer))
	assert.Zero(t, a.Model().Reaper.Offset)

	c, err := a.Store().Create(context.Background(), "stale", contstore.CreateOptions{TTL: time.Minute})
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(expired) == 1 && expired[0] == c.ID
	}, 5*time.Second, 5*time.Millisecond, "first pass runs without waiting for the clock")

	cancel()
	require.NoError(t, <-done)
}

func TestNewApp_ZeroDefaultTTLIsRejected(t *testing.T) {
	path := writeConfig(t, "service.yaml", "store:\n  default_ttl: 0s\n")
	_, err := NewApp(&SafeBuffer{}, &Config{ConfigPath: path, ListenPort: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.default_ttl cannot be zero")
}
