package reaper

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/vk/webcont/internal/contstore"
	"github.com/vk/webcont/internal/ctxlog"
)

const (
	// DefaultInterval is the period between passes when none is configured.
	DefaultInterval = 3 * time.Minute
	// DefaultOffset is the delay before the first pass when none is configured.
	DefaultOffset = 3 * time.Minute
	// ImmediateStart as Options.Offset runs the first pass as soon as the
	// reaper starts.
	ImmediateStart time.Duration = -1
)

// Reaper periodically expires continuations.
type Reaper interface {
	// Start launches the background loop. It returns immediately.
	Start(ctx context.Context)
	// Stop ends the loop and waits for the pass in progress to finish.
	Stop()
	// RunOnce performs a single pass synchronously.
	RunOnce(ctx context.Context) (contstore.ReapResult, error)
}

// Options configures a DefaultReaper.
type Options struct {
	Interval time.Duration
	// Offset delays the first pass. Zero selects DefaultOffset; any negative
	// value (ImmediateStart) runs the first pass right away.
	Offset time.Duration
	Clock  clockwork.Clock
}

// DefaultReaper is the ticker-driven Reaper.
type DefaultReaper struct {
	store    contstore.Expirer
	interval time.Duration
	offset   time.Duration
	clock    clockwork.Clock

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

var _ Reaper = (*DefaultReaper)(nil)

// New creates a reaper for store. It does nothing until Start or RunOnce.
func New(store contstore.Expirer, opts Options) *DefaultReaper {
	r := &DefaultReaper{
		store:    store,
		interval: opts.Interval,
		offset:   opts.Offset,
		clock:    opts.Clock,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if r.interval <= 0 {
		r.interval = DefaultInterval
	}
	if r.offset == 0 {
		r.offset = DefaultOffset
	}
	if r.clock == nil {
		r.clock = clockwork.NewRealClock()
	}
	return r
}

// Start implements Reaper. Calling it more than once has no effect.
func (r *DefaultReaper) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		go func() {
			defer close(r.done)
			r.run(ctxlog.With(ctx, "component", "reaper"))
		}()
	})
}

// Stop implements Reaper. It is safe to call without Start.
func (r *DefaultReaper) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	started := true
	r.startOnce.Do(func() {
		started = false
		close(r.done)
	})
	if started {
		<-r.done
	}
}

func (r *DefaultReaper) run(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("🧹 Continuation reaper started.", "interval", r.interval, "offset", r.offset)
	defer logger.Info("🧹 Continuation reaper stopped.")

	if r.offset > 0 {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-r.clock.After(r.offset):
		}
	}
	r.RunOnce(ctx)

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-ticker.Chan():
			r.RunOnce(ctx)
		}
	}
}

// RunOnce implements Reaper.
func (r *DefaultReaper) RunOnce(ctx context.Context) (contstore.ReapResult, error) {
	logger := ctxlog.FromContext(ctx)
	started := r.clock.Now()

	res, err := r.store.ReapExpired(ctx)
	elapsed := r.clock.Since(started)
	if err != nil {
		logger.Error("Expiry pass finished with disposer failures.", "expired", res.Expired, "error", err)
		return res, err
	}
	if res.Expired > 0 {
		logger.Info("Expired continuations removed.", "expired", res.Expired, "retained", res.Retained, "elapsed", elapsed)
	} else {
		logger.Debug("Expiry pass found nothing to remove.", "examined", res.Examined, "retained", res.Retained)
	}
	return res, nil
}
