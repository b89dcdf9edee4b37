package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jonboulle/clockwork"

	"github.com/vk/webcont/internal/config"
	"github.com/vk/webcont/internal/contid"
	"github.com/vk/webcont/internal/contstore"
	"github.com/vk/webcont/internal/ctxlog"
	"github.com/vk/webcont/internal/inmemorycontstore"
	"github.com/vk/webcont/internal/notify"
	"github.com/vk/webcont/internal/reaper"
)

// App encapsulates the service's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	model  *config.Model
	clock  clockwork.Clock

	observers []contstore.Observer
	notifier  *notify.SocketIOObserver
	store     *inmemorycontstore.Store
	reaper    reaper.Reaper

	httpServer *http.Server
}

// Option customizes an App beyond what the configuration expresses.
type Option func(*App)

// WithClock replaces the wall clock used by the store and the reaper.
func WithClock(c clockwork.Clock) Option {
	return func(a *App) { a.clock = c }
}

// WithObserver adds a lifecycle observer next to the built-in ones.
func WithObserver(o contstore.Observer) Option {
	return func(a *App) { a.observers = append(a.observers, o) }
}

// NewApp is the constructor for the service. It configures an isolated
// logger, resolves the configuration and builds the store and reaper. Nothing
// runs until Run is called.
func NewApp(outW io.Writer, appConfig *Config, opts ...Option) (*App, error) {
	logger, err := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	if err != nil {
		return nil, err
	}
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:   outW,
		logger: logger,
		config: appConfig,
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(a)
	}

	model, err := loadModel(ctx, appConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	a.model = model
	logger.Debug("Configuration resolved.",
		"default_ttl", model.Store.DefaultTTL,
		"reaper_interval", model.Reaper.Interval,
		"reaper_policy", model.Reaper.Policy,
		"listen_port", model.Diagnostics.ListenPort,
	)

	observers := notify.Multi{notify.LogObserver{Level: slog.LevelDebug}}
	if model.Notify.SocketIOURL != "" {
		a.notifier, err = notify.DialSocketIO(ctx, notify.SocketIOOptions{
			URL:                model.Notify.SocketIOURL,
			Namespace:          model.Notify.Namespace,
			Event:              model.Notify.Event,
			InsecureSkipVerify: model.Notify.InsecureSkipVerify,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to set up lifecycle publisher: %w", err)
		}
		observers = append(observers, a.notifier)
	}
	observers = append(observers, a.observers...)

	a.store = inmemorycontstore.New(inmemorycontstore.Options{
		Clock: a.clock,
		IDs: contid.New(contid.Options{
			Clock:        a.clock,
			EntropyBytes: model.Store.IDEntropyBytes,
		}),
		ValidID:    contid.Valid,
		DefaultTTL: model.Store.DefaultTTL,
		Policy:     model.Reaper.Policy,
		Observer:   observers,
	})
	offset := model.Reaper.Offset
	if offset == 0 {
		offset = reaper.ImmediateStart
	}
	a.reaper = reaper.New(a.store, reaper.Options{
		Interval: model.Reaper.Interval,
		Offset:   offset,
		Clock:    a.clock,
	})
	logger.Debug("Continuation store and reaper created.")

	return a, nil
}

// Store returns the continuation store served by this App.
func (a *App) Store() contstore.Store {
	return a.store
}

// Model returns the resolved configuration.
func (a *App) Model() *config.Model {
	return a.model
}
