package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync/atomic"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/webcont/internal/contstore"
	"github.com/vk/webcont/internal/ctxlog"
)

// DefaultEvent is the socket.io event name used when none is configured.
const DefaultEvent = "continuation"

// SocketIOOptions configures the publisher.
type SocketIOOptions struct {
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
}

// SocketIOObserver publishes lifecycle events to a socket.io server. Events
// emitted while disconnected are buffered by the client and flushed on
// reconnect.
type SocketIOObserver struct {
	event     string
	connected atomic.Bool
	emit      func(event string, data map[string]any)
	close     func()
}

var _ contstore.Observer = (*SocketIOObserver)(nil)

// DialSocketIO starts connecting to the endpoint and returns immediately.
func DialSocketIO(ctx context.Context, opts SocketIOOptions) (*SocketIOObserver, error) {
	logger := ctxlog.FromContext(ctx).With("notifier", "socketio", "url", opts.URL, "namespace", opts.Namespace)

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse socket.io URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("socket.io URL %q must be absolute", opts.URL)
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "/"
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	sopts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		sopts.SetPath(parsedURL.Path)
	}
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sopts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, sopts)
	io := manager.Socket(namespace, sopts)

	o := &SocketIOObserver{
		event: opts.Event,
		emit:  func(event string, data map[string]any) { io.Emit(event, data) },
		close: func() { io.Disconnect() },
	}
	if o.event == "" {
		o.event = DefaultEvent
	}

	io.On(types.EventName("connect"), func(...any) {
		o.connected.Store(true)
		logger.Info("Lifecycle publisher connected", "sid", io.Id())
	})
	io.On(types.EventName("disconnect"), func(reason ...any) {
		o.connected.Store(false)
		logger.Warn("Lifecycle publisher disconnected", "reason", reason)
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		logger.Error("Lifecycle publisher failed to connect", "error", errs)
	})

	io.Connect()
	return o, nil
}

// Connected reports whether the underlying socket is currently connected.
func (o *SocketIOObserver) Connected() bool {
	return o.connected.Load()
}

// Observe implements contstore.Observer.
func (o *SocketIOObserver) Observe(_ context.Context, ev contstore.Event) {
	o.emit(o.event, eventData(ev))
}

// Close disconnects from the server.
func (o *SocketIOObserver) Close() error {
	if o.close != nil {
		o.close()
	}
	return nil
}
