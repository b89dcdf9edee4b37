package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/webcont/internal/contid"
	"github.com/vk/webcont/internal/contstore"
)

// Model is the unified, format-agnostic configuration of the service.
type Model struct {
	Store       StoreConfig
	Reaper      ReaperConfig
	Diagnostics DiagnosticsConfig
	Notify      NotifyConfig
}

// StoreConfig tunes the continuation store.
type StoreConfig struct {
	DefaultTTL     time.Duration // negative ("never") disables expiry; zero is rejected
	IDEntropyBytes int
}

// ReaperConfig tunes the background expiry.
type ReaperConfig struct {
	Interval time.Duration
	Offset   time.Duration // 0 runs the first pass at startup
	Policy   contstore.ExpiryPolicy
}

// DiagnosticsConfig controls the health and diagnostics HTTP server.
type DiagnosticsConfig struct {
	ListenPort int // 0 disables the server
}

// NotifyConfig controls the socket.io lifecycle publisher.
type NotifyConfig struct {
	SocketIOURL        string // empty disables publishing
	Namespace          string
	Event              string
	InsecureSkipVerify bool
}

// Default returns the model used when no file sets a value.
func Default() *Model {
	return &Model{
		Store: StoreConfig{
			DefaultTTL:     time.Hour,
			IDEntropyBytes: contid.DefaultEntropyBytes,
		},
		Reaper: ReaperConfig{
			Interval: 3 * time.Minute,
			Offset:   3 * time.Minute,
			Policy:   contstore.PolicyCascade,
		},
		Notify: NotifyConfig{
			Namespace: "/",
			Event:     "continuation",
		},
	}
}

// Validate checks the model for values the service cannot run with.
func (m *Model) Validate() error {
	var errs []error
	if m.Store.IDEntropyBytes < contid.MinEntropyBytes {
		errs = append(errs, fmt.Errorf("store.id_entropy_bytes must be at least %d, got %d", contid.MinEntropyBytes, m.Store.IDEntropyBytes))
	}
	if m.Store.DefaultTTL == 0 {
		errs = append(errs, errors.New("store.default_ttl cannot be zero: use a positive duration, or \"never\" to disable expiry"))
	}
	if m.Reaper.Offset < 0 {
		errs = append(errs, fmt.Errorf("reaper.offset cannot be negative, got %s: \"0s\" runs the first pass at startup", m.Reaper.Offset))
	}
	if m.Reaper.Interval <= 0 {
		errs = append(errs, fmt.Errorf("reaper.interval must be positive, got %s", m.Reaper.Interval))
	}
	if _, err := contstore.ParseExpiryPolicy(string(m.Reaper.Policy)); err != nil {
		errs = append(errs, fmt.Errorf("reaper.policy: %w", err))
	}
	if m.Diagnostics.ListenPort < 0 || m.Diagnostics.ListenPort > 65535 {
		errs = append(errs, fmt.Errorf("diagnostics.listen_port out of range: %d", m.Diagnostics.ListenPort))
	}
	if m.Notify.SocketIOURL != "" {
		if u, err := url.Parse(m.Notify.SocketIOURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("notify.socketio_url must be an absolute URL, got %q", m.Notify.SocketIOURL))
		}
	}
	return errors.Join(errs...)
}
