package config

import (
	"fmt"
	"time"

	"github.com/vk/webcont/internal/contstore"
)

// File is the raw schema of one configuration file. Every section and
// attribute is optional; durations stay strings until Apply.
type File struct {
	Store       *StoreSection       `hcl:"store,block" yaml:"store"`
	Reaper      *ReaperSection      `hcl:"reaper,block" yaml:"reaper"`
	Diagnostics *DiagnosticsSection `hcl:"diagnostics,block" yaml:"diagnostics"`
	Notify      *NotifySection      `hcl:"notify,block" yaml:"notify"`
}

// StoreSection is the `store` block.
type StoreSection struct {
	DefaultTTL     string `hcl:"default_ttl,optional" yaml:"default_ttl"`
	IDEntropyBytes *int   `hcl:"id_entropy_bytes,optional" yaml:"id_entropy_bytes"`
}

// ReaperSection is the `reaper` block.
type ReaperSection struct {
	Interval string `hcl:"interval,optional" yaml:"interval"`
	Offset   string `hcl:"offset,optional" yaml:"offset"`
	Policy   string `hcl:"policy,optional" yaml:"policy"`
}

// DiagnosticsSection is the `diagnostics` block.
type DiagnosticsSection struct {
	ListenPort *int `hcl:"listen_port,optional" yaml:"listen_port"`
}

// NotifySection is the `notify` block.
type NotifySection struct {
	SocketIOURL        string `hcl:"socketio_url,optional" yaml:"socketio_url"`
	Namespace          string `hcl:"namespace,optional" yaml:"namespace"`
	Event              string `hcl:"event,optional" yaml:"event"`
	InsecureSkipVerify *bool  `hcl:"insecure_skip_verify,optional" yaml:"insecure_skip_verify"`
}

// Apply overlays the values present in f onto m.
func (f *File) Apply(m *Model) error {
	if s := f.Store; s != nil {
		if err := setDuration(&m.Store.DefaultTTL, "store.default_ttl", s.DefaultTTL); err != nil {
			return err
		}
		if s.IDEntropyBytes != nil {
			m.Store.IDEntropyBytes = *s.IDEntropyBytes
		}
	}
	if r := f.Reaper; r != nil {
		if err := setDuration(&m.Reaper.Interval, "reaper.interval", r.Interval); err != nil {
			return err
		}
		if err := setDuration(&m.Reaper.Offset, "reaper.offset", r.Offset); err != nil {
			return err
		}
		if r.Policy != "" {
			policy, err := contstore.ParseExpiryPolicy(r.Policy)
			if err != nil {
				return fmt.Errorf("reaper.policy: %w", err)
			}
			m.Reaper.Policy = policy
		}
	}
	if d := f.Diagnostics; d != nil && d.ListenPort != nil {
		m.Diagnostics.ListenPort = *d.ListenPort
	}
	if n := f.Notify; n != nil {
		setString(&m.Notify.SocketIOURL, n.SocketIOURL)
		setString(&m.Notify.Namespace, n.Namespace)
		setString(&m.Notify.Event, n.Event)
		if n.InsecureSkipVerify != nil {
			m.Notify.InsecureSkipVerify = *n.InsecureSkipVerify
		}
	}
	return nil
}

// ParseDuration accepts Go duration syntax ("90s", "1h30m") and the word
// "never", which maps to a negative duration.
func ParseDuration(s string) (time.Duration, error) {
	if s == "never" {
		return -1, nil
	}
	return time.ParseDuration(s)
}

func setDuration(dst *time.Duration, field, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, raw, err)
	}
	*dst = d
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
