package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/vk/webcont/internal/config"
	"github.com/vk/webcont/internal/contstore"
)

// Config holds the process-level settings an App is created from. Zero
// values (and a negative ListenPort) keep what the configuration file says.
type Config struct {
	ConfigPath string // .hcl file or directory, or .yaml/.yml file
	EnvFile    string // dotenv file loaded before the configuration

	LogFormat string
	LogLevel  string

	ListenPort     int
	DefaultTTL     time.Duration
	ReaperInterval time.Duration
	ReaperPolicy   string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath != "" {
		switch strings.ToLower(filepath.Ext(cfg.ConfigPath)) {
		case "", ".hcl", ".yaml", ".yml":
		default:
			return nil, fmt.Errorf("unsupported config file type %q: use .hcl, .yaml or .yml", filepath.Ext(cfg.ConfigPath))
		}
	}
	if cfg.ReaperPolicy != "" {
		if _, err := contstore.ParseExpiryPolicy(cfg.ReaperPolicy); err != nil {
			return nil, err
		}
	}
	if cfg.ReaperInterval < 0 {
		return nil, errors.New("reaper interval cannot be negative")
	}
	return &cfg, nil
}

// apply overlays the command-line overrides onto m.
func (c *Config) apply(m *config.Model) {
	if c.ListenPort >= 0 {
		m.Diagnostics.ListenPort = c.ListenPort
	}
	if c.DefaultTTL != 0 {
		m.Store.DefaultTTL = c.DefaultTTL
	}
	if c.ReaperInterval > 0 {
		m.Reaper.Interval = c.ReaperInterval
	}
	if c.ReaperPolicy != "" {
		m.Reaper.Policy, _ = contstore.ParseExpiryPolicy(c.ReaperPolicy)
	}
}
