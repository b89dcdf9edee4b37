package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the files at paths in order, overlaying each onto the
	// defaults, and returns the validated model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
