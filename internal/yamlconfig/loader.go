// Package yamlconfig loads the service configuration from YAML files.
// ${VAR} references are expanded from the environment before decoding.
package yamlconfig

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/webcont/internal/config"
	"github.com/vk/webcont/internal/ctxlog"
)

// Loader is the YAML implementation of config.Loader.
type Loader struct {
	// Getenv resolves ${VAR} references; os.Getenv when nil.
	Getenv func(string) string
}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load decodes each file in order on top of config.Default. Unknown keys
// are rejected.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	model := config.Default()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read YAML file %s: %w", path, err)
		}
		expanded := os.Expand(string(data), getenv)

		var raw config.File
		dec := yaml.NewDecoder(bytes.NewBufferString(expanded))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode YAML file %s: %w", path, err)
		}
		if err := raw.Apply(model); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("YAML config loaded.", "files", len(paths))
	return model, nil
}
