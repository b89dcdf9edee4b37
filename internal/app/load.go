package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vk/webcont/internal/config"
	"github.com/vk/webcont/internal/ctxlog"
	"github.com/vk/webcont/internal/hclconfig"
	"github.com/vk/webcont/internal/yamlconfig"
)

// loaderFor picks the configuration format from the path's extension.
// Directories are read as HCL.
func loaderFor(path string) config.Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlconfig.NewLoader()
	default:
		return hclconfig.NewLoader()
	}
}

// loadModel resolves the final configuration: dotenv file, then the config
// file over the defaults, then the command-line overrides.
func loadModel(ctx context.Context, cfg *Config) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", cfg.EnvFile, err)
		}
		logger.Debug("Env file loaded.", "path", cfg.EnvFile)
	}

	model := config.Default()
	if cfg.ConfigPath != "" {
		var err error
		model, err = loaderFor(cfg.ConfigPath).Load(ctx, cfg.ConfigPath)
		if err != nil {
			return nil, err
		}
		logger.Debug("Configuration file loaded.", "path", cfg.ConfigPath)
	}

	cfg.apply(model)
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return model, nil
}
