package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/mattcarp/aoma-mesh-mcp-sub010/pkg/logging"

	"gopkg.in/yaml.v3"
)

// Load builds the effective configuration: defaults, then the optional YAML
// file at configPath (skipped when empty or absent), then environment
// variables. Environment variables win so deployments can override a shared
// config file per instance.
func Load(configPath string) (Config, error) {
	cfg := GetDefaults()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logging.Info("ConfigLoader", "No config file at %s, using defaults", configPath)
			} else {
				return Config{}, fmt.Errorf("error reading config from %s: %w", configPath, err)
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("error parsing config from %s: %w", configPath, err)
			}
			logging.Info("ConfigLoader", "Loaded configuration from %s", configPath)
		}
	}

	cfg.FromEnv()
	return cfg, nil
}
