// Package config loads and validates the rufusd configuration.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file and environment variables.
// Priority: environment variables > YAML file > defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{Jobs: make(map[string]*Job)}

	if path == "" {
		path = os.Getenv("RUFUS_CONFIG")
	}
	if path == "" {
		path = "rufusd.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.SetDefaults()
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies RUFUS_<SECTION>_<KEY> environment overrides.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RUFUS_GLOBAL_FREQUENCY"); v != "" {
		cfg.Global.Frequency = v
	}
	if v := os.Getenv("RUFUS_GLOBAL_LOG_LEVEL"); v != "" {
		cfg.Global.LogLevel = v
	}
	if v := os.Getenv("RUFUS_GLOBAL_LOG_FORMAT"); v != "" {
		cfg.Global.LogFormat = v
	}
	if v := os.Getenv("RUFUS_GLOBAL_METRICS_ENABLED"); v != "" {
		cfg.Global.MetricsEnabled = v == "true"
	}
	if v := os.Getenv("RUFUS_GLOBAL_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Global.MetricsPort = port
		}
	}
	if v := os.Getenv("RUFUS_GLOBAL_API_ENABLED"); v != "" {
		cfg.Global.APIEnabled = v == "true"
	}
	if v := os.Getenv("RUFUS_GLOBAL_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Global.APIPort = port
		}
	}
	if v := os.Getenv("RUFUS_GLOBAL_API_AUTH"); v != "" {
		cfg.Global.APIAuth = v
	}
	if v := os.Getenv("RUFUS_GLOBAL_TRACING_ENABLED"); v != "" {
		cfg.Global.TracingEnabled = v == "true"
	}
	if v := os.Getenv("RUFUS_GLOBAL_TRACING_ENDPOINT"); v != "" {
		cfg.Global.TracingEndpoint = v
	}
}
