// Package config provides configuration structures and loading logic for the
// Modus agent runtime.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/modusai/modus/pkg/domain"
)

// Config holds the global configuration for the runtime.
type Config struct {
	// Pipelines maps pipeline names to ordered module-name lists.
	Pipelines map[string][]string `yaml:"pipelines"`
	// PreloadModules lists modules loaded eagerly at agent initialization.
	PreloadModules []string `yaml:"preload_modules"`
	// AutoDiscover selects the full discovered module set when a process call
	// names no pipeline and no "default" pipeline exists.
	AutoDiscover bool `yaml:"auto_discover"`
	// Modules maps module names to the configuration fragment passed verbatim
	// to that module's factory.
	Modules map[string]map[string]any `yaml:"modules"`

	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Admin     AdminConfig     `yaml:"admin"`
}

// LoggingConfig holds configuration for logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// TelemetryConfig holds configuration for OpenTelemetry.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
}

// AdminConfig holds configuration for the admin/metrics listener. An empty
// address disables the listener entirely.
type AdminConfig struct {
	Address string `yaml:"address"`
}

// Load reads configuration from a file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		// Defaults
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	if path != "" {
		//nolint:gosec // Config file path is controlled by the operator
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("MODUS_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("MODUS_LOG_PRETTY"); val == "true" {
		cfg.Logging.Pretty = true
	}
	if val := os.Getenv("MODUS_OTLP_ENDPOINT"); val != "" {
		cfg.Telemetry.OTLPEndpoint = val
	}
	if val := os.Getenv("MODUS_OTLP_INSECURE"); val == "true" {
		cfg.Telemetry.Insecure = true
	}
	if val := os.Getenv("MODUS_ADMIN_ADDR"); val != "" {
		cfg.Admin.Address = val
	}
	if val := os.Getenv("MODUS_AUTO_DISCOVER"); val == "true" {
		cfg.AutoDiscover = true
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	for name, modules := range c.Pipelines {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("pipeline with empty name")
		}
		for i, moduleName := range modules {
			if strings.TrimSpace(moduleName) == "" {
				return fmt.Errorf("pipeline %q: empty module name at position %d", name, i)
			}
		}
	}

	for _, moduleName := range c.PreloadModules {
		if strings.TrimSpace(moduleName) == "" {
			return fmt.Errorf("preload_modules contains an empty module name")
		}
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}

	return nil
}
