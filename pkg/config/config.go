package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for ucifeed
type Config struct {
	// Protocol markers
	Sentinel      string        `yaml:"sentinel" env:"UCIFEED_SENTINEL"`
	WaitDirective string        `yaml:"wait_directive" env:"UCIFEED_WAIT_DIRECTIVE"`
	WaitTimeout   time.Duration `yaml:"wait_timeout" env:"UCIFEED_WAIT_TIMEOUT"`

	// Behavior flags
	Silent      bool `yaml:"silent" env:"UCIFEED_SILENT"`
	Interactive bool `yaml:"interactive" env:"UCIFEED_INTERACTIVE"`
	UsePTY      bool `yaml:"pty" env:"UCIFEED_PTY"`
	Debug       bool `yaml:"debug" env:"UCIFEED_DEBUG"`

	// Controlling terminal used for interactive handoff
	TTYPath string `yaml:"tty_path" env:"UCIFEED_TTY"`

	// Arguments passed to the engine on every run
	EngineArgs []string `yaml:"engine_args" env:"UCIFEED_ENGINE_ARGS"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Sentinel:      "bestmove",
		WaitDirective: "wait",
		TTYPath:       "/dev/tty",
	}
}

// Load loads configuration from file and environment.
// An explicit path must exist; the default locations are optional.
func Load(explicitPath string) (*Config, error) {
	cfg := DefaultConfig()

	configPath := explicitPath
	if configPath == "" {
		configPath = getConfigPath()
	}
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			if explicitPath != "" || !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	// Override with environment variables
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if path := os.Getenv("UCIFEED_CONFIG"); path != "" {
		return path
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "ucifeed", "config.yaml")
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "ucifeed", "config.yaml")
	}

	return ""
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(cfg *Config, path string) error {
	// #nosec G304 - The config file path comes from trusted sources (flag, env var or standard locations)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(cfg *Config) error {
	if sentinel := os.Getenv("UCIFEED_SENTINEL"); sentinel != "" {
		cfg.Sentinel = sentinel
	}

	if directive := os.Getenv("UCIFEED_WAIT_DIRECTIVE"); directive != "" {
		cfg.WaitDirective = directive
	}

	if timeout := os.Getenv("UCIFEED_WAIT_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid UCIFEED_WAIT_TIMEOUT: %w", err)
		}
		cfg.WaitTimeout = d
	}

	if tty := os.Getenv("UCIFEED_TTY"); tty != "" {
		cfg.TTYPath = tty
	}

	if args := os.Getenv("UCIFEED_ENGINE_ARGS"); args != "" {
		cfg.EngineArgs = nil
		for _, arg := range strings.Split(args, ",") {
			if arg = strings.TrimSpace(arg); arg != "" {
				cfg.EngineArgs = append(cfg.EngineArgs, arg)
			}
		}
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"UCIFEED_SILENT", &cfg.Silent},
		{"UCIFEED_INTERACTIVE", &cfg.Interactive},
		{"UCIFEED_PTY", &cfg.UsePTY},
		{"UCIFEED_DEBUG", &cfg.Debug},
	}
	for _, b := range bools {
		if err := parseBoolEnv(b.name, b.dst); err != nil {
			return err
		}
	}

	return nil
}

// parseBoolEnv sets dst from the named variable when it is present
func parseBoolEnv(name string, dst *bool) error {
	value := os.Getenv(name)
	switch value {
	case "":
		return nil
	case "true", "1", "yes":
		*dst = true
	case "false", "0", "no":
		*dst = false
	default:
		return fmt.Errorf("invalid %s value: %q (use true/false)", name, value)
	}
	return nil
}

// Validate validates the configuration
func Validate(cfg *Config) error {
	if cfg.Sentinel == "" {
		return fmt.Errorf("sentinel must not be empty")
	}

	if strings.TrimSpace(cfg.WaitDirective) == "" {
		return fmt.Errorf("wait_directive must not be empty")
	}

	if cfg.WaitTimeout < 0 {
		return fmt.Errorf("wait_timeout must be non-negative")
	}

	return nil
}
