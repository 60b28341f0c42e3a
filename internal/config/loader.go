package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFromFile loads a configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML bytes into a Config. Omitted fields keep their
// defaults.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return c, nil
}

// validate checks configuration integrity.
func validate(c *Config) error {
	switch c.URL.Sensitivity {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("url.sensitivity must be low, medium, or high, got %q", c.URL.Sensitivity)
	}

	switch c.Scripts.Mode {
	case "strict", "moderate", "permissive":
	default:
		return fmt.Errorf("scripts.mode must be strict, moderate, or permissive, got %q", c.Scripts.Mode)
	}

	if c.URL.BlockThreshold < 0 || c.URL.BlockThreshold > 1 {
		return fmt.Errorf("url.block_threshold must be in [0,1], got %v", c.URL.BlockThreshold)
	}
	if c.URL.CacheSize <= 0 {
		return fmt.Errorf("url.cache_size must be positive, got %d", c.URL.CacheSize)
	}
	if c.Behavior.LearnVisits <= 0 {
		return fmt.Errorf("behavior.learn_visits must be positive, got %d", c.Behavior.LearnVisits)
	}
	if c.Behavior.EMAAlpha <= 0 || c.Behavior.EMAAlpha >= 1 {
		return fmt.Errorf("behavior.ema_alpha must be in (0,1), got %v", c.Behavior.EMAAlpha)
	}
	if c.Behavior.ZScoreThreshold <= 0 {
		return fmt.Errorf("behavior.zscore_threshold must be positive, got %v", c.Behavior.ZScoreThreshold)
	}
	if c.Extensions.ScanInterval.Std() <= 0 {
		return fmt.Errorf("extensions.scan_interval must be positive")
	}
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}

	return nil
}
