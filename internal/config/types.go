// Package config holds the engine's runtime configuration, loaded from
// YAML with defaults suitable for running with no file at all.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for YAML strings like "6h" or "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// URLConfig tunes the URL heuristic analyzer.
type URLConfig struct {
	Sensitivity    string   `yaml:"sensitivity" json:"sensitivity"`
	BlockThreshold float64  `yaml:"block_threshold" json:"block_threshold"`
	CacheSize      int      `yaml:"cache_size" json:"cache_size"`
	CacheTTL       Duration `yaml:"cache_ttl" json:"cache_ttl"`
	AllowDomains   []string `yaml:"allow_domains" json:"allow_domains"`
}

// ScriptConfig tunes the script pattern blocker.
type ScriptConfig struct {
	Enabled        bool     `yaml:"enabled" json:"enabled"`
	Mode           string   `yaml:"mode" json:"mode"`
	AllowedSources []string `yaml:"allowed_sources" json:"allowed_sources"`
}

// BehaviorConfig tunes the site behavior baseline detector.
type BehaviorConfig struct {
	LearnVisits     int     `yaml:"learn_visits" json:"learn_visits"`
	EMAAlpha        float64 `yaml:"ema_alpha" json:"ema_alpha"`
	StdDevFloor     float64 `yaml:"stddev_floor" json:"stddev_floor"`
	ZScoreCap       float64 `yaml:"zscore_cap" json:"zscore_cap"`
	ZScoreThreshold float64 `yaml:"zscore_threshold" json:"zscore_threshold"`
}

// ExtensionsConfig tunes the extension risk scanner.
type ExtensionsConfig struct {
	ScanInterval Duration `yaml:"scan_interval" json:"scan_interval"`
	RiskDelta    int      `yaml:"risk_delta" json:"risk_delta"`
}

// ServerConfig configures the HTTP API and dashboard.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
	Dashboard  bool   `yaml:"dashboard" json:"dashboard"`
}

// StoreConfig configures persistence. An empty path keeps all state in
// memory.
type StoreConfig struct {
	Path string `yaml:"path" json:"path"`
}

// AuditConfig configures the JSON-lines audit trail. An empty path
// disables it.
type AuditConfig struct {
	Path string `yaml:"path" json:"path"`
}

// Config is the top-level engine configuration.
type Config struct {
	Enabled    bool             `yaml:"enabled" json:"enabled"`
	URL        URLConfig        `yaml:"url" json:"url"`
	Scripts    ScriptConfig     `yaml:"scripts" json:"scripts"`
	Behavior   BehaviorConfig   `yaml:"behavior" json:"behavior"`
	Extensions ExtensionsConfig `yaml:"extensions" json:"extensions"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Store      StoreConfig      `yaml:"store" json:"store"`
	Audit      AuditConfig      `yaml:"audit" json:"audit"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Enabled: true,
		URL: URLConfig{
			Sensitivity:    "medium",
			BlockThreshold: 0.7,
			CacheSize:      1000,
			CacheTTL:       Duration(time.Hour),
		},
		Scripts: ScriptConfig{
			Enabled: true,
			Mode:    "moderate",
		},
		Behavior: BehaviorConfig{
			LearnVisits:     5,
			EMAAlpha:        0.3,
			StdDevFloor:     0.5,
			ZScoreCap:       10,
			ZScoreThreshold: 2.5,
		},
		Extensions: ExtensionsConfig{
			ScanInterval: Duration(6 * time.Hour),
			RiskDelta:    20,
		},
		Server: ServerConfig{
			ListenAddr: "127.0.0.1:8900",
			Dashboard:  true,
		},
	}
}
