package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds ListingLens configuration.
type Config struct {
	Server        ServerConfig      `yaml:"server"`
	Rules         RulesConfig       `yaml:"rules"`
	Audit         AuditConfig       `yaml:"audit"`
	Logging       LoggingConfig     `yaml:"logging"`
	Telemetry     TelemetryConfig   `yaml:"telemetry"`
	Diagnostics   DiagnosticsConfig `yaml:"diagnostics"`
	Organizations []OrgConfig       `yaml:"organizations"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"` // HTTP listen address, e.g. ":8080"
}

// RulesConfig selects the fragment store. Dir and SQLitePath are mutually
// exclusive; with neither set the engine runs on the compiled-in base rules.
type RulesConfig struct {
	Dir             string `yaml:"dir"`
	SQLitePath      string `yaml:"sqlite_path"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes"`
}

type AuditConfig struct {
	TopRecommendations int `yaml:"top_recommendations"`
}

type LoggingConfig struct {
	Mode string `yaml:"mode"` // dev | prod
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol"` // grpc | http
}

// DiagnosticsConfig wires audit event sinks.
type DiagnosticsConfig struct {
	Sinks []SinkConfig `yaml:"sinks"`
}

type SinkConfig struct {
	Type    string            `yaml:"type"` // file_jsonl | webhook
	Path    string            `yaml:"path,omitempty"`
	URL     string            `yaml:"url,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// OrgConfig binds API keys to a client organization. The org id selects the
// client scope during ruleset resolution.
type OrgConfig struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name,omitempty"`
	APIKeys []string `yaml:"api_keys"`
}

// Load reads configuration from a YAML file.
// If the file doesn't exist, it returns a default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Rules: RulesConfig{
			CacheTTLMinutes: 10,
		},
		Audit: AuditConfig{
			TopRecommendations: 5,
		},
		Logging: LoggingConfig{Mode: "dev"},
	}
}
