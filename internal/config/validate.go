package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the loaded config for required fields and safe values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}

	if cfg.Rules.Dir != "" && cfg.Rules.SQLitePath != "" {
		return errors.New("rules.dir and rules.sqlite_path are mutually exclusive")
	}
	if cfg.Rules.CacheTTLMinutes < 0 {
		return errors.New("rules.cache_ttl_minutes must not be negative")
	}

	if cfg.Audit.TopRecommendations < 0 {
		return errors.New("audit.top_recommendations must not be negative")
	}

	if err := validateTelemetryConfig(cfg.Telemetry); err != nil {
		return err
	}
	if err := validateDiagnosticsConfig(cfg.Diagnostics); err != nil {
		return err
	}
	return validateOrganizations(cfg.Organizations)
}

func validateTelemetryConfig(t TelemetryConfig) error {
	if !t.Enabled {
		return nil
	}
	if strings.TrimSpace(t.Endpoint) == "" {
		return errors.New("telemetry enabled but endpoint is empty")
	}
	if t.Protocol != "" {
		switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
		case "grpc", "http":
		default:
			return fmt.Errorf("telemetry.protocol must be grpc or http, got %q", t.Protocol)
		}
	}
	return nil
}

func validateDiagnosticsConfig(d DiagnosticsConfig) error {
	for i, s := range d.Sinks {
		switch strings.ToLower(strings.TrimSpace(s.Type)) {
		case "file_jsonl":
			if strings.TrimSpace(s.Path) == "" {
				return fmt.Errorf("diagnostics sink %d (file_jsonl) missing path", i)
			}
		case "webhook":
			if strings.TrimSpace(s.URL) == "" {
				return fmt.Errorf("diagnostics sink %d (webhook) missing url", i)
			}
			u, err := url.Parse(s.URL)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("diagnostics sink %d (webhook) has invalid url", i)
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return fmt.Errorf("diagnostics sink %d (webhook) url must be http or https", i)
			}
		default:
			return fmt.Errorf("diagnostics sink %d has unknown type %q", i, s.Type)
		}
	}
	return nil
}

func validateOrganizations(orgs []OrgConfig) error {
	seenKeys := make(map[string]string)
	seenIDs := make(map[string]struct{})
	for _, org := range orgs {
		if strings.TrimSpace(org.ID) == "" {
			return errors.New("organization id must be set")
		}
		if _, dup := seenIDs[org.ID]; dup {
			return fmt.Errorf("organization %q is declared twice", org.ID)
		}
		seenIDs[org.ID] = struct{}{}
		if len(org.APIKeys) == 0 {
			return fmt.Errorf("organization %q must define at least one api_keys entry", org.ID)
		}
		for _, key := range org.APIKeys {
			if strings.TrimSpace(key) == "" {
				continue
			}
			if other, dup := seenKeys[key]; dup {
				return fmt.Errorf("api key %q is assigned to both %q and %q", key, other, org.ID)
			}
			seenKeys[key] = org.ID
		}
	}
	return nil
}
