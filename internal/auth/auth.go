package auth

import (
	"fmt"

	"github.com/listinglens/listinglens/internal/config"
)

// Organization is the runtime representation of a client org. Its ID is the
// client-scope selector during ruleset resolution.
type Organization struct {
	ID   string
	Name string
}

// Auth holds mappings from API keys to organizations.
type Auth struct {
	apiKeyToOrg map[string]Organization
}

// NewFromConfig builds an Auth instance from the loaded config.
func NewFromConfig(cfg *config.Config) (*Auth, error) {
	m := make(map[string]Organization)

	for _, org := range cfg.Organizations {
		if org.ID == "" {
			return nil, fmt.Errorf("organization with empty id in config")
		}
		o := Organization{ID: org.ID, Name: org.Name}
		for _, key := range org.APIKeys {
			if key == "" {
				continue
			}
			if _, exists := m[key]; exists {
				return nil, fmt.Errorf("api key %q is assigned to multiple organizations", key)
			}
			m[key] = o
		}
	}

	return &Auth{apiKeyToOrg: m}, nil
}

// Enabled reports whether any API keys are configured. With none, requests
// are anonymous and the client scope is skipped.
func (a *Auth) Enabled() bool {
	return a != nil && len(a.apiKeyToOrg) > 0
}

// Lookup returns the organization for a given API key, if any.
func (a *Auth) Lookup(apiKey string) (Organization, bool) {
	if a == nil {
		return Organization{}, false
	}
	o, ok := a.apiKeyToOrg[apiKey]
	return o, ok
}
