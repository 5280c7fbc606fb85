package auth

import (
	"testing"

	"github.com/listinglens/listinglens/internal/config"
)

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{
		Organizations: []config.OrgConfig{
			{ID: "acme", Name: "Acme Corp", APIKeys: []string{"k1", "k2"}},
			{ID: "globex", APIKeys: []string{"k3"}},
		},
	}

	a, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !a.Enabled() {
		t.Fatalf("expected auth enabled with configured keys")
	}

	org, ok := a.Lookup("k2")
	if !ok || org.ID != "acme" || org.Name != "Acme Corp" {
		t.Fatalf("Lookup(k2) = %+v, %v", org, ok)
	}
	if _, ok := a.Lookup("unknown"); ok {
		t.Fatalf("unknown key must not resolve")
	}
}

func TestNewFromConfigRejectsSharedKeys(t *testing.T) {
	cfg := &config.Config{
		Organizations: []config.OrgConfig{
			{ID: "acme", APIKeys: []string{"k1"}},
			{ID: "globex", APIKeys: []string{"k1"}},
		},
	}
	if _, err := NewFromConfig(cfg); err == nil {
		t.Fatalf("expected error for a key shared across orgs")
	}
}

func TestNewFromConfigRejectsEmptyOrgID(t *testing.T) {
	cfg := &config.Config{
		Organizations: []config.OrgConfig{{APIKeys: []string{"k1"}}},
	}
	if _, err := NewFromConfig(cfg); err == nil {
		t.Fatalf("expected error for empty org id")
	}
}

func TestAnonymousWhenNoKeys(t *testing.T) {
	a, err := NewFromConfig(&config.Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if a.Enabled() {
		t.Fatalf("no keys configured must mean anonymous access")
	}
}
