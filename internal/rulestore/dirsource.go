package rulestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/listinglens/listinglens/internal/ruleset"
)

// DirSource reads fragments from a rules directory:
//
//	<dir>/base.yaml
//	<dir>/vertical/<category>.yaml
//	<dir>/market/<locale>.yaml
//	<dir>/client/<orgID>.yaml
//	<dir>/app/<appID>.yaml
//
// Missing files mean "no fragment at this scope", never an error.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) (*DirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("rules dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("rules dir %s is not a directory", dir)
	}
	return &DirSource{dir: dir}, nil
}

func (s *DirSource) Load(_ context.Context, scope ruleset.Scope, selector string) (*ruleset.Fragment, bool, error) {
	path, err := s.fragmentPath(scope, selector)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read fragment %s: %w", path, err)
	}

	var frag ruleset.Fragment
	if err := yaml.Unmarshal(data, &frag); err != nil {
		return nil, false, fmt.Errorf("parse fragment %s: %w", path, err)
	}
	return &frag, true, nil
}

func (s *DirSource) fragmentPath(scope ruleset.Scope, selector string) (string, error) {
	selector = strings.ToLower(strings.TrimSpace(selector))
	if selector == "" || selector != filepath.Base(selector) || strings.HasPrefix(selector, ".") {
		return "", fmt.Errorf("invalid fragment selector %q", selector)
	}
	if scope == ruleset.ScopeBase {
		return filepath.Join(s.dir, "base.yaml"), nil
	}
	return filepath.Join(s.dir, string(scope), selector+".yaml"), nil
}
