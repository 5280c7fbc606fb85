package rulestore

import (
	"context"
	"fmt"

	"github.com/listinglens/listinglens/internal/ruleset"
)

// FragmentSource is the read interface onto stored rule configuration.
// Implementations return (nil, false, nil) when no fragment exists for the
// given scope/selector pair; that is inheritance, not an error.
type FragmentSource interface {
	Load(ctx context.Context, scope ruleset.Scope, selector string) (*ruleset.Fragment, bool, error)
}

// Collect gathers the candidate fragments for a context in merge order.
// The base scope is always present: when the source has no base fragment
// (or no source is configured at all), the compiled-in default base is used
// so the engine can always score.
func Collect(ctx context.Context, src FragmentSource, rctx ruleset.Context) ([]ruleset.ScopedFragment, error) {
	out := make([]ruleset.ScopedFragment, 0, len(ruleset.ScopeOrder))

	for _, scope := range ruleset.ScopeOrder {
		selector := rctx.Selector(scope)
		if selector == "" {
			continue
		}
		var (
			frag *ruleset.Fragment
			ok   bool
			err  error
		)
		if src != nil {
			frag, ok, err = src.Load(ctx, scope, selector)
			if err != nil {
				return nil, fmt.Errorf("load %s/%s fragment: %w", scope, selector, err)
			}
		}
		if !ok && scope == ruleset.ScopeBase {
			frag = DefaultBaseFragment()
			ok = true
			selector = "builtin"
		}
		if !ok {
			continue
		}
		out = append(out, ruleset.ScopedFragment{
			Scope:    scope,
			SourceID: selector,
			Fragment: frag,
		})
	}
	return out, nil
}

// Resolver adapts a fragment source into the engine's RuleSetProvider.
type Resolver struct {
	src FragmentSource
}

func NewResolver(src FragmentSource) *Resolver {
	return &Resolver{src: src}
}

func (r *Resolver) Resolve(ctx context.Context, rctx ruleset.Context) (*ruleset.RuleSet, error) {
	fragments, err := Collect(ctx, r.src, rctx)
	if err != nil {
		return nil, err
	}
	return ruleset.Resolve(rctx, fragments), nil
}
