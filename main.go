package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/listinglens/listinglens/internal/audit"
	"github.com/listinglens/listinglens/internal/listing"
	"github.com/listinglens/listinglens/internal/ruleset"
	"github.com/listinglens/listinglens/internal/rulestore"
)

// Reads listing metadata JSON on stdin, scores it against the built-in base
// rules and writes the audit result to stdout. The full service lives in
// cmd/listinglens.
func main() {
	var md listing.Metadata
	if err := json.NewDecoder(os.Stdin).Decode(&md); err != nil {
		log.Fatalf("parse metadata: %v", err)
	}

	rs := ruleset.Resolve(ruleset.Context{}, []ruleset.ScopedFragment{{
		Scope:    ruleset.ScopeBase,
		SourceID: "builtin",
		Fragment: rulestore.DefaultBaseFragment(),
	}})

	res, err := audit.EvaluateWithRuleSet(md, rs, 0)
	if err != nil {
		log.Fatalf("audit: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Fatalf("write result: %v", err)
	}
}
