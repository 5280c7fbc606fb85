package rulestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/listinglens/listinglens/internal/ruleset"
)

const schema = `
CREATE TABLE IF NOT EXISTS rule_fragments (
	scope      TEXT NOT NULL,
	selector   TEXT NOT NULL,
	fragment   TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (scope, selector)
);`

// SQLiteSource reads fragments from a rule_fragments table. Each row stores
// one fragment as a YAML document keyed by (scope, selector).
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed initializes) a fragment database.
func OpenSQLite(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open rules db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init rules schema: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func (s *SQLiteSource) Load(ctx context.Context, scope ruleset.Scope, selector string) (*ruleset.Fragment, bool, error) {
	selector = strings.ToLower(strings.TrimSpace(selector))

	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT fragment FROM rule_fragments WHERE scope = ? AND selector = ?`,
		string(scope), selector,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query fragment %s/%s: %w", scope, selector, err)
	}

	var frag ruleset.Fragment
	if err := yaml.Unmarshal([]byte(body), &frag); err != nil {
		return nil, false, fmt.Errorf("parse fragment %s/%s: %w", scope, selector, err)
	}
	return &frag, true, nil
}

// Put stores or replaces a fragment row. Used by seeding tools and tests;
// the engine itself only reads.
func (s *SQLiteSource) Put(ctx context.Context, scope ruleset.Scope, selector string, frag *ruleset.Fragment) error {
	body, err := yaml.Marshal(frag)
	if err != nil {
		return fmt.Errorf("encode fragment: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rule_fragments (scope, selector, fragment, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(scope, selector) DO UPDATE SET fragment = excluded.fragment, updated_at = excluded.updated_at`,
		string(scope), strings.ToLower(strings.TrimSpace(selector)), string(body),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("store fragment %s/%s: %w", scope, selector, err)
	}
	return nil
}
