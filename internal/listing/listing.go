package listing

import (
	"fmt"
	"strings"
)

// Element names in fixed priority order. Keywords that already appear in a
// higher-priority element are not counted as "new" in a lower one.
const (
	ElementTitle       = "title"
	ElementSubtitle    = "subtitle"
	ElementDescription = "description"
)

// ElementOrder is the canonical evaluation order, highest priority first.
var ElementOrder = []string{ElementTitle, ElementSubtitle, ElementDescription}

// Metadata is the immutable input of one evaluation.
type Metadata struct {
	AppID       string `json:"appId,omitempty"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"applicationCategory,omitempty"`
	Platform    string `json:"platform,omitempty"`
	Locale      string `json:"locale,omitempty"`
}

// Element returns the text of the named element.
func (m Metadata) Element(name string) string {
	switch name {
	case ElementTitle:
		return m.Title
	case ElementSubtitle:
		return m.Subtitle
	case ElementDescription:
		return m.Description
	}
	return ""
}

// Normalized returns a copy with surrounding whitespace trimmed and the
// platform defaulted. The original value is never mutated.
func (m Metadata) Normalized() Metadata {
	out := m
	out.AppID = strings.TrimSpace(m.AppID)
	out.Title = strings.TrimSpace(m.Title)
	out.Subtitle = strings.TrimSpace(m.Subtitle)
	out.Description = strings.TrimSpace(m.Description)
	out.Category = strings.ToLower(strings.TrimSpace(m.Category))
	out.Locale = strings.ToLower(strings.TrimSpace(m.Locale))
	if strings.TrimSpace(m.Platform) == "" {
		out.Platform = "ios"
	} else {
		out.Platform = strings.ToLower(strings.TrimSpace(m.Platform))
	}
	return out
}

// ValidationError reports structurally invalid metadata. Evaluation fails
// fast on it; there is no partially scored result.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid metadata: %s %s", e.Field, e.Reason)
}

// Validate checks the minimum contract: a non-empty title.
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must be set and non-empty"}
	}
	return nil
}
