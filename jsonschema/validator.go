// Package jsonschema checks raw digests against a JSON Schema derived from
// the configured sections.
package jsonschema

import (
	"fmt"

	"github.com/iguv/weekly"
	"github.com/xeipuuv/gojsonschema"
)

// Ensure Validator implements weekly.DigestValidator at compile time.
var _ weekly.DigestValidator = (*Validator)(nil)

// Validator reports where a digest departs from the requested shape.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles the digest schema for sections.
func NewValidator(sections []weekly.SectionSpec, limits weekly.Limits) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(Schema(sections, limits)))
	if err != nil {
		return nil, weekly.Errorf(weekly.EINTERNAL, "compile digest schema: %v", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate returns one message per violation. A document that cannot be
// parsed yields a single message.
func (v *Validator) Validate(doc string) []string {
	result, err := v.schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return []string{fmt.Sprintf("(root): %v", err)}
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		msgs = append(msgs, field+": "+desc.Description())
	}
	return msgs
}

// Schema returns the JSON Schema of a digest for sections.
func Schema(sections []weekly.SectionSpec, limits weekly.Limits) map[string]any {
	maxBriefing := limits.MaxBriefing
	if maxBriefing <= 0 {
		maxBriefing = weekly.DefaultMaxBriefing
	}
	maxItems := limits.MaxItems
	if maxItems <= 0 || maxItems > weekly.MaxItemsCeiling {
		maxItems = weekly.MaxItemsCeiling
	}

	names := make([]any, 0, len(sections))
	for _, s := range sections {
		names = append(names, s.Name)
	}

	str := map[string]any{"type": "string"}

	item := map[string]any{
		"type":     "object",
		"required": []any{"title", "url"},
		"properties": map[string]any{
			"title":    str,
			"url":      str,
			"issuer":   str,
			"summary":  str,
			"date_iso": map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		},
	}

	section := map[string]any{
		"type":     "object",
		"required": []any{"name", "items"},
		"properties": map[string]any{
			"name":  map[string]any{"type": "string", "enum": names},
			"items": map[string]any{"type": "array", "maxItems": maxItems, "items": item},
		},
	}

	briefing := map[string]any{
		"anyOf": []any{
			str,
			map[string]any{
				"type":       "object",
				"properties": map[string]any{"title": str, "url": str},
			},
		},
	}

	return map[string]any{
		"type":     "object",
		"required": []any{"briefing", "sections"},
		"properties": map[string]any{
			"briefing": map[string]any{"type": "array", "maxItems": maxBriefing, "items": briefing},
			"sections": map[string]any{"type": "array", "items": section},
		},
	}
}
