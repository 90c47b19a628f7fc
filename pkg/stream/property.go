package stream

import (
	"encoding/json"
	"fmt"
)

// Property is one column definition from a JSON-schema-like stream schema.
// The type tag may be a single name, a list of alternative names (nullable
// unions), or absent with alternatives carried in AnyOf.
type Property struct {
	Types     []string
	Format    string
	MaxLength *int
	AnyOf     []Property
}

// UnmarshalJSON accepts "type" as either a string or a list of strings.
func (p *Property) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type      json.RawMessage `json:"type"`
		Format    string          `json:"format"`
		MaxLength *int            `json:"maxLength"`
		AnyOf     []Property      `json:"anyOf"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode schema property: %w", err)
	}

	p.Format = raw.Format
	p.MaxLength = raw.MaxLength
	p.AnyOf = raw.AnyOf
	p.Types = nil

	if len(raw.Type) > 0 {
		var single string
		if err := json.Unmarshal(raw.Type, &single); err == nil {
			p.Types = []string{single}
		} else {
			var list []string
			if err := json.Unmarshal(raw.Type, &list); err != nil {
				return fmt.Errorf("schema property type must be a string or list of strings: %s", raw.Type)
			}
			p.Types = list
		}
	}

	return nil
}

// HasType reports whether the property supports any of the given type names,
// recursing into anyOf alternatives.
func (p Property) HasType(names ...string) bool {
	for _, t := range p.Types {
		for _, n := range names {
			if t == n {
				return true
			}
		}
	}
	for _, alt := range p.AnyOf {
		if alt.HasType(names...) {
			return true
		}
	}
	return false
}

// DateLikeFormat returns the first recognized date-like format declared on
// the property or any of its anyOf alternatives, or "" if none.
func (p Property) DateLikeFormat() string {
	switch p.Format {
	case "date-time", "time", "date":
		return p.Format
	}
	for _, alt := range p.AnyOf {
		if f := alt.DateLikeFormat(); f != "" {
			return f
		}
	}
	return ""
}
