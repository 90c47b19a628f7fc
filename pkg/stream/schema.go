package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NamedProperty is one entry of an ordered property set.
type NamedProperty struct {
	Name     string
	Property Property
}

// Schema is an ordered collection of column definitions for one stream.
// Property order is the order of appearance in the schema document; target
// tables are created with columns in this order.
type Schema struct {
	Properties []NamedProperty
}

// Property returns the definition for the given source property name.
func (s *Schema) Property(name string) (Property, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Property, true
		}
	}
	return Property{}, false
}

// UnmarshalJSON decodes a JSON-schema-like object, preserving the document
// order of the "properties" keys. encoding/json map decoding would lose the
// order, so the properties object is walked token by token.
func (s *Schema) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode schema: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("schema must be a JSON object, got %v", tok)
	}

	s.Properties = nil
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode schema: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("decode schema: unexpected token %v", keyTok)
		}

		if key != "properties" {
			// "type", "required" and friends are not used here.
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return fmt.Errorf("decode schema field %q: %w", key, err)
			}
			continue
		}

		props, err := decodeOrderedProperties(dec)
		if err != nil {
			return err
		}
		s.Properties = props
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode schema: %w", err)
	}
	return nil
}

func decodeOrderedProperties(dec *json.Decoder) ([]NamedProperty, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode schema properties: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("schema properties must be a JSON object, got %v", tok)
	}

	var props []NamedProperty
	for dec.More() {
		nameTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode schema properties: %w", err)
		}
		name, ok := nameTok.(string)
		if !ok {
			return nil, fmt.Errorf("decode schema properties: unexpected token %v", nameTok)
		}

		var prop Property
		if err := dec.Decode(&prop); err != nil {
			return nil, fmt.Errorf("decode schema property %q: %w", name, err)
		}
		props = append(props, NamedProperty{Name: name, Property: prop})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode schema properties: %w", err)
	}
	return props, nil
}
