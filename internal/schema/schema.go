// Package schema provides the restricted JSON Schema view that drives
// argument completion. It captures just enough structure to enumerate
// properties and their value shapes; it is not a validator.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
)

// Kind classifies the value shape of a schema node.
type Kind string

const (
	KindString  Kind = "string"
	KindBoolean Kind = "boolean"
	KindNumber  Kind = "number"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	// KindAny is used when the schema does not constrain the value type.
	KindAny Kind = "any"
)

// Schema is an immutable snapshot of a tool's argument schema. Properties
// preserve the order of the source document so completion output is
// deterministic.
type Schema struct {
	Kind        Kind
	Properties  []Property
	Required    []string
	Enum        []string
	Description string
}

// Property is a named child schema of an object schema.
type Property struct {
	Name   string
	Schema *Schema
}

// Property returns the child schema for the given property name.
func (s *Schema) Property(name string) (*Schema, bool) {
	if s == nil {
		return nil, false
	}
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return nil, false
}

// IsRequired reports whether name appears in the schema's required list.
func (s *Schema) IsRequired(name string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

func kindOf(t string) Kind {
	switch t {
	case "string":
		return KindString
	case "boolean":
		return KindBoolean
	case "number", "integer":
		return KindNumber
	case "object":
		return KindObject
	case "array":
		return KindArray
	default:
		return KindAny
	}
}

// Parse decodes a JSON Schema document into the restricted view. It streams
// tokens rather than unmarshalling into a map so that the property order of
// the source document survives.
func Parse(raw []byte) (*Schema, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	sch, err := parseNode(dec)
	if err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	return sch, nil
}

// parseNode consumes one schema value from the decoder. Non-object values
// (booleans like JSON Schema's "true" schema) degrade to an unconstrained
// schema.
func parseNode(dec *json.Decoder) (*Schema, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		if ok && delim == '[' {
			if err := skipRest(dec, 1, 0); err != nil {
				return nil, err
			}
		}
		return &Schema{Kind: KindAny}, nil
	}

	sch := &Schema{Kind: KindAny}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)

		switch key {
		case "type":
			// "type" may be a single name or a list like ["string", "null"]
			var t any
			if err := dec.Decode(&t); err != nil {
				return nil, err
			}
			switch v := t.(type) {
			case string:
				sch.Kind = kindOf(v)
			case []any:
				for _, item := range v {
					if name, ok := item.(string); ok && name != "null" {
						sch.Kind = kindOf(name)
						break
					}
				}
			}
		case "description":
			if err := dec.Decode(&sch.Description); err != nil {
				return nil, err
			}
		case "required":
			if err := dec.Decode(&sch.Required); err != nil {
				return nil, err
			}
		case "enum":
			var values []any
			if err := dec.Decode(&values); err != nil {
				return nil, err
			}
			for _, v := range values {
				sch.Enum = append(sch.Enum, fmt.Sprint(v))
			}
		case "properties":
			props, err := parseProperties(dec)
			if err != nil {
				return nil, err
			}
			sch.Properties = props
		default:
			if err := skipValue(dec); err != nil {
				return nil, err
			}
		}
	}

	// consume the closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return sch, nil
}

func parseProperties(dec *json.Decoder) ([]Property, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("properties is not an object")
	}

	var props []Property
	for dec.More() {
		nameTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := nameTok.(string)

		child, err := parseNode(dec)
		if err != nil {
			return nil, err
		}
		props = append(props, Property{Name: name, Schema: child})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return props, nil
}

// skipValue discards the next value on the decoder, whatever its shape.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); ok {
		switch delim {
		case '{':
			return skipRest(dec, 0, 1)
		case '[':
			return skipRest(dec, 1, 0)
		}
	}
	return nil
}

// skipRest consumes tokens until the given number of open arrays and
// objects have been closed.
func skipRest(dec *json.Decoder, arrays, objects int) error {
	for arrays > 0 || objects > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '{':
				objects++
			case '}':
				objects--
			case '[':
				arrays++
			case ']':
				arrays--
			}
		}
	}
	return nil
}

// FromToolInput converts mcp-go's typed input-schema view. The typed view
// is map-backed, so properties come out in sorted (stable) order rather
// than document order; callers that have the raw schema bytes should
// prefer Parse.
func FromToolInput(in mcp.ToolInputSchema) *Schema {
	sch := &Schema{
		Kind:     kindOf(in.Type),
		Required: in.Required,
	}
	if sch.Kind == KindAny && len(in.Properties) > 0 {
		sch.Kind = KindObject
	}
	names := make([]string, 0, len(in.Properties))
	for name := range in.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sch.Properties = append(sch.Properties, Property{
			Name:   name,
			Schema: fromValue(in.Properties[name]),
		})
	}
	return sch
}

// fromValue converts a loosely typed sub-schema. Anything that is not an
// object degrades to an unconstrained schema.
func fromValue(v any) *Schema {
	node, ok := v.(map[string]any)
	if !ok {
		return &Schema{Kind: KindAny}
	}

	sch := &Schema{Kind: KindAny}
	if t, ok := node["type"].(string); ok {
		sch.Kind = kindOf(t)
	}
	if d, ok := node["description"].(string); ok {
		sch.Description = d
	}
	if req, ok := node["required"].([]any); ok {
		for _, r := range req {
			if name, ok := r.(string); ok {
				sch.Required = append(sch.Required, name)
			}
		}
	}
	if enum, ok := node["enum"].([]any); ok {
		for _, e := range enum {
			sch.Enum = append(sch.Enum, fmt.Sprint(e))
		}
	}
	if props, ok := node["properties"].(map[string]any); ok {
		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sch.Properties = append(sch.Properties, Property{
				Name:   name,
				Schema: fromValue(props[name]),
			})
		}
	}
	return sch
}
