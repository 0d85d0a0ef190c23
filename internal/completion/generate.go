package completion

import (
	"fmt"
	"strings"

	"github.com/mcpsh/mcpsh/internal/schema"
)

// Candidate is a single completion suggestion.
type Candidate struct {
	// Insert is the text to splice into the buffer.
	Insert string
	// Display is the label shown in the completion menu. Defaults to
	// Insert when empty.
	Display string
	// ReplaceFrom is the offset, relative to the cursor, where Insert
	// replaces existing text. Zero inserts at the cursor; a negative value
	// replaces that many bytes before it.
	ReplaceFrom int
}

// Label returns the text to display for the candidate.
func (c Candidate) Label() string {
	if c.Display != "" {
		return c.Display
	}
	return c.Insert
}

// Generate produces completion candidates for a classified JSON position.
// sch may be nil, in which case only the structural hints of the position
// are offered. used lists top-level property keys already present in the
// fragment; they are never suggested again.
func Generate(pos Position, sch *schema.Schema, used []string) []Candidate {
	switch pos.Kind {
	case PositionEmpty:
		candidates := []Candidate{
			{Insert: "{"},
			{Insert: "{}"},
		}
		if tmpl, ok := requiredTemplate(sch); ok {
			candidates = append(candidates, tmpl)
		}
		return candidates

	case PositionObjectOpen:
		return propertyCandidates(sch, nil)

	case PositionAfterComma:
		return propertyCandidates(sch, used)

	case PositionPropertyName:
		return suffixCandidates(sch, pos.Partial)

	case PositionNestedObject:
		resolved := resolvePath(sch, pos.Path)
		if resolved == nil || resolved.Kind != schema.KindObject {
			// Never guess at properties the schema does not describe.
			return nil
		}
		return propertyCandidates(resolved, nil)

	case PositionClosingBraces:
		if pos.Missing <= 0 {
			return nil
		}
		return []Candidate{{
			Insert:  strings.Repeat(" }", pos.Missing),
			Display: "close JSON object",
		}}

	default:
		return nil
	}
}

// requiredTemplate builds the composite { "req1": ..., "req2": ... }
// skeleton from up to the first two required properties.
func requiredTemplate(sch *schema.Schema) (Candidate, bool) {
	if sch == nil || len(sch.Required) == 0 {
		return Candidate{}, false
	}

	names := sch.Required
	if len(names) > 2 {
		names = names[:2]
	}

	parts := make([]string, 0, len(names))
	for _, name := range names {
		kind := schema.KindAny
		if child, ok := sch.Property(name); ok {
			kind = child.Kind
		}
		switch kind {
		case schema.KindBoolean:
			parts = append(parts, fmt.Sprintf("%q: true", name))
		default:
			parts = append(parts, fmt.Sprintf("%q: \"\"", name))
		}
	}

	return Candidate{
		Insert:  "{ " + strings.Join(parts, ", ") + " }",
		Display: "template with required fields",
	}, true
}

// propertyCandidates emits a typed key/value template for every property
// not already used, in schema order, followed by the bare quote hint.
func propertyCandidates(sch *schema.Schema, used []string) []Candidate {
	usedSet := make(map[string]bool, len(used))
	for _, name := range used {
		usedSet[name] = true
	}

	var candidates []Candidate
	if sch != nil {
		for _, prop := range sch.Properties {
			if usedSet[prop.Name] {
				continue
			}
			insert, display := propertyTemplate(prop.Name, prop.Schema)
			candidates = append(candidates, Candidate{Insert: insert, Display: display})
		}
	}

	candidates = append(candidates, Candidate{Insert: `"`})
	return candidates
}

// propertyTemplate renders a key/value completion for a property, with a
// value placeholder matching the property's type.
func propertyTemplate(name string, sch *schema.Schema) (insert, display string) {
	kind := schema.KindAny
	description := ""
	if sch != nil {
		kind = sch.Kind
		description = sch.Description
	}

	switch kind {
	case schema.KindString:
		insert = fmt.Sprintf("%q: \"\"", name)
		display = fmt.Sprintf("%q: \"...\"", name)
	case schema.KindBoolean:
		insert = fmt.Sprintf("%q: true", name)
		display = fmt.Sprintf("%q: true/false", name)
	case schema.KindObject:
		insert = fmt.Sprintf("%q: {}", name)
		display = fmt.Sprintf("%q: {}", name)
	default:
		insert = fmt.Sprintf("%q: ", name)
		display = fmt.Sprintf("%q", name)
	}

	if description != "" {
		display += " - " + description
	}
	return insert, display
}

// suffixCandidates completes a partially typed property name: the insert
// is the remaining suffix plus the key/value separator, so typing `"na`
// under a `name` property completes to `me": `.
func suffixCandidates(sch *schema.Schema, partial string) []Candidate {
	if sch == nil {
		return nil
	}

	var candidates []Candidate
	for _, prop := range sch.Properties {
		if !strings.HasPrefix(prop.Name, partial) {
			continue
		}
		candidates = append(candidates, Candidate{
			Insert:  prop.Name[len(partial):] + `": `,
			Display: prop.Name,
		})
	}
	return candidates
}

// resolvePath walks a chain of property names through nested object
// schemas. It returns nil as soon as any step is missing.
func resolvePath(sch *schema.Schema, path []string) *schema.Schema {
	current := sch
	for _, name := range path {
		if current == nil {
			return nil
		}
		child, ok := current.Property(name)
		if !ok {
			return nil
		}
		current = child
	}
	return current
}
