package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpsh/mcpsh/internal/schema"
)

func greetingSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.Parse([]byte(`{
		"type": "object",
		"properties": {
			"name": {"type": "string", "description": "who to greet"},
			"include_details": {"type": "boolean"},
			"preferences": {
				"type": "object",
				"properties": {
					"language": {"type": "string"},
					"formal": {"type": "boolean"}
				}
			}
		},
		"required": ["name", "include_details"]
	}`))
	require.NoError(t, err)
	return sch
}

func inserts(candidates []Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Insert
	}
	return out
}

func TestGenerateEmpty(t *testing.T) {
	t.Run("without schema only structural hints", func(t *testing.T) {
		got := Generate(Position{Kind: PositionEmpty}, nil, nil)
		assert.Equal(t, []string{"{", "{}"}, inserts(got))
	})

	t.Run("with required fields adds a template", func(t *testing.T) {
		got := Generate(Position{Kind: PositionEmpty}, greetingSchema(t), nil)
		require.Len(t, got, 3)
		assert.Equal(t, "{", got[0].Insert)
		assert.Equal(t, "{}", got[1].Insert)
		assert.Equal(t, `{ "name": "", "include_details": true }`, got[2].Insert)
		assert.Equal(t, "template with required fields", got[2].Display)
	})

	t.Run("template caps at two required fields", func(t *testing.T) {
		sch, err := schema.Parse([]byte(`{
			"type": "object",
			"properties": {
				"a": {"type": "string"},
				"b": {"type": "string"},
				"c": {"type": "string"}
			},
			"required": ["a", "b", "c"]
		}`))
		require.NoError(t, err)

		got := Generate(Position{Kind: PositionEmpty}, sch, nil)
		require.Len(t, got, 3)
		assert.Equal(t, `{ "a": "", "b": "" }`, got[2].Insert)
	})
}

func TestGenerateObjectOpen(t *testing.T) {
	t.Run("typed templates in schema order plus bare quote", func(t *testing.T) {
		got := Generate(Position{Kind: PositionObjectOpen}, greetingSchema(t), nil)
		assert.Equal(t, []string{
			`"name": ""`,
			`"include_details": true`,
			`"preferences": {}`,
			`"`,
		}, inserts(got))
	})

	t.Run("description lands in the display label", func(t *testing.T) {
		got := Generate(Position{Kind: PositionObjectOpen}, greetingSchema(t), nil)
		require.NotEmpty(t, got)
		assert.Equal(t, `"name": "..." - who to greet`, got[0].Display)
	})

	t.Run("nil schema still offers the bare quote", func(t *testing.T) {
		got := Generate(Position{Kind: PositionObjectOpen}, nil, nil)
		assert.Equal(t, []string{`"`}, inserts(got))
	})
}

func TestGenerateAfterComma(t *testing.T) {
	got := Generate(Position{Kind: PositionAfterComma}, greetingSchema(t), []string{"name"})

	assert.Equal(t, []string{
		`"include_details": true`,
		`"preferences": {}`,
		`"`,
	}, inserts(got))
	assert.NotContains(t, inserts(got), `"name": ""`)
}

func TestGeneratePropertyName(t *testing.T) {
	t.Run("completes the remaining suffix with separator", func(t *testing.T) {
		got := Generate(Position{Kind: PositionPropertyName, Partial: "na"}, greetingSchema(t), nil)
		require.Len(t, got, 1)
		assert.Equal(t, `me": `, got[0].Insert)
		assert.Equal(t, "name", got[0].Display)
	})

	t.Run("empty partial matches every property", func(t *testing.T) {
		got := Generate(Position{Kind: PositionPropertyName}, greetingSchema(t), nil)
		assert.Equal(t, []string{`name": `, `include_details": `, `preferences": `}, inserts(got))
	})

	t.Run("prefix overlap offers both suffixes", func(t *testing.T) {
		sch, err := schema.Parse([]byte(`{
			"type": "object",
			"properties": {
				"name": {"type": "string"},
				"namespace": {"type": "string"}
			}
		}`))
		require.NoError(t, err)

		got := Generate(Position{Kind: PositionPropertyName, Partial: "name"}, sch, nil)
		assert.Equal(t, []string{`": `, `space": `}, inserts(got))
	})

	t.Run("suffixes rebuild full property names", func(t *testing.T) {
		sch := greetingSchema(t)
		for _, partial := range []string{"", "n", "na", "include_", "preferences"} {
			got := Generate(Position{Kind: PositionPropertyName, Partial: partial}, sch, nil)
			seen := map[string]bool{}
			for _, c := range got {
				full := partial + c.Insert[:len(c.Insert)-len(`": `)]
				_, ok := sch.Property(full)
				assert.True(t, ok, "suffix must rebuild a real property, got %q", full)
				assert.False(t, seen[full], "duplicate completion for %q", full)
				seen[full] = true
			}
		}
	})
}

func TestGenerateNestedObject(t *testing.T) {
	t.Run("resolves path to nested property set", func(t *testing.T) {
		pos := Position{Kind: PositionNestedObject, Path: []string{"preferences"}}
		got := Generate(pos, greetingSchema(t), nil)
		assert.Equal(t, []string{
			`"language": ""`,
			`"formal": true`,
			`"`,
		}, inserts(got))
	})

	t.Run("unresolvable path yields nothing", func(t *testing.T) {
		pos := Position{Kind: PositionNestedObject, Path: []string{"no_such"}}
		assert.Empty(t, Generate(pos, greetingSchema(t), nil))
	})

	t.Run("path to non object yields nothing", func(t *testing.T) {
		pos := Position{Kind: PositionNestedObject, Path: []string{"name"}}
		assert.Empty(t, Generate(pos, greetingSchema(t), nil))
	})
}

func TestGenerateClosingBraces(t *testing.T) {
	for _, missing := range []int{1, 2, 3} {
		got := Generate(Position{Kind: PositionClosingBraces, Missing: missing}, greetingSchema(t), nil)
		require.Len(t, got, 1)
		assert.Equal(t, len(" }")*missing, len(got[0].Insert))
		assert.Equal(t, "close JSON object", got[0].Display)
	}

	t.Run("two deep", func(t *testing.T) {
		got := Generate(Position{Kind: PositionClosingBraces, Missing: 2}, nil, nil)
		require.Len(t, got, 1)
		assert.Equal(t, " } }", got[0].Insert)
	})
}

func TestGenerateUnstructured(t *testing.T) {
	assert.Empty(t, Generate(Position{Kind: PositionUnstructured}, greetingSchema(t), nil))
}
