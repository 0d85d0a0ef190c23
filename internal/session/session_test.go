package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mcpsh/mcpsh/internal/completion"
	"github.com/mcpsh/mcpsh/internal/schema"
)

var testCommands = []string{"help", "tools", "call", "read", "exit"}

func TestBuildState(t *testing.T) {
	tools := []mcp.Tool{
		{
			Name:        "example:greetingJson",
			Description: "Greet someone with structured output",
			RawInputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"name": {"type": "string"},
					"include_details": {"type": "boolean"}
				},
				"required": ["name"]
			}`),
		},
		{
			Name: "example:add",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"a": map[string]any{"type": "number"},
					"b": map[string]any{"type": "number"},
				},
				Required: []string{"a", "b"},
			},
		},
	}
	resources := []mcp.Resource{
		{URI: "greeting://default", Name: "Default greeting"},
	}

	st := buildState(testCommands, tools, resources, zap.NewNop())

	t.Run("snapshot name lists", func(t *testing.T) {
		assert.Equal(t, testCommands, st.snapshot.Commands)
		assert.Equal(t, []string{"example:greetingJson", "example:add"}, st.snapshot.Tools)
		assert.Equal(t, []string{"greeting://default"}, st.snapshot.Resources)
	})

	t.Run("raw schema preserves property order", func(t *testing.T) {
		sch := st.snapshot.Schema("example:greetingJson")
		require.NotNil(t, sch)
		assert.Equal(t, schema.KindObject, sch.Kind)
		require.Len(t, sch.Properties, 2)
		assert.Equal(t, "name", sch.Properties[0].Name)
		assert.Equal(t, "include_details", sch.Properties[1].Name)
		assert.True(t, sch.IsRequired("name"))
	})

	t.Run("decoded schema fallback", func(t *testing.T) {
		sch := st.snapshot.Schema("example:add")
		require.NotNil(t, sch)
		require.Len(t, sch.Properties, 2)
		assert.Equal(t, schema.KindNumber, sch.Properties[0].Schema.Kind)
	})

	t.Run("tool and resource descriptors kept", func(t *testing.T) {
		tool, ok := st.tools["example:greetingJson"]
		require.True(t, ok)
		assert.Equal(t, "Greet someone with structured output", tool.Description)

		resource, ok := st.resources["greeting://default"]
		require.True(t, ok)
		assert.Equal(t, "Default greeting", resource.Name)
	})
}

func TestBuildStateMalformedRawSchema(t *testing.T) {
	tools := []mcp.Tool{
		{
			Name:           "broken",
			RawInputSchema: json.RawMessage(`{"type": "object",`),
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"x": map[string]any{"type": "string"},
				},
			},
		},
	}

	st := buildState(testCommands, tools, nil, zap.NewNop())

	sch := st.snapshot.Schema("broken")
	require.NotNil(t, sch, "malformed raw schema must fall back to the decoded form")
	require.Len(t, sch.Properties, 1)
	assert.Equal(t, "x", sch.Properties[0].Name)
}

func TestBuildStateToolWithoutSchema(t *testing.T) {
	tools := []mcp.Tool{
		{Name: "example:noArgs"},
	}

	st := buildState(testCommands, tools, nil, zap.NewNop())

	assert.Equal(t, []string{"example:noArgs"}, st.snapshot.Tools)
	assert.Nil(t, st.snapshot.Schema("example:noArgs"), "a tool declaring no input schema must not get an empty one")
}

func TestManagerSnapshotBeforeConnect(t *testing.T) {
	m := NewManager("http://localhost:8001/mcp", testCommands, zap.NewNop())

	snap := m.Snapshot()
	assert.Equal(t, testCommands, snap.Commands)
	assert.Empty(t, snap.Tools)
	assert.Empty(t, snap.Resources)

	_, ok := m.Tool("anything")
	assert.False(t, ok)
}

func TestManagerNotConnected(t *testing.T) {
	m := NewManager("http://localhost:8001/mcp", testCommands, zap.NewNop())

	ctx := context.Background()

	_, _, err := m.CallTool(ctx, "example:add", nil)
	assert.Error(t, err)

	_, err = m.ReadResource(ctx, "greeting://default")
	assert.Error(t, err)

	assert.Error(t, m.Refresh(ctx))
	assert.NoError(t, m.Close())
}

func TestRenderContent(t *testing.T) {
	text := renderContent([]mcp.Content{
		mcp.TextContent{Type: "text", Text: "hello"},
		mcp.TextContent{Type: "text", Text: "world"},
	})
	assert.Equal(t, "hello\nworld", text)

	assert.Equal(t, "", renderContent(nil))
}

// Provider wiring: the completion engine reads whatever the manager last
// published, with no copying in between.
func TestManagerFeedsProvider(t *testing.T) {
	m := NewManager("http://localhost:8001/mcp", testCommands, zap.NewNop())
	m.current.Store(buildState(testCommands, []mcp.Tool{
		{
			Name: "example:greetingJson",
			RawInputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {"name": {"type": "string"}}
			}`),
		},
	}, nil, zap.NewNop()))

	provider := &completion.Provider{Snapshot: m.Snapshot}
	line := "call example:greetingJson {"
	candidates := provider.Complete(line, len(line))

	require.NotEmpty(t, candidates)
	assert.Equal(t, `"name": ""`, candidates[0].Insert)
}
