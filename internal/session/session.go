// Package session owns the connection to the MCP server: connecting,
// discovering tools and resources, caching their schemas, and executing
// calls. It publishes an immutable snapshot for the completion engine,
// swapped atomically on every refresh so completion never observes a
// half-updated view.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/mcpsh/mcpsh/internal/completion"
	"github.com/mcpsh/mcpsh/internal/schema"
)

const (
	clientName    = "mcpsh"
	clientVersion = "0.1.0"
)

// state is one immutable discovery result. A new state replaces the old
// one wholesale; nothing mutates a published state.
type state struct {
	snapshot  completion.Snapshot
	tools     map[string]mcp.Tool
	resources map[string]mcp.Resource
}

// Manager wraps the MCP client connection and the discovery cache.
type Manager struct {
	serverURL string
	commands  []string
	logger    *zap.Logger

	client     *mcpclient.Client
	serverName string
	current    atomic.Pointer[state]
}

// NewManager creates a manager for the given server URL. commands is the
// fixed set of shell builtins surfaced through completion alongside the
// discovered names.
func NewManager(serverURL string, commands []string, logger *zap.Logger) *Manager {
	m := &Manager{
		serverURL: serverURL,
		commands:  commands,
		logger:    logger,
	}
	m.current.Store(&state{snapshot: completion.Snapshot{Commands: commands}})
	return m
}

// Connect establishes the streamable HTTP transport, performs the MCP
// initialize handshake, and runs an initial discovery refresh.
func (m *Manager) Connect(ctx context.Context) error {
	client, err := mcpclient.NewStreamableHttpClient(m.serverURL)
	if err != nil {
		return fmt.Errorf("failed to create MCP client: %w", err)
	}

	if err := client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start MCP transport: %w", err)
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    clientName,
		Version: clientVersion,
	}

	initResult, err := client.Initialize(ctx, initRequest)
	if err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to initialize MCP session: %w", err)
	}

	m.client = client
	m.serverName = initResult.ServerInfo.Name
	m.logger.Info(
		"connected to MCP server",
		zap.String("url", m.serverURL),
		zap.String("server", initResult.ServerInfo.Name),
		zap.String("version", initResult.ServerInfo.Version),
	)

	return m.Refresh(ctx)
}

// ServerName returns the name the server reported during the handshake.
func (m *Manager) ServerName() string {
	return m.serverName
}

// Refresh re-discovers tools and resources and atomically publishes a new
// snapshot. A partial failure keeps whatever was discovered; completion
// degrades rather than going dark.
func (m *Manager) Refresh(ctx context.Context) error {
	if m.client == nil {
		return fmt.Errorf("not connected")
	}

	var tools []mcp.Tool
	toolsResult, err := m.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		m.logger.Warn("failed to list tools", zap.Error(err))
	} else {
		tools = toolsResult.Tools
	}

	var resources []mcp.Resource
	resourcesResult, err := m.client.ListResources(ctx, mcp.ListResourcesRequest{})
	if err != nil {
		// Many servers expose no resources at all; this is routine.
		m.logger.Debug("failed to list resources", zap.Error(err))
	} else {
		resources = resourcesResult.Resources
	}

	next := buildState(m.commands, tools, resources, m.logger)
	m.current.Store(next)

	m.logger.Info(
		"discovery refreshed",
		zap.Int("tools", len(tools)),
		zap.Int("resources", len(resources)),
	)
	return nil
}

// buildState parses the discovered descriptors into the strict snapshot
// shapes completion consumes.
func buildState(commands []string, tools []mcp.Tool, resources []mcp.Resource, logger *zap.Logger) *state {
	schemas := make(map[string]*schema.Schema, len(tools))
	toolsByName := make(map[string]mcp.Tool, len(tools))
	for _, tool := range tools {
		toolsByName[tool.Name] = tool

		parsed := parseToolSchema(tool)
		if parsed == nil {
			logger.Warn("tool has no usable input schema", zap.String("tool", tool.Name))
			continue
		}
		schemas[completion.SchemaKey(tool.Name)] = parsed
	}

	resourcesByURI := make(map[string]mcp.Resource, len(resources))
	for _, resource := range resources {
		resourcesByURI[resource.URI] = resource
	}

	return &state{
		snapshot: completion.Snapshot{
			Commands:  commands,
			Tools:     lo.Map(tools, func(t mcp.Tool, _ int) string { return t.Name }),
			Resources: lo.Map(resources, func(r mcp.Resource, _ int) string { return r.URI }),
			Schemas:   schemas,
		},
		tools:     toolsByName,
		resources: resourcesByURI,
	}
}

// parseToolSchema prefers the raw schema bytes, which preserve the
// server's property order, and falls back to the decoded map form. A tool
// that declares no input schema at all yields nil; completion then offers
// only structural hints for it.
func parseToolSchema(tool mcp.Tool) *schema.Schema {
	if len(tool.RawInputSchema) > 0 {
		if parsed, err := schema.Parse(tool.RawInputSchema); err == nil {
			return parsed
		}
	}
	if tool.InputSchema.Type == "" && len(tool.InputSchema.Properties) == 0 {
		return nil
	}
	return schema.FromToolInput(tool.InputSchema)
}

// Snapshot returns the current immutable completion snapshot.
func (m *Manager) Snapshot() completion.Snapshot {
	return m.current.Load().snapshot
}

// Tool returns the full descriptor of a discovered tool.
func (m *Manager) Tool(name string) (mcp.Tool, bool) {
	tool, ok := m.current.Load().tools[name]
	return tool, ok
}

// Resource returns the full descriptor of a discovered resource.
func (m *Manager) Resource(uri string) (mcp.Resource, bool) {
	resource, ok := m.current.Load().resources[uri]
	return resource, ok
}

// CallTool invokes a tool and flattens its content blocks into displayable
// text. isError reflects the server's in-band error flag, which is distinct
// from a transport failure.
func (m *Manager) CallTool(ctx context.Context, name string, args map[string]any) (text string, isError bool, err error) {
	if m.client == nil {
		return "", false, fmt.Errorf("not connected")
	}

	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args

	result, err := m.client.CallTool(ctx, request)
	if err != nil {
		return "", false, fmt.Errorf("tool call %q failed: %w", name, err)
	}

	return renderContent(result.Content), result.IsError, nil
}

// ReadResource fetches a resource and flattens its text contents.
func (m *Manager) ReadResource(ctx context.Context, uri string) (string, error) {
	if m.client == nil {
		return "", fmt.Errorf("not connected")
	}

	request := mcp.ReadResourceRequest{}
	request.Params.URI = uri

	result, err := m.client.ReadResource(ctx, request)
	if err != nil {
		return "", fmt.Errorf("resource read %q failed: %w", uri, err)
	}

	parts := make([]string, 0, len(result.Contents))
	for _, contents := range result.Contents {
		switch c := contents.(type) {
		case mcp.TextResourceContents:
			parts = append(parts, c.Text)
		case mcp.BlobResourceContents:
			parts = append(parts, fmt.Sprintf("<binary %s, %d bytes base64>", c.MIMEType, len(c.Blob)))
		}
	}
	return strings.Join(parts, "\n"), nil
}

// renderContent flattens tool result content blocks into one text blob.
// Non-text blocks are summarized rather than dropped silently.
func renderContent(blocks []mcp.Content) string {
	parts := make([]string, 0, len(blocks))
	for _, block := range blocks {
		switch c := block.(type) {
		case mcp.TextContent:
			parts = append(parts, c.Text)
		case mcp.ImageContent:
			parts = append(parts, fmt.Sprintf("<image %s>", c.MIMEType))
		default:
			parts = append(parts, fmt.Sprintf("<%T>", block))
		}
	}
	return strings.Join(parts, "\n")
}

// Close shuts down the transport. Safe to call when never connected.
func (m *Manager) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Close()
}
