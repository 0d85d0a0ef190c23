package core

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/muesli/reflow/wordwrap"

	"github.com/mcpsh/mcpsh/internal/schema"
	"github.com/mcpsh/mcpsh/internal/styles"
)

const descriptionWidth = 72

func renderHelp() string {
	var b strings.Builder
	b.WriteString(styles.HEADING("Commands") + "\n")

	rows := [][2]string{
		{"help", "show this help"},
		{"list", "list tools and resources"},
		{"tools", "list available tools"},
		{"resources", "list available resources"},
		{"tool-details <tool>", "show a tool's description and argument schema"},
		{"call <tool> [{json}]", "invoke a tool with JSON arguments"},
		{"read <resource-uri>", "read a resource"},
		{"exit, quit", "leave the shell"},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "  %-24s %s\n", row[0], styles.MUTED(row[1]))
	}

	b.WriteString("\n" + styles.MUTED("Press Tab to complete commands, tool names, and JSON arguments.") + "\n")
	return b.String()
}

func renderToolList(tools []mcp.Tool) string {
	var b strings.Builder
	b.WriteString(styles.HEADING(fmt.Sprintf("Tools (%d)", len(tools))) + "\n")

	if len(tools) == 0 {
		b.WriteString(styles.MUTED("  none discovered") + "\n")
		return b.String()
	}

	for _, tool := range tools {
		b.WriteString("  " + styles.ToolName(tool.Name) + "\n")
		if tool.Description != "" {
			b.WriteString(indent(wordwrap.String(tool.Description, descriptionWidth), "    ") + "\n")
		}
	}
	return b.String()
}

func renderResourceList(resources []mcp.Resource) string {
	var b strings.Builder
	b.WriteString(styles.HEADING(fmt.Sprintf("Resources (%d)", len(resources))) + "\n")

	if len(resources) == 0 {
		b.WriteString(styles.MUTED("  none discovered") + "\n")
		return b.String()
	}

	for _, resource := range resources {
		b.WriteString("  " + styles.ResourceName(resource.URI))
		if resource.Name != "" {
			b.WriteString(" " + styles.MUTED("("+resource.Name+")"))
		}
		b.WriteString("\n")
		if resource.Description != "" {
			b.WriteString(indent(wordwrap.String(resource.Description, descriptionWidth), "    ") + "\n")
		}
	}
	return b.String()
}

func renderToolDetails(tool mcp.Tool, sch *schema.Schema) string {
	var b strings.Builder
	b.WriteString(styles.HEADING(tool.Name) + "\n")

	if tool.Description != "" {
		b.WriteString(indent(wordwrap.String(tool.Description, descriptionWidth), "  ") + "\n")
	}

	if sch == nil || len(sch.Properties) == 0 {
		b.WriteString(styles.MUTED("  no arguments") + "\n")
		return b.String()
	}

	b.WriteString("\n" + styles.HEADING("Arguments") + "\n")
	writeSchemaProperties(&b, sch, "  ")
	return b.String()
}

// writeSchemaProperties renders a schema's property list, recursing into
// nested objects with deeper indentation.
func writeSchemaProperties(b *strings.Builder, sch *schema.Schema, indentation string) {
	for _, prop := range sch.Properties {
		line := indentation + prop.Name + " " + styles.MUTED("("+string(kindOrAny(prop.Schema))+")")
		if sch.IsRequired(prop.Name) {
			line += " " + styles.NOTICE("(required)")
		}
		b.WriteString(line + "\n")

		if prop.Schema == nil {
			continue
		}
		if prop.Schema.Description != "" {
			b.WriteString(indent(wordwrap.String(prop.Schema.Description, descriptionWidth), indentation+"  ") + "\n")
		}
		if len(prop.Schema.Enum) > 0 {
			b.WriteString(indentation + "  " + styles.MUTED("one of: "+strings.Join(prop.Schema.Enum, ", ")) + "\n")
		}
		if prop.Schema.Kind == schema.KindObject && len(prop.Schema.Properties) > 0 {
			writeSchemaProperties(b, prop.Schema, indentation+"  ")
		}
	}
}

func kindOrAny(sch *schema.Schema) schema.Kind {
	if sch == nil {
		return schema.KindAny
	}
	return sch.Kind
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
