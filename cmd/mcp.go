package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"nixdex/internal/query"
	"nixdex/internal/store"
)

const defaultToolLimit = 10

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing package search tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	engine, r, err := openEngine()
	if err != nil {
		return err
	}
	defer r.Close()

	return mcpserver.ServeStdio(newMCPServer(engine, r))
}

func newMCPServer(engine *query.Engine, idx store.Index) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("nixdex", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(searchPackagesTool(), makeSearchHandler(engine))
	s.AddTool(getPackageTool(), makeGetPackageHandler(engine))
	s.AddTool(indexInfoTool(), makeIndexInfoHandler(idx))
	return s
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func searchPackagesTool() mcp.Tool {
	return mcp.NewTool("search_packages",
		mcp.WithDescription("Fuzzy search nixpkgs package names. Results are ranked best first; an exact name match always ranks first."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Package name or fragment of one"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of packages to return (default 10)"),
		),
		mcp.WithBoolean("filter_built",
			mcp.Description("Only return packages whose store path already exists locally"),
		),
	)
}

func getPackageTool() mcp.Tool {
	return mcp.NewTool("get_package",
		mcp.WithDescription("Get full metadata for a package by its exact attribute path, e.g. 'python3Packages.requests'."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("attribute",
			mcp.Required(),
			mcp.Description("Exact attribute path"),
		),
	)
}

func indexInfoTool() mcp.Tool {
	return mcp.NewTool("index_info",
		mcp.WithDescription("Describe the package index: when it was built, from which source, and how many packages it holds."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

// --- Handler factories ---

func makeSearchHandler(engine *query.Engine) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q := req.GetString("query", "")
		if q == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		limit := req.GetInt("limit", defaultToolLimit)
		if limit <= 0 {
			limit = defaultToolLimit
		}

		pkgs, err := engine.Fuzzy(q, query.Options{
			Limit:         limit,
			FilterPresent: req.GetBool("filter_built", false),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatSearchResults(q, pkgs)), nil
	}
}

func makeGetPackageHandler(engine *query.Engine) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		attr := req.GetString("attribute", "")
		if attr == "" {
			return mcp.NewToolResultError("attribute is required"), nil
		}

		p, err := engine.Exact(attr)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
		}
		if p == nil {
			return mcp.NewToolResultError(fmt.Sprintf("package %q not found in index; call search_packages to find attribute paths", attr)), nil
		}
		return mcp.NewToolResultText(formatPackage(*p)), nil
	}
}

func makeIndexInfoHandler(idx store.Index) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		n, err := idx.Count()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("count failed: %v", err)), nil
		}

		var sb strings.Builder
		sb.WriteString("## Package index\n\n")
		fmt.Fprintf(&sb, "**Packages:** %d\n", n)
		recorded, err := store.MetaInt(idx, store.MetaPackageCount)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("read %s failed: %v", store.MetaPackageCount, err)), nil
		}
		if recorded > 0 {
			fmt.Fprintf(&sb, "**%s:** %d\n", store.MetaPackageCount, recorded)
		} else {
			fmt.Fprintf(&sb, "**%s:** (unknown)\n", store.MetaPackageCount)
		}
		for _, key := range []string{store.MetaBuiltAt, store.MetaSource, store.MetaSchemaVersion} {
			v, err := idx.Meta(key)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("read %s failed: %v", key, err)), nil
			}
			if v == "" {
				v = "(unknown)"
			}
			fmt.Fprintf(&sb, "**%s:** %s\n", key, v)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- Formatting helpers ---

func formatSearchResults(q string, pkgs []store.Package) string {
	if len(pkgs) == 0 {
		return fmt.Sprintf("No packages found for query: %q", q)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Packages matching %q (%d)\n\n", q, len(pkgs))
	for _, p := range pkgs {
		fmt.Fprintf(&sb, "- **%s**", p.Attribute)
		if p.Version != nil {
			fmt.Fprintf(&sb, " %s", *p.Version)
		}
		if p.Present != nil && *p.Present {
			sb.WriteString(" (built)")
		}
		if p.Description != nil {
			fmt.Fprintf(&sb, ": %s", *p.Description)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatPackage(p store.Package) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", p.Attribute)

	field := func(label string, v *string) {
		if v != nil && *v != "" {
			fmt.Fprintf(&sb, "**%s:** %s  \n", label, *v)
		}
	}
	field("Name", p.Name)
	field("Version", p.Version)
	field("Store path", p.StorePath)
	field("Homepage", p.Homepage)
	field("Description", p.Description)

	if p.LongDescription != nil && *p.LongDescription != "" {
		fmt.Fprintf(&sb, "\n%s\n", strings.TrimSpace(*p.LongDescription))
	}
	return sb.String()
}
