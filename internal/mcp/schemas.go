package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/portfolio-search/internal/searcher"
	"github.com/dshills/portfolio-search/pkg/types"
)

func recordTypeNames() []string {
	all := types.AllRecordTypes()
	names := make([]string, len(all))
	for i, t := range all {
		names[i] = string(t)
	}
	return names
}

// searchContentTool returns the tool definition for search_content
func searchContentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_content",
		Description: "Search portfolio projects, writing, experience, skills and profile by keyword with typo tolerance",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (2-100 characters)",
					"minLength":   searcher.MinQueryLength,
					"maxLength":   searcher.MaxQueryLength,
				},
				"type": map[string]interface{}{
					"type":        "string",
					"description": "Only return records of this type",
					"enum":        recordTypeNames(),
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Only return records in this category (exact match)",
				},
				"platform": map[string]interface{}{
					"type":        "string",
					"description": "Only return writing published on this platform (e.g., 'Medium')",
				},
				"featured": map[string]interface{}{
					"type":        "boolean",
					"description": "If set, only return records whose featured flag matches",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     DefaultLimit,
					"minimum":     1,
					"maximum":     MaxLimit,
				},
			},
			Required: []string{"query"},
		},
	}
}

// suggestContentTool returns the tool definition for suggest_content
func suggestContentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "suggest_content",
		Description: "Autocomplete suggestions drawn from titles, tags and technologies",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Partial query; fewer than 2 characters returns no suggestions",
				},
			},
			Required: []string{"query"},
		},
	}
}

// invalidateCacheTool returns the tool definition for invalidate_cache
func invalidateCacheTool() mcp.Tool {
	return mcp.Tool{
		Name:        "invalidate_cache",
		Description: "Drop cached content and the search index so the next query reloads every source",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report index readiness, record counts, degraded sources and cache statistics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
