package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/portfolio-search/internal/searcher"
	"github.com/dshills/portfolio-search/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams     = -32602 // Invalid method parameters
	ErrorCodeInternalError     = -32603 // Internal JSON-RPC error
	ErrorCodeInvalidQuery      = -32004 // Query failed validation
	ErrorCodeSearchUnavailable = -32005 // Content could not be loaded
)

// Result limits for search_content
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Highlight markers used in tool responses
const (
	markOpen  = "<mark>"
	markClose = "</mark>"
)

// handleSearchContent handles the search_content tool invocation
func (s *Server) handleSearchContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if args == nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "query parameter is required", map[string]interface{}{
			"param":  "query",
			"reason": "missing or not a string",
		})
	}

	opts := searcher.Options{Limit: request.GetInt("limit", DefaultLimit)}
	if opts.Limit < 1 || opts.Limit > MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": opts.Limit,
		})
	}

	if v := request.GetString("type", ""); v != "" {
		t, err := types.ParseRecordType(v)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid type", map[string]interface{}{
				"param":   "type",
				"value":   v,
				"allowed": recordTypeNames(),
			})
		}
		opts.Type = t
	}
	opts.Category = strings.TrimSpace(request.GetString("category", ""))
	opts.Platform = strings.TrimSpace(request.GetString("platform", ""))
	if v, ok := args["featured"].(bool); ok {
		opts.Featured = &v
	}

	start := time.Now()
	results, err := s.search.Search(ctx, query, opts)
	if err != nil {
		return nil, searchError(err, query)
	}

	response := map[string]interface{}{
		"query":       query,
		"count":       len(results),
		"duration_ms": time.Since(start).Milliseconds(),
		"results":     formatResults(results),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSuggestContent handles the suggest_content tool invocation
func (s *Server) handleSuggestContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "query parameter is required", map[string]interface{}{
			"param":  "query",
			"reason": err.Error(),
		})
	}

	suggestions, err := s.search.Suggest(ctx, query)
	if err != nil {
		return nil, searchError(err, query)
	}

	response := map[string]interface{}{
		"query":       query,
		"suggestions": suggestions,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleInvalidateCache handles the invalidate_cache tool invocation
func (s *Server) handleInvalidateCache(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.search.Invalidate()
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"invalidated": true})), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := s.search.Status()

	response := map[string]interface{}{
		"ready": status.Ready,
		"stale": status.Stale,
		"statistics": map[string]interface{}{
			"records": status.Records,
			"dropped": status.Dropped,
		},
		"cache": map[string]interface{}{
			"hits":        status.Cache.Hits,
			"misses":      status.Cache.Misses,
			"loads":       status.Cache.Loads,
			"load_errors": status.Cache.LoadErrors,
			"fallbacks":   status.Cache.Fallbacks,
			"entries":     status.Cache.Entries,
		},
	}
	if status.Ready {
		response["built_at"] = status.BuiltAt.Format(time.RFC3339)
	} else {
		response["message"] = "Index not built yet. It is built on the first search."
	}
	if len(status.Degraded) > 0 {
		response["degraded_sources"] = status.Degraded
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// searchError maps a searcher error onto an MCP error
func searchError(err error, query string) error {
	var verr *types.ValidationError
	switch {
	case errors.As(err, &verr):
		return newMCPError(ErrorCodeInvalidQuery, verr.Reason, map[string]interface{}{
			"param": "query",
			"value": query,
		})
	case errors.Is(err, types.ErrSearchUnavailable):
		return newMCPError(ErrorCodeSearchUnavailable, "search unavailable", map[string]interface{}{
			"error": err.Error(),
		})
	default:
		return newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// formatResults flattens results for display, rendering highlights inline
func formatResults(results []types.SearchResult) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		item := map[string]interface{}{
			"rank":      r.Rank,
			"relevance": fmt.Sprintf("%.3f", r.Relevance),
			"id":        r.Record.ID,
			"type":      r.Record.Type,
			"title":     r.Record.Title,
		}
		if r.Record.URL != "" {
			item["url"] = r.Record.URL
		}
		if r.Record.Category != "" {
			item["category"] = r.Record.Category
		}
		if len(r.Highlights) > 0 {
			hl := make(map[string][]string, len(r.Highlights))
			for field, values := range r.Highlights {
				for _, segs := range values {
					hl[string(field)] = append(hl[string(field)], types.RenderSegments(segs, markOpen, markClose))
				}
			}
			item["highlights"] = hl
		}
		out = append(out, item)
	}
	return out
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}
