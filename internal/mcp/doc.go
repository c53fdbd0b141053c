// Package mcp implements the Model Context Protocol (MCP) server for portfolio search.
//
// The MCP server exposes four tools to AI assistants:
//   - search_content: Ranked keyword search over every portfolio record
//   - suggest_content: Autocomplete suggestions for a partial query
//   - invalidate_cache: Drop cached content so the next query reloads sources
//   - get_status: Index readiness and cache statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// # Basic Usage
//
//	portfolio-search mcp
//
// The server listens on stdin and writes responses to stdout. Logs go to
// stderr.
//
// # Tool: search_content
//
//	Request:
//	{
//	  "name": "search_content",
//	  "arguments": {
//	    "query": "payment",
//	    "type": "writing",
//	    "featured": true,
//	    "limit": 10
//	  }
//	}
//
//	Response:
//	{
//	  "query": "payment",
//	  "count": 1,
//	  "duration_ms": 2,
//	  "results": [
//	    {
//	      "rank": 1,
//	      "relevance": "0.750",
//	      "id": "payments",
//	      "type": "writing",
//	      "title": "Building Scalable Payment Systems",
//	      "url": "https://medium.com/p/payments",
//	      "highlights": {
//	        "title": ["Building Scalable <mark>Payment</mark> Systems"]
//	      }
//	    }
//	  ]
//	}
//
// # Tool: suggest_content
//
//	Request:  {"name": "suggest_content", "arguments": {"query": "pay"}}
//	Response: {"query": "pay", "suggestions": ["Payment Gateway", "payments"]}
//
// # MCP Client Configuration
//
//	{
//	  "mcpServers": {
//	    "portfolio": {
//	      "command": "/usr/local/bin/portfolio-search",
//	      "args": ["mcp"],
//	      "env": {
//	        "PORTFOLIO_CONTENT_DIR": "/srv/portfolio/content"
//	      }
//	    }
//	  }
//	}
//
// # Error Handling
//
// Tool handlers return *MCPError values which the framework encodes as
// JSON-RPC errors.
//
// Error codes:
//   - -32602: Invalid params (missing query, bad type or limit)
//   - -32603: Internal error
//   - -32004: Query failed validation (empty, too short, too long, too many special characters)
//   - -32005: Search unavailable (content could not be loaded)
package mcp
