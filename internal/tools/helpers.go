// Package tools wires every core component into MCP tool definitions,
// one tool per state-machine action — the same granularity the
// teacher uses for sdd_change/sdd_change_advance/sdd_change_status
// (internal/tools/change.go and friends), applied here to the queue,
// board, knowledge, custom-tool, session-template, and workflow
// components (spec.md §4, SPEC_FULL.md "Ambient Stack").
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// intArg extracts an integer argument, defaulting when the key is
// missing or not a JSON number (JSON numbers decode as float64) —
// ground truth: internal/memtools/helpers.go's intArg.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// floatArg is intArg without truncation, for values spec.md allows as
// fractional (olderThanHours).
func floatArg(req mcp.CallToolRequest, key string, defaultVal float64) float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return v
}

// boolArg extracts a boolean argument, defaulting when absent —
// ground truth: internal/memtools/helpers.go's boolArg.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// stringSliceArg reads a JSON array of strings, skipping any element
// that isn't a string.
func stringSliceArg(req mcp.CallToolRequest, key string) []string {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// objectArg reads a JSON object argument as a plain map, or nil when
// absent or of another shape.
func objectArg(req mcp.CallToolRequest, key string) map[string]any {
	v, ok := req.GetArguments()[key].(map[string]any)
	if !ok {
		return nil
	}
	return v
}

// anyArg returns the raw decoded argument value, untyped — used for
// spec.md's opaque payloads (task/knowledge data) that cross the
// component boundary verbatim (spec.md §9).
func anyArg(req mcp.CallToolRequest, key string) any {
	return req.GetArguments()[key]
}

// jsonResult encodes v as the tool's single JSON-encoded text content,
// the `{content: [{text: <JSON-encoded result>}]}` envelope spec.md
// §6 requires of every component. Domain-level outcomes (not_found,
// forbidden, validation, ...) are encoded here rather than raised as
// an mcp.NewToolResultError, matching spec.md §7's propagation policy
// that errors never cross the component boundary as exceptions.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// validationResult is the shape a missing/malformed parameter encodes
// to, per spec.md §7's `validation` taxonomy entry.
func validationResult(message string) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]string{"status": "validation", "error": message})
}
