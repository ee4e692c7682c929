package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/anthropics/agentctl/internal/customtool"
)

// CustomToolRegisterTool handles customtool_register (spec.md §4.5
// "Registration").
type CustomToolRegisterTool struct {
	registry     *customtool.Registry
	builtinNames map[string]bool
}

// NewCustomToolRegisterTool creates a CustomToolRegisterTool. builtinNames
// is the set of statically-wired tool names a registration may not
// collide with (spec.md §4.5).
func NewCustomToolRegisterTool(registry *customtool.Registry, builtinNames map[string]bool) *CustomToolRegisterTool {
	return &CustomToolRegisterTool{registry: registry, builtinNames: builtinNames}
}

func (t *CustomToolRegisterTool) Definition() mcp.Tool {
	return mcp.NewTool("customtool_register",
		mcp.WithDescription("Register a custom tool backed by an HTTP endpoint or a local script, invocable afterward via customtool_invoke."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Tool name; must not collide with a built-in or already-registered name")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Tool description")),
		mcp.WithString("endpoint", mcp.Description("HTTP endpoint, optionally with {param} URI-template placeholders. Exactly one of endpoint/script is required")),
		mcp.WithString("script", mcp.Description("Local command line to execute. Exactly one of endpoint/script is required")),
		mcp.WithString("method", mcp.Description("HTTP method for endpoint mode (default POST)")),
		mcp.WithObject("headers", mcp.Description("Extra HTTP headers for endpoint mode")),
		mcp.WithObject("parameters", mcp.Description("Map of parameter name to {type, required, description, default}")),
		mcp.WithNumber("timeoutSeconds", mcp.Description("Execution timeout in seconds (default 30)")),
	)
}

func (t *CustomToolRegisterTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	description := req.GetString("description", "")
	if name == "" || description == "" {
		return validationResult("'name' and 'description' are required")
	}

	cfg := customtool.Config{
		Name:           name,
		Description:    description,
		Endpoint:       req.GetString("endpoint", ""),
		Script:         req.GetString("script", ""),
		Method:         req.GetString("method", ""),
		Headers:        stringMapArg(req, "headers"),
		Parameters:     parametersArg(req, "parameters"),
		TimeoutSeconds: intArg(req, "timeoutSeconds", 0),
	}

	if err := t.registry.Register(cfg, t.builtinNames); err != nil {
		return validationResult(err.Error())
	}
	return jsonResult(map[string]string{"status": "registered", "name": name})
}

// CustomToolInvokeTool handles customtool_invoke (spec.md §4.5
// "Execution").
type CustomToolInvokeTool struct{ registry *customtool.Registry }

func NewCustomToolInvokeTool(registry *customtool.Registry) *CustomToolInvokeTool {
	return &CustomToolInvokeTool{registry: registry}
}

func (t *CustomToolInvokeTool) Definition() mcp.Tool {
	return mcp.NewTool("customtool_invoke",
		mcp.WithDescription("Invoke a registered custom tool by name with a map of parameters."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Registered custom tool name")),
		mcp.WithObject("params", mcp.Description("Parameters passed to the tool")),
	)
}

func (t *CustomToolInvokeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return validationResult("'name' is required")
	}
	cfg, ok := t.registry.Get(name)
	if !ok {
		return jsonResult(map[string]string{"status": "not_found"})
	}
	return jsonResult(customtool.Dispatch(ctx, cfg, objectArg(req, "params")))
}

// CustomToolListTool handles customtool_list (spec.md §4.5 "Listing").
type CustomToolListTool struct{ registry *customtool.Registry }

func NewCustomToolListTool(registry *customtool.Registry) *CustomToolListTool {
	return &CustomToolListTool{registry: registry}
}

func (t *CustomToolListTool) Definition() mcp.Tool {
	return mcp.NewTool("customtool_list",
		mcp.WithDescription("List every registered custom tool with its built parameter schema."),
	)
}

func (t *CustomToolListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configs := t.registry.List()
	out := make([]map[string]any, 0, len(configs))
	for _, cfg := range configs {
		schema, err := customtool.BuildSchema(cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, map[string]any{
			"name":        cfg.Name,
			"description": cfg.Description,
			"parameters":  schema,
		})
	}
	return jsonResult(map[string]any{"tools": out})
}

// stringMapArg reads a JSON object argument as a map[string]string,
// skipping any value that isn't a string.
func stringMapArg(req mcp.CallToolRequest, key string) map[string]string {
	obj := objectArg(req, key)
	if obj == nil {
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// parametersArg decodes customtool_register's "parameters" object into
// the same shape appconfig's YAML loader produces.
func parametersArg(req mcp.CallToolRequest, key string) map[string]customtool.Parameter {
	obj := objectArg(req, key)
	if obj == nil {
		return nil
	}
	out := make(map[string]customtool.Parameter, len(obj))
	for name, raw := range obj {
		spec, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		p := customtool.Parameter{}
		if v, ok := spec["type"].(string); ok {
			p.Type = v
		}
		if v, ok := spec["required"].(bool); ok {
			p.Required = v
		}
		if v, ok := spec["description"].(string); ok {
			p.Description = v
		}
		if v, ok := spec["default"]; ok {
			p.Default = v
		}
		out[name] = p
	}
	return out
}
