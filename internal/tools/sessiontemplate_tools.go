package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/anthropics/agentctl/internal/sessiontemplate"
)

// SessionTemplateListTool handles sessiontemplate_list (spec.md §4.6
// "list").
type SessionTemplateListTool struct{ applicator *sessiontemplate.Applicator }

func NewSessionTemplateListTool(applicator *sessiontemplate.Applicator) *SessionTemplateListTool {
	return &SessionTemplateListTool{applicator: applicator}
}

func (t *SessionTemplateListTool) Definition() mcp.Tool {
	return mcp.NewTool("sessiontemplate_list",
		mcp.WithDescription("List the configured session templates."),
	)
}

func (t *SessionTemplateListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"templates": t.applicator.List()})
}

// SessionTemplateApplyTool handles sessiontemplate_apply (spec.md
// §4.6 "apply").
type SessionTemplateApplyTool struct{ applicator *sessiontemplate.Applicator }

func NewSessionTemplateApplyTool(applicator *sessiontemplate.Applicator) *SessionTemplateApplyTool {
	return &SessionTemplateApplyTool{applicator: applicator}
}

func (t *SessionTemplateApplyTool) Definition() mcp.Tool {
	return mcp.NewTool("sessiontemplate_apply",
		mcp.WithDescription("Apply a named session template's model and thinking level to a session, defaulting to the caller's own session."),
		mcp.WithString("template", mcp.Required(), mcp.Description("Template name")),
		mcp.WithString("sessionKey", mcp.Description("Target session key (default: the caller's own session)")),
		mcp.WithString("callerSessionKey", mcp.Required(), mcp.Description("The calling agent's own session key")),
	)
}

func (t *SessionTemplateApplyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	template := req.GetString("template", "")
	callerSessionKey := req.GetString("callerSessionKey", "")
	if template == "" || callerSessionKey == "" {
		return validationResult("'template' and 'callerSessionKey' are required")
	}

	result, err := t.applicator.Apply(ctx, template, req.GetString("sessionKey", ""), callerSessionKey)
	if err != nil {
		return validationResult(err.Error())
	}
	return jsonResult(result)
}
