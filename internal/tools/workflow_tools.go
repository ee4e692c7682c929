package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/anthropics/agentctl/internal/workflow"
)

// WorkflowRunTool handles workflow_run (spec.md §4.7 "Run").
type WorkflowRunTool struct {
	engine *workflow.Engine
}

func NewWorkflowRunTool(engine *workflow.Engine) *WorkflowRunTool {
	return &WorkflowRunTool{engine: engine}
}

func (t *WorkflowRunTool) Definition() mcp.Tool {
	return mcp.NewTool("workflow_run",
		mcp.WithDescription(
			"Run a multi-step sub-agent workflow: sequential (stop on first failure), "+
				"parallel (fan out, admit all), or dag (dependency order). Persists a checkpoint "+
				"as it progresses and can resume a prior run by label.",
		),
		mcp.WithString("pattern", mcp.Required(), mcp.Enum("sequential", "parallel", "dag"), mcp.Description("Execution pattern")),
		mcp.WithArray("steps", mcp.Required(), mcp.Description("List of {name, task, model?, thinking?, dependsOn?, timeoutSeconds?}")),
		mcp.WithBoolean("passContext", mcp.Description("Prefix each step's task with prior steps' results")),
		mcp.WithString("merge", mcp.Description("\"merge\" to key results by step name, otherwise concatenated in step order")),
		mcp.WithString("label", mcp.Description("Checkpoint label; defaults to an unlabeled run")),
		mcp.WithBoolean("resume", mcp.Description("Resume the checkpoint at label if its step sequence matches")),
		mcp.WithString("callerSessionKey", mcp.Required(), mcp.Description("The calling agent's own session key")),
		mcp.WithString("agentID", mcp.Required(), mcp.Description("The calling agent's id, used to resolve default models")),
	)
}

func (t *WorkflowRunTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	callerSessionKey := req.GetString("callerSessionKey", "")
	agentID := req.GetString("agentID", "")
	if callerSessionKey == "" || agentID == "" {
		return validationResult("'callerSessionKey' and 'agentID' are required")
	}

	steps, err := stepsArg(req, "steps")
	if err != nil {
		return validationResult(err.Error())
	}

	wreq := workflow.Request{
		Pattern:     workflow.Pattern(req.GetString("pattern", "")),
		Steps:       steps,
		PassContext: boolArg(req, "passContext", false),
		Merge:       req.GetString("merge", ""),
		Label:       req.GetString("label", ""),
		Resume:      boolArg(req, "resume", false),
	}

	result, err := t.engine.Run(ctx, callerSessionKey, agentID, wreq)
	if workflow.IsForbidden(err) {
		return jsonResult(map[string]string{"status": "forbidden", "error": err.Error()})
	}
	if err != nil {
		return validationResult(err.Error())
	}
	return jsonResult(result)
}

// stepsArg decodes the "steps" argument into []workflow.Step.
func stepsArg(req mcp.CallToolRequest, key string) ([]workflow.Step, error) {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil, errRequired(key)
	}
	steps := make([]workflow.Step, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		step := workflow.Step{}
		if v, ok := obj["name"].(string); ok {
			step.Name = v
		}
		if v, ok := obj["task"].(string); ok {
			step.Task = v
		}
		if v, ok := obj["model"].(string); ok {
			step.Model = v
		}
		if v, ok := obj["thinking"].(string); ok {
			step.Thinking = v
		}
		if v, ok := obj["timeoutSeconds"].(float64); ok {
			step.TimeoutSeconds = int(v)
		}
		if deps, ok := obj["dependsOn"].([]any); ok {
			for _, d := range deps {
				if s, ok := d.(string); ok {
					step.DependsOn = append(step.DependsOn, s)
				}
			}
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func errRequired(key string) error {
	return &requiredFieldError{key: key}
}

type requiredFieldError struct{ key string }

func (e *requiredFieldError) Error() string { return "'" + e.key + "' is required" }

// WorkflowStatusTool handles workflow_status, a read-only introspection
// tool over a workflow's on-disk checkpoint (SPEC_FULL.md; grounded on
// the teacher's sdd_change_status pattern of a status tool alongside
// the mutators).
type WorkflowStatusTool struct{ workspaceRoot string }

func NewWorkflowStatusTool(workspaceRoot string) *WorkflowStatusTool {
	return &WorkflowStatusTool{workspaceRoot: workspaceRoot}
}

func (t *WorkflowStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("workflow_status",
		mcp.WithDescription("Read a workflow's checkpoint by label without resuming or mutating it."),
		mcp.WithString("label", mcp.Required(), mcp.Description("Checkpoint label")),
	)
}

func (t *WorkflowStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label := req.GetString("label", "")
	if label == "" {
		return validationResult("'label' is required")
	}

	ckpt, ok := workflow.ReadCheckpoint(t.workspaceRoot, label)
	if !ok {
		return jsonResult(map[string]string{"status": "not_found"})
	}
	return jsonResult(ckpt)
}
